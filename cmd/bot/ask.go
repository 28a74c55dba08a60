package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// askCmd runs a single query without the chat transport
var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Answer one stock question and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	a, err := buildApp(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	out := a.pipeline.Run(cmd.Context(), 0, strings.Join(args, " "))
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out.Reply)
	return err
}
