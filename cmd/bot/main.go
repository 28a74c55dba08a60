package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the stockbot entrypoint
var rootCmd = &cobra.Command{
	Use:   "stockbot",
	Short: "Answer natural-language stock questions",
	Long: `stockbot resolves the company or ticker named in a chat message with a
language model, fetches a market snapshot and replies with a formatted summary.

Available subcommands:
  serve - Run the Telegram bot, housekeeping jobs and optional HTTP API
  ask   - Run one query and print the reply`,
	SilenceUsage: true,
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
