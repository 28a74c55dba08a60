// Package bot maps chat messages to replies.
package bot

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"StockAssistant/internal/notifier"
	"StockAssistant/internal/pipeline"
)

// Runner runs one query through the pipeline.
type Runner interface {
	Run(ctx context.Context, chatID int64, query string) pipeline.Outcome
}

// Handler answers /start and /help, sends plain text to the pipeline and
// ignores everything else.
type Handler struct {
	runner Runner
	logger *zap.Logger
}

func NewHandler(runner Runner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runner: runner, logger: logger}
}

// Handle returns the reply text and its parse mode. An empty reply means the
// message is ignored.
func (h *Handler) Handle(ctx context.Context, msg notifier.Message) (reply, parseMode string) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return "", notifier.ParseModeNone
	}

	switch cmd := command(text); cmd {
	case "":
	case "/start":
		return notifier.WelcomeText, notifier.ParseModeNone
	case "/help":
		return notifier.HelpText, notifier.ParseModeMarkdown
	default:
		h.logger.Debug("ignoring unknown command", zap.String("command", cmd))
		return "", notifier.ParseModeNone
	}

	out := h.runner.Run(ctx, msg.ChatID, text)
	if out.Kind == pipeline.Answered {
		return out.Reply, notifier.ParseModeMarkdown
	}
	return out.Reply, notifier.ParseModeNone
}

// command strips the optional @botname suffix from a leading slash command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}
