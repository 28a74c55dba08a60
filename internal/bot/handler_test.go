package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"StockAssistant/internal/notifier"
	"StockAssistant/internal/pipeline"
)

type stubRunner struct {
	out   pipeline.Outcome
	calls []string
}

func (s *stubRunner) Run(_ context.Context, _ int64, query string) pipeline.Outcome {
	s.calls = append(s.calls, query)
	return s.out
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		out       pipeline.Outcome
		wantReply string
		wantMode  string
		wantRun   bool
	}{
		{"start", "/start", pipeline.Outcome{}, notifier.WelcomeText, notifier.ParseModeNone, false},
		{"help with bot name", "/help@stock_bot", pipeline.Outcome{}, notifier.HelpText, notifier.ParseModeMarkdown, false},
		{"non-text update is ignored", "", pipeline.Outcome{}, "", notifier.ParseModeNone, false},
		{"blank text is ignored", "   ", pipeline.Outcome{}, "", notifier.ParseModeNone, false},
		{"answered", "apple", pipeline.Outcome{Kind: pipeline.Answered, Reply: "*Apple*"}, "*Apple*", notifier.ParseModeMarkdown, true},
		{"no symbol", "hello", pipeline.Outcome{Kind: pipeline.NoSymbol, Reply: notifier.NoSymbolReply}, notifier.NoSymbolReply, notifier.ParseModeNone, true},
		{"unknown command is ignored", "/settings", pipeline.Outcome{Kind: pipeline.NotFound, Reply: "nf"}, "", notifier.ParseModeNone, false},
		{"not found", "zzzz", pipeline.Outcome{Kind: pipeline.NotFound, Reply: "nf"}, "nf", notifier.ParseModeNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &stubRunner{out: tt.out}
			reply, mode := NewHandler(r, nil).Handle(context.Background(), notifier.Message{ChatID: 1, Text: tt.text})
			assert.Equal(t, tt.wantReply, reply)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantRun, len(r.calls) == 1)
		})
	}
}
