package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"StockAssistant/internal/collector"
	"StockAssistant/internal/config"
	"StockAssistant/internal/recorder"
	"StockAssistant/internal/resolver"
)

type tickerCompleter struct{}

func (tickerCompleter) Name() string { return "fixed" }

func (tickerCompleter) Complete(context.Context, resolver.Completion) (string, error) {
	return "AAPL", nil
}

type quoteProvider struct{}

func (quoteProvider) Name() string { return "static" }

func (quoteProvider) FetchInfo(context.Context, string) (collector.Info, error) {
	return collector.Info{"longName": "Apple Inc.", "regularMarketPrice": 150.0}, nil
}

func TestAssemblePipeline_OneStageFieldPerLogLine(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	p := assemblePipeline(cfg, tickerCompleter{}, quoteProvider{}, recorder.NewNoopRecorder(), zap.New(core))

	p.Run(context.Background(), 1, "apple")

	require.NotZero(t, logs.Len())
	seen := map[string]bool{}
	for _, entry := range logs.All() {
		stages := 0
		var stage string
		for _, f := range entry.Context {
			if f.Key == "stage" {
				stages++
				stage = f.String
			}
		}
		assert.Equal(t, 1, stages, "log %q has %d stage fields", entry.Message, stages)
		seen[stage] = true
	}
	assert.True(t, seen["resolver"])
	assert.True(t, seen["fetcher"])
	assert.True(t, seen["pipeline"])
}
