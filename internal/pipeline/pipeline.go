// Package pipeline sequences ticker resolution, market data lookup and reply
// formatting for one chat message.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"StockAssistant/internal/collector"
	"StockAssistant/internal/model"
	"StockAssistant/internal/notifier"
	"StockAssistant/internal/recorder"
	"StockAssistant/internal/resolver"
)

// Kind is the terminal state of one pipeline run.
type Kind string

const (
	NoSymbol Kind = "NO_SYMBOL"
	NotFound Kind = "NOT_FOUND"
	Answered Kind = "ANSWERED"
)

// Resolver is the symbol-resolution stage.
type Resolver interface {
	Resolve(ctx context.Context, query string) resolver.Resolution
}

// Fetcher is the market-data stage.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) collector.Lookup
}

// Formatter renders a snapshot at the given generation time.
type Formatter func(snap *model.Snapshot, now time.Time) string

// Outcome is the result of one run.
type Outcome struct {
	RequestID string
	Kind      Kind
	Ticker    string
	Reply     string
}

// Pipeline runs the three stages in order and always produces a reply.
type Pipeline struct {
	resolver Resolver
	fetcher  Fetcher
	format   Formatter
	recorder recorder.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRecorder appends every outcome to rec.
func WithRecorder(rec recorder.Recorder) Option {
	return func(p *Pipeline) { p.recorder = rec }
}

// WithClock replaces time.Now for reply timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithFormatter replaces notifier.FormatSnapshot.
func WithFormatter(f Formatter) Option {
	return func(p *Pipeline) { p.format = f }
}

// New creates a Pipeline. A nil logger disables logging.
func New(r Resolver, f Fetcher, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		resolver: r,
		fetcher:  f,
		format:   notifier.FormatSnapshot,
		recorder: recorder.NewNoopRecorder(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes one chat message. chatID is only used for logging and the
// query log.
func (p *Pipeline) Run(ctx context.Context, chatID int64, query string) Outcome {
	start := time.Now()
	out := Outcome{RequestID: uuid.NewString()}
	log := p.logger.With(zap.String("request_id", out.RequestID), zap.Int64("chat_id", chatID))

	res := p.resolver.Resolve(ctx, query)
	if !res.Found {
		out.Kind = NoSymbol
		out.Reply = notifier.NoSymbolReply
		p.finish(log, chatID, query, out, start)
		return out
	}
	out.Ticker = res.Ticker

	lookup := p.fetcher.Fetch(ctx, res.Ticker)
	if !lookup.Found() {
		out.Kind = NotFound
		out.Reply = notifier.NotFoundReply(res.Ticker)
		p.finish(log, chatID, query, out, start)
		return out
	}

	out.Kind = Answered
	out.Reply = p.format(lookup.Snapshot, p.now())
	p.finish(log, chatID, query, out, start)
	return out
}

func (p *Pipeline) finish(log *zap.Logger, chatID int64, query string, out Outcome, start time.Time) {
	elapsed := time.Since(start)
	log.Info("query processed",
		zap.String("outcome", string(out.Kind)),
		zap.String("ticker", out.Ticker),
		zap.Duration("elapsed", elapsed))

	if err := p.recorder.RecordQuery(&recorder.QueryRecord{
		RequestID: out.RequestID,
		ChatID:    chatID,
		Query:     query,
		Ticker:    out.Ticker,
		Outcome:   string(out.Kind),
		Duration:  elapsed,
	}); err != nil {
		log.Error("record query", zap.Error(err))
	}
}
