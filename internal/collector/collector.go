package collector

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"StockAssistant/internal/model"
	"StockAssistant/internal/retry"
)

// Lookup is the outcome of fetching one ticker: a snapshot, or not found.
type Lookup struct {
	Snapshot *model.Snapshot
}

// Found reports whether the lookup produced a snapshot.
func (l Lookup) Found() bool { return l.Snapshot != nil }

// NotFound is the lookup for tickers the provider could not serve.
var NotFound = Lookup{}

// Collector fetches market snapshots through a Provider.
type Collector struct {
	provider Provider
	policy   retry.Policy
	logger   *zap.Logger
	now      func() time.Time
}

// NewCollector creates a new Collector. A nil logger disables logging.
func NewCollector(provider Provider, policy retry.Policy, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		provider: provider,
		policy:   policy,
		logger:   logger.With(zap.String("stage", "fetcher"), zap.String("provider", provider.Name())),
		now:      time.Now,
	}
}

// Fetch returns the current snapshot of ticker. It never fails: transient
// errors are retried per policy, then reported as NotFound; an unknown
// symbol is NotFound immediately.
func (c *Collector) Fetch(ctx context.Context, ticker string) Lookup {
	log := c.logger.With(zap.String("ticker", ticker))

	info, err := retry.Do(ctx, c.policy, func(ctx context.Context) (Info, error) {
		info, err := c.provider.FetchInfo(ctx, ticker)
		if errors.Is(err, ErrUnknownSymbol) {
			return nil, retry.Permanent(err)
		}
		if err != nil {
			return nil, err
		}
		if !info.hasQuoteFields() {
			return nil, ErrEmptyInfo
		}
		return info, nil
	}, func(attempt int, err error) {
		log.Warn("fetch failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.policy.Attempts()),
			zap.Error(err))
	})
	if errors.Is(err, ErrUnknownSymbol) {
		log.Info("provider reports unknown symbol")
		return NotFound
	}
	if err != nil {
		log.Error("fetch stock data failed", zap.Error(err))
		return NotFound
	}

	snap := MapInfo(ticker, info, c.now())
	if err := snap.Validate(); err != nil {
		log.Warn("dropping inconsistent ranges", zap.Error(err))
		dropInvertedRanges(snap)
	}
	log.Info("fetched stock data")
	return Lookup{Snapshot: snap}
}

// MapInfo converts a provider blob into a snapshot, preferring the primary key
// of each field and falling back to its regular-market variant.
func MapInfo(ticker string, info Info, capturedAt time.Time) *model.Snapshot {
	snap := &model.Snapshot{
		Ticker:        ticker,
		CompanyName:   info.text(ticker, "longName", "shortName"),
		Currency:      info.text("USD", "currency"),
		CurrentPrice:  info.float("currentPrice", "regularMarketPrice"),
		PreviousClose: info.float("previousClose", "regularMarketPreviousClose", "chartPreviousClose"),
		Open:          info.float("open", "regularMarketOpen"),
		DayHigh:       info.float("dayHigh", "regularMarketDayHigh"),
		DayLow:        info.float("dayLow", "regularMarketDayLow"),
		MarketCap:     info.float("marketCap"),
		High52w:       info.float("fiftyTwoWeekHigh"),
		Low52w:        info.float("fiftyTwoWeekLow"),
		CapturedAt:    capturedAt,
	}
	if v := info.float("volume", "regularMarketVolume"); v != nil {
		vol := int64(math.Round(*v))
		snap.Volume = &vol
	}
	return snap
}

func dropInvertedRanges(s *model.Snapshot) {
	if s.DayHigh != nil && s.DayLow != nil && *s.DayHigh < *s.DayLow {
		s.DayHigh, s.DayLow = nil, nil
	}
	if s.High52w != nil && s.Low52w != nil && *s.High52w < *s.Low52w {
		s.High52w, s.Low52w = nil, nil
	}
}

// quoteKeys are the numeric keys MapInfo reads.
var quoteKeys = []string{
	"currentPrice", "regularMarketPrice",
	"previousClose", "regularMarketPreviousClose", "chartPreviousClose",
	"open", "regularMarketOpen",
	"dayHigh", "regularMarketDayHigh", "dayLow", "regularMarketDayLow",
	"volume", "regularMarketVolume",
	"marketCap", "fiftyTwoWeekHigh", "fiftyTwoWeekLow",
}

// hasQuoteFields reports whether at least one mapped numeric field is present.
// Blobs carrying only names or unrelated keys count as empty.
func (i Info) hasQuoteFields() bool {
	return i.float(quoteKeys...) != nil
}

func (i Info) float(keys ...string) *float64 {
	for _, k := range keys {
		if v, ok := toFloat(i[k]); ok {
			return &v
		}
	}
	return nil
}

func (i Info) text(fallback string, keys ...string) string {
	for _, k := range keys {
		if s, ok := i[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fallback
}

// toFloat accepts plain numbers and Yahoo's {"raw": n, "fmt": "..."} wrappers.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case map[string]any:
		return toFloat(n["raw"])
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
