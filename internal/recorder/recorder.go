package recorder

import "time"

// QueryRecord is one processed chat message.
type QueryRecord struct {
	RequestID string
	ChatID    int64
	Query     string
	Ticker    string
	Outcome   string // "NO_SYMBOL", "NOT_FOUND" or "ANSWERED"
	Duration  time.Duration
	At        time.Time // zero means now
}

// Stats summarizes the query log over a window.
type Stats struct {
	Total      int
	ByOutcome  map[string]int
	TopTickers []TickerCount
}

// TickerCount is how often a ticker was answered.
type TickerCount struct {
	Ticker string
	Count  int
}

// Recorder persists the query log for analysis.
type Recorder interface {
	RecordQuery(rec *QueryRecord) error
	Prune(before time.Time) (int64, error)
	Stats(since time.Time) (*Stats, error)
	Close() error
}
