package model

import (
	"fmt"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Snapshot is the current market picture of one security.
// A nil field means the provider did not report it; it is never coerced to zero.
type Snapshot struct {
	Ticker        string
	CompanyName   string
	Currency      string
	CurrentPrice  *float64
	PreviousClose *float64
	Open          *float64
	DayHigh       *float64
	DayLow        *float64
	Volume        *int64
	MarketCap     *float64
	High52w       *float64
	Low52w        *float64
	CapturedAt    time.Time
}

// Validate checks the range invariants of the snapshot.
func (s *Snapshot) Validate() error {
	if s.Ticker == "" {
		return fmt.Errorf("snapshot: empty ticker")
	}
	if s.DayHigh != nil && s.DayLow != nil && *s.DayHigh < *s.DayLow {
		return fmt.Errorf("snapshot %s: day high %.4f below day low %.4f", s.Ticker, *s.DayHigh, *s.DayLow)
	}
	if s.High52w != nil && s.Low52w != nil && *s.High52w < *s.Low52w {
		return fmt.Errorf("snapshot %s: 52-week high %.4f below 52-week low %.4f", s.Ticker, *s.High52w, *s.Low52w)
	}
	return nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }
