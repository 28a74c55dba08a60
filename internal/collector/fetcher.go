package collector

import (
	"context"
	"errors"
)

//go:generate mockgen -package=collector -destination=mock_provider_test.go -source=fetcher.go Provider

var (
	// ErrUnknownSymbol means the provider confirmed there is no such instrument.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrEmptyInfo means the provider answered without any usable fields.
	ErrEmptyInfo = errors.New("empty info")
)

// Info is the raw quote blob of one instrument, keyed by Yahoo field names
// such as "regularMarketPrice" or "fiftyTwoWeekHigh".
type Info map[string]any

// Provider defines the interface for fetching the current quote of a symbol.
type Provider interface {
	FetchInfo(ctx context.Context, symbol string) (Info, error)
	Name() string
}
