package collector

import (
	"context"
	"encoding/json"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
)

// FinanceGoProvider implements Provider on top of piquette/finance-go, which
// queries Yahoo's quote endpoint and also reports market capitalization.
type FinanceGoProvider struct {
	get func(symbol string) (*finance.Equity, error)
}

var _ Provider = (*FinanceGoProvider)(nil)

// NewFinanceGoProvider creates a provider backed by finance-go's equity API.
func NewFinanceGoProvider() *FinanceGoProvider {
	return &FinanceGoProvider{get: equity.Get}
}

func (p *FinanceGoProvider) Name() string { return "financego" }

// FetchInfo fetches the equity quote of symbol. finance-go has no context
// support, so the call is abandoned, not aborted, when ctx ends.
func (p *FinanceGoProvider) FetchInfo(ctx context.Context, symbol string) (Info, error) {
	type result struct {
		eq  *finance.Equity
		err error
	}
	ch := make(chan result, 1)
	go func() {
		eq, err := p.get(symbol)
		ch <- result{eq, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.err != nil {
		return nil, fmt.Errorf("financego quote %s: %w", symbol, res.err)
	}
	if res.eq == nil {
		return nil, fmt.Errorf("financego %s: %w", symbol, ErrUnknownSymbol)
	}
	return equityInfo(res.eq)
}

// equityInfo flattens the equity into its Yahoo JSON shape. The struct
// cannot tell an unreported number from zero, so zero numbers are dropped.
func equityInfo(eq *finance.Equity) (Info, error) {
	raw, err := json.Marshal(eq)
	if err != nil {
		return nil, fmt.Errorf("financego encode: %w", err)
	}
	info := Info{}
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("financego decode: %w", err)
	}
	for k, v := range info {
		if f, ok := v.(float64); ok && f == 0 {
			delete(info, k)
		}
		if s, ok := v.(string); ok && s == "" {
			delete(info, k)
		}
	}
	return info, nil
}
