package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"StockAssistant/internal/retry"
)

var errTransient = errors.New("429 too many requests")

func fetchPolicy() retry.Policy {
	return retry.Policy{Retries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
}

func newMockProvider(t *testing.T) *MockProvider {
	t.Helper()
	ctrl := gomock.NewController(t)
	p := NewMockProvider(ctrl)
	p.EXPECT().Name().Return("mock").AnyTimes()
	return p
}

func appleInfo() Info {
	return Info{
		"longName":           "Apple Inc.",
		"currency":           "USD",
		"regularMarketPrice": 150.0,
		"previousClose":      148.0,
	}
}

func TestFetch_SucceedsOnFourthAttempt(t *testing.T) {
	t.Parallel()

	p := newMockProvider(t)
	gomock.InOrder(
		p.EXPECT().FetchInfo(gomock.Any(), "AAPL").Return(nil, errTransient).Times(3),
		p.EXPECT().FetchInfo(gomock.Any(), "AAPL").Return(appleInfo(), nil).Times(1),
	)

	got := NewCollector(p, fetchPolicy(), nil).Fetch(context.Background(), "AAPL")
	require.True(t, got.Found())
	assert.Equal(t, "Apple Inc.", got.Snapshot.CompanyName)
	require.NotNil(t, got.Snapshot.CurrentPrice)
	assert.Equal(t, 150.0, *got.Snapshot.CurrentPrice)
}

func TestFetch_FourFailuresIsNotFound(t *testing.T) {
	t.Parallel()

	p := newMockProvider(t)
	p.EXPECT().FetchInfo(gomock.Any(), "AAPL").Return(nil, errTransient).Times(4)

	got := NewCollector(p, fetchPolicy(), nil).Fetch(context.Background(), "AAPL")
	assert.False(t, got.Found())
	assert.Equal(t, NotFound, got)
}

func TestFetch_UnknownSymbolShortCircuits(t *testing.T) {
	t.Parallel()

	p := newMockProvider(t)
	p.EXPECT().FetchInfo(gomock.Any(), "ZZZZ").
		Return(nil, fmt.Errorf("yahoo ZZZZ: %w", ErrUnknownSymbol)).
		Times(1)

	got := NewCollector(p, fetchPolicy(), nil).Fetch(context.Background(), "ZZZZ")
	assert.False(t, got.Found())
}

func TestFetch_EmptyInfoIsRetried(t *testing.T) {
	t.Parallel()

	p := newMockProvider(t)
	gomock.InOrder(
		p.EXPECT().FetchInfo(gomock.Any(), "MSFT").Return(Info{}, nil).Times(1),
		p.EXPECT().FetchInfo(gomock.Any(), "MSFT").Return(Info{"regularMarketPrice": 410.5}, nil).Times(1),
	)

	got := NewCollector(p, fetchPolicy(), nil).Fetch(context.Background(), "MSFT")
	require.True(t, got.Found())
	assert.Equal(t, "MSFT", got.Snapshot.CompanyName)
	assert.Equal(t, "USD", got.Snapshot.Currency)
}

func TestFetch_BlobWithoutQuoteFieldsIsRetried(t *testing.T) {
	t.Parallel()

	p := newMockProvider(t)
	p.EXPECT().FetchInfo(gomock.Any(), "NOPE").
		Return(Info{"trailingPegRatio": nil, "shortName": "Nope"}, nil).
		Times(4)

	got := NewCollector(p, fetchPolicy(), nil).Fetch(context.Background(), "NOPE")
	assert.False(t, got.Found())
}

func TestFetch_InvertedRangesDropped(t *testing.T) {
	t.Parallel()

	p := newMockProvider(t)
	p.EXPECT().FetchInfo(gomock.Any(), "X").Return(Info{
		"regularMarketPrice":   10.0,
		"regularMarketDayHigh": 9.0,
		"regularMarketDayLow":  11.0,
		"fiftyTwoWeekHigh":     20.0,
		"fiftyTwoWeekLow":      5.0,
	}, nil)

	got := NewCollector(p, fetchPolicy(), nil).Fetch(context.Background(), "X")
	require.True(t, got.Found())
	assert.Nil(t, got.Snapshot.DayHigh)
	assert.Nil(t, got.Snapshot.DayLow)
	assert.NotNil(t, got.Snapshot.High52w)
	assert.NoError(t, got.Snapshot.Validate())
}

func TestMapInfo_FallbackOrder(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 2, 15, 4, 5, 0, time.UTC)
	info := Info{
		"shortName":            "Tesla",
		"currency":             "EUR",
		"currentPrice":         200.0,
		"regularMarketPrice":   199.0,
		"regularMarketOpen":    195.5,
		"dayHigh":              205.0,
		"regularMarketDayHigh": 1.0,
		"regularMarketDayLow":  190.0,
		"regularMarketVolume":  1234567.0,
		"marketCap":            map[string]any{"raw": 6.4e11, "fmt": "640B"},
	}

	snap := MapInfo("TSLA", info, at)
	assert.Equal(t, "Tesla", snap.CompanyName)
	assert.Equal(t, "EUR", snap.Currency)
	assert.Equal(t, 200.0, *snap.CurrentPrice)
	assert.Equal(t, 195.5, *snap.Open)
	assert.Equal(t, 205.0, *snap.DayHigh)
	assert.Equal(t, 190.0, *snap.DayLow)
	assert.Equal(t, int64(1234567), *snap.Volume)
	assert.Equal(t, 6.4e11, *snap.MarketCap)
	assert.Nil(t, snap.PreviousClose)
	assert.Nil(t, snap.High52w)
	assert.Nil(t, snap.Low52w)
	assert.Equal(t, at, snap.CapturedAt)
}

func TestMapInfo_ZeroIsNotAbsent(t *testing.T) {
	t.Parallel()

	snap := MapInfo("X", Info{"volume": 0.0, "previousClose": nil, "open": "n/a"}, time.Time{})
	require.NotNil(t, snap.Volume)
	assert.Equal(t, int64(0), *snap.Volume)
	assert.Nil(t, snap.PreviousClose)
	assert.Nil(t, snap.Open)
	assert.Equal(t, "X", snap.CompanyName)
}
