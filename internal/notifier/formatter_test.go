package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAssistant/internal/model"
)

var fixedNow = time.Date(2025, 6, 3, 15, 4, 5, 0, time.UTC)

func fullSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Ticker:        "AAPL",
		CompanyName:   "Apple Inc.",
		Currency:      "USD",
		CurrentPrice:  model.Float(150.00),
		PreviousClose: model.Float(148.00),
		Open:          model.Float(149.00),
		DayHigh:       model.Float(151.25),
		DayLow:        model.Float(147.5),
		Volume:        model.Int(52_345_678),
		MarketCap:     model.Float(2.5e12),
		High52w:       model.Float(199.62),
		Low52w:        model.Float(124.17),
		CapturedAt:    fixedNow,
	}
}

func TestFormatSnapshot_Full(t *testing.T) {
	got := FormatSnapshot(fullSnapshot(), fixedNow)

	want := "*Apple Inc.* (AAPL)\n\n" +
		"Current Price: USD 150.00\n" +
		"Change: +2.00 (+1.35%)\n\n" +
		"Open: USD 149.00\n" +
		"Day Range: 147.50 - 151.25\n" +
		"Volume: 52,345,678\n" +
		"Market Cap: USD 2500.00B\n" +
		"\n52-Week Range: 124.17 - 199.62\n" +
		"\n_Updated: 2025-06-03 15:04:05_"
	assert.Equal(t, want, got)
}

func TestFormatSnapshot_Deterministic(t *testing.T) {
	snap := fullSnapshot()
	first := FormatSnapshot(snap, fixedNow)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, FormatSnapshot(snap, fixedNow))
	}
}

func TestFormatSnapshot_NegativeChange(t *testing.T) {
	snap := &model.Snapshot{
		Ticker: "TSLA", CompanyName: "Tesla, Inc.", Currency: "USD",
		CurrentPrice: model.Float(100), PreviousClose: model.Float(110),
	}
	got := FormatSnapshot(snap, fixedNow)
	assert.Contains(t, got, "Change: -10.00 (-9.09%)")
}

func TestFormatSnapshot_TinyNegativeChangeKeepsMinus(t *testing.T) {
	snap := &model.Snapshot{
		Ticker: "X", CompanyName: "X", Currency: "USD",
		CurrentPrice: model.Float(100.001), PreviousClose: model.Float(100.004),
	}
	assert.Contains(t, FormatSnapshot(snap, fixedNow), "Change: -0.00 (-0.00%)")
}

func TestFormatSnapshot_UnchangedPriceIsPositive(t *testing.T) {
	snap := &model.Snapshot{
		Ticker: "X", CompanyName: "X", Currency: "USD",
		CurrentPrice: model.Float(50), PreviousClose: model.Float(50),
	}
	assert.Contains(t, FormatSnapshot(snap, fixedNow), "Change: +0.00 (+0.00%)")
}

func TestFormatSnapshot_ZeroPreviousCloseOmitsChange(t *testing.T) {
	snap := &model.Snapshot{Ticker: "X", CompanyName: "X", Currency: "USD",
		CurrentPrice: model.Float(1), PreviousClose: model.Float(0)}
	assert.NotContains(t, FormatSnapshot(snap, fixedNow), "Change")
}

func TestFormatSnapshot_EscapesCompanyName(t *testing.T) {
	snap := &model.Snapshot{Ticker: "X", CompanyName: "A_B*C", Currency: "USD"}
	assert.True(t, strings.HasPrefix(FormatSnapshot(snap, fixedNow), "*A\\_B\\*C* (X)"))
}

// TestFormatSnapshot_OptionalFieldOmission drops every subset of the optional
// fields and checks that only the sections backed by present fields appear.
func TestFormatSnapshot_OptionalFieldOmission(t *testing.T) {
	const nFields = 9
	for mask := 0; mask < 1<<nFields; mask++ {
		snap := fullSnapshot()
		absent := func(bit int) bool { return mask&(1<<bit) != 0 }
		if absent(0) {
			snap.CurrentPrice = nil
		}
		if absent(1) {
			snap.PreviousClose = nil
		}
		if absent(2) {
			snap.Open = nil
		}
		if absent(3) {
			snap.DayHigh = nil
		}
		if absent(4) {
			snap.DayLow = nil
		}
		if absent(5) {
			snap.Volume = nil
		}
		if absent(6) {
			snap.MarketCap = nil
		}
		if absent(7) {
			snap.High52w = nil
		}
		if absent(8) {
			snap.Low52w = nil
		}

		out := FormatSnapshot(snap, fixedNow)

		sections := []struct {
			label   string
			present bool
		}{
			{"Current Price:", snap.CurrentPrice != nil},
			{"Change:", snap.CurrentPrice != nil && snap.PreviousClose != nil},
			{"Open:", snap.Open != nil},
			{"Day Range:", snap.DayHigh != nil && snap.DayLow != nil},
			{"Volume:", snap.Volume != nil},
			{"Market Cap:", snap.MarketCap != nil},
			{"52-Week Range:", snap.High52w != nil && snap.Low52w != nil},
		}
		for _, s := range sections {
			if strings.Contains(out, s.label) != s.present {
				t.Fatalf("mask %09b: section %q present=%v, output:\n%s", mask, s.label, s.present, out)
			}
		}
		for _, placeholder := range []string{"N/A", "None", "nil", "<nil>", "NaN"} {
			if strings.Contains(out, placeholder) {
				t.Fatalf("mask %09b: placeholder %q in output:\n%s", mask, placeholder, out)
			}
		}
		if !strings.HasPrefix(out, "*Apple Inc.* (AAPL)") || !strings.HasSuffix(out, "_Updated: 2025-06-03 15:04:05_") {
			t.Fatalf("mask %09b: header or footer missing:\n%s", mask, out)
		}
	}
}

func TestGuidanceReplies(t *testing.T) {
	assert.Contains(t, NoSymbolReply, "Please mention a company name or ticker symbol")
	assert.Equal(t,
		"Sorry, I couldn't find stock information for 'ZZZZ'. Please check the ticker symbol and try again.",
		NotFoundReply("ZZZZ"))
}
