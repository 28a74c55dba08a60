package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"StockAssistant/internal/calculator"
	"StockAssistant/internal/model"
)

// DefaultYahooBaseURL is the Yahoo Finance chart API root.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider implements Provider using the Yahoo Finance chart API. One
// request for a year of daily bars yields both the quote meta block and the
// bars used to fill fields the meta block lacks.
type YahooProvider struct {
	BaseURL string
	Client  *http.Client
}

var _ Provider = (*YahooProvider)(nil)

// NewYahooProvider creates a new Yahoo Finance provider with optional proxy support.
func NewYahooProvider(proxyURL string, timeout time.Duration) *YahooProvider {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooProvider{
		BaseURL: DefaultYahooBaseURL,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta       map[string]any `json:"meta"`
			Timestamp  []int64        `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []any `json:"open"`
					High   []any `json:"high"`
					Low    []any `json:"low"`
					Close  []any `json:"close"`
					Volume []any `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchInfo returns the meta block of the symbol's chart, completed from its daily bars.
func (p *YahooProvider) FetchInfo(ctx context.Context, symbol string) (Info, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1y",
		strings.TrimRight(p.BaseURL, "/"), url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if resp.StatusCode == http.StatusNotFound && decodeErr == nil && chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %w", symbol, chart.Chart.Error.Description, ErrUnknownSymbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %w", decodeErr)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Meta) == 0 {
		return nil, ErrEmptyInfo
	}

	result := chart.Chart.Result[0]
	info := Info(result.Meta)
	// chartPreviousClose is the close before the requested range, not yesterday's.
	delete(info, "chartPreviousClose")

	var bars []model.OHLCV
	if len(result.Indicators.Quote) > 0 {
		bars = parseBars(result.Timestamp, result.Indicators.Quote[0].Open, result.Indicators.Quote[0].High,
			result.Indicators.Quote[0].Low, result.Indicators.Quote[0].Close, result.Indicators.Quote[0].Volume)
	}
	completeFromBars(info, bars)
	return info, nil
}

func parseBars(ts []int64, open, high, low, closes, volume []any) []model.OHLCV {
	at := func(s []any, i int) float64 {
		if i >= len(s) {
			return 0
		}
		f, _ := toFloat(s[i])
		return f
	}
	bars := make([]model.OHLCV, 0, len(ts))
	for i, t := range ts {
		o, h, l, c := at(open, i), at(high, i), at(low, i), at(closes, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(t, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(volume, i),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars
}

// completeFromBars fills today's open, the previous close and the 52-week
// range from daily bars when the meta block does not carry them.
func completeFromBars(info Info, bars []model.OHLCV) {
	n := len(bars)
	if n == 0 {
		return
	}
	if _, ok := info["regularMarketOpen"]; !ok {
		info["regularMarketOpen"] = bars[n-1].Open
	}
	if _, ok := info["previousClose"]; !ok && n >= 2 {
		info["previousClose"] = bars[n-2].Close
	}
	_, hasHigh := info["fiftyTwoWeekHigh"]
	_, hasLow := info["fiftyTwoWeekLow"]
	if !hasHigh || !hasLow {
		if h, l, err := calculator.Calculate52WeekRange(bars); err == nil {
			info["fiftyTwoWeekHigh"] = h
			info["fiftyTwoWeekLow"] = l
		}
	}
}
