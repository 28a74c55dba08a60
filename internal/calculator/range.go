package calculator

import (
	"errors"
	"math"

	"StockAssistant/internal/model"
)

// TradingDaysPerYear is the number of daily bars in a 52-week window.
const TradingDaysPerYear = 252

// RangeOver scans the most recent n bars and returns the highest high and lowest low.
func RangeOver(bars []model.OHLCV, n int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	if n <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	start := len(bars) - n
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars[start:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(dailyBars []model.OHLCV) (high, low float64, err error) {
	return RangeOver(dailyBars, TradingDaysPerYear)
}
