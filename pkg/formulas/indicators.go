// Package formulas computes technical indicators over closing prices.
package formulas

import (
	"github.com/markcheno/go-talib"
)

// RSI calculates the Relative Strength Index.
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods
//
// Returns the latest value (0-100) or nil if insufficient data.
func RSI(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length+1 {
		return nil
	}

	return last(talib.Rsi(closes, length))
}

// SMA calculates the Simple Moving Average of the last length closes
func SMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	return last(talib.Sma(closes, length))
}

// EMA calculates the Exponential Moving Average.
// Falls back to the plain mean when there are fewer closes than length.
func EMA(closes []float64, length int) *float64 {
	if len(closes) == 0 || length <= 0 {
		return nil
	}

	if len(closes) < length {
		mean := Mean(closes)
		return &mean
	}

	if v := last(talib.Ema(closes, length)); v != nil {
		return v
	}

	mean := Mean(closes[len(closes)-length:])
	return &mean
}

// Mean returns the arithmetic mean, zero for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func last(series []float64) *float64 {
	if len(series) == 0 || isNaN(series[len(series)-1]) {
		return nil
	}
	result := series[len(series)-1]
	return &result
}

func isNaN(f float64) bool {
	return f != f
}
