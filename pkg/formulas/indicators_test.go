package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rising(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	return closes
}

func TestRSI_InsufficientData(t *testing.T) {
	assert.Nil(t, RSI(rising(14), 14))
	assert.Nil(t, RSI(nil, 14))
}

func TestRSI_OnlyGains(t *testing.T) {
	rsi := RSI(rising(30), 14)
	require.NotNil(t, rsi)
	assert.InDelta(t, 100.0, *rsi, 0.001)
}

func TestSMA(t *testing.T) {
	assert.Nil(t, SMA(rising(19), 20))

	sma := SMA([]float64{1, 2, 3, 4, 5}, 5)
	require.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 0.0001)
}

func TestEMA_FallsBackToMean(t *testing.T) {
	ema := EMA([]float64{2, 4}, 10)
	require.NotNil(t, ema)
	assert.InDelta(t, 3.0, *ema, 0.0001)

	assert.Nil(t, EMA(nil, 10))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 0.0001)
}
