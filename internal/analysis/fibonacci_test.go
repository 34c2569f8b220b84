package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-zone-scanner/internal/market"
)

func rangeSeries(low, high float64, n int) *market.Series {
	candles := make([]market.Candle, n)
	for i := range candles {
		price := low + (high-low)*float64(i)/float64(n-1)
		candles[i] = market.Candle{Open: price, High: price, Low: price, Close: price, Volume: 1}
	}
	candles[0].Low = low
	candles[n-1].High = high
	return seriesFromOHLC(3600, candles)
}

func TestCalculateFibonacciRoundTrip(t *testing.T) {
	series := rangeSeries(1.0, 2.0, 100)
	fib := CalculateFibonacci(series, market.TimeframeHour, 1)
	require.NotNil(t, fib)

	assert.InDelta(t, 2.0, fib.HighPoint, 1e-9)
	assert.InDelta(t, 1.0, fib.LowPoint, 1e-9)
	assert.InDelta(t, 1.0, fib.PriceRange, 1e-9)

	for _, r := range []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0} {
		price, ok := fib.Levels[r]
		require.True(t, ok, "missing ratio %v", r)
		assert.InDelta(t, fib.HighPoint-r*(fib.HighPoint-fib.LowPoint), price, 1e-9)
	}
}

func TestCalculateFibonacciReducedRatiosOnFastFrames(t *testing.T) {
	series := rangeSeries(1.0, 2.0, 100)

	fast := CalculateFibonacci(series, market.TimeframeMinute, 5)
	require.NotNil(t, fast)
	assert.Len(t, fast.Levels, 5)
	_, has236 := fast.Levels[0.236]
	assert.False(t, has236)

	slow := CalculateFibonacci(series, market.TimeframeMinute, 30)
	require.NotNil(t, slow)
	assert.Len(t, slow.Levels, 7)
}

func TestCalculateFibonacciDegenerateRange(t *testing.T) {
	candles := make([]market.Candle, 50)
	for i := range candles {
		candles[i] = market.Candle{Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}
	}
	series := seriesFromOHLC(3600, candles)

	assert.Nil(t, CalculateFibonacci(series, market.TimeframeHour, 1))
	assert.Nil(t, CalculateFibonacciExtensions(series))
}

func TestCalculateFibonacciExtensions(t *testing.T) {
	series := rangeSeries(1.0, 2.0, 100)
	ext := CalculateFibonacciExtensions(series)
	require.NotNil(t, ext)

	for _, r := range []float64{1.272, 1.618, 2.0, 2.618} {
		price, ok := ext.Levels[r]
		require.True(t, ok)
		assert.InDelta(t, ext.HighPoint+(r-1)*ext.PriceRange, price, 1e-9)
		assert.Greater(t, price, ext.HighPoint)
	}
}

func TestSwingRangeLookbackWindow(t *testing.T) {
	// 500 candles: an early spike to 10 falls outside the 400-candle
	// lookback and must not set the high point.
	candles := make([]market.Candle, 500)
	for i := range candles {
		candles[i] = market.Candle{Open: 1, High: 1.5, Low: 1, Close: 1.2, Volume: 1}
	}
	candles[10].High = 10
	series := seriesFromOHLC(3600, candles)

	fib := CalculateFibonacci(series, market.TimeframeHour, 1)
	require.NotNil(t, fib)
	assert.InDelta(t, 1.5, fib.HighPoint, 1e-9)
}
