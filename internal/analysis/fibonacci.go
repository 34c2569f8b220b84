package analysis

import (
	"dex-zone-scanner/internal/market"
)

const fibLookback = 400

var (
	retracementRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0}
	// Fast minute charts are too noisy for the minor ratios.
	reducedRatios  = []float64{0, 0.382, 0.5, 0.618, 1.0}
	extensionRatios = []float64{1.272, 1.618, 2.0, 2.618}
)

// CalculateFibonacci computes retracement levels over the last
// min(len, 400) candles: price(r) = high - range*r. Returns nil when the
// swing range is degenerate.
func CalculateFibonacci(series *market.Series, timeframe market.Timeframe, aggregate int) *FibonacciLevels {
	high, low, ok := swingRange(series)
	if !ok {
		return nil
	}

	ratios := retracementRatios
	if timeframe == market.TimeframeMinute && aggregate < 30 {
		ratios = reducedRatios
	}

	levels := make(map[float64]float64, len(ratios))
	for _, r := range ratios {
		levels[r] = high - (high-low)*r
	}

	return &FibonacciLevels{
		HighPoint:  high,
		LowPoint:   low,
		PriceRange: high - low,
		Levels:     levels,
	}
}

// CalculateFibonacciExtensions computes extension targets above the swing
// high: price(r) = high + range*(r-1).
func CalculateFibonacciExtensions(series *market.Series) *FibonacciLevels {
	high, low, ok := swingRange(series)
	if !ok {
		return nil
	}

	levels := make(map[float64]float64, len(extensionRatios))
	for _, r := range extensionRatios {
		levels[r] = high + (high-low)*(r-1)
	}

	return &FibonacciLevels{
		HighPoint:  high,
		LowPoint:   low,
		PriceRange: high - low,
		Levels:     levels,
	}
}

func swingRange(series *market.Series) (high, low float64, ok bool) {
	n := series.Len()
	if n == 0 {
		return 0, 0, false
	}
	lookback := fibLookback
	if n < lookback {
		lookback = n
	}

	window := series.Candles[n-lookback:]
	high = window[0].High
	low = window[0].Low
	for _, c := range window {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	if high-low <= 0 {
		return 0, 0, false
	}
	return high, low, true
}
