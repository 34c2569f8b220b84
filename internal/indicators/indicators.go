package indicators

import (
	"math"

	"dex-zone-scanner/internal/market"
)

// ============================================================================
// MOVING AVERAGES
// ============================================================================

// EMASeries calculates an exponential moving average over closes with
// smoothing 2/(span+1), seeded by the first close. The returned slice has
// one value per input candle.
func EMASeries(candles []market.Candle, span int) []float64 {
	if len(candles) == 0 || span <= 0 {
		return nil
	}

	multiplier := 2.0 / float64(span+1)
	out := make([]float64, len(candles))
	out[0] = candles[0].Close

	for i := 1; i < len(candles); i++ {
		out[i] = candles[i].Close*multiplier + out[i-1]*(1-multiplier)
	}
	return out
}

// EMA returns the latest value of EMASeries, or 0 when the series is shorter
// than the span.
func EMA(candles []market.Candle, span int) float64 {
	if len(candles) < span {
		return 0
	}
	series := EMASeries(candles, span)
	return series[len(series)-1]
}

// ============================================================================
// RSI (Relative Strength Index)
// ============================================================================

// RSI calculates a Wilder-style Relative Strength Index over the last
// period+1 closes using rolling means of gains and losses.
func RSI(candles []market.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 50.0 // Neutral RSI
	}

	gains := 0.0
	losses := 0.0

	for i := len(candles) - period; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ============================================================================
// ATR (Average True Range)
// ============================================================================

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(c market.Candle, prevClose float64) float64 {
	return math.Max(
		c.High-c.Low,
		math.Max(
			math.Abs(c.High-prevClose),
			math.Abs(c.Low-prevClose),
		),
	)
}

// ATRSeries calculates a rolling-mean Average True Range. Indices below
// period carry 0 (not enough history yet).
func ATRSeries(candles []market.Candle, period int) []float64 {
	if len(candles) < period+1 || period <= 0 {
		return nil
	}

	tr := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		tr[i] = TrueRange(candles[i], candles[i-1].Close)
	}

	out := make([]float64, len(candles))
	sum := 0.0
	for i := 1; i < len(candles); i++ {
		sum += tr[i]
		if i > period {
			sum -= tr[i-period]
		}
		if i >= period {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ATR returns the latest rolling Average True Range value.
func ATR(candles []market.Candle, period int) float64 {
	series := ATRSeries(candles, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// MeanATR returns the mean of the defined portion of the ATR series.
func MeanATR(candles []market.Candle, period int) float64 {
	series := ATRSeries(candles, period)
	if len(series) == 0 {
		return 0
	}
	sum, n := 0.0, 0
	for _, v := range series {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ============================================================================
// LOCAL EXTREMA & FRACTALS
// ============================================================================

// LocalMaxima returns indices where values[i] is strictly greater than every
// value within a +-order window.
func LocalMaxima(values []float64, order int) []int {
	return localExtrema(values, order, func(center, other float64) bool {
		return center > other
	})
}

// LocalMinima returns indices where values[i] is strictly less than every
// value within a +-order window.
func LocalMinima(values []float64, order int) []int {
	return localExtrema(values, order, func(center, other float64) bool {
		return center < other
	})
}

func localExtrema(values []float64, order int, wins func(center, other float64) bool) []int {
	if order <= 0 || len(values) < 2*order+1 {
		return nil
	}

	var out []int
	for i := order; i < len(values)-order; i++ {
		ok := true
		for j := i - order; j <= i+order; j++ {
			if j == i {
				continue
			}
			if !wins(values[i], values[j]) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// Fractals finds period-candle fractal highs and lows by strict comparison
// against every neighbor within half the period on each side.
func Fractals(highs, lows []float64, period int) (fractalHighs, fractalLows []int) {
	half := period / 2
	if half <= 0 || len(highs) != len(lows) {
		return nil, nil
	}

	for i := half; i < len(highs)-half; i++ {
		isHigh := true
		isLow := true
		for j := i - half; j <= i+half; j++ {
			if j == i {
				continue
			}
			if highs[i] <= highs[j] {
				isHigh = false
			}
			if lows[i] >= lows[j] {
				isLow = false
			}
		}
		if isHigh {
			fractalHighs = append(fractalHighs, i)
		}
		if isLow {
			fractalLows = append(fractalLows, i)
		}
	}
	return fractalHighs, fractalLows
}

// ============================================================================
// VOLUME
// ============================================================================

// AvgVolume calculates average volume over the trailing period.
func AvgVolume(candles []market.Candle, period int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if len(candles) < period {
		period = len(candles)
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Volume
	}
	return sum / float64(period)
}
