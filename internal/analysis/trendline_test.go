package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-zone-scanner/internal/market"
)

// descendingHighSeries puts swing-high peaks on the line h(i) = 1.3 - 0.001*i
// over a flat base.
func descendingHighSeries(peaks []int) *market.Series {
	candles := make([]market.Candle, 150)
	for i := range candles {
		candles[i] = market.Candle{Open: 1.0, High: 1.0, Low: 0.99, Close: 1.0, Volume: 1}
	}
	for _, p := range peaks {
		h := 1.3 - 0.001*float64(p)
		candles[p].High = h
		candles[p].Close = 1.0
	}
	return seriesFromOHLC(3600, candles)
}

func TestDetectTrendline(t *testing.T) {
	series := descendingHighSeries([]int{70, 90, 110, 130})

	line := DetectTrendline(series)
	require.NotNil(t, line)

	assert.Negative(t, line.Slope)
	assert.GreaterOrEqual(t, line.Touches, 2)
	assert.GreaterOrEqual(t, line.EndIdx-line.StartIdx, 8)

	// The line passes through its defining swing highs.
	highs := series.Highs()
	assert.InDelta(t, highs[line.StartIdx], line.PriceAt(line.StartIdx), 1e-6)
	assert.InDelta(t, highs[line.EndIdx], line.PriceAt(line.EndIdx), 1e-6)
}

func TestDetectTrendlineAnchorBonus(t *testing.T) {
	series := descendingHighSeries([]int{70, 90, 110, 130})
	line := DetectTrendline(series)
	require.NotNil(t, line)

	// Four touches plus the anchor bonus put the score well above the
	// touch term alone.
	assert.Equal(t, 4, line.Touches)
	assert.Greater(t, line.ConfidenceScore, 25.0)
}

func TestDetectTrendlineRejectsAscending(t *testing.T) {
	candles := make([]market.Candle, 150)
	for i := range candles {
		candles[i] = market.Candle{Open: 1.0, High: 1.0, Low: 0.99, Close: 1.0, Volume: 1}
	}
	// Rising peaks: any pair has positive slope.
	for _, p := range []int{70, 90, 110, 130} {
		h := 1.0 + 0.002*float64(p)
		candles[p].High = h
	}
	series := seriesFromOHLC(3600, candles)

	assert.Nil(t, DetectTrendline(series))
}

func TestDetectTrendlineRejectsBreached(t *testing.T) {
	series := descendingHighSeries([]int{70, 130})
	// A spike between the two anchors pierces any line joining them.
	series.Candles[100].High = 1.5

	line := DetectTrendline(series)
	if line != nil {
		// If a line is still found it must not span the breach.
		assert.False(t, line.StartIdx <= 100 && line.EndIdx >= 100 &&
			series.Highs()[100] > line.PriceAt(100)*1.005)
	}
}

func TestDetectTrendlineTooFewHighs(t *testing.T) {
	series := descendingHighSeries([]int{70})
	assert.Nil(t, DetectTrendline(series))
}
