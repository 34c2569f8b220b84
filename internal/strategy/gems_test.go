package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-zone-scanner/internal/market"
)

// fiveMinSeries builds a series from close/volume pairs with a flat EMA-50
// column sitting just under the closes.
func fiveMinSeries(closes, volumes []float64) *market.Series {
	candles := make([]market.Candle, len(closes))
	ema := make([]float64, len(closes))
	for i := range closes {
		candles[i] = market.Candle{
			Timestamp: int64(i * 300),
			Open:      closes[i],
			High:      closes[i] * 1.001,
			Low:       closes[i] * 0.999,
			Close:     closes[i],
			Volume:    volumes[i],
		}
		ema[i] = closes[i] * 0.95
	}
	return &market.Series{Candles: candles, EMA50: ema}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestGemVolumeSpike(t *testing.T) {
	closes := repeat(0.01, 20)
	volumes := repeat(100, 20)
	volumes[19] = 500 // 5x the prior mean

	match := EvaluateGems(fiveMinSeries(closes, volumes))
	require.NotNil(t, match)
	assert.Equal(t, SignalGemVolumeSpike, match.kind)
}

func TestGemVolumeSpikeRequiresEMASupport(t *testing.T) {
	closes := repeat(0.01, 20)
	volumes := repeat(100, 20)
	volumes[19] = 500

	series := fiveMinSeries(closes, volumes)
	for i := range series.EMA50 {
		series.EMA50[i] = 0.02 // price below EMA-50
	}
	assert.Nil(t, EvaluateGems(series))
}

func TestGemVolumeSpikeBelowMultiplier(t *testing.T) {
	closes := repeat(0.01, 20)
	volumes := repeat(100, 20)
	volumes[19] = 300 // a single 3x candle is not enough

	assert.Nil(t, EvaluateGems(fiveMinSeries(closes, volumes)))
}

func TestGemVolumeSpikeSustained(t *testing.T) {
	closes := repeat(0.01, 20)
	volumes := repeat(100, 20)
	// Two consecutive candles each above double their baseline.
	volumes[18], volumes[19] = 250, 250

	match := EvaluateGems(fiveMinSeries(closes, volumes))
	require.NotNil(t, match)
	assert.Equal(t, SignalGemVolumeSpike, match.kind)
}

func TestGemConsolidationBreakout(t *testing.T) {
	// Twelve candles tight around 0.010, then a break above the range
	// high on double volume.
	closes := append(repeat(0.010, 19), 0.0105)
	volumes := append(repeat(100, 19), 250)

	match := EvaluateGems(fiveMinSeries(closes, volumes))
	require.NotNil(t, match)
	assert.Equal(t, SignalGemConsolidation, match.kind)
}

func TestGemConsolidationNoBreakWithoutVolume(t *testing.T) {
	closes := append(repeat(0.010, 19), 0.0105)
	volumes := append(repeat(100, 19), 120) // volume did not confirm

	assert.Nil(t, EvaluateGems(fiveMinSeries(closes, volumes)))
}

func TestGemMomentum(t *testing.T) {
	// 25% climb over the last 6 candles, volume flat so the other
	// strategies stay silent.
	closes := repeat(0.010, 20)
	for i := 14; i < 20; i++ {
		closes[i] = 0.010 * (1 + 0.05*float64(i-13))
	}
	volumes := repeat(100, 20)

	match := EvaluateGems(fiveMinSeries(closes, volumes))
	require.NotNil(t, match)
	assert.Equal(t, SignalGemMomentum, match.kind)
}

func TestGemCrashPreFilter(t *testing.T) {
	// Price fell 40% over the last hour; even a volume spike is ignored.
	closes := repeat(0.010, 20)
	for i := 8; i < 20; i++ {
		closes[i] = 0.006
	}
	volumes := repeat(100, 20)
	volumes[19] = 1000

	assert.Nil(t, EvaluateGems(fiveMinSeries(closes, volumes)))
}

func TestGemTooShortSeries(t *testing.T) {
	closes := repeat(0.01, 10)
	volumes := repeat(100, 10)
	assert.Nil(t, EvaluateGems(fiveMinSeries(closes, volumes)))
}
