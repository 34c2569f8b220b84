package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pullbackSeries builds highs/lows/closes for a break-retest-reclaim
// shape around a resistance at 1.10.
func pullbackSeries() (highs, lows, closes []float64) {
	n := 40
	highs = make([]float64, n)
	lows = make([]float64, n)
	closes = make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i], lows[i], closes[i] = 1.05, 1.00, 1.02
	}
	// Resistance peak inside the [-30, -5] window.
	highs[20] = 1.10
	// Break above it.
	highs[36], closes[36] = 1.15, 1.14
	// Retrace into the level.
	lows[37], highs[37], closes[37] = 1.09, 1.14, 1.11
	// Reclaim.
	highs[38], lows[38], closes[38] = 1.13, 1.11, 1.12
	highs[39], lows[39], closes[39] = 1.13, 1.11, 1.12
	return highs, lows, closes
}

func TestDetectPullbackRetest(t *testing.T) {
	highs, lows, closes := pullbackSeries()

	level := DetectPullbackRetest(highs, lows, closes)
	require.NotNil(t, level)
	assert.InDelta(t, 1.10, *level, 1e-9)
}

func TestPullbackNeedsBreak(t *testing.T) {
	highs, lows, closes := pullbackSeries()
	// Price never exceeded the resistance.
	for i := 35; i < 40; i++ {
		highs[i], lows[i], closes[i] = 1.05, 1.00, 1.02
	}

	assert.Nil(t, DetectPullbackRetest(highs, lows, closes))
}

func TestPullbackNeedsRetrace(t *testing.T) {
	highs, lows, closes := pullbackSeries()
	// Price never came back near the level.
	lows[37], lows[38], lows[39] = 1.14, 1.14, 1.14
	closes[37], closes[38], closes[39] = 1.15, 1.15, 1.15
	highs[37], highs[38], highs[39] = 1.16, 1.16, 1.16

	assert.Nil(t, DetectPullbackRetest(highs, lows, closes))
}

func TestPullbackNeedsReclaim(t *testing.T) {
	highs, lows, closes := pullbackSeries()
	// Close fell back under the level.
	closes[39] = 1.05
	lows[39] = 1.04

	assert.Nil(t, DetectPullbackRetest(highs, lows, closes))
}

func TestPullbackTooShort(t *testing.T) {
	highs := make([]float64, 20)
	assert.Nil(t, DetectPullbackRetest(highs, highs, highs))
}
