package strategy

import (
	"dex-zone-scanner/internal/market"
)

// Gem strategies watch very young tokens on 5-minute candles. They are
// cheap heuristics tuned for the first days of a token's life, before
// enough structure exists for zone analysis.
const (
	gemVolumeSpikeMult    = 4.0
	gemVolumeSustainMult  = 2.0
	gemVolumeLookback     = 9
	gemConsolidationSpan  = 12
	gemConsolidationRange = 0.20
	gemBreakoutVolMult    = 2.0
	gemMomentumSpan       = 6
	gemMomentumMin        = 0.20
	gemCrashSpan          = 12
	gemCrashRatio         = 1.25
)

// gemResult names the matched strategy with its confidence.
type gemResult struct {
	kind       SignalKind
	confidence float64
}

// EvaluateGems runs the young-token strategies over a 5-minute series
// and returns the first match, or nil.
func EvaluateGems(series *market.Series) *gemResult {
	n := series.Len()
	if n < gemCrashSpan+1 {
		return nil
	}

	closes := series.Closes()
	price := closes[n-1]
	if price <= 0 {
		return nil
	}

	// A token that dropped >20% over the last hour is crashing, not
	// gemming. Abort everything.
	if closes[n-1-gemCrashSpan]/price > gemCrashRatio {
		return nil
	}

	if r := gemVolumeSpike(series); r != nil {
		return r
	}
	if r := gemConsolidationBreakout(series); r != nil {
		return r
	}
	if r := gemMomentum(closes); r != nil {
		return r
	}
	return nil
}

// gemVolumeSpike: volume dwarfs the baseline while price holds above the
// EMA-50. Two variants: a single candle at 4x the prior mean, or two
// consecutive candles each sustaining 2x their own baselines.
func gemVolumeSpike(series *market.Series) *gemResult {
	n := series.Len()
	if n < gemVolumeLookback+2 {
		return nil
	}
	if len(series.EMA50) != n || series.CurrentPrice() < series.EMA50[n-1] {
		return nil
	}

	volumes := series.Volumes()
	last := volumeRatioAt(volumes, n-1)
	if last >= gemVolumeSpikeMult {
		return &gemResult{kind: SignalGemVolumeSpike, confidence: 7}
	}
	if last >= gemVolumeSustainMult && volumeRatioAt(volumes, n-2) >= gemVolumeSustainMult {
		return &gemResult{kind: SignalGemVolumeSpike, confidence: 7}
	}
	return nil
}

// volumeRatioAt compares the volume at idx to the mean of the lookback
// window before it.
func volumeRatioAt(volumes []float64, idx int) float64 {
	if idx < gemVolumeLookback {
		return 0
	}
	var sum float64
	for _, v := range volumes[idx-gemVolumeLookback : idx] {
		sum += v
	}
	mean := sum / float64(gemVolumeLookback)
	if mean <= 0 {
		return 0
	}
	return volumes[idx] / mean
}

// gemConsolidationBreakout: a tight range over the last 12 candles,
// broken upward on at least double the window's average volume.
func gemConsolidationBreakout(series *market.Series) *gemResult {
	n := series.Len()
	if n < gemConsolidationSpan+1 {
		return nil
	}

	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()
	price := series.CurrentPrice()

	var (
		rangeHigh = highs[n-1-gemConsolidationSpan]
		rangeLow  = lows[n-1-gemConsolidationSpan]
		volSum    float64
	)
	for i := n - 1 - gemConsolidationSpan; i < n-1; i++ {
		if highs[i] > rangeHigh {
			rangeHigh = highs[i]
		}
		if lows[i] < rangeLow {
			rangeLow = lows[i]
		}
		volSum += volumes[i]
	}

	if price <= 0 || (rangeHigh-rangeLow)/price >= gemConsolidationRange {
		return nil
	}
	if price <= rangeHigh {
		return nil
	}
	meanVol := volSum / float64(gemConsolidationSpan)
	if meanVol <= 0 || volumes[n-1] < gemBreakoutVolMult*meanVol {
		return nil
	}
	return &gemResult{kind: SignalGemConsolidation, confidence: 8}
}

// gemMomentum: 20% climb over the last 6 candles (half an hour).
func gemMomentum(closes []float64) *gemResult {
	n := len(closes)
	if n < gemMomentumSpan+1 {
		return nil
	}
	base := closes[n-1-gemMomentumSpan]
	if base <= 0 {
		return nil
	}
	if closes[n-1]/base-1 < gemMomentumMin {
		return nil
	}
	return &gemResult{kind: SignalGemMomentum, confidence: 7}
}
