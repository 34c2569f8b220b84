package analysis

import (
	"math"

	"dex-zone-scanner/internal/indicators"
	"dex-zone-scanner/internal/market"
)

const (
	trendlineWindow       = 150
	trendlineExtremaOrder = 4
	trendlineMinGap       = 8
	trendlineMaxSlope     = 0.0001
	trendlineBreachPct    = 0.005
	trendlineTouchPct     = 0.005
	trendlineMinTouches   = 2
)

// DetectTrendline searches the recent window for the best descending line
// anchored on swing highs. Returns nil when no valid line exists.
func DetectTrendline(series *market.Series) *Trendline {
	n := series.Len()
	window := trendlineWindow
	if n < window {
		window = n
	}
	if window < 2*trendlineExtremaOrder+1 {
		return nil
	}

	offset := n - window
	highs := series.Highs()[offset:]

	swingHighs := indicators.LocalMaxima(highs, trendlineExtremaOrder)
	if len(swingHighs) < 2 {
		return nil
	}

	// Only highs in the last 60% of the window can form the line; the
	// anchor is the highest of them.
	recentStart := int(0.4 * float64(window))
	var recent []int
	anchor := -1
	for _, idx := range swingHighs {
		if idx < recentStart {
			continue
		}
		recent = append(recent, idx)
		if anchor == -1 || highs[idx] > highs[anchor] {
			anchor = idx
		}
	}
	if len(recent) < 2 {
		return nil
	}

	var best *Trendline
	for a := 0; a < len(recent); a++ {
		for b := a + 1; b < len(recent); b++ {
			i1, i2 := recent[a], recent[b]
			if i2-i1 < trendlineMinGap {
				continue
			}

			slope := (highs[i2] - highs[i1]) / float64(i2-i1)
			if slope > trendlineMaxSlope {
				continue
			}
			intercept := highs[i1] - slope*float64(i1)

			if breached(highs, i1, i2, slope, intercept) {
				continue
			}

			touches := 0
			indexSum := 0
			for _, idx := range swingHighs {
				line := slope*float64(idx) + intercept
				if line <= 0 {
					continue
				}
				if math.Abs(highs[idx]-line)/line < trendlineTouchPct {
					touches++
					indexSum += idx
				}
			}
			if touches < trendlineMinTouches {
				continue
			}

			meanIndex := float64(indexSum) / float64(touches)
			score := 3*float64(touches) + 10*(meanIndex/float64(window)) + 0.1*float64(i2-i1)
			if i1 == anchor || i2 == anchor {
				score += 25
			}

			if best == nil || score > best.ConfidenceScore {
				best = &Trendline{
					StartIdx:        offset + i1,
					EndIdx:          offset + i2,
					Slope:           slope,
					Intercept:       intercept - slope*float64(offset),
					Touches:         touches,
					ConfidenceScore: score,
				}
			}
		}
	}
	return best
}

// breached reports whether any candle high between the two points crosses
// the line by more than the breach tolerance.
func breached(highs []float64, i1, i2 int, slope, intercept float64) bool {
	for i := i1 + 1; i < i2; i++ {
		line := slope*float64(i) + intercept
		if line <= 0 {
			return true
		}
		if highs[i] > line*(1+trendlineBreachPct) {
			return true
		}
	}
	return false
}
