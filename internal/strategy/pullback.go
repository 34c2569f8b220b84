package strategy

// Pullback retest: a resistance from the recent past gets broken, price
// retraces back into the level, then reclaims it. Works on any timeframe.
const (
	pullbackWindowStart = 30
	pullbackWindowEnd   = 5
	pullbackTolerance   = 0.03
	pullbackConfidence  = 8
)

// DetectPullbackRetest returns the retested level when the pattern is
// present, or nil.
func DetectPullbackRetest(highs, lows, closes []float64) *float64 {
	n := len(closes)
	if n < pullbackWindowStart+1 {
		return nil
	}

	// Resistance: highest high in the window [-30, -5].
	level := highs[n-pullbackWindowStart]
	for i := n - pullbackWindowStart; i < n-pullbackWindowEnd; i++ {
		if highs[i] > level {
			level = highs[i]
		}
	}
	if level <= 0 {
		return nil
	}

	// The level must have been exceeded after the window.
	broken := false
	for i := n - pullbackWindowEnd; i < n; i++ {
		if highs[i] > level {
			broken = true
			break
		}
	}
	if !broken {
		return nil
	}

	// Price must have retraced into +/-3% of the broken level since.
	retraced := false
	for i := n - pullbackWindowEnd; i < n; i++ {
		if lows[i] >= level*(1-pullbackTolerance) && lows[i] <= level*(1+pullbackTolerance) {
			retraced = true
			break
		}
	}
	if !retraced {
		return nil
	}

	// And the current close must hold above it.
	if closes[n-1] <= level {
		return nil
	}
	return &level
}
