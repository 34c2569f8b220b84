package analysis

import (
	"math"
	"sort"

	"dex-zone-scanner/internal/indicators"
	"dex-zone-scanner/internal/market"
)

// Zone detection parameters. Weights follow the scorer revision that won out
// during live tuning; see DESIGN.md.
const (
	originConsolidationMin = 20
	originRangeMax         = 0.5
	originPumpMin          = 0.5
	originMaxAgeDays       = 30
	originMaxCandles       = 500

	touchTolerance  = 0.005
	minZoneScore    = 1.5
	zoneDedupePct   = 0.03
	maxZonesPerSide = 3

	weightTouches  = 0.30
	weightReaction = 0.25
	weightVolume   = 0.20
	weightSRFlip   = 0.15

	confluenceTolerance         = 0.035
	newTokenConfluenceTolerance = 0.10
	newTokenAgeHours            = 48
	newTokenLeniencyMinScore    = 1.0

	tier1ScoreThreshold = 7.0
	tier2ScoreThreshold = 3.0
)

// fibWeights maps confluence-eligible retracement ratios to their bonus.
var fibWeights = map[float64]float64{
	0.618: 2.5, // golden ratio
	0.382: 2.0,
	0.500: 1.8,
	0.786: 1.5,
	0.236: 1.2,
}

// ZoneDetector finds supply/demand zones and the origin zone of new tokens.
type ZoneDetector struct{}

// NewZoneDetector creates a detector.
func NewZoneDetector() *ZoneDetector {
	return &ZoneDetector{}
}

// Detect runs origin-zone and swing-zone detection over a series. Zones are
// scored but not yet tiered; call ApplyConfluence next.
func (d *ZoneDetector) Detect(series *market.Series, timeframe market.Timeframe, aggregate int) ZoneSet {
	set := ZoneSet{}
	if series.Len() == 0 {
		return set
	}

	set.Origin = d.detectOriginZone(series)

	supply, demand := d.detectSwingZones(series, timeframe, aggregate)
	set.Supply = supply
	set.Demand = demand
	return set
}

// detectOriginZone locates the birth range of a young token: a tight
// consolidation around the global low followed by a strong pump.
func (d *ZoneDetector) detectOriginZone(series *market.Series) *Zone {
	n := series.Len()
	if n < originConsolidationMin || n > originMaxCandles {
		return nil
	}
	if series.AgeHours() > originMaxAgeDays*24 {
		return nil
	}

	lowIdx := 0
	for i, c := range series.Candles {
		if c.Low < series.Candles[lowIdx].Low {
			lowIdx = i
		}
	}

	consolidationEnd := lowIdx + originConsolidationMin
	if consolidationEnd > n-1 {
		consolidationEnd = n - 1
	}
	window := series.Candles[lowIdx:consolidationEnd]
	if len(window) < 10 {
		return nil
	}

	rangeHigh := window[0].High
	rangeLow := window[0].Low
	for _, c := range window {
		if c.High > rangeHigh {
			rangeHigh = c.High
		}
		if c.Low < rangeLow {
			rangeLow = c.Low
		}
	}
	if rangeLow <= 0 {
		return nil
	}
	if (rangeHigh-rangeLow)/rangeLow > originRangeMax {
		return nil
	}

	if consolidationEnd >= n-1 {
		return nil
	}
	peakAfter := 0.0
	for _, c := range series.Candles[consolidationEnd:] {
		if c.High > peakAfter {
			peakAfter = c.High
		}
	}
	if rangeHigh <= 0 {
		return nil
	}
	pumpPercent := (peakAfter - rangeHigh) / rangeHigh
	if pumpPercent < originPumpMin {
		return nil
	}

	// Origin zones bypass scoring: they are always critical.
	return &Zone{
		Kind:                 ZoneOrigin,
		LevelPrice:           rangeHigh,
		Score:                10,
		FinalScore:           10,
		Tier:                 Tier1,
		IsOrigin:             true,
		ZoneBottom:           rangeLow,
		ZoneTop:              rangeHigh,
		PumpPercent:          pumpPercent,
		ConsolidationCandles: len(window),
	}
}

// detectSwingZones clusters swing extrema into scored levels and keeps the
// best few on each side of the current price.
func (d *ZoneDetector) detectSwingZones(series *market.Series, timeframe market.Timeframe, aggregate int) (supply, demand []Zone) {
	n := series.Len()
	if n < 30 {
		return nil, nil
	}

	meanATR := indicators.MeanATR(series.Candles, 14)
	if meanATR <= 0 {
		return nil, nil
	}

	highs := series.Highs()
	lows := series.Lows()
	avgVolume := series.AvgVolume()
	currentPrice := series.CurrentPrice()

	order := extremaOrder(timeframe, aggregate, n)
	margin := n / 4
	if margin > 5 {
		margin = 5
	}
	minTouches := 2
	if n < 100 {
		minTouches = 1
	}

	var candidates []Zone
	for _, idx := range indicators.LocalMaxima(highs, order) {
		if idx < margin || idx >= n-margin {
			continue
		}
		if z, ok := d.scoreLevel(series, highs, highs[idx], idx, meanATR, avgVolume, minTouches); ok {
			candidates = append(candidates, z)
		}
	}
	for _, idx := range indicators.LocalMinima(lows, order) {
		if idx < margin || idx >= n-margin {
			continue
		}
		if z, ok := d.scoreLevel(series, lows, lows[idx], idx, meanATR, avgVolume, minTouches); ok {
			candidates = append(candidates, z)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	// Drop levels within 3% of an already kept, higher-scored level.
	var kept []Zone
	for _, z := range candidates {
		tooClose := false
		for _, existing := range kept {
			if math.Abs(z.LevelPrice-existing.LevelPrice)/z.LevelPrice < zoneDedupePct {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, z)
		}
	}

	for _, z := range kept {
		if z.LevelPrice >= currentPrice {
			if len(supply) < maxZonesPerSide {
				z.Kind = ZoneSupply
				supply = append(supply, z)
			}
		} else if len(demand) < maxZonesPerSide {
			z.Kind = ZoneDemand
			demand = append(demand, z)
		}
	}
	return supply, demand
}

// scoreLevel counts touches of a level across the series and scores it by
// touches, reaction strength, volume at origin, and an S/R-flip bonus.
func (d *ZoneDetector) scoreLevel(series *market.Series, column []float64, level float64, originIdx int, meanATR, avgVolume float64, minTouches int) (Zone, bool) {
	if level <= 0 {
		return Zone{}, false
	}

	n := series.Len()
	touches := 0
	totalReaction := 0.0
	reactions := 0

	for i := 0; i < n; i++ {
		if math.Abs(column[i]-level)/level >= touchTolerance {
			continue
		}
		touches++
		if i+5 < n {
			totalReaction += math.Abs(series.Candles[i+5].Close-level) / meanATR
			reactions++
		}
	}
	if touches < minTouches {
		return Zone{}, false
	}

	meanReaction := 0.0
	if reactions > 0 {
		meanReaction = totalReaction / float64(reactions)
	}
	volumeRatio := 1.0
	if avgVolume > 0 {
		volumeRatio = series.Candles[originIdx].Volume / avgVolume
	}

	score := math.Min(float64(touches), 10)*weightTouches +
		math.Min(meanReaction, 10)*weightReaction +
		math.Min(volumeRatio, 10)*weightVolume
	if touches > 3 {
		score += 3 * weightSRFlip
	}
	if score < minZoneScore {
		return Zone{}, false
	}

	return Zone{
		LevelPrice: level,
		Score:      score,
		Touches:    touches,
		FinalScore: score,
	}, true
}

// extremaOrder picks the extrema window by timeframe granularity: tighter
// windows on fast minute charts, wider ones on long series.
func extremaOrder(timeframe market.Timeframe, aggregate, length int) int {
	if timeframe == market.TimeframeMinute {
		if aggregate <= 5 {
			return 2
		}
		if aggregate <= 15 {
			return 3
		}
	}
	if length < 100 {
		return 3
	}
	return 5
}

// ApplyConfluence scores each zone against the Fibonacci retracement levels,
// assigns tiers, and splits zones into tier buckets. A tolerance <= 0 keeps
// the tuned default. Tokens younger than 48 hours get a widened tolerance and
// a one-tier promotion for any zone with base score >= 1.0 that achieved
// confluence.
func ApplyConfluence(set *ZoneSet, fib *FibonacciLevels, ageHours, tolerance float64) {
	if tolerance <= 0 {
		tolerance = confluenceTolerance
	}
	newToken := ageHours > 0 && ageHours < newTokenAgeHours
	if newToken {
		tolerance = newTokenConfluenceTolerance
	}

	score := func(z *Zone) {
		z.MatchedFibs = nil
		z.ConfluenceBonus = 0
		if fib != nil {
			for ratio, weight := range fibWeights {
				fibPrice, ok := fib.Levels[ratio]
				if !ok {
					continue
				}
				if math.Abs(z.LevelPrice-fibPrice)/z.LevelPrice < tolerance {
					z.ConfluenceBonus += weight
					z.MatchedFibs = append(z.MatchedFibs, ratio)
				}
			}
			sort.Float64s(z.MatchedFibs)
		}
		z.FinalScore = z.Score + z.ConfluenceBonus
		z.Tier = tierFor(z.FinalScore)
		if newToken && len(z.MatchedFibs) > 0 && z.Score >= newTokenLeniencyMinScore && z.Tier > Tier1 {
			z.Tier--
		}
	}

	for i := range set.Supply {
		score(&set.Supply[i])
	}
	for i := range set.Demand {
		score(&set.Demand[i])
	}

	set.Tier1 = set.Tier1[:0]
	set.Tier2 = set.Tier2[:0]
	set.Tier3 = set.Tier3[:0]

	if set.Origin != nil {
		set.Tier1 = append(set.Tier1, *set.Origin)
	}

	all := make([]Zone, 0, len(set.Supply)+len(set.Demand))
	all = append(all, set.Supply...)
	all = append(all, set.Demand...)
	sort.Slice(all, func(i, j int) bool {
		return all[i].FinalScore > all[j].FinalScore
	})

	for _, z := range all {
		switch z.Tier {
		case Tier1:
			if len(set.Tier1) < 3 {
				set.Tier1 = append(set.Tier1, z)
			}
		case Tier2:
			if len(set.Tier2) < 3 {
				set.Tier2 = append(set.Tier2, z)
			}
		default:
			if len(set.Tier3) < 2 {
				set.Tier3 = append(set.Tier3, z)
			}
		}
	}
}

func tierFor(finalScore float64) Tier {
	switch {
	case finalScore >= tier1ScoreThreshold:
		return Tier1
	case finalScore >= tier2ScoreThreshold:
		return Tier2
	default:
		return Tier3
	}
}
