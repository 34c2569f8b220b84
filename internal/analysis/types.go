package analysis

import (
	"time"

	"dex-zone-scanner/internal/market"
)

// ZoneKind discriminates the three zone families.
type ZoneKind string

const (
	ZoneSupply ZoneKind = "supply"
	ZoneDemand ZoneKind = "demand"
	ZoneOrigin ZoneKind = "origin"
)

// Tier buckets zone quality: 1 = critical, 2 = major, 3 = minor.
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

// Zone is a price band that has historically repelled price.
// FinalScore = Score + ConfluenceBonus.
type Zone struct {
	Kind            ZoneKind  `json:"kind"`
	LevelPrice      float64   `json:"level_price"`
	Score           float64   `json:"score"`
	Touches         int       `json:"touches"`
	MatchedFibs     []float64 `json:"matched_fibs,omitempty"`
	ConfluenceBonus float64   `json:"confluence_bonus"`
	FinalScore      float64   `json:"final_score"`
	Tier            Tier      `json:"tier"`
	IsOrigin        bool      `json:"is_origin"`

	// Origin-zone fields, set only when IsOrigin.
	ZoneBottom           float64 `json:"zone_bottom,omitempty"`
	ZoneTop              float64 `json:"zone_top,omitempty"`
	PumpPercent          float64 `json:"pump_percent,omitempty"`
	ConsolidationCandles int     `json:"consolidation_candles,omitempty"`
}

// FibonacciLevels carries retracement (or extension) prices per ratio.
type FibonacciLevels struct {
	HighPoint  float64             `json:"high_point"`
	LowPoint   float64             `json:"low_point"`
	PriceRange float64             `json:"price_range"`
	Levels     map[float64]float64 `json:"levels"`
}

// Trendline is a descending line anchored on recent swing highs.
// Price at candle index i is Slope*i + Intercept.
type Trendline struct {
	StartIdx        int     `json:"start_idx"`
	EndIdx          int     `json:"end_idx"`
	Slope           float64 `json:"slope"`
	Intercept       float64 `json:"intercept"`
	Touches         int     `json:"touches"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// PriceAt evaluates the line at a candle index.
func (t Trendline) PriceAt(idx int) float64 {
	return t.Slope*float64(idx) + t.Intercept
}

// ZoneSet groups detected zones by quality tier and by side.
type ZoneSet struct {
	Tier1  []Zone `json:"tier1"`
	Tier2  []Zone `json:"tier2"`
	Tier3  []Zone `json:"tier3"`
	Supply []Zone `json:"supply"`
	Demand []Zone `json:"demand"`
	Origin *Zone  `json:"origin,omitempty"`
}

// MovingAverages carries the latest derived EMA values when present.
type MovingAverages struct {
	EMA50  *float64 `json:"ema_50,omitempty"`
	EMA200 *float64 `json:"ema_200,omitempty"`
}

// Metadata identifies what a Result was computed over.
type Metadata struct {
	PoolID    string           `json:"pool_id"`
	Symbol    string           `json:"symbol"`
	Timeframe market.Timeframe `json:"timeframe"`
	Aggregate int              `json:"aggregate"`
	Timestamp time.Time        `json:"timestamp"`
}

// Result is the full technical-analysis view for one token snapshot.
type Result struct {
	Metadata     Metadata
	Series       *market.Series
	CurrentPrice float64
	Zones        ZoneSet
	Fibonacci    *FibonacciLevels
	Extensions   *FibonacciLevels
	Trendline    *Trendline
	MA           MovingAverages
}
