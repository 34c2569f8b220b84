package analysis

import (
	"context"

	"dex-zone-scanner/internal/market"
)

// TimeframeChoice is the timeframe family selected for a token.
type TimeframeChoice struct {
	Timeframe market.Timeframe
	Aggregate int
}

var fallbackChoice = TimeframeChoice{Timeframe: market.TimeframeHour, Aggregate: 4}

// TimeframeRouter picks the chart resolution by token age, probing the
// 1-hour series first and the daily series for mature tokens.
type TimeframeRouter struct {
	engine *Engine
}

// NewTimeframeRouter creates a router backed by the engine's candle cache.
func NewTimeframeRouter(engine *Engine) *TimeframeRouter {
	return &TimeframeRouter{engine: engine}
}

// Pick selects (timeframe, aggregate) for a pool and returns the hourly
// probe series when available. On any failure it returns the (hour, 4)
// fallback with a nil series.
func (r *TimeframeRouter) Pick(ctx context.Context, pool market.PoolID) (TimeframeChoice, *market.Series) {
	hourly, err := r.engine.GetSeries(ctx, pool, market.TimeframeHour, 1, 500)
	if err != nil || hourly.Len() == 0 {
		return fallbackChoice, nil
	}

	if hourly.Len() >= 500 {
		// Token older than the hourly window; let the daily series decide.
		daily, err := r.engine.GetSeries(ctx, pool, market.TimeframeDay, 1, 500)
		if err != nil {
			return fallbackChoice, nil
		}
		switch {
		case daily.Len() >= 90:
			return TimeframeChoice{market.TimeframeHour, 12}, hourly
		case daily.Len() >= 30:
			return TimeframeChoice{market.TimeframeHour, 4}, hourly
		default:
			return TimeframeChoice{market.TimeframeHour, 1}, hourly
		}
	}

	ageDays := hourly.AgeHours() / 24
	switch {
	case ageDays < 1:
		return TimeframeChoice{market.TimeframeMinute, 5}, hourly
	case ageDays < 3:
		return TimeframeChoice{market.TimeframeMinute, 15}, hourly
	default:
		return TimeframeChoice{market.TimeframeHour, 1}, hourly
	}
}
