package strategy

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"dex-zone-scanner/internal/analysis"
	"dex-zone-scanner/internal/database"
	"dex-zone-scanner/internal/market"
)

// originRetestUpperBand extends the retest band 10% above the zone top.
const originRetestUpperBand = 1.1

// Tuning carries the env-adjustable signal-quality knobs shared by the
// engine and the cooldown gate. Zero values keep the defaults.
type Tuning struct {
	// ZoneScoreMin is the final-score floor under which a zone is not
	// tracked by the state machines (ZONE_SCORE_MIN).
	ZoneScoreMin float64
	// ProximityThreshold is the price move that releases the cooldown on
	// support-family signals (PROXIMITY_THRESHOLD).
	ProximityThreshold float64
	// CooldownHours is the fallback cooldown for non-gem, non-support
	// signals (COOLDOWN_HOURS).
	CooldownHours float64
}

func (t Tuning) withDefaults() Tuning {
	if t.ZoneScoreMin <= 0 {
		t.ZoneScoreMin = 2.0
	}
	if t.ProximityThreshold <= 0 {
		t.ProximityThreshold = 0.08
	}
	if t.CooldownHours <= 0 {
		t.CooldownHours = 2.0
	}
	return t
}

// ZoneStateStore is the persisted state machine access the engine needs;
// *database.Repository satisfies it.
type ZoneStateStore interface {
	GetZoneState(ctx context.Context, tokenAddress string, zonePrice float64) (*database.ZoneState, error)
	SetZoneState(ctx context.Context, tokenAddress string, zonePrice float64, state, signalType string, currentPrice float64, now time.Time) error
}

// Engine turns an analysis result into at most one signal per scan,
// consulting and advancing the per-zone state machines.
type Engine struct {
	states ZoneStateStore
	tuning Tuning
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine creates a strategy engine.
func NewEngine(states ZoneStateStore, tuning Tuning, logger zerolog.Logger) *Engine {
	return &Engine{
		states: states,
		tuning: tuning.withDefaults(),
		logger: logger.With().Str("component", "strategy").Logger(),
		now:    time.Now,
	}
}

// Evaluate runs the full signal pipeline for a mature token: origin
// retest, the tier-1/tier-2 zone state machines, then pullback retest.
// Returns nil when nothing fired.
func (e *Engine) Evaluate(ctx context.Context, token market.TrendingToken, result *analysis.Result) (*Signal, error) {
	if result == nil || result.Series == nil {
		return nil, nil
	}
	price := result.CurrentPrice
	if price <= 0 {
		return nil, nil
	}

	if sig := e.originRetest(token, result); sig != nil {
		return sig, nil
	}

	sig, err := e.runStateMachines(ctx, token, result)
	if err != nil || sig != nil {
		return sig, err
	}

	return e.pullbackRetest(token, result), nil
}

// EvaluateGems runs the young-token strategies over a 5-minute series.
func (e *Engine) EvaluateGems(token market.TrendingToken, result *analysis.Result) *Signal {
	if result == nil || result.Series == nil {
		return nil
	}
	match := EvaluateGems(result.Series)
	if match == nil {
		return nil
	}
	e.logger.Info().
		Str("token", token.Symbol).
		Str("kind", string(match.kind)).
		Msg("gem strategy fired")
	return &Signal{
		Kind:         match.kind,
		TokenAddress: token.Address,
		PoolID:       token.PoolID,
		Symbol:       token.Symbol,
		CurrentPrice: result.CurrentPrice,
		Confidence:   match.confidence,
		Timestamp:    e.now(),
		Analysis:     result,
	}
}

// originRetest fires when price revisits a new token's origin zone.
func (e *Engine) originRetest(token market.TrendingToken, result *analysis.Result) *Signal {
	origin := result.Zones.Origin
	if origin == nil {
		return nil
	}
	price := result.CurrentPrice
	if price < origin.ZoneBottom || price > origin.ZoneTop*originRetestUpperBand {
		return nil
	}

	level := origin.LevelPrice
	e.logger.Info().
		Str("token", token.Symbol).
		Float64("zone_bottom", origin.ZoneBottom).
		Float64("zone_top", origin.ZoneTop).
		Msg("origin zone retest")
	return &Signal{
		Kind:         SignalOriginRetest,
		TokenAddress: token.Address,
		PoolID:       token.PoolID,
		Symbol:       token.Symbol,
		CurrentPrice: price,
		Level:        &level,
		ZoneTier:     1,
		ZoneScore:    origin.Score,
		FinalScore:   10,
		Confidence:   10,
		Timestamp:    e.now(),
		Analysis:     result,
	}
}

// runStateMachines probes tier-1 then tier-2 zones, skipping any under the
// configured score floor. The first transition that emits a signal ends the
// scan for this token; silent resets are persisted and probing continues.
func (e *Engine) runStateMachines(ctx context.Context, token market.TrendingToken, result *analysis.Result) (*Signal, error) {
	price := result.CurrentPrice
	zones := make([]analysis.Zone, 0, 6)
	zones = append(zones, result.Zones.Tier1...)
	zones = append(zones, result.Zones.Tier2...)

	for _, zone := range zones {
		if zone.IsOrigin || zone.LevelPrice <= 0 || zone.FinalScore < e.tuning.ZoneScoreMin {
			continue
		}

		prevState := StateIdle
		if record, err := e.states.GetZoneState(ctx, token.Address, zone.LevelPrice); err != nil {
			e.logger.Warn().Err(err).Str("token", token.Symbol).Msg("zone state read failed")
		} else if record != nil {
			prevState = record.CurrentState
		}

		tr := probeZone(zone, price, prevState)
		if tr == nil {
			continue
		}

		if err := e.states.SetZoneState(ctx, token.Address, zone.LevelPrice, tr.newState, string(tr.kind), price, e.now()); err != nil {
			// Keep emitting; a lost write costs one duplicate at worst.
			e.logger.Warn().Err(err).Str("token", token.Symbol).Msg("zone state write failed")
		}

		if tr.kind == "" {
			continue
		}

		level := zone.LevelPrice
		e.logger.Info().
			Str("token", token.Symbol).
			Str("kind", string(tr.kind)).
			Float64("level", level).
			Int("tier", int(zone.Tier)).
			Msg("zone transition")
		return &Signal{
			Kind:         tr.kind,
			TokenAddress: token.Address,
			PoolID:       token.PoolID,
			Symbol:       token.Symbol,
			CurrentPrice: price,
			Level:        &level,
			ZoneTier:     int(zone.Tier),
			ZoneScore:    zone.Score,
			FinalScore:   zone.FinalScore,
			Confidence:   math.Min(zone.FinalScore, 10),
			Timestamp:    e.now(),
			Analysis:     result,
		}, nil
	}
	return nil, nil
}

func (e *Engine) pullbackRetest(token market.TrendingToken, result *analysis.Result) *Signal {
	series := result.Series
	level := DetectPullbackRetest(series.Highs(), series.Lows(), series.Closes())
	if level == nil {
		return nil
	}
	e.logger.Info().
		Str("token", token.Symbol).
		Float64("level", *level).
		Msg("pullback retest confirmed")
	return &Signal{
		Kind:         SignalPullbackRetest,
		TokenAddress: token.Address,
		PoolID:       token.PoolID,
		Symbol:       token.Symbol,
		CurrentPrice: result.CurrentPrice,
		Level:        level,
		Confidence:   pullbackConfidence,
		Timestamp:    e.now(),
		Analysis:     result,
	}
}
