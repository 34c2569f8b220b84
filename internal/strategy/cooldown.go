package strategy

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"dex-zone-scanner/internal/database"
)

// levelMatchTolerance pairs a signal with prior alerts at the same level.
const levelMatchTolerance = 0.005

// minConfidence is required unless the signal kind is always-confident.
const minConfidence = 7

// AlertHistory is the slice of alert persistence the gate needs.
type AlertHistory interface {
	LatestAlertByType(ctx context.Context, tokenAddress, signalType string) (*database.AlertRecord, error)
	LatestAlertNearLevel(ctx context.Context, tokenAddress string, level, tolerance float64) (*database.AlertRecord, error)
}

// cooldownRule is the per-family suppression threshold pair: an alert
// repeats only after the cooldown elapses or price moves enough.
type cooldownRule struct {
	priceChange float64
	hours       float64
}

// CooldownGate decides whether a signal is a duplicate of a recent one.
type CooldownGate struct {
	history AlertHistory
	tuning  Tuning
	logger  zerolog.Logger
	now     func() time.Time
}

// NewCooldownGate creates a gate. Tuning supplies the support-family
// release threshold and the fallback cooldown window.
func NewCooldownGate(history AlertHistory, tuning Tuning, logger zerolog.Logger) *CooldownGate {
	return &CooldownGate{
		history: history,
		tuning:  tuning.withDefaults(),
		logger:  logger.With().Str("component", "cooldown").Logger(),
		now:     time.Now,
	}
}

func (g *CooldownGate) ruleFor(signal *Signal) cooldownRule {
	switch {
	case signal.IsGem():
		return cooldownRule{priceChange: 0.10, hours: 0.5}
	case signal.IsSupport():
		return cooldownRule{priceChange: g.tuning.ProximityThreshold, hours: 1.0}
	default:
		return cooldownRule{priceChange: 0.09, hours: g.tuning.CooldownHours}
	}
}

// ShouldSuppress reports whether the signal duplicates a recent alert
// or fails the confidence floor. History lookup failures fail open: a
// missed suppression beats a silent scanner.
func (g *CooldownGate) ShouldSuppress(ctx context.Context, signal *Signal) bool {
	if signal.Confidence < minConfidence && !signal.AlwaysConfident() {
		g.logger.Debug().
			Str("kind", string(signal.Kind)).
			Float64("confidence", signal.Confidence).
			Msg("signal below confidence floor")
		return true
	}

	rule := g.ruleFor(signal)

	if signal.Level != nil {
		prior, err := g.history.LatestAlertNearLevel(ctx, signal.TokenAddress, *signal.Level, levelMatchTolerance)
		if err != nil {
			g.logger.Warn().Err(err).Msg("alert history lookup failed")
			return false
		}
		if prior == nil {
			return false
		}

		elapsed := g.now().Sub(prior.Timestamp).Hours()
		change := math.Abs(signal.CurrentPrice-prior.PriceAtAlert) / prior.PriceAtAlert
		if elapsed < rule.hours && change < rule.priceChange {
			g.logger.Debug().
				Str("token", signal.Symbol).
				Str("kind", string(signal.Kind)).
				Float64("elapsed_h", elapsed).
				Float64("price_change", change).
				Msg("suppressed by level cooldown")
			return true
		}
		return false
	}

	if signal.IsGem() {
		prior, err := g.history.LatestAlertByType(ctx, signal.TokenAddress, string(signal.Kind))
		if err != nil {
			g.logger.Warn().Err(err).Msg("alert history lookup failed")
			return false
		}
		if prior != nil && g.now().Sub(prior.Timestamp).Hours() < rule.hours {
			g.logger.Debug().
				Str("token", signal.Symbol).
				Str("kind", string(signal.Kind)).
				Msg("suppressed by gem cooldown")
			return true
		}
	}
	return false
}
