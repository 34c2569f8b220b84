package strategy

import (
	"math"

	"dex-zone-scanner/internal/analysis"
)

// Zone states persisted per (token, zone_price).
const (
	StateIdle            = "IDLE"
	StateApproachingUp   = "APPROACHING_UP"
	StateApproachingDown = "APPROACHING_DOWN"
	StateTesting         = "TESTING"
	StateBrokenUp        = "BROKEN_UP"
	StateBrokenDown      = "BROKEN_DOWN"
	StateCooldown        = "COOLDOWN"
)

// resetDistance: beyond 5% from the level the zone is no longer in play.
const resetDistance = 0.05

// tierThresholds holds the approach/breakout bands per zone tier.
type tierThresholds struct {
	approach float64
	breakout float64
}

var thresholdsByTier = map[int]tierThresholds{
	1: {approach: 0.020, breakout: 0.005},
	2: {approach: 0.015, breakout: 0.010},
}

// transition is the outcome of probing one zone.
type transition struct {
	newState string
	kind     SignalKind
}

// probeZone computes the state transition for one zone at the current
// price. A nil result means no state change.
func probeZone(zone analysis.Zone, currentPrice float64, prevState string) *transition {
	th, ok := thresholdsByTier[int(zone.Tier)]
	if !ok {
		return nil
	}

	distance := (currentPrice - zone.LevelPrice) / zone.LevelPrice

	var next *transition
	switch {
	case distance > th.breakout && distance < resetDistance:
		next = &transition{StateBrokenUp, SignalResistanceBreakout}
	case distance < -th.breakout && distance > -resetDistance:
		next = &transition{StateBrokenDown, SignalSupportBreakdown}
	case math.Abs(distance) < th.approach && distance > 0:
		next = &transition{StateApproachingDown, SignalApproachingSupport}
	case math.Abs(distance) < th.approach && distance < 0:
		next = &transition{StateApproachingUp, SignalApproachingResistance}
	case math.Abs(distance) > resetDistance:
		if prevState != StateIdle {
			return &transition{StateIdle, ""}
		}
		return nil
	default:
		return nil
	}

	if next.newState == prevState {
		return nil
	}
	return next
}
