package strategy

import (
	"strings"
	"time"

	"dex-zone-scanner/internal/analysis"
	"dex-zone-scanner/internal/holderscan"
)

// SignalKind tags what a signal means; optional fields on Signal are
// populated exactly when the kind implies them.
type SignalKind string

const (
	SignalResistanceBreakout    SignalKind = "resistance_breakout"
	SignalSupportBreakdown      SignalKind = "support_breakdown"
	SignalApproachingSupport    SignalKind = "approaching_support"
	SignalApproachingResistance SignalKind = "approaching_resistance"
	SignalOriginRetest          SignalKind = "ORIGIN_RETEST"
	SignalGemVolumeSpike        SignalKind = "GEM_VOLUME_SPIKE"
	SignalGemConsolidation      SignalKind = "GEM_CONSOLIDATION_BREAKOUT"
	SignalGemMomentum           SignalKind = "GEM_MOMENTUM"
	SignalPullbackRetest        SignalKind = "PULLBACK_RETEST_CONFIRMED"
)

// Signal is one actionable event for a token.
type Signal struct {
	Kind         SignalKind
	TokenAddress string
	PoolID       string
	Symbol       string
	CurrentPrice float64

	// Level is the broken or approached price level; nil for gem and
	// momentum signals that have no anchor level.
	Level      *float64
	ZoneTier   int
	ZoneScore  float64
	FinalScore float64

	Confidence float64
	Timestamp  time.Time

	// Holders is populated when the holder provider is enabled.
	Holders *holderscan.HolderBreakdowns

	Analysis *analysis.Result
}

// IsGem reports whether the signal came from one of the young-token
// gem strategies.
func (s *Signal) IsGem() bool {
	return strings.HasPrefix(string(s.Kind), "GEM_")
}

// IsSupport reports whether the signal concerns a support level.
func (s *Signal) IsSupport() bool {
	return s.Kind == SignalSupportBreakdown || s.Kind == SignalApproachingSupport
}

// AlwaysConfident reports whether the kind bypasses the confidence
// filter in the cooldown gate.
func (s *Signal) AlwaysConfident() bool {
	if s.Kind == SignalPullbackRetest {
		return true
	}
	return strings.HasSuffix(strings.ToLower(string(s.Kind)), "_breakout")
}
