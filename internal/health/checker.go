package health

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"dex-zone-scanner/internal/holderscan"
	"dex-zone-scanner/internal/market"
)

// Status buckets a token's overall health.
type Status string

const (
	StatusActive  Status = "active"
	StatusWarning Status = "warning"
	StatusRugged  Status = "rugged"
)

// Thresholds per the surveillance roadmap: heavy penalty for a deep drop
// from the all-time high, volume floors by age, holder-flow penalties.
const (
	maxATHDrop           = 0.85
	minVolumeNew         = 100_000
	minVolumeEstablished = 300_000
	newTokenAgeHours     = 48

	holderDropThreshold1h  = -15
	holderDropThreshold24h = -75

	ruggedBelow  = 20
	warningBelow = 50
)

// Snapshot is everything the scorer looks at. Holder deltas are nil when
// the holder provider is disabled or has no data.
type Snapshot struct {
	ATH            float64
	CurrentPrice   float64
	Volume24h      float64
	AgeHours       float64
	HolderDelta1h  *int
	HolderDelta24h *int
}

// Report is the scored outcome for one token.
type Report struct {
	Score  float64
	Status Status
	Issues []string
}

// Score is a pure function of the snapshot: same inputs, same report.
func Score(s Snapshot) Report {
	score := 100.0
	var issues []string

	if s.ATH > 0 {
		drop := (s.ATH - s.CurrentPrice) / s.ATH
		if drop > maxATHDrop {
			score -= 70
			issues = append(issues, fmt.Sprintf("ATH drop %.0f%%", drop*100))
		}
	}

	minVolume := float64(minVolumeEstablished)
	if s.AgeHours < newTokenAgeHours {
		minVolume = minVolumeNew
	}
	if s.Volume24h < minVolume {
		score -= 30
		issues = append(issues, fmt.Sprintf("low volume $%.0f (needs >$%.0f)", s.Volume24h, minVolume))
	}

	if s.HolderDelta1h != nil && *s.HolderDelta1h < holderDropThreshold1h {
		score -= 25
		issues = append(issues, fmt.Sprintf("1h holder drop: %d", *s.HolderDelta1h))
	}
	if s.HolderDelta24h != nil && *s.HolderDelta24h < holderDropThreshold24h {
		score -= 40
		issues = append(issues, fmt.Sprintf("24h holder drop: %d", *s.HolderDelta24h))
	}

	return Report{Score: score, Status: statusFor(score), Issues: issues}
}

func statusFor(score float64) Status {
	switch {
	case score < ruggedBelow:
		return StatusRugged
	case score < warningBelow:
		return StatusWarning
	default:
		return StatusActive
	}
}

// Checker assembles snapshots from market data and the holder provider.
type Checker struct {
	holders *holderscan.Client
	logger  zerolog.Logger
}

// NewChecker creates a health checker. holders may be disabled.
func NewChecker(holders *holderscan.Client, logger zerolog.Logger) *Checker {
	return &Checker{
		holders: holders,
		logger:  logger.With().Str("component", "health").Logger(),
	}
}

// Check scores one token given its trending record and hourly price probe.
func (c *Checker) Check(ctx context.Context, token market.TrendingToken, probe *market.Series) Report {
	snap := Snapshot{
		Volume24h: token.Volume24h,
	}

	if probe != nil && probe.Len() > 0 {
		snap.AgeHours = probe.AgeHours()
		snap.CurrentPrice = probe.CurrentPrice()
		for _, candle := range probe.Candles {
			if candle.High > snap.ATH {
				snap.ATH = candle.High
			}
		}
	}

	if c.holders != nil && c.holders.Enabled() {
		deltas, err := c.holders.GetHolderDeltas(ctx, token.Address)
		if err != nil {
			c.logger.Warn().Err(err).Str("token", token.Symbol).Msg("holder deltas unavailable")
		} else {
			snap.HolderDelta1h = deltas.Hour1
			snap.HolderDelta24h = deltas.Day1
		}
	}

	report := Score(snap)
	c.logger.Info().
		Str("token", token.Symbol).
		Float64("score", report.Score).
		Str("status", string(report.Status)).
		Strs("issues", report.Issues).
		Msg("token health")
	return report
}
