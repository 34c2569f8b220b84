package scanner

import (
	"context"
	"time"

	"dex-zone-scanner/internal/strategy"
)

// Config controls the scan loop cadence.
type Config struct {
	// ScanInterval is the pause between full ticks.
	ScanInterval time.Duration
	// TrendingLimit caps how many watchlist tokens one tick visits.
	TrendingLimit int
	// TrendingRefresh is how often the trending list is re-fetched.
	TrendingRefresh time.Duration
	// TokenPause is the inter-token sleep inside a tick.
	TokenPause time.Duration
	// ErrorBackoff is the wait after a tick-level failure.
	ErrorBackoff time.Duration
	// GemAgeDays routes tokens younger than this to the gem strategies.
	GemAgeDays float64
}

// DefaultConfig returns the production cadence.
func DefaultConfig() Config {
	return Config{
		ScanInterval:    120 * time.Second,
		TrendingLimit:   50,
		TrendingRefresh: 10 * time.Minute,
		TokenPause:      5 * time.Second,
		ErrorBackoff:    60 * time.Second,
		GemAgeDays:      5,
	}
}

// SignalSink publishes accepted signals to the outside world and
// returns the resulting message id for reply threading.
type SignalSink interface {
	PublishSignal(ctx context.Context, sig *strategy.Signal, replyTo *int64) (int64, error)
}

// Status is a point-in-time snapshot of the scan loop for the ops API.
type Status struct {
	Running         bool      `json:"running"`
	LastTickStart   time.Time `json:"last_tick_start"`
	LastTickEnd     time.Time `json:"last_tick_end"`
	LastTrendingAt  time.Time `json:"last_trending_refresh"`
	TokensScanned   int       `json:"tokens_scanned"`
	TokensSkipped   int       `json:"tokens_skipped"`
	SignalsEmitted  int       `json:"signals_emitted"`
	SignalsHeld     int       `json:"signals_suppressed"`
	TicksCompleted  int       `json:"ticks_completed"`
	LastError       string    `json:"last_error,omitempty"`
}
