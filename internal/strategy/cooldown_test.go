package strategy

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"dex-zone-scanner/internal/database"
)

// memAlertHistory is an append-only in-memory AlertHistory.
type memAlertHistory struct {
	alerts []database.AlertRecord
}

func (m *memAlertHistory) LatestAlertByType(_ context.Context, token, signalType string) (*database.AlertRecord, error) {
	for i := len(m.alerts) - 1; i >= 0; i-- {
		a := m.alerts[i]
		if a.TokenAddress == token && a.SignalType == signalType {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memAlertHistory) LatestAlertNearLevel(_ context.Context, token string, level, tolerance float64) (*database.AlertRecord, error) {
	for i := len(m.alerts) - 1; i >= 0; i-- {
		a := m.alerts[i]
		if a.TokenAddress != token || a.LevelPrice == nil {
			continue
		}
		if math.Abs(*a.LevelPrice-level) <= level*tolerance {
			return &a, nil
		}
	}
	return nil, nil
}

func floatPtr(v float64) *float64 { return &v }

func breakoutSignal(price float64) *Signal {
	return &Signal{
		Kind:         SignalResistanceBreakout,
		TokenAddress: "tokenA",
		Symbol:       "TEST",
		CurrentPrice: price,
		Level:        floatPtr(1.000),
		Confidence:   8,
		Timestamp:    time.Now(),
	}
}

func gateAt(history AlertHistory, now time.Time) *CooldownGate {
	g := NewCooldownGate(history, Tuning{CooldownHours: 2.0}, zerolog.Nop())
	g.now = func() time.Time { return now }
	return g
}

func TestCooldownFirstSignalPasses(t *testing.T) {
	gate := gateAt(&memAlertHistory{}, time.Now())
	assert.False(t, gate.ShouldSuppress(context.Background(), breakoutSignal(1.030)))
}

func TestCooldownSuppressesRepeat(t *testing.T) {
	t0 := time.Now()
	history := &memAlertHistory{alerts: []database.AlertRecord{{
		TokenAddress: "tokenA",
		SignalType:   string(SignalResistanceBreakout),
		LevelPrice:   floatPtr(1.000),
		PriceAtAlert: 1.030,
		Timestamp:    t0,
	}}}

	// Ten minutes later, 0.1% move: suppressed.
	gate := gateAt(history, t0.Add(10*time.Minute))
	assert.True(t, gate.ShouldSuppress(context.Background(), breakoutSignal(1.031)))
}

func TestCooldownReleasedByTime(t *testing.T) {
	t0 := time.Now()
	history := &memAlertHistory{alerts: []database.AlertRecord{{
		TokenAddress: "tokenA",
		SignalType:   string(SignalResistanceBreakout),
		LevelPrice:   floatPtr(1.000),
		PriceAtAlert: 1.030,
		Timestamp:    t0,
	}}}

	// Three hours exceed the 2h default cooldown.
	gate := gateAt(history, t0.Add(3*time.Hour))
	assert.False(t, gate.ShouldSuppress(context.Background(), breakoutSignal(1.031)))
}

func TestCooldownReleasedByPriceMove(t *testing.T) {
	t0 := time.Now()
	history := &memAlertHistory{alerts: []database.AlertRecord{{
		TokenAddress: "tokenA",
		SignalType:   string(SignalResistanceBreakout),
		LevelPrice:   floatPtr(1.000),
		PriceAtAlert: 1.000,
		Timestamp:    t0,
	}}}

	// Ten minutes later but price moved >9%.
	gate := gateAt(history, t0.Add(10*time.Minute))
	assert.False(t, gate.ShouldSuppress(context.Background(), breakoutSignal(1.095)))
}

func TestCooldownLevelToleranceBand(t *testing.T) {
	t0 := time.Now()
	history := &memAlertHistory{alerts: []database.AlertRecord{{
		TokenAddress: "tokenA",
		SignalType:   string(SignalResistanceBreakout),
		LevelPrice:   floatPtr(1.000),
		PriceAtAlert: 1.030,
		Timestamp:    t0,
	}}}
	gate := gateAt(history, t0.Add(10*time.Minute))

	// 1.004 is inside the 0.5% band of 1.000.
	near := breakoutSignal(1.031)
	near.Level = floatPtr(1.004)
	assert.True(t, gate.ShouldSuppress(context.Background(), near))

	// 1.02 is a different level.
	far := breakoutSignal(1.031)
	far.Level = floatPtr(1.020)
	assert.False(t, gate.ShouldSuppress(context.Background(), far))
}

func TestCooldownConfidenceFloor(t *testing.T) {
	gate := gateAt(&memAlertHistory{}, time.Now())

	weak := &Signal{
		Kind:         SignalApproachingSupport,
		TokenAddress: "tokenA",
		CurrentPrice: 1.0,
		Level:        floatPtr(0.99),
		Confidence:   4,
	}
	assert.True(t, gate.ShouldSuppress(context.Background(), weak))

	// Breakouts and pullback confirmations bypass the floor.
	confident := breakoutSignal(1.030)
	confident.Confidence = 4
	assert.False(t, gate.ShouldSuppress(context.Background(), confident))

	pullback := &Signal{
		Kind:         SignalPullbackRetest,
		TokenAddress: "tokenA",
		CurrentPrice: 1.0,
		Level:        floatPtr(1.0),
		Confidence:   4,
	}
	assert.False(t, gate.ShouldSuppress(context.Background(), pullback))
}

func TestCooldownSupportProximityThreshold(t *testing.T) {
	t0 := time.Now()
	history := &memAlertHistory{alerts: []database.AlertRecord{{
		TokenAddress: "tokenA",
		SignalType:   string(SignalSupportBreakdown),
		LevelPrice:   floatPtr(1.000),
		PriceAtAlert: 1.000,
		Timestamp:    t0,
	}}}

	breakdown := &Signal{
		Kind:         SignalSupportBreakdown,
		TokenAddress: "tokenA",
		CurrentPrice: 0.970, // 3% below the prior alert
		Level:        floatPtr(1.000),
		Confidence:   8,
	}

	// A 3% move is inside the default 8% release threshold.
	gate := gateAt(history, t0.Add(10*time.Minute))
	assert.True(t, gate.ShouldSuppress(context.Background(), breakdown))

	// A tighter configured threshold releases the same signal.
	tight := NewCooldownGate(history, Tuning{ProximityThreshold: 0.02}, zerolog.Nop())
	tight.now = func() time.Time { return t0.Add(10 * time.Minute) }
	assert.False(t, tight.ShouldSuppress(context.Background(), breakdown))
}

func TestCooldownGemByType(t *testing.T) {
	t0 := time.Now()
	history := &memAlertHistory{alerts: []database.AlertRecord{{
		TokenAddress: "tokenA",
		SignalType:   string(SignalGemMomentum),
		PriceAtAlert: 0.01,
		Timestamp:    t0,
	}}}

	gem := &Signal{
		Kind:         SignalGemMomentum,
		TokenAddress: "tokenA",
		CurrentPrice: 0.011,
		Confidence:   7,
	}

	// Twenty minutes is inside the 0.5h gem cooldown.
	gate := gateAt(history, t0.Add(20*time.Minute))
	assert.True(t, gate.ShouldSuppress(context.Background(), gem))

	// Forty minutes is past it.
	gate = gateAt(history, t0.Add(40*time.Minute))
	assert.False(t, gate.ShouldSuppress(context.Background(), gem))

	// A different gem type is not blocked.
	other := &Signal{
		Kind:         SignalGemVolumeSpike,
		TokenAddress: "tokenA",
		CurrentPrice: 0.011,
		Confidence:   7,
	}
	gate = gateAt(history, t0.Add(20*time.Minute))
	assert.False(t, gate.ShouldSuppress(context.Background(), other))
}
