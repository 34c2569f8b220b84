package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestScoreHealthyToken(t *testing.T) {
	report := Score(Snapshot{
		ATH:          1.0,
		CurrentPrice: 0.8,
		Volume24h:    500_000,
		AgeHours:     100,
	})
	assert.Equal(t, 100.0, report.Score)
	assert.Equal(t, StatusActive, report.Status)
	assert.Empty(t, report.Issues)
}

func TestScoreRuggedToken(t *testing.T) {
	// 90% ATH drop, 50k volume at 72h: -70 and -30 stack to zero.
	report := Score(Snapshot{
		ATH:          1.0,
		CurrentPrice: 0.10,
		Volume24h:    50_000,
		AgeHours:     72,
	})
	assert.Equal(t, 0.0, report.Score)
	assert.Equal(t, StatusRugged, report.Status)
	assert.Len(t, report.Issues, 2)
}

func TestScoreVolumeFloorByAge(t *testing.T) {
	// 150k volume passes the new-token floor but not the established one.
	young := Score(Snapshot{ATH: 1, CurrentPrice: 1, Volume24h: 150_000, AgeHours: 24})
	assert.Equal(t, 100.0, young.Score)

	established := Score(Snapshot{ATH: 1, CurrentPrice: 1, Volume24h: 150_000, AgeHours: 100})
	assert.Equal(t, 70.0, established.Score)
	assert.Equal(t, StatusActive, established.Status)
}

func TestScoreHolderPenalties(t *testing.T) {
	report := Score(Snapshot{
		ATH:            1.0,
		CurrentPrice:   0.9,
		Volume24h:      500_000,
		AgeHours:       100,
		HolderDelta1h:  intPtr(-20),
		HolderDelta24h: intPtr(-80),
	})
	assert.Equal(t, 35.0, report.Score)
	assert.Equal(t, StatusWarning, report.Status)
}

func TestScoreMissingHolderDataIsNeutral(t *testing.T) {
	with := Score(Snapshot{ATH: 1, CurrentPrice: 1, Volume24h: 500_000, AgeHours: 100, HolderDelta1h: intPtr(-5)})
	without := Score(Snapshot{ATH: 1, CurrentPrice: 1, Volume24h: 500_000, AgeHours: 100})
	assert.Equal(t, with.Score, without.Score)
}

func TestScoreIsPure(t *testing.T) {
	snap := Snapshot{ATH: 1.0, CurrentPrice: 0.05, Volume24h: 10_000, AgeHours: 500}
	first := Score(snap)
	second := Score(snap)
	assert.Equal(t, first, second)
}

func TestStatusBuckets(t *testing.T) {
	assert.Equal(t, StatusRugged, statusFor(19))
	assert.Equal(t, StatusWarning, statusFor(20))
	assert.Equal(t, StatusWarning, statusFor(49))
	assert.Equal(t, StatusActive, statusFor(50))
}
