package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandleValid(t *testing.T) {
	valid := Candle{Timestamp: 1, Open: 1.0, High: 1.2, Low: 0.9, Close: 1.1, Volume: 100}
	assert.True(t, valid.Valid())

	// High below the body.
	broken := Candle{Timestamp: 1, Open: 1.0, High: 0.95, Low: 0.9, Close: 1.1, Volume: 100}
	assert.False(t, broken.Valid())

	negVolume := Candle{Timestamp: 1, Open: 1.0, High: 1.2, Low: 0.9, Close: 1.1, Volume: -1}
	assert.False(t, negVolume.Valid())
}

func TestSeriesNormalize(t *testing.T) {
	s := &Series{Candles: []Candle{
		{Timestamp: 300, Open: 1, High: 1.1, Low: 0.9, Close: 1, Volume: 10},
		{Timestamp: 100, Open: 1, High: 1.1, Low: 0.9, Close: 1, Volume: 10},
		{Timestamp: 200, Open: 1, High: 1.1, Low: 0.9, Close: 1, Volume: 10},
		{Timestamp: 200, Open: 1, High: 1.1, Low: 0.9, Close: 1, Volume: 10}, // duplicate
		{Timestamp: 400, Open: 1, High: 0.5, Low: 0.9, Close: 1, Volume: 10}, // invalid wick
	}}
	s.Normalize()

	require.Equal(t, 3, s.Len())
	for i := 1; i < s.Len(); i++ {
		assert.Greater(t, s.Candles[i].Timestamp, s.Candles[i-1].Timestamp)
	}
}

func TestSeriesAge(t *testing.T) {
	now := time.Now().Unix()
	s := &Series{Candles: []Candle{
		{Timestamp: now - 3600*48, Open: 1, High: 1, Low: 1, Close: 1},
		{Timestamp: now, Open: 1, High: 1, Low: 1, Close: 1},
	}}
	assert.InDelta(t, 48.0, s.AgeHours(), 0.1)
}

func TestParsePoolID(t *testing.T) {
	pool, err := ParsePoolID("solana_8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj")
	require.NoError(t, err)
	assert.Equal(t, "solana", pool.Network)
	assert.Equal(t, "8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj", pool.Address)

	_, err = ParsePoolID("no-underscore")
	assert.Error(t, err)

	_, err = ParsePoolID("")
	assert.Error(t, err)
}
