package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-zone-scanner/internal/market"
)

// fakeMarket serves canned series per (timeframe, aggregate) and counts
// fetches.
type fakeMarket struct {
	series  map[string]*market.Series
	err     error
	fetches int
}

func key(tf market.Timeframe, agg int) string {
	return string(tf) + ":" + string(rune('0'+agg))
}

func (f *fakeMarket) FetchOHLCV(_ context.Context, _ market.PoolID, timeframe market.Timeframe, aggregate, _ int) (*market.Series, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.series[key(timeframe, aggregate)]; ok {
		return s, nil
	}
	return &market.Series{}, nil
}

func TestPerformAnalysisInsufficientData(t *testing.T) {
	fake := &fakeMarket{series: map[string]*market.Series{
		key(market.TimeframeHour, 1): rangeSeries(1.0, 2.0, 5),
	}}
	engine := NewEngine(fake, nil, Tuning{}, zerolog.Nop())

	result, err := engine.PerformAnalysis(context.Background(), "solana_pool1", market.TimeframeHour, 1, "TEST")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestPerformAnalysisInvalidPoolID(t *testing.T) {
	engine := NewEngine(&fakeMarket{}, nil, Tuning{}, zerolog.Nop())

	_, err := engine.PerformAnalysis(context.Background(), "nounderscore", market.TimeframeHour, 1, "TEST")
	assert.Error(t, err)
}

func TestPerformAnalysisAssemblesResult(t *testing.T) {
	fake := &fakeMarket{series: map[string]*market.Series{
		key(market.TimeframeHour, 1): rangeSeries(1.0, 2.0, 120),
	}}
	engine := NewEngine(fake, nil, Tuning{}, zerolog.Nop())

	result, err := engine.PerformAnalysis(context.Background(), "solana_pool1", market.TimeframeHour, 1, "TEST")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "solana_pool1", result.Metadata.PoolID)
	assert.Equal(t, "TEST", result.Metadata.Symbol)
	assert.InDelta(t, 2.0, result.CurrentPrice, 1e-6)
	require.NotNil(t, result.Fibonacci)
	require.NotNil(t, result.Extensions)
}

func TestPerformAnalysisCachesResult(t *testing.T) {
	fake := &fakeMarket{series: map[string]*market.Series{
		key(market.TimeframeHour, 1): rangeSeries(1.0, 2.0, 120),
	}}
	engine := NewEngine(fake, nil, Tuning{}, zerolog.Nop())

	first, err := engine.PerformAnalysis(context.Background(), "solana_pool1", market.TimeframeHour, 1, "TEST")
	require.NoError(t, err)
	second, err := engine.PerformAnalysis(context.Background(), "solana_pool1", market.TimeframeHour, 1, "TEST")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, fake.fetches)
}

func TestGetSeriesPropagatesErrors(t *testing.T) {
	sentinel := errors.New("upstream down")
	engine := NewEngine(&fakeMarket{err: sentinel}, nil, Tuning{}, zerolog.Nop())

	_, err := engine.GetSeries(context.Background(), market.PoolID{Network: "solana", Address: "p"}, market.TimeframeHour, 1, 100)
	assert.ErrorIs(t, err, sentinel)
}
