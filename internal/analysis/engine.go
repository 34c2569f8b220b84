package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dex-zone-scanner/internal/cache"
	"dex-zone-scanner/internal/market"
)

const (
	analysisCacheTTL = 5 * time.Minute
	candleCacheTTL   = 5 * time.Minute
	maxFetchCandles  = 500
)

// MarketData is the slice of the OHLCV client the engine needs.
type MarketData interface {
	FetchOHLCV(ctx context.Context, pool market.PoolID, timeframe market.Timeframe, aggregate, limit int) (*market.Series, error)
}

// Tuning carries the operator-adjustable analysis knobs. Zero values keep
// the tuned defaults.
type Tuning struct {
	// ConfluenceTolerance is the fib-confluence match width for mature
	// tokens (FIBONACCI_TOLERANCE).
	ConfluenceTolerance float64
}

// Engine orchestrates zone, fibonacci, trendline and moving-average
// derivation into a Result. Results and candle series are cached for five
// minutes; both caches are owned by the engine instance.
type Engine struct {
	client        MarketData
	detector      *ZoneDetector
	candleCache   *cache.MemoryCache
	analysisCache *cache.MemoryCache
	redis         *cache.RedisCache
	tuning        Tuning
	logger        zerolog.Logger
}

// NewEngine creates an analysis engine. redis may be nil.
func NewEngine(client MarketData, redis *cache.RedisCache, tuning Tuning, logger zerolog.Logger) *Engine {
	return &Engine{
		client:        client,
		detector:      NewZoneDetector(),
		candleCache:   cache.NewMemoryCache(candleCacheTTL),
		analysisCache: cache.NewMemoryCache(analysisCacheTTL),
		redis:         redis,
		tuning:        tuning,
		logger:        logger.With().Str("component", "analysis").Logger(),
	}
}

// GetSeries fetches a candle series through the candle cache.
func (e *Engine) GetSeries(ctx context.Context, pool market.PoolID, timeframe market.Timeframe, aggregate, limit int) (*market.Series, error) {
	key := fmt.Sprintf("candles:%s:%s:%d:%d", pool.String(), timeframe, aggregate, limit)

	if v, ok := e.candleCache.Get(key); ok {
		return v.(*market.Series), nil
	}
	if e.redis != nil {
		var series market.Series
		if e.redis.GetJSON(ctx, key, &series) && series.Len() > 0 {
			e.candleCache.Set(key, &series)
			return &series, nil
		}
	}

	series, err := e.client.FetchOHLCV(ctx, pool, timeframe, aggregate, limit)
	if err != nil {
		return nil, err
	}

	e.candleCache.Set(key, series)
	if e.redis != nil {
		e.redis.SetJSON(ctx, key, series, candleCacheTTL)
	}
	return series, nil
}

// PerformAnalysis builds the full technical view for a pool, or returns
// (nil, nil) when there is not enough data to analyze.
func (e *Engine) PerformAnalysis(ctx context.Context, poolID string, timeframe market.Timeframe, aggregate int, symbol string) (*Result, error) {
	pool, err := market.ParsePoolID(poolID)
	if err != nil {
		return nil, err
	}

	// Bucketed key: at most one recompute per pool/timeframe per 5 minutes.
	cacheKey := fmt.Sprintf("%s:%s:%d:%d", poolID, timeframe, aggregate, time.Now().Unix()/300)
	if v, ok := e.analysisCache.Get(cacheKey); ok {
		return v.(*Result), nil
	}

	series, err := e.GetSeries(ctx, pool, timeframe, aggregate, maxFetchCandles)
	if err != nil {
		return nil, err
	}
	if series.Len() < minCandles(timeframe) {
		e.logger.Debug().
			Str("pool", poolID).
			Str("timeframe", string(timeframe)).
			Int("candles", series.Len()).
			Msg("insufficient data for analysis")
		return nil, nil
	}

	result := e.analyze(series, Metadata{
		PoolID:    poolID,
		Symbol:    symbol,
		Timeframe: timeframe,
		Aggregate: aggregate,
		Timestamp: time.Now().UTC(),
	})

	e.analysisCache.Set(cacheKey, result)
	return result, nil
}

// analyze derives all technical layers from an already fetched series.
func (e *Engine) analyze(series *market.Series, meta Metadata) *Result {
	zones := e.detector.Detect(series, meta.Timeframe, meta.Aggregate)
	fib := CalculateFibonacci(series, meta.Timeframe, meta.Aggregate)
	ApplyConfluence(&zones, fib, series.AgeHours(), e.tuning.ConfluenceTolerance)

	result := &Result{
		Metadata:     meta,
		Series:       series,
		CurrentPrice: series.CurrentPrice(),
		Zones:        zones,
		Fibonacci:    fib,
		Extensions:   CalculateFibonacciExtensions(series),
		Trendline:    DetectTrendline(series),
	}

	if len(series.EMA50) > 0 {
		v := series.EMA50[len(series.EMA50)-1]
		result.MA.EMA50 = &v
	}
	if len(series.EMA200) > 0 {
		v := series.EMA200[len(series.EMA200)-1]
		result.MA.EMA200 = &v
	}
	return result
}

// minCandles is the per-timeframe floor under which analysis is skipped.
func minCandles(timeframe market.Timeframe) int {
	switch timeframe {
	case market.TimeframeMinute:
		return 30
	case market.TimeframeHour:
		return 20
	default:
		return 7
	}
}
