package geckoterminal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"dex-zone-scanner/internal/market"
)

// Typed client errors. Callers branch on these with errors.Is.
var (
	ErrNotFound    = errors.New("geckoterminal: pool not found")
	ErrRateLimited = errors.New("geckoterminal: rate limited")
	ErrTransient   = errors.New("geckoterminal: transient upstream error")
	ErrMalformed   = errors.New("geckoterminal: malformed response")
)

const defaultBaseURL = "https://api.geckoterminal.com/api/v2"

// Config holds client tuning knobs.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration // per-request deadline, default 10s
	RateLimit      int           // requests/sec to the provider host, default 30
	MaxRetries     int           // retries for transient failures, default 3
}

// Client talks to the GeckoTerminal OHLCV aggregator. All requests share a
// process-wide token bucket so concurrent callers respect the provider's
// rate limit, and a circuit breaker sheds load when the provider degrades.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewClient creates a GeckoTerminal client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 30
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "geckoterminal",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
		breaker:    breaker,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.RequestTimeout,
		logger:     logger.With().Str("component", "geckoterminal").Logger(),
	}
}

// FetchOHLCV fetches up to limit candles for a pool and returns them sorted
// ascending by timestamp with derived EMAs populated.
func (c *Client) FetchOHLCV(ctx context.Context, pool market.PoolID, timeframe market.Timeframe, aggregate, limit int) (*market.Series, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	endpoint := fmt.Sprintf("/networks/%s/pools/%s/ohlcv/%s",
		url.PathEscape(pool.Network), url.PathEscape(pool.Address), string(timeframe))
	query := url.Values{
		"aggregate": {strconv.Itoa(aggregate)},
		"limit":     {strconv.Itoa(limit)},
	}

	var payload ohlcvResponse
	if err := c.getJSON(ctx, endpoint, query, &payload); err != nil {
		return nil, err
	}

	series := &market.Series{Candles: make([]market.Candle, 0, len(payload.Data.Attributes.OHLCVList))}
	for _, row := range payload.Data.Attributes.OHLCVList {
		if len(row) < 6 {
			return nil, fmt.Errorf("%w: ohlcv row has %d fields", ErrMalformed, len(row))
		}
		ts, err := toFloat(row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		vals := make([]float64, 5)
		for i := 1; i < 6; i++ {
			v, err := toFloat(row[i])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			vals[i-1] = v
		}
		series.Candles = append(series.Candles, market.Candle{
			Timestamp: int64(ts),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}

	series.Normalize()
	attachEMAColumns(series)
	return series, nil
}

// FetchPoolMeta fetches spot metadata for a single pool.
func (c *Client) FetchPoolMeta(ctx context.Context, pool market.PoolID) (market.PoolMeta, error) {
	endpoint := fmt.Sprintf("/networks/%s/pools/%s",
		url.PathEscape(pool.Network), url.PathEscape(pool.Address))

	var payload poolResponse
	if err := c.getJSON(ctx, endpoint, nil, &payload); err != nil {
		return market.PoolMeta{}, err
	}

	attrs := payload.Data.Attributes
	price, _ := strconv.ParseFloat(attrs.BaseTokenPriceUSD, 64)
	volume, _ := strconv.ParseFloat(attrs.VolumeUSD.H24, 64)

	// Pool names come as "BASE / QUOTE"; the base symbol is the first token.
	symbol := attrs.Name
	if idx := strings.Index(symbol, " /"); idx > 0 {
		symbol = symbol[:idx]
	}

	return market.PoolMeta{
		BasePriceUSD: price,
		Symbol:       strings.TrimSpace(symbol),
		Volume24h:    volume,
	}, nil
}

// FetchTrendingPools fetches the trending pool list for Solana, resolving
// base-token address and symbol through the included token records.
func (c *Client) FetchTrendingPools(ctx context.Context, limit int) ([]market.TrendingToken, error) {
	if limit <= 0 {
		limit = 50
	}

	query := url.Values{
		"include": {"base_token,quote_token"},
		"limit":   {strconv.Itoa(limit)},
	}

	var payload trendingResponse
	if err := c.getJSON(ctx, "/networks/solana/trending_pools", query, &payload); err != nil {
		return nil, err
	}

	tokenMap := make(map[string]includedToken, len(payload.Included))
	for _, item := range payload.Included {
		if item.Type == "token" {
			tokenMap[item.ID] = item
		}
	}

	tokens := make([]market.TrendingToken, 0, len(payload.Data))
	for _, pool := range payload.Data {
		base, ok := tokenMap[pool.Relationships.BaseToken.Data.ID]
		if !ok || base.Attributes.Address == "" {
			continue
		}
		price, err := strconv.ParseFloat(pool.Attributes.BaseTokenPriceUSD, 64)
		if err != nil || price <= 0 {
			continue
		}
		volume, _ := strconv.ParseFloat(pool.Attributes.VolumeUSD.H24, 64)

		symbol := base.Attributes.Symbol
		if symbol == "" {
			symbol = "Unknown"
		}
		tokens = append(tokens, market.TrendingToken{
			Address:   base.Attributes.Address,
			Symbol:    symbol,
			PoolID:    pool.ID,
			Volume24h: volume,
			PriceUSD:  price,
		})
	}
	return tokens, nil
}

// getJSON performs a rate-limited GET with retries for transient failures.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	var lastErr error
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrTransient, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		lastErr = c.doOnce(ctx, endpoint, query, out)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrTransient) && !errors.Is(lastErr, ErrRateLimited) {
			return lastErr
		}
		c.logger.Warn().Err(lastErr).Str("endpoint", endpoint).Int("attempt", attempt+1).Msg("retrying upstream request")
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		reqURL := c.baseURL + endpoint
		if len(query) > 0 {
			reqURL += "?" + query.Encode()
		}

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransient, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, ErrRateLimited
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%w: status %d", ErrMalformed, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransient, err)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, nil
	})

	if err != nil && errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("%w: circuit open", ErrTransient)
	}
	return err
}

// toFloat coerces a decoded JSON scalar (number or numeric string) to float64.
func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(t, 64)
	case json.Number:
		return t.Float64()
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}
