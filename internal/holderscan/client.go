package holderscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.holderscan.com/v0"
	defaultChain   = "sol"
)

// HolderStats is the holder count snapshot for a token.
type HolderStats struct {
	HolderCount int `json:"holder_count"`
}

// HolderDeltas carries per-interval holder count changes.
type HolderDeltas struct {
	Hour1 *int `json:"1hour"`
	Day1  *int `json:"1day"`
	Day7  *int `json:"7days"`
}

// HolderBreakdowns describes the holder distribution.
type HolderBreakdowns struct {
	HoldersOver100kUSD int            `json:"holders_over_100k_usd"`
	Categories         map[string]int `json:"categories"`
	TotalHolders       int            `json:"total_holders"`
}

// Client talks to the holder-stats provider. When no API key is configured
// the client reports Enabled() == false and every query returns the zero
// value without error, so callers never need a separate nil check.
type Client struct {
	baseURL    string
	chain      string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Config holds holder client settings.
type Config struct {
	BaseURL string
	Chain   string
	APIKey  string
	Timeout time.Duration // default 7s
}

// NewClient creates a holder-stats client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Chain == "" {
		cfg.Chain = defaultChain
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 7 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		chain:      cfg.Chain,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "holderscan").Logger(),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// GetHolderStats fetches the holder count for a token.
func (c *Client) GetHolderStats(ctx context.Context, tokenAddress string) (HolderStats, error) {
	var out HolderStats
	if !c.Enabled() {
		return out, nil
	}
	err := c.getJSON(ctx, fmt.Sprintf("/%s/tokens/%s/holders?limit=1", c.chain, tokenAddress), &out)
	return out, err
}

// GetHolderDeltas fetches per-interval holder count changes.
func (c *Client) GetHolderDeltas(ctx context.Context, tokenAddress string) (HolderDeltas, error) {
	var out HolderDeltas
	if !c.Enabled() {
		return out, nil
	}
	err := c.getJSON(ctx, fmt.Sprintf("/%s/tokens/%s/holders/deltas", c.chain, tokenAddress), &out)
	return out, err
}

// GetHolderBreakdowns fetches the holder distribution for a token.
func (c *Client) GetHolderBreakdowns(ctx context.Context, tokenAddress string) (HolderBreakdowns, error) {
	var out HolderBreakdowns
	if !c.Enabled() {
		return out, nil
	}
	err := c.getJSON(ctx, fmt.Sprintf("/%s/tokens/%s/holders/breakdowns", c.chain, tokenAddress), &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("holderscan request failed: %w", err)
	}
	defer resp.Body.Close()

	// 404 means the provider has no data for this token, not a failure.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("holderscan returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("holderscan read failed: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("holderscan decode failed: %w", err)
	}
	return nil
}
