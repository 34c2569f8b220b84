package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// zoneKeyTolerance collapses zone prices within 0.1% into one state row.
const zoneKeyTolerance = 0.001

// Repository provides data access for the scanner's persisted state.
type Repository struct {
	db *DB
}

// NewRepository creates a repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck pings the database.
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// ============================================================================
// WATCHLIST
// ============================================================================

// UpsertTokens merges trending records into the watchlist, preferring the
// fresh volume/price values and bumping last_active.
func (r *Repository) UpsertTokens(ctx context.Context, tokens []TokenRecord) error {
	if len(tokens) == 0 {
		return nil
	}

	query := `
		INSERT INTO watchlist_tokens (address, symbol, pool_id, first_seen, last_active, status, volume_24h, price_usd)
		VALUES ($1, $2, $3, $4, $4, 'active', $5, $6)
		ON CONFLICT (address) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			pool_id = EXCLUDED.pool_id,
			last_active = EXCLUDED.last_active,
			volume_24h = EXCLUDED.volume_24h,
			price_usd = EXCLUDED.price_usd
	`
	now := time.Now().UTC()
	for _, t := range tokens {
		if _, err := r.db.Pool.Exec(ctx, query, t.Address, t.Symbol, t.PoolID, now, t.Volume24h, t.PriceUSD); err != nil {
			return err
		}
	}
	return nil
}

// GetActiveWatchlist returns active tokens, most recently active first.
func (r *Repository) GetActiveWatchlist(ctx context.Context, limit int) ([]TokenRecord, error) {
	query := `
		SELECT address, symbol, pool_id, first_seen, last_active, status, health_score,
		       last_message_id, last_health_check, volume_24h, price_usd
		FROM watchlist_tokens
		WHERE status = 'active'
		ORDER BY last_active DESC
		LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []TokenRecord
	for rows.Next() {
		var t TokenRecord
		if err := rows.Scan(
			&t.Address, &t.Symbol, &t.PoolID, &t.FirstSeen, &t.LastActive, &t.Status,
			&t.HealthScore, &t.LastMessageID, &t.LastHealthCheck, &t.Volume24h, &t.PriceUSD,
		); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// UpdateTokenHealth persists the outcome of a health check.
func (r *Repository) UpdateTokenHealth(ctx context.Context, address, status string, score float64) error {
	query := `
		UPDATE watchlist_tokens
		SET status = $2, health_score = $3, last_health_check = $4
		WHERE address = $1
	`
	_, err := r.db.Pool.Exec(ctx, query, address, status, score, time.Now().UTC())
	return err
}

// SetLastMessageID remembers the chat message id posted for a token so
// later alerts can reply to it.
func (r *Repository) SetLastMessageID(ctx context.Context, address string, messageID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE watchlist_tokens SET last_message_id = $2 WHERE address = $1`,
		address, messageID)
	return err
}

// GetToken fetches a single watchlist record.
func (r *Repository) GetToken(ctx context.Context, address string) (*TokenRecord, error) {
	query := `
		SELECT address, symbol, pool_id, first_seen, last_active, status, health_score,
		       last_message_id, last_health_check, volume_24h, price_usd
		FROM watchlist_tokens
		WHERE address = $1
	`
	var t TokenRecord
	err := r.db.Pool.QueryRow(ctx, query, address).Scan(
		&t.Address, &t.Symbol, &t.PoolID, &t.FirstSeen, &t.LastActive, &t.Status,
		&t.HealthScore, &t.LastMessageID, &t.LastHealthCheck, &t.Volume24h, &t.PriceUSD,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ============================================================================
// ALERT HISTORY
// ============================================================================

// InsertAlert appends one alert record.
func (r *Repository) InsertAlert(ctx context.Context, alert *AlertRecord) error {
	query := `
		INSERT INTO alert_history (token_address, signal_type, level_price, price_at_alert, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.Pool.QueryRow(ctx, query,
		alert.TokenAddress, alert.SignalType, alert.LevelPrice, alert.PriceAtAlert, alert.Timestamp,
	).Scan(&alert.ID)
}

// LatestAlertByType returns the most recent alert of a signal type for a
// token, or nil when none exists.
func (r *Repository) LatestAlertByType(ctx context.Context, tokenAddress, signalType string) (*AlertRecord, error) {
	query := `
		SELECT id, token_address, signal_type, level_price, price_at_alert, timestamp
		FROM alert_history
		WHERE token_address = $1 AND signal_type = $2
		ORDER BY timestamp DESC
		LIMIT 1
	`
	return r.scanAlert(r.db.Pool.QueryRow(ctx, query, tokenAddress, signalType))
}

// LatestAlertNearLevel returns the most recent alert for a token whose
// level_price lies within tolerance (fractional) of level.
func (r *Repository) LatestAlertNearLevel(ctx context.Context, tokenAddress string, level, tolerance float64) (*AlertRecord, error) {
	query := `
		SELECT id, token_address, signal_type, level_price, price_at_alert, timestamp
		FROM alert_history
		WHERE token_address = $1
		  AND level_price IS NOT NULL
		  AND level_price BETWEEN $2 AND $3
		ORDER BY timestamp DESC
		LIMIT 1
	`
	return r.scanAlert(r.db.Pool.QueryRow(ctx, query, tokenAddress, level*(1-tolerance), level*(1+tolerance)))
}

func (r *Repository) scanAlert(row pgx.Row) (*AlertRecord, error) {
	var a AlertRecord
	err := row.Scan(&a.ID, &a.TokenAddress, &a.SignalType, &a.LevelPrice, &a.PriceAtAlert, &a.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ============================================================================
// ZONE STATES
// ============================================================================

// GetZoneState returns the state row matching (token, zone_price) within
// the 0.1% key tolerance, or nil when the zone has never been tracked.
func (r *Repository) GetZoneState(ctx context.Context, tokenAddress string, zonePrice float64) (*ZoneState, error) {
	query := `
		SELECT id, token_address, zone_price, current_state, last_signal_type, last_signal_time, last_price
		FROM zone_states
		WHERE token_address = $1
		  AND abs(zone_price - $2) / zone_price < $3
		ORDER BY abs(zone_price - $2)
		LIMIT 1
	`
	var s ZoneState
	err := r.db.Pool.QueryRow(ctx, query, tokenAddress, zonePrice, zoneKeyTolerance).Scan(
		&s.ID, &s.TokenAddress, &s.ZonePrice, &s.CurrentState, &s.LastSignalType, &s.LastSignalTime, &s.LastPrice,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SetZoneState upserts the state machine row for a zone. An existing row
// within the key tolerance is updated in place; writes are last-write-wins.
func (r *Repository) SetZoneState(ctx context.Context, tokenAddress string, zonePrice float64, state, signalType string, currentPrice float64, now time.Time) error {
	updated, err := r.db.Pool.Exec(ctx, `
		UPDATE zone_states
		SET current_state = $4, last_signal_type = $5, last_signal_time = $6, last_price = $7
		WHERE token_address = $1
		  AND abs(zone_price - $2) / zone_price < $3
	`, tokenAddress, zonePrice, zoneKeyTolerance, state, signalType, now, currentPrice)
	if err != nil {
		return err
	}
	if updated.RowsAffected() > 0 {
		return nil
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO zone_states (token_address, zone_price, current_state, last_signal_type, last_signal_time, last_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token_address, zone_price) DO UPDATE SET
			current_state = EXCLUDED.current_state,
			last_signal_type = EXCLUDED.last_signal_type,
			last_signal_time = EXCLUDED.last_signal_time,
			last_price = EXCLUDED.last_price
	`, tokenAddress, zonePrice, state, signalType, now, currentPrice)
	return err
}

// ============================================================================
// MARKET STRUCTURE TELEMETRY
// ============================================================================

// InsertMarketStructure records detected levels for offline inspection.
// Best-effort: callers log failures and move on.
func (r *Repository) InsertMarketStructure(ctx context.Context, tokenAddress, levelType string, priceLevel, score float64) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO market_structure (token_address, level_type, price_level, score)
		VALUES ($1, $2, $3, $4)
	`, tokenAddress, levelType, priceLevel, score)
	return err
}
