package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DB wraps the PostgreSQL connection pool.
type DB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDB connects to PostgreSQL using a DATABASE_URL-style DSN.
func NewDB(databaseURL string, logger zerolog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log := logger.With().Str("component", "database").Logger()
	log.Info().Msg("connected to PostgreSQL")

	return &DB{Pool: pool, logger: log}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.logger.Info().Msg("database connection closed")
	}
}

// RunMigrations creates the scanner tables when they do not exist.
func (db *DB) RunMigrations(ctx context.Context) error {
	db.logger.Info().Msg("running database migrations")

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS watchlist_tokens (
			address VARCHAR(64) PRIMARY KEY,
			symbol VARCHAR(32) NOT NULL,
			pool_id VARCHAR(128) NOT NULL,
			first_seen TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_active TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			health_score DOUBLE PRECISION NOT NULL DEFAULT 100,
			last_message_id BIGINT,
			last_health_check TIMESTAMPTZ,
			volume_24h DOUBLE PRECISION NOT NULL DEFAULT 0,
			price_usd DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_status ON watchlist_tokens(status)`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_last_active ON watchlist_tokens(last_active DESC)`,

		`CREATE TABLE IF NOT EXISTS alert_history (
			id SERIAL PRIMARY KEY,
			token_address VARCHAR(64) NOT NULL,
			signal_type VARCHAR(48) NOT NULL,
			level_price DOUBLE PRECISION,
			price_at_alert DOUBLE PRECISION NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_history_token_type ON alert_history(token_address, signal_type, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_history_token_level ON alert_history(token_address, level_price, timestamp DESC)`,

		`CREATE TABLE IF NOT EXISTS zone_states (
			id SERIAL PRIMARY KEY,
			token_address VARCHAR(64) NOT NULL,
			zone_price DOUBLE PRECISION NOT NULL,
			current_state VARCHAR(24) NOT NULL DEFAULT 'IDLE',
			last_signal_type VARCHAR(48),
			last_signal_time TIMESTAMPTZ,
			last_price DOUBLE PRECISION,
			UNIQUE(token_address, zone_price)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_zone_states_token ON zone_states(token_address)`,

		// Historical telemetry only; never read on the signal path.
		`CREATE TABLE IF NOT EXISTS market_structure (
			id SERIAL PRIMARY KEY,
			token_address VARCHAR(64) NOT NULL,
			level_type VARCHAR(16) NOT NULL,
			price_level DOUBLE PRECISION NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			last_tested_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_structure_token ON market_structure(token_address)`,
	}

	for _, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	db.logger.Info().Msg("database migrations complete")
	return nil
}
