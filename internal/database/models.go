package database

import "time"

// TokenRecord is one watchlist entry.
type TokenRecord struct {
	Address         string     `json:"address"`
	Symbol          string     `json:"symbol"`
	PoolID          string     `json:"pool_id"`
	FirstSeen       time.Time  `json:"first_seen"`
	LastActive      time.Time  `json:"last_active"`
	Status          string     `json:"status"`
	HealthScore     float64    `json:"health_score"`
	LastMessageID   *int64     `json:"last_message_id,omitempty"`
	LastHealthCheck *time.Time `json:"last_health_check,omitempty"`
	Volume24h       float64    `json:"volume_24h"`
	PriceUSD        float64    `json:"price_usd"`
}

// AlertRecord is one emitted signal; the table is append-only.
type AlertRecord struct {
	ID           int64     `json:"id"`
	TokenAddress string    `json:"token_address"`
	SignalType   string    `json:"signal_type"`
	LevelPrice   *float64  `json:"level_price,omitempty"`
	PriceAtAlert float64   `json:"price_at_alert"`
	Timestamp    time.Time `json:"timestamp"`
}

// ZoneState is the persisted finite-state-machine record for one
// (token, zone_price) pair.
type ZoneState struct {
	ID             int64      `json:"id"`
	TokenAddress   string     `json:"token_address"`
	ZonePrice      float64    `json:"zone_price"`
	CurrentState   string     `json:"current_state"`
	LastSignalType *string    `json:"last_signal_type,omitempty"`
	LastSignalTime *time.Time `json:"last_signal_time,omitempty"`
	LastPrice      *float64   `json:"last_price,omitempty"`
}
