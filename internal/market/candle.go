package market

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Timeframe is the candle resolution family used by the OHLCV provider.
type Timeframe string

const (
	TimeframeMinute Timeframe = "minute"
	TimeframeHour   Timeframe = "hour"
	TimeframeDay    Timeframe = "day"
)

// Candle represents a single OHLCV candle. Timestamps are Unix seconds.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Valid reports whether the wick-body invariant holds.
func (c Candle) Valid() bool {
	if c.Volume < 0 {
		return false
	}
	bodyLow := c.Open
	bodyHigh := c.Close
	if bodyLow > bodyHigh {
		bodyLow, bodyHigh = bodyHigh, bodyLow
	}
	return c.Low <= bodyLow && bodyHigh <= c.High
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// Series is an ordered candle sequence with strictly increasing timestamps.
// EMA50/EMA200 are derived columns, populated only when enough candles exist.
type Series struct {
	Candles []Candle
	EMA50   []float64 // len == len(Candles) when present, nil otherwise
	EMA200  []float64
}

// Len returns the number of candles.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Candles)
}

// Last returns the most recent candle. Callers must check Len first.
func (s *Series) Last() Candle {
	return s.Candles[len(s.Candles)-1]
}

// CurrentPrice returns the close of the most recent candle, or 0 when empty.
func (s *Series) CurrentPrice() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Last().Close
}

// Closes returns the close column.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Highs returns the high column.
func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.High
	}
	return out
}

// Lows returns the low column.
func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Low
	}
	return out
}

// Volumes returns the volume column.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}

// AvgVolume returns the mean volume across the series, or 0 when empty.
func (s *Series) AvgVolume() float64 {
	if s.Len() == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range s.Candles {
		sum += c.Volume
	}
	return sum / float64(len(s.Candles))
}

// Age returns the span between the first and last candle.
func (s *Series) Age() time.Duration {
	if s.Len() < 2 {
		return 0
	}
	return time.Duration(s.Last().Timestamp-s.Candles[0].Timestamp) * time.Second
}

// AgeHours returns the series age in hours.
func (s *Series) AgeHours() float64 {
	return s.Age().Hours()
}

// Normalize sorts candles ascending by timestamp and drops duplicates and
// candles violating the wick-body invariant. Derived EMA columns are
// attached separately, after normalization.
func (s *Series) Normalize() {
	sort.Slice(s.Candles, func(i, j int) bool {
		return s.Candles[i].Timestamp < s.Candles[j].Timestamp
	})
	kept := s.Candles[:0]
	var prev int64 = -1
	for _, c := range s.Candles {
		if c.Timestamp == prev || !c.Valid() {
			continue
		}
		kept = append(kept, c)
		prev = c.Timestamp
	}
	s.Candles = kept
}

// PoolID identifies a trading venue as <network>_<address>.
type PoolID struct {
	Network string
	Address string
}

// ParsePoolID splits a pool identifier at the first underscore.
func ParsePoolID(raw string) (PoolID, error) {
	idx := strings.Index(raw, "_")
	if idx <= 0 || idx == len(raw)-1 {
		return PoolID{}, fmt.Errorf("invalid pool id %q", raw)
	}
	return PoolID{Network: raw[:idx], Address: raw[idx+1:]}, nil
}

// String reassembles the provider-facing identifier.
func (p PoolID) String() string {
	return p.Network + "_" + p.Address
}

// PoolMeta is spot metadata for a pool from the aggregator.
type PoolMeta struct {
	BasePriceUSD float64
	Symbol       string
	Volume24h    float64
}

// TrendingToken is one entry of the aggregator's trending list.
type TrendingToken struct {
	Address   string
	Symbol    string
	PoolID    string
	Volume24h float64
	PriceUSD  float64
}
