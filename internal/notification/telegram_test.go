package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-zone-scanner/internal/strategy"
)

func TestChunkMessageShort(t *testing.T) {
	chunks := chunkMessage("hello", 4096)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello", chunks[0])
}

func TestChunkMessageSplitsAtNewline(t *testing.T) {
	text := strings.Repeat("line one\n", 30)
	chunks := chunkMessage(text, 100)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}

	// Nothing is lost besides the newlines consumed at chunk borders.
	joined := strings.Join(chunks, "\n")
	assert.Equal(t, strings.TrimRight(text, "\n"), strings.TrimRight(joined, "\n"))
}

func TestChunkMessageHardSplitWithoutNewlines(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := chunkMessage(text, 100)

	require.Len(t, chunks, 3)
	assert.Equal(t, 100, len(chunks[0]))
	assert.Equal(t, 100, len(chunks[1]))
	assert.Equal(t, 50, len(chunks[2]))
}

func TestTelegramSendText(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken123/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"ok":true,"result":{"message_id":77}}`))
	}))
	defer server.Close()

	tg := NewTelegramNotifier(TelegramConfig{BotToken: "token123", ChatID: "42", Enabled: true})
	tg.baseURL = server.URL

	replyTo := int64(55)
	id, err := tg.SendText(context.Background(), "*hi*", &replyTo)
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)

	assert.Equal(t, "42", payload["chat_id"])
	assert.Equal(t, "Markdown", payload["parse_mode"])
	assert.Equal(t, float64(55), payload["reply_to_message_id"])
}

func TestTelegramSendTextIgnoresZeroReply(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"ok":true,"result":{"message_id":3}}`))
	}))
	defer server.Close()

	tg := NewTelegramNotifier(TelegramConfig{BotToken: "t", ChatID: "c", Enabled: true})
	tg.baseURL = server.URL

	// A zero id means there is no previous message to thread onto.
	zero := int64(0)
	_, err := tg.SendText(context.Background(), "hi", &zero)
	require.NoError(t, err)
	assert.NotContains(t, payload, "reply_to_message_id")
}

func TestTelegramDisabledIsNoop(t *testing.T) {
	tg := NewTelegramNotifier(TelegramConfig{Enabled: false})
	assert.False(t, tg.IsEnabled())

	id, err := tg.SendText(context.Background(), "ignored", nil)
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestTelegramAPIErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false}`))
	}))
	defer server.Close()

	tg := NewTelegramNotifier(TelegramConfig{BotToken: "t", ChatID: "c", Enabled: true})
	tg.baseURL = server.URL

	_, err := tg.SendText(context.Background(), "hi", nil)
	assert.Error(t, err)
}

func levelPtr(v float64) *float64 { return &v }

func TestFormatSignalBreakout(t *testing.T) {
	sig := &strategy.Signal{
		Kind:         strategy.SignalResistanceBreakout,
		TokenAddress: "So1anaAddr",
		Symbol:       "BONK",
		CurrentPrice: 0.0000265,
		Level:        levelPtr(0.0000250),
		ZoneTier:     1,
		FinalScore:   8.5,
		Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	text := FormatSignal(sig)
	assert.Contains(t, text, "Resistance Breakout")
	assert.Contains(t, text, "BONK")
	assert.Contains(t, text, "Level broken")
	assert.Contains(t, text, "Zone tier: 1")
	assert.Contains(t, text, "So1anaAddr")
	assert.Contains(t, text, "2024-05-01 12:00:00 UTC")
}

func TestFormatSignalGemHasNoLevel(t *testing.T) {
	sig := &strategy.Signal{
		Kind:         strategy.SignalGemMomentum,
		TokenAddress: "addr",
		Symbol:       "NEW",
		CurrentPrice: 0.01,
		Timestamp:    time.Now(),
	}

	text := FormatSignal(sig)
	assert.Contains(t, text, "Momentum")
	assert.NotContains(t, text, "Level")
	assert.NotContains(t, text, "Zone tier")
}

func TestPublishSignalReturnsMessageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{"message_id":9}}`))
	}))
	defer server.Close()

	tg := NewTelegramNotifier(TelegramConfig{BotToken: "t", ChatID: "c", Enabled: true})
	tg.baseURL = server.URL

	mgr := NewManager(zerolog.Nop())
	mgr.AddNotifier(tg)

	id, err := mgr.PublishSignal(context.Background(), &strategy.Signal{
		Kind: strategy.SignalGemMomentum, Symbol: "NEW", Timestamp: time.Now(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
}

func TestPublishSignalNoEnabledNotifiers(t *testing.T) {
	mgr := NewManager(zerolog.Nop())
	mgr.AddNotifier(NewTelegramNotifier(TelegramConfig{Enabled: false}))

	id, err := mgr.PublishSignal(context.Background(), &strategy.Signal{
		Kind: strategy.SignalGemMomentum, Symbol: "NEW", Timestamp: time.Now(),
	}, nil)
	require.NoError(t, err)
	assert.Zero(t, id)
}
