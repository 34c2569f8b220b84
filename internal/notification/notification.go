package notification

import (
	"context"

	"github.com/rs/zerolog"

	"dex-zone-scanner/internal/strategy"
)

// Notifier is a chat sink. Implementations return the id of the posted
// message so callers can thread follow-ups.
type Notifier interface {
	Name() string
	IsEnabled() bool
	SendText(ctx context.Context, text string, replyTo *int64) (int64, error)
	SendPhoto(ctx context.Context, photo []byte, caption string, replyTo *int64) (int64, error)
}

// Manager fans signals out to the configured notifiers. It satisfies
// the scanner's SignalSink.
type Manager struct {
	notifiers []Notifier
	logger    zerolog.Logger
}

// NewManager creates a notification manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		logger: logger.With().Str("component", "notification").Logger(),
	}
}

// AddNotifier registers a provider.
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// PublishSignal formats and posts a signal to every enabled notifier.
// The message id of the last successful post is returned.
func (m *Manager) PublishSignal(ctx context.Context, sig *strategy.Signal, replyTo *int64) (int64, error) {
	text := FormatSignal(sig)

	var (
		messageID int64
		lastErr   error
	)
	for _, n := range m.notifiers {
		if !n.IsEnabled() {
			continue
		}
		id, err := n.SendText(ctx, text, replyTo)
		if err != nil {
			m.logger.Error().Err(err).Str("notifier", n.Name()).Msg("signal post failed")
			lastErr = err
			continue
		}
		messageID = id
	}
	if messageID == 0 && lastErr != nil {
		return 0, lastErr
	}
	return messageID, nil
}

// PublishText posts a plain operational message.
func (m *Manager) PublishText(ctx context.Context, text string) error {
	var lastErr error
	for _, n := range m.notifiers {
		if !n.IsEnabled() {
			continue
		}
		if _, err := n.SendText(ctx, text, nil); err != nil {
			m.logger.Error().Err(err).Str("notifier", n.Name()).Msg("text post failed")
			lastErr = err
		}
	}
	return lastErr
}
