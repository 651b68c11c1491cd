package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-automation/internal/domain/ports/adapter"
)

var _ adapter.MessengerClient = (*NoopMessenger)(nil)

// NoopMessenger logs instead of sending. Scripted outcomes let local runs
// exercise the failure paths.
type NoopMessenger struct {
	log   *zerolog.Logger
	delay time.Duration

	mu       sync.Mutex
	scripted map[string]adapter.Outcome
	sent     []string
}

func NewNoopMessenger(accountID string, delay time.Duration, logger *zerolog.Logger) *NoopMessenger {
	lg := logger.With().Str("component", "noop-messenger").Str("account_id", accountID).Logger()
	return &NoopMessenger{log: &lg, delay: delay, scripted: make(map[string]adapter.Outcome)}
}

// Script makes every send to target return out.
func (m *NoopMessenger) Script(target string, out adapter.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted[target] = out
}

func (m *NoopMessenger) Send(ctx context.Context, target, text string) (adapter.Outcome, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return adapter.Outcome{}, ctx.Err()
		}
	}
	m.mu.Lock()
	out, ok := m.scripted[target]
	if !ok {
		out = adapter.Delivered()
		m.sent = append(m.sent, target)
	}
	m.mu.Unlock()
	m.log.Info().Str("target", target).Str("outcome", string(out.Kind)).Str("text", text).Msg("noop send")
	return out, nil
}

// Sent lists targets that received a message, in order.
func (m *NoopMessenger) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}
