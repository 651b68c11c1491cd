package memory

import (
	"context"
	"sync"
	"time"

	"telegram-automation/internal/domain/ports/repository"
)

var _ repository.SendLog = (*SendLog)(nil)

type SendLog struct {
	mu    sync.Mutex
	sends map[string][]time.Time
}

func NewSendLog() *SendLog {
	return &SendLog{sends: make(map[string][]time.Time)}
}

func (l *SendLog) Record(ctx context.Context, accountID string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sends[accountID] = append(l.sends[accountID], at)
	return nil
}

func (l *SendLog) Since(ctx context.Context, accountID string, from time.Time) ([]time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []time.Time
	for _, t := range l.sends[accountID] {
		if !t.Before(from) {
			out = append(out, t)
		}
	}
	return out, nil
}
