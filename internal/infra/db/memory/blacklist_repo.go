package memory

import (
	"context"
	"sync"
	"time"

	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

var _ repository.BlacklistRepository = (*BlacklistRepo)(nil)

type BlacklistRepo struct {
	mu      sync.Mutex
	entries map[string]model.BlacklistEntry
}

func NewBlacklistRepo() *BlacklistRepo {
	return &BlacklistRepo{entries: make(map[string]model.BlacklistEntry)}
}

func (r *BlacklistRepo) Upsert(ctx context.Context, tx repository.Tx, e *model.BlacklistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Target] = *e
	return nil
}

func (r *BlacklistRepo) Delete(ctx context.Context, tx repository.Tx, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, target)
	return nil
}

func (r *BlacklistRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.BlacklistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.BlacklistEntry, 0, len(r.entries))
	for _, e := range r.entries {
		cp := e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *BlacklistRepo) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, e := range r.entries {
		if e.Kind == model.BlacklistTemporary && !e.ActiveAt(now) {
			delete(r.entries, k)
			n++
		}
	}
	return n, nil
}
