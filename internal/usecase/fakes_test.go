//go:build !integration

package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

var nopLogger = zerolog.Nop()

var errBoom = errors.New("boom")

type fakeBlacklistRepo struct {
	mu      sync.Mutex
	entries map[string]*model.BlacklistEntry
	failErr error
	deletes int
}

func newFakeBlacklistRepo() *fakeBlacklistRepo {
	return &fakeBlacklistRepo{entries: map[string]*model.BlacklistEntry{}}
}

func (r *fakeBlacklistRepo) Upsert(ctx context.Context, tx repository.Tx, e *model.BlacklistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	cp := *e
	r.entries[e.Target] = &cp
	return nil
}

func (r *fakeBlacklistRepo) Delete(ctx context.Context, tx repository.Tx, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	delete(r.entries, target)
	return r.failErr
}

func (r *fakeBlacklistRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.BlacklistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.BlacklistEntry, 0, len(r.entries))
	for _, e := range r.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out, r.failErr
}

func (r *fakeBlacklistRepo) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, e := range r.entries {
		if !e.ActiveAt(now) {
			delete(r.entries, k)
			n++
		}
	}
	return n, r.failErr
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]*model.MessageTemplate
	finds     int
}

func newFakeTemplateRepo(list ...*model.MessageTemplate) *fakeTemplateRepo {
	r := &fakeTemplateRepo{templates: map[string]*model.MessageTemplate{}}
	for _, t := range list {
		r.templates[t.ID] = t
	}
	return r
}

func (r *fakeTemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.MessageTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

func (r *fakeTemplateRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MessageTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	t, ok := r.templates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (r *fakeTemplateRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MessageTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.MessageTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeGroupRepo struct {
	groups []*model.Group
	err    error
}

func (r *fakeGroupRepo) Save(ctx context.Context, tx repository.Tx, g *model.Group) error {
	r.groups = append(r.groups, g)
	return nil
}

func (r *fakeGroupRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Group, error) {
	var out []*model.Group
	for _, g := range r.groups {
		if g.Active {
			out = append(out, g)
		}
	}
	return out, r.err
}
