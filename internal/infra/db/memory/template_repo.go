package memory

import (
	"context"
	"sort"
	"sync"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

var (
	_ repository.TemplateRepository = (*TemplateRepo)(nil)
	_ repository.GroupRepository    = (*GroupRepo)(nil)
)

type TemplateRepo struct {
	mu        sync.RWMutex
	templates map[string]*model.MessageTemplate
}

func NewTemplateRepo() *TemplateRepo {
	return &TemplateRepo{templates: make(map[string]*model.MessageTemplate)}
}

func (r *TemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.MessageTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.templates[t.ID] = &cp
	return nil
}

func (r *TemplateRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MessageTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *TemplateRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MessageTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.MessageTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type GroupRepo struct {
	mu     sync.RWMutex
	groups map[string]*model.Group
}

func NewGroupRepo() *GroupRepo {
	return &GroupRepo{groups: make(map[string]*model.Group)}
}

func (r *GroupRepo) Save(ctx context.Context, tx repository.Tx, g *model.Group) error {
	key := model.NormalizeTarget(g.Link)
	if key == "" {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *g
	cp.Link = key
	r.groups[key] = &cp
	return nil
}

// ListActive returns active groups in the order they were added.
func (r *GroupRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Group, 0, len(r.groups))
	for _, g := range r.groups {
		if g.Active {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].Link < out[j].Link
	})
	return out, nil
}
