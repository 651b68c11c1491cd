package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

// TemplateRenderer turns a stored template plus task variables into the text
// for one target. Variables pinned by the task win; otherwise a value is
// picked from the template's pool for every message.
type TemplateRenderer struct {
	repo repository.TemplateRepository
	mu   sync.Mutex
	rnd  *rand.Rand
}

func NewTemplateRenderer(repo repository.TemplateRepository, seed int64) *TemplateRenderer {
	return &TemplateRenderer{repo: repo, rnd: rand.New(rand.NewSource(seed))}
}

// Lookup returns the template if it exists and is active.
func (r *TemplateRenderer) Lookup(ctx context.Context, id string) (*model.MessageTemplate, error) {
	t, err := r.repo.FindByID(ctx, repository.NoTX, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateInactive, id)
	}
	return t, nil
}

func (r *TemplateRenderer) Render(ctx context.Context, templateID string, vars map[string]string) (string, error) {
	t, err := r.Lookup(ctx, templateID)
	if err != nil {
		return "", err
	}
	return r.Apply(t, vars), nil
}

// Apply substitutes {name} placeholders. Unknown placeholders are left as-is.
func (r *TemplateRenderer) Apply(t *model.MessageTemplate, vars map[string]string) string {
	names := make([]string, 0, len(t.Variables)+len(vars))
	for k := range t.Variables {
		names = append(names, k)
	}
	for k := range vars {
		if _, ok := t.Variables[k]; !ok {
			names = append(names, k)
		}
	}
	// stable order keeps the random draws reproducible for a given seed
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, k := range names {
		v, ok := vars[k]
		if !ok {
			v = r.pick(t.Variables[k])
		}
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(t.Content)
}

func (r *TemplateRenderer) pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return pool[r.rnd.Intn(len(pool))]
}
