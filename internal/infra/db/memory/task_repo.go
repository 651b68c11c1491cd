// Package memory holds process-local repositories used when no database is
// configured, and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

var _ repository.TaskRepository = (*TaskRepo)(nil)

type TaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]*model.Task
}

func NewTaskRepo() *TaskRepo {
	return &TaskRepo{tasks: make(map[string]*model.Task)}
}

func (r *TaskRepo) Save(ctx context.Context, tx repository.Tx, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task.Clone()
	return nil
}

func (r *TaskRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *TaskRepo) List(ctx context.Context, tx repository.Tx, f repository.TaskFilter) ([]*model.Task, error) {
	r.mu.RLock()
	out := make([]*model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.AccountID != "" && t.AccountID != f.AccountID {
			continue
		}
		out = append(out, t.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *TaskRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.TaskStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[model.TaskStatus]int)
	for _, t := range r.tasks {
		out[t.Status]++
	}
	return out, nil
}
