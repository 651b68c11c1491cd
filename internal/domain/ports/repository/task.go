package repository

import (
	"context"

	"telegram-automation/internal/domain/model"
)

// TaskFilter narrows List results. Zero values mean "any".
type TaskFilter struct {
	Status    model.TaskStatus
	AccountID string
	Limit     int
}

// TaskRepository is the durable record of task identity, status and progress.
type TaskRepository interface {
	Save(ctx context.Context, tx Tx, task *model.Task) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Task, error)
	// List returns tasks newest first.
	List(ctx context.Context, tx Tx, f TaskFilter) ([]*model.Task, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.TaskStatus]int, error)
}
