package repository

import (
	"context"

	"telegram-automation/internal/domain/model"
)

type GroupRepository interface {
	Save(ctx context.Context, tx Tx, g *model.Group) error
	ListActive(ctx context.Context, tx Tx) ([]*model.Group, error)
}
