package repository

import (
	"context"

	"telegram-automation/internal/domain/model"
)

type TemplateRepository interface {
	Save(ctx context.Context, tx Tx, t *model.MessageTemplate) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.MessageTemplate, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.MessageTemplate, error)
}
