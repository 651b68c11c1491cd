package repository

import (
	"context"
	"time"

	"telegram-automation/internal/domain/model"
)

type BlacklistRepository interface {
	// Upsert replaces any existing entry for the same target.
	Upsert(ctx context.Context, tx Tx, e *model.BlacklistEntry) error
	Delete(ctx context.Context, tx Tx, target string) error
	ListAll(ctx context.Context, tx Tx) ([]*model.BlacklistEntry, error)
	DeleteExpired(ctx context.Context, tx Tx, now time.Time) (int, error)
}
