package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

var _ repository.GroupRepository = (*PostgresGroupRepo)(nil)

type PostgresGroupRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresGroupRepo(pool *pgxpool.Pool) *PostgresGroupRepo {
	return &PostgresGroupRepo{pool: pool}
}

// Save keys groups by their normalized link so "t.me/x" and "@x" collapse.
func (r *PostgresGroupRepo) Save(ctx context.Context, tx repository.Tx, g *model.Group) error {
	key := model.NormalizeTarget(g.Link)
	if key == "" {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO groups (link, active, added_at)
VALUES ($1, $2, $3)
ON CONFLICT (link) DO UPDATE SET active = EXCLUDED.active;`
	if _, err := execSQL(ctx, r.pool, tx, q, key, g.Active, g.AddedAt); err != nil {
		return fmt.Errorf("save group %s: %w", key, err)
	}
	return nil
}

func (r *PostgresGroupRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Group, error) {
	const q = `
SELECT link, active, added_at
  FROM groups
 WHERE active = true
 ORDER BY added_at, link;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()
	var out []*model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.Link, &g.Active, &g.AddedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}
