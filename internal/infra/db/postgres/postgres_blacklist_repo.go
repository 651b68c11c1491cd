package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

var _ repository.BlacklistRepository = (*PostgresBlacklistRepo)(nil)

type PostgresBlacklistRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresBlacklistRepo(pool *pgxpool.Pool) *PostgresBlacklistRepo {
	return &PostgresBlacklistRepo{pool: pool}
}

func (r *PostgresBlacklistRepo) Upsert(ctx context.Context, tx repository.Tx, e *model.BlacklistEntry) error {
	const q = `
INSERT INTO blacklist (target, kind, reason, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (target) DO UPDATE SET
  kind       = EXCLUDED.kind,
  reason     = EXCLUDED.reason,
  created_at = EXCLUDED.created_at,
  expires_at = EXCLUDED.expires_at;`
	if _, err := execSQL(ctx, r.pool, tx, q, e.Target, string(e.Kind), e.Reason, e.CreatedAt, e.ExpiresAt); err != nil {
		return fmt.Errorf("upsert blacklist %s: %w", e.Target, err)
	}
	return nil
}

func (r *PostgresBlacklistRepo) Delete(ctx context.Context, tx repository.Tx, target string) error {
	const q = `DELETE FROM blacklist WHERE target = $1;`
	if _, err := execSQL(ctx, r.pool, tx, q, target); err != nil {
		return fmt.Errorf("delete blacklist %s: %w", target, err)
	}
	return nil
}

func (r *PostgresBlacklistRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.BlacklistEntry, error) {
	const q = `
SELECT target, kind, reason, created_at, expires_at
  FROM blacklist
 ORDER BY created_at;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	defer rows.Close()
	var out []*model.BlacklistEntry
	for rows.Next() {
		var (
			e    model.BlacklistEntry
			kind string
		)
		if err := rows.Scan(&e.Target, &kind, &e.Reason, &e.CreatedAt, &e.ExpiresAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		e.Kind = model.BlacklistKind(kind)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *PostgresBlacklistRepo) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `DELETE FROM blacklist WHERE kind = 'temporary' AND expires_at <= $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired blacklist: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
