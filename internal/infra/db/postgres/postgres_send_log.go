package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/ports/repository"
)

var _ repository.SendLog = (*PostgresSendLog)(nil)

// PostgresSendLog keeps one row per delivered message. Rows older than the
// retention window are pruned on write.
type PostgresSendLog struct {
	pool      *pgxpool.Pool
	retention time.Duration
}

func NewPostgresSendLog(pool *pgxpool.Pool) *PostgresSendLog {
	return &PostgresSendLog{pool: pool, retention: 25 * time.Hour}
}

func (l *PostgresSendLog) Record(ctx context.Context, accountID string, at time.Time) error {
	const ins = `INSERT INTO send_log (account_id, sent_at) VALUES ($1, $2);`
	const prune = `DELETE FROM send_log WHERE account_id = $1 AND sent_at < $2;`
	if _, err := l.pool.Exec(ctx, ins, accountID, at); err != nil {
		return fmt.Errorf("record send: %w", err)
	}
	if _, err := l.pool.Exec(ctx, prune, accountID, at.Add(-l.retention)); err != nil {
		return fmt.Errorf("prune send log: %w", err)
	}
	return nil
}

func (l *PostgresSendLog) Since(ctx context.Context, accountID string, from time.Time) ([]time.Time, error) {
	const q = `
SELECT sent_at
  FROM send_log
 WHERE account_id = $1 AND sent_at >= $2
 ORDER BY sent_at;`
	rows, err := l.pool.Query(ctx, q, accountID, from)
	if err != nil {
		return nil, fmt.Errorf("load send log: %w", err)
	}
	defer rows.Close()
	var out []time.Time
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, at)
	}
	return out, rows.Err()
}
