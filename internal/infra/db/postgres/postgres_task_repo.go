package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

var _ repository.TaskRepository = (*PostgresTaskRepo)(nil)

type PostgresTaskRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTaskRepo(pool *pgxpool.Pool) *PostgresTaskRepo {
	return &PostgresTaskRepo{pool: pool}
}

const taskColumns = `id, account_id, template_id, status, targets, variables,
       attempted, sent, failed, skipped, total, error,
       created_at, started_at, completed_at, updated_at`

func (r *PostgresTaskRepo) Save(ctx context.Context, tx repository.Tx, t *model.Task) error {
	const q = `
INSERT INTO tasks (` + taskColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (id) DO UPDATE SET
  status       = EXCLUDED.status,
  attempted    = EXCLUDED.attempted,
  sent         = EXCLUDED.sent,
  failed       = EXCLUDED.failed,
  skipped      = EXCLUDED.skipped,
  error        = EXCLUDED.error,
  started_at   = EXCLUDED.started_at,
  completed_at = EXCLUDED.completed_at,
  updated_at   = EXCLUDED.updated_at;`

	targets, err := json.Marshal(t.Targets)
	if err != nil {
		return fmt.Errorf("marshal targets: %w", err)
	}
	vars, err := json.Marshal(t.Variables)
	if err != nil {
		return fmt.Errorf("marshal variables: %w", err)
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		t.ID, t.AccountID, t.TemplateID, string(t.Status), targets, vars,
		t.Progress.Attempted, t.Progress.Sent, t.Progress.Failed, t.Progress.Skipped, t.Progress.Total, t.Error,
		t.CreatedAt, t.StartedAt, t.CompletedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	return nil
}

func (r *PostgresTaskRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find task %s: %w", id, err)
	}
	return t, nil
}

func (r *PostgresTaskRepo) List(ctx context.Context, tx repository.Tx, f repository.TaskFilter) ([]*model.Task, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.AccountID != "" {
		args = append(args, f.AccountID)
		where = append(where, fmt.Sprintf("account_id = $%d", len(args)))
	}
	q := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	var out []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresTaskRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.TaskStatus]int, error) {
	const q = `SELECT status, COUNT(1) FROM tasks GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()
	out := make(map[model.TaskStatus]int, len(model.AllTaskStatuses))
	for _, s := range model.AllTaskStatuses {
		out[s] = 0
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.TaskStatus(status)] = n
	}
	return out, rows.Err()
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		t             model.Task
		status        string
		targets, vars []byte
	)
	err := row.Scan(&t.ID, &t.AccountID, &t.TemplateID, &status, &targets, &vars,
		&t.Progress.Attempted, &t.Progress.Sent, &t.Progress.Failed, &t.Progress.Skipped, &t.Progress.Total, &t.Error,
		&t.CreatedAt, &t.StartedAt, &t.CompletedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = model.TaskStatus(status)
	if err := json.Unmarshal(targets, &t.Targets); err != nil {
		return nil, err
	}
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &t.Variables); err != nil {
			return nil, err
		}
	}
	if t.Variables == nil {
		t.Variables = map[string]string{}
	}
	return &t, nil
}
