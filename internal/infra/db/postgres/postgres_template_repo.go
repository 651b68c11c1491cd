package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

var _ repository.TemplateRepository = (*PostgresTemplateRepo)(nil)

type PostgresTemplateRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTemplateRepo(pool *pgxpool.Pool) *PostgresTemplateRepo {
	return &PostgresTemplateRepo{pool: pool}
}

func (r *PostgresTemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.MessageTemplate) error {
	const q = `
INSERT INTO message_templates (id, content, variables, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
  content    = EXCLUDED.content,
  variables  = EXCLUDED.variables,
  active     = EXCLUDED.active,
  updated_at = EXCLUDED.updated_at;`
	vars, err := json.Marshal(t.Variables)
	if err != nil {
		return fmt.Errorf("marshal template variables: %w", err)
	}
	if _, err := execSQL(ctx, r.pool, tx, q, t.ID, t.Content, vars, t.Active, t.CreatedAt, t.UpdatedAt); err != nil {
		return fmt.Errorf("save template %s: %w", t.ID, err)
	}
	return nil
}

func (r *PostgresTemplateRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MessageTemplate, error) {
	const q = `
SELECT id, content, variables, active, created_at, updated_at
  FROM message_templates
 WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find template %s: %w", id, err)
	}
	return t, nil
}

func (r *PostgresTemplateRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MessageTemplate, error) {
	const q = `
SELECT id, content, variables, active, created_at, updated_at
  FROM message_templates
 ORDER BY id;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	var out []*model.MessageTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTemplate(row pgx.Row) (*model.MessageTemplate, error) {
	var (
		t    model.MessageTemplate
		vars []byte
	)
	if err := row.Scan(&t.ID, &t.Content, &vars, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &t.Variables); err != nil {
			return nil, err
		}
	}
	if t.Variables == nil {
		t.Variables = map[string][]string{}
	}
	return &t, nil
}
