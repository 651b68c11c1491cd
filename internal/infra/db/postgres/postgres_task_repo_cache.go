package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
	"telegram-automation/internal/infra/metrics"
	red "telegram-automation/internal/infra/redis"
)

var _ repository.TaskRepository = (*taskRepoCacheDecorator)(nil)

// taskRepoCacheDecorator caches snapshots of finished tasks only. Terminal
// tasks never change again, so their cached copy cannot go stale.
type taskRepoCacheDecorator struct {
	inner repository.TaskRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewTaskRepoCacheDecorator(inner repository.TaskRepository, cache red.RedisClient, ttl time.Duration) repository.TaskRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &taskRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func taskKey(id string) string { return fmt.Sprintf("tgauto:task:%s", id) }

func (d *taskRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, t *model.Task) error {
	if err := d.inner.Save(ctx, tx, t); err != nil {
		return err
	}
	if t.Status.IsTerminal() {
		d.store(ctx, t)
	}
	return nil
}

func (d *taskRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Task, error) {
	val, err := d.cache.Get(ctx, taskKey(id))
	if err == nil {
		var t model.Task
		if json.Unmarshal([]byte(val), &t) == nil {
			metrics.IncCacheRequest("task", "hit")
			return &t, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		metrics.IncCacheRequest("task", "error")
	}

	metrics.IncCacheRequest("task", "miss")
	t, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if t.Status.IsTerminal() {
		d.store(ctx, t)
	}
	return t, nil
}

func (d *taskRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, f repository.TaskFilter) ([]*model.Task, error) {
	return d.inner.List(ctx, tx, f)
}

func (d *taskRepoCacheDecorator) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.TaskStatus]int, error) {
	return d.inner.CountByStatus(ctx, tx)
}

func (d *taskRepoCacheDecorator) store(ctx context.Context, t *model.Task) {
	b, err := json.Marshal(t)
	if err != nil {
		return
	}
	_ = d.cache.Set(ctx, taskKey(t.ID), b, d.ttl)
}
