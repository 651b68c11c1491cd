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

var _ repository.TemplateRepository = (*templateRepoCacheDecorator)(nil)

const templateListKey = "tgauto:templates:all"

type templateRepoCacheDecorator struct {
	inner repository.TemplateRepository
	cache red.RedisClient
	ttl   time.Duration
}

// NewTemplateRepoCacheDecorator caches template lookups in Redis. A zero ttl
// falls back to one hour.
func NewTemplateRepoCacheDecorator(inner repository.TemplateRepository, cache red.RedisClient, ttl time.Duration) repository.TemplateRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &templateRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func templateKey(id string) string { return fmt.Sprintf("tgauto:template:%s", id) }

func (d *templateRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MessageTemplate, error) {
	key := templateKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var t model.MessageTemplate
		if json.Unmarshal([]byte(val), &t) == nil {
			metrics.IncCacheRequest("template", "hit")
			return &t, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		metrics.IncCacheRequest("template", "error")
	}

	metrics.IncCacheRequest("template", "miss")
	t, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(t); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return t, nil
}

func (d *templateRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MessageTemplate, error) {
	val, err := d.cache.Get(ctx, templateListKey)
	if err == nil {
		var ts []*model.MessageTemplate
		if json.Unmarshal([]byte(val), &ts) == nil {
			metrics.IncCacheRequest("template_list", "hit")
			return ts, nil
		}
	}

	metrics.IncCacheRequest("template_list", "miss")
	ts, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(ts) > 0 {
		if b, err := json.Marshal(ts); err == nil {
			_ = d.cache.Set(ctx, templateListKey, b, d.ttl)
		}
	}
	return ts, nil
}

// Save writes through and drops both the entry and the list.
func (d *templateRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, t *model.MessageTemplate) error {
	if err := d.inner.Save(ctx, tx, t); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, templateKey(t.ID))
	_ = d.cache.Del(ctx, templateListKey)
	return nil
}
