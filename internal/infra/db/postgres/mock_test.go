//go:build !integration

package postgres

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
	red "telegram-automation/internal/infra/redis"
)

// mockInnerTemplateRepo stands in for the database repository behind the cache.
type mockInnerTemplateRepo struct {
	SaveFunc     func(ctx context.Context, tx repository.Tx, t *model.MessageTemplate) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.MessageTemplate, error)
	ListAllFunc  func(ctx context.Context, tx repository.Tx) ([]*model.MessageTemplate, error)
}

func (m *mockInnerTemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.MessageTemplate) error {
	return m.SaveFunc(ctx, tx, t)
}
func (m *mockInnerTemplateRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MessageTemplate, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerTemplateRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MessageTemplate, error) {
	return m.ListAllFunc(ctx, tx)
}

type mockInnerTaskRepo struct {
	SaveFunc          func(ctx context.Context, tx repository.Tx, t *model.Task) error
	FindByIDFunc      func(ctx context.Context, tx repository.Tx, id string) (*model.Task, error)
	ListFunc          func(ctx context.Context, tx repository.Tx, f repository.TaskFilter) ([]*model.Task, error)
	CountByStatusFunc func(ctx context.Context, tx repository.Tx) (map[model.TaskStatus]int, error)
}

func (m *mockInnerTaskRepo) Save(ctx context.Context, tx repository.Tx, t *model.Task) error {
	return m.SaveFunc(ctx, tx, t)
}
func (m *mockInnerTaskRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Task, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerTaskRepo) List(ctx context.Context, tx repository.Tx, f repository.TaskFilter) ([]*model.Task, error) {
	return m.ListFunc(ctx, tx, f)
}
func (m *mockInnerTaskRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.TaskStatus]int, error) {
	return m.CountByStatusFunc(ctx, tx)
}

// mockRedisClient mocks our Redis client wrapper. Unset funcs behave like an
// empty cache.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", redis.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error                      { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return nil
}
func (m *mockRedisClient) ZRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error) {
	return nil, nil
}
func (m *mockRedisClient) ZRemRangeByScore(ctx context.Context, key string, min, max float64) error {
	return nil
}
func (m *mockRedisClient) Close() error { return nil }
