package usecase

import (
	"context"

	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

// SubmitRequest asks for one templated message to be sent to each target.
type SubmitRequest struct {
	AccountID  string
	TemplateID string
	Targets    []string
	Variables  map[string]string
}

// TaskScheduler is what the presentation layer needs from the task engine.
type TaskScheduler interface {
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	Status(ctx context.Context, id string) (*model.Task, error)
	Cancel(ctx context.Context, id string) error
	List(ctx context.Context, f repository.TaskFilter) ([]*model.Task, error)
	QueueSizes() map[string]int
	DefaultAccount() string
}

// AccountMonitor exposes per-account health and fault handling.
type AccountMonitor interface {
	Accounts() []string
	Health(accountID string) (model.AccountHealthState, error)
	ClearAccountFault(accountID string) error
}

// PacingConfigurator reads and hot-reloads the rate-limit settings. Running
// tasks keep the settings captured when they started.
type PacingConfigurator interface {
	RateLimitConfig() model.RateLimitConfig
	UpdateRateLimitConfig(cfg model.RateLimitConfig) error
}
