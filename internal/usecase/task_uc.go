package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
	ports "telegram-automation/internal/domain/ports/usecase"
	"telegram-automation/internal/infra/logging"
)

// SendRequest is the dashboard's message-sending payload.
type SendRequest struct {
	AccountID    string
	TemplateID   string
	Variables    map[string]string
	Recipients   []string
	UseAllGroups bool
}

type TaskOverview struct {
	Counts     map[model.TaskStatus]int `json:"counts"`
	Total      int                      `json:"total"`
	QueueSizes map[string]int           `json:"queue_sizes"`
}

// TaskUseCase validates dashboard requests before they reach the scheduler
// and serves task read models.
type TaskUseCase struct {
	sched     ports.TaskScheduler
	tasks     repository.TaskRepository
	groups    repository.GroupRepository
	templates *TemplateRenderer
	log       *zerolog.Logger
}

func NewTaskUseCase(sched ports.TaskScheduler, tasks repository.TaskRepository, groups repository.GroupRepository, templates *TemplateRenderer, logger *zerolog.Logger) *TaskUseCase {
	lg := logger.With().Str("component", "task_uc").Logger()
	return &TaskUseCase{sched: sched, tasks: tasks, groups: groups, templates: templates, log: &lg}
}

func (uc *TaskUseCase) Submit(ctx context.Context, req SendRequest) (string, error) {
	defer logging.TraceDuration(uc.log, "TaskUC.Submit")()

	if req.TemplateID == "" {
		return "", fmt.Errorf("%w: template_id is required", domain.ErrInvalidArgument)
	}
	if _, err := uc.templates.Lookup(ctx, req.TemplateID); err != nil {
		return "", err
	}

	targets := req.Recipients
	if req.UseAllGroups {
		groups, err := uc.groups.ListActive(ctx, repository.NoTX)
		if err != nil {
			return "", fmt.Errorf("list groups: %w", err)
		}
		targets = make([]string, 0, len(groups))
		for _, g := range groups {
			targets = append(targets, g.Link)
		}
	}
	if len(model.DedupeTargets(targets)) == 0 {
		return "", domain.ErrNoTargets
	}

	account := req.AccountID
	if account == "" {
		account = uc.sched.DefaultAccount()
	}
	id, err := uc.sched.Submit(ctx, ports.SubmitRequest{
		AccountID:  account,
		TemplateID: req.TemplateID,
		Targets:    targets,
		Variables:  req.Variables,
	})
	if err != nil {
		return "", err
	}
	logging.With(ctx, uc.log).Info().Str("task_id", id).Str("account_id", account).
		Int("targets", len(targets)).Msg("task submitted")
	return id, nil
}

func (uc *TaskUseCase) Get(ctx context.Context, id string) (*model.Task, error) {
	return uc.sched.Status(ctx, id)
}

func (uc *TaskUseCase) Cancel(ctx context.Context, id string) error {
	return uc.sched.Cancel(ctx, id)
}

func (uc *TaskUseCase) List(ctx context.Context, status model.TaskStatus, limit int) ([]*model.Task, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, status)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return uc.sched.List(ctx, repository.TaskFilter{Status: status, Limit: limit})
}

func (uc *TaskUseCase) Overview(ctx context.Context) (*TaskOverview, error) {
	counts, err := uc.tasks.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	ov := &TaskOverview{Counts: make(map[model.TaskStatus]int, len(model.AllTaskStatuses)), QueueSizes: uc.sched.QueueSizes()}
	for _, s := range model.AllTaskStatuses {
		ov.Counts[s] = counts[s]
		ov.Total += counts[s]
	}
	return ov, nil
}
