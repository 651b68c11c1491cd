//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
	ports "telegram-automation/internal/domain/ports/usecase"
)

type mockScheduler struct {
	SubmitFunc func(ctx context.Context, req ports.SubmitRequest) (string, error)
	StatusFunc func(ctx context.Context, id string) (*model.Task, error)
	CancelFunc func(ctx context.Context, id string) error
	ListFunc   func(ctx context.Context, f repository.TaskFilter) ([]*model.Task, error)
}

func (m *mockScheduler) Submit(ctx context.Context, req ports.SubmitRequest) (string, error) {
	return m.SubmitFunc(ctx, req)
}

func (m *mockScheduler) Status(ctx context.Context, id string) (*model.Task, error) {
	return m.StatusFunc(ctx, id)
}

func (m *mockScheduler) Cancel(ctx context.Context, id string) error { return m.CancelFunc(ctx, id) }

func (m *mockScheduler) List(ctx context.Context, f repository.TaskFilter) ([]*model.Task, error) {
	return m.ListFunc(ctx, f)
}

func (m *mockScheduler) QueueSizes() map[string]int { return map[string]int{"default": 2} }

func (m *mockScheduler) DefaultAccount() string { return "default" }

type countingTaskRepo struct {
	repository.TaskRepository
	counts map[model.TaskStatus]int
}

func (r *countingTaskRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.TaskStatus]int, error) {
	return r.counts, nil
}

func newTaskUC(t *testing.T, sched *mockScheduler, groups *fakeGroupRepo) *TaskUseCase {
	t.Helper()
	tpl, err := model.NewMessageTemplate("promo", "hi {name}", nil, t0)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if groups == nil {
		groups = &fakeGroupRepo{}
	}
	repo := &countingTaskRepo{counts: map[model.TaskStatus]int{model.TaskStatusPending: 1, model.TaskStatusCompleted: 3}}
	return NewTaskUseCase(sched, repo, groups, NewTemplateRenderer(newFakeTemplateRepo(tpl), 1), &nopLogger)
}

func TestTaskUseCase_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("should submit recipients on the default account", func(t *testing.T) {
		var got ports.SubmitRequest
		uc := newTaskUC(t, &mockScheduler{SubmitFunc: func(ctx context.Context, req ports.SubmitRequest) (string, error) {
			got = req
			return "task-1", nil
		}}, nil)
		id, err := uc.Submit(ctx, SendRequest{TemplateID: "promo", Recipients: []string{"@a", "@b"}, Variables: map[string]string{"name": "x"}})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if id != "task-1" || got.AccountID != "default" || len(got.Targets) != 2 || got.Variables["name"] != "x" {
			t.Fatalf("unexpected submission %q %+v", id, got)
		}
	})

	t.Run("should resolve all active groups", func(t *testing.T) {
		groups := &fakeGroupRepo{groups: []*model.Group{
			{Link: "@one", Active: true}, {Link: "@two", Active: false}, {Link: "@three", Active: true},
		}}
		var got ports.SubmitRequest
		uc := newTaskUC(t, &mockScheduler{SubmitFunc: func(ctx context.Context, req ports.SubmitRequest) (string, error) {
			got = req
			return "task-2", nil
		}}, groups)
		if _, err := uc.Submit(ctx, SendRequest{TemplateID: "promo", UseAllGroups: true, Recipients: []string{"@ignored"}}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if len(got.Targets) != 2 || got.Targets[0] != "@one" || got.Targets[1] != "@three" {
			t.Fatalf("unexpected targets %v", got.Targets)
		}
	})

	t.Run("should reject bad requests before scheduling", func(t *testing.T) {
		uc := newTaskUC(t, &mockScheduler{SubmitFunc: func(ctx context.Context, req ports.SubmitRequest) (string, error) {
			t.Fatalf("scheduler must not be called")
			return "", nil
		}}, nil)
		cases := []struct {
			req  SendRequest
			want error
		}{
			{SendRequest{Recipients: []string{"@a"}}, domain.ErrInvalidArgument},
			{SendRequest{TemplateID: "missing", Recipients: []string{"@a"}}, domain.ErrTemplateNotFound},
			{SendRequest{TemplateID: "promo", Recipients: []string{" ", ""}}, domain.ErrNoTargets},
			{SendRequest{TemplateID: "promo", UseAllGroups: true}, domain.ErrNoTargets},
		}
		for _, c := range cases {
			if _, err := uc.Submit(ctx, c.req); !errors.Is(err, c.want) {
				t.Fatalf("expected %v for %+v, got %v", c.want, c.req, err)
			}
		}
	})
}

func TestTaskUseCase_ListAndOverview(t *testing.T) {
	ctx := context.Background()

	t.Run("should clamp the limit and validate status", func(t *testing.T) {
		var got repository.TaskFilter
		uc := newTaskUC(t, &mockScheduler{ListFunc: func(ctx context.Context, f repository.TaskFilter) ([]*model.Task, error) {
			got = f
			return nil, nil
		}}, nil)
		if _, err := uc.List(ctx, model.TaskStatusRunning, 0); err != nil {
			t.Fatalf("List: %v", err)
		}
		if got.Limit != 100 || got.Status != model.TaskStatusRunning {
			t.Fatalf("unexpected filter %+v", got)
		}
		if _, err := uc.List(ctx, "bogus", 10); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should fill every status in the overview", func(t *testing.T) {
		uc := newTaskUC(t, &mockScheduler{}, nil)
		ov, err := uc.Overview(ctx)
		if err != nil {
			t.Fatalf("Overview: %v", err)
		}
		if ov.Total != 4 || len(ov.Counts) != len(model.AllTaskStatuses) || ov.Counts[model.TaskStatusFailed] != 0 {
			t.Fatalf("unexpected overview %+v", ov)
		}
		if ov.QueueSizes["default"] != 2 {
			t.Fatalf("expected queue sizes passed through, got %v", ov.QueueSizes)
		}
	})
}
