package model

import (
	"encoding/json"
	"time"

	"telegram-automation/internal/domain"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// AllTaskStatuses lists statuses in lifecycle order.
var AllTaskStatuses = []TaskStatus{
	TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled,
}

func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	for _, v := range AllTaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether the task state machine allows from -> to.
func CanTransition(from, to TaskStatus) bool {
	switch from {
	case TaskStatusPending:
		return to == TaskStatusRunning || to == TaskStatusCancelled
	case TaskStatusRunning:
		return to == TaskStatusCompleted || to == TaskStatusFailed || to == TaskStatusCancelled
	}
	return false
}

// TaskProgress holds the per-target counters. Attempted is always the sum of
// the other three.
type TaskProgress struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Total     int `json:"total"`
}

func (p TaskProgress) Percentage() int {
	if p.Total == 0 {
		return 0
	}
	return p.Attempted * 100 / p.Total
}

// MarshalJSON adds the derived percentage the dashboard renders.
func (p TaskProgress) MarshalJSON() ([]byte, error) {
	type plain TaskProgress
	return json.Marshal(struct {
		plain
		Percentage int `json:"percentage"`
	}{plain(p), p.Percentage()})
}

// Task is one bulk-send operation against an ordered set of targets.
type Task struct {
	ID          string            `json:"task_id"`
	AccountID   string            `json:"account_id"`
	TemplateID  string            `json:"template_id"`
	Status      TaskStatus        `json:"status"`
	Targets     []string          `json:"targets"`
	Variables   map[string]string `json:"variables,omitempty"`
	Progress    TaskProgress      `json:"progress"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewTask validates input and builds a pending task. Targets are de-duplicated
// keeping the first occurrence so submission order is preserved.
func NewTask(id, accountID, templateID string, targets []string, vars map[string]string, now time.Time) (*Task, error) {
	if id == "" || accountID == "" || templateID == "" {
		return nil, domain.ErrInvalidArgument
	}
	uniq := DedupeTargets(targets)
	if len(uniq) == 0 {
		return nil, domain.ErrNoTargets
	}
	cp := make(map[string]string, len(vars))
	for k, v := range vars {
		cp[k] = v
	}
	return &Task{
		ID:         id,
		AccountID:  accountID,
		TemplateID: templateID,
		Status:     TaskStatusPending,
		Targets:    uniq,
		Variables:  cp,
		Progress:   TaskProgress{Total: len(uniq)},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// DedupeTargets trims blanks and drops repeated targets, first one wins.
func DedupeTargets(targets []string) []string {
	seen := make(map[string]struct{}, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		key := NormalizeTarget(t)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// Clone returns a deep copy safe to hand to callers.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Targets = append([]string(nil), t.Targets...)
	cp.Variables = make(map[string]string, len(t.Variables))
	for k, v := range t.Variables {
		cp.Variables[k] = v
	}
	if t.StartedAt != nil {
		s := *t.StartedAt
		cp.StartedAt = &s
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		cp.CompletedAt = &c
	}
	return &cp
}

// Transition moves the task to a new status, stamping started/completed times
// once. Disallowed transitions return domain.ErrTaskFinished for terminal
// sources and domain.ErrInvalidArgument otherwise.
func (t *Task) Transition(to TaskStatus, now time.Time) error {
	if !CanTransition(t.Status, to) {
		if t.Status.IsTerminal() {
			return domain.ErrTaskFinished
		}
		return domain.ErrInvalidArgument
	}
	t.Status = to
	t.UpdatedAt = now
	if to == TaskStatusRunning && t.StartedAt == nil {
		s := now
		t.StartedAt = &s
	}
	if to.IsTerminal() && t.CompletedAt == nil {
		c := now
		t.CompletedAt = &c
	}
	return nil
}

func (t *Task) MarkSent(now time.Time) {
	t.Progress.Attempted++
	t.Progress.Sent++
	t.UpdatedAt = now
}

func (t *Task) MarkFailed(now time.Time) {
	t.Progress.Attempted++
	t.Progress.Failed++
	t.UpdatedAt = now
}

func (t *Task) MarkSkipped(now time.Time) {
	t.Progress.Attempted++
	t.Progress.Skipped++
	t.UpdatedAt = now
}
