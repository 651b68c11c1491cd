//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestTaskRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	repo := NewPostgresTaskRepo(testPool)
	ctx := context.Background()

	t.Run("should save, update and read back a task", func(t *testing.T) {
		cleanup(t)
		task, err := model.NewTask("01A", "main", "promo", []string{"@a", "t.me/b"}, map[string]string{"name": "Ann"}, base)
		if err != nil {
			t.Fatalf("NewTask: %v", err)
		}
		if err := repo.Save(ctx, nil, task); err != nil {
			t.Fatalf("Save: %v", err)
		}

		_ = task.Transition(model.TaskStatusRunning, base.Add(time.Second))
		task.MarkSent(base.Add(2 * time.Second))
		task.MarkSkipped(base.Add(3 * time.Second))
		_ = task.Transition(model.TaskStatusCompleted, base.Add(4*time.Second))
		if err := repo.Save(ctx, nil, task); err != nil {
			t.Fatalf("Save update: %v", err)
		}

		got, err := repo.FindByID(ctx, nil, "01A")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Status != model.TaskStatusCompleted {
			t.Errorf("expected completed, got %s", got.Status)
		}
		if got.Progress.Sent != 1 || got.Progress.Skipped != 1 || got.Progress.Attempted != 2 || got.Progress.Total != 2 {
			t.Errorf("unexpected progress %+v", got.Progress)
		}
		if len(got.Targets) != 2 || got.Targets[1] != "@b" {
			t.Errorf("unexpected targets %v", got.Targets)
		}
		if got.Variables["name"] != "Ann" {
			t.Errorf("expected variables to round-trip, got %v", got.Variables)
		}
		if got.StartedAt == nil || got.CompletedAt == nil {
			t.Error("expected started_at and completed_at to be set")
		}
	})

	t.Run("should return ErrNotFound for unknown id", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, nil, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should list newest first with filters and count by status", func(t *testing.T) {
		cleanup(t)
		for i, id := range []string{"01A", "01B", "01C"} {
			task, _ := model.NewTask(id, "main", "promo", []string{"@a"}, nil, base.Add(time.Duration(i)*time.Minute))
			if id == "01B" {
				_ = task.Transition(model.TaskStatusCancelled, base.Add(time.Hour))
			}
			if err := repo.Save(ctx, nil, task); err != nil {
				t.Fatalf("Save %s: %v", id, err)
			}
		}

		all, err := repo.List(ctx, nil, repository.TaskFilter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 3 || all[0].ID != "01C" || all[2].ID != "01A" {
			t.Fatalf("expected newest first, got %d tasks", len(all))
		}

		pending, err := repo.List(ctx, nil, repository.TaskFilter{Status: model.TaskStatusPending, Limit: 1})
		if err != nil {
			t.Fatalf("List pending: %v", err)
		}
		if len(pending) != 1 || pending[0].ID != "01C" {
			t.Fatalf("unexpected filtered list %v", pending)
		}

		counts, err := repo.CountByStatus(ctx, nil)
		if err != nil {
			t.Fatalf("CountByStatus: %v", err)
		}
		if counts[model.TaskStatusPending] != 2 || counts[model.TaskStatusCancelled] != 1 || counts[model.TaskStatusRunning] != 0 {
			t.Errorf("unexpected counts %v", counts)
		}
	})

	t.Run("should honour transactions", func(t *testing.T) {
		cleanup(t)
		tm := NewTxManager(testPool)
		boom := errors.New("boom")
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			task, _ := model.NewTask("01TX", "main", "promo", []string{"@a"}, nil, base)
			if err := repo.Save(ctx, tx, task); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if _, err := repo.FindByID(ctx, nil, "01TX"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected rolled back task to be missing, got %v", err)
		}
	})
}

func TestBlacklistRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	repo := NewPostgresBlacklistRepo(testPool)
	ctx := context.Background()

	t.Run("should upsert, list and sweep expired entries", func(t *testing.T) {
		cleanup(t)
		perm, _ := model.NewPermanentEntry("@spam", model.ReasonChatForbidden, base)
		temp, _ := model.NewTemporaryEntry("@slow", model.ReasonSlowMode, 10*time.Minute, base)
		for _, e := range []*model.BlacklistEntry{perm, temp} {
			if err := repo.Upsert(ctx, nil, e); err != nil {
				t.Fatalf("Upsert: %v", err)
			}
		}

		all, err := repo.ListAll(ctx, nil)
		if err != nil || len(all) != 2 {
			t.Fatalf("expected 2 entries, got %d (%v)", len(all), err)
		}

		n, err := repo.DeleteExpired(ctx, nil, base.Add(11*time.Minute))
		if err != nil || n != 1 {
			t.Fatalf("expected 1 expired entry removed, got %d (%v)", n, err)
		}

		promoted, _ := model.NewPermanentEntry("@spam", model.ReasonManual, base)
		if err := repo.Upsert(ctx, nil, promoted); err != nil {
			t.Fatalf("Upsert again: %v", err)
		}
		if err := repo.Delete(ctx, nil, "@spam"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		all, _ = repo.ListAll(ctx, nil)
		if len(all) != 0 {
			t.Fatalf("expected empty blacklist, got %d", len(all))
		}
	})
}

func TestTemplateAndGroupRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	templates := NewPostgresTemplateRepo(testPool)
	groups := NewPostgresGroupRepo(testPool)
	ctx := context.Background()

	t.Run("should round-trip template variable pools", func(t *testing.T) {
		cleanup(t)
		tpl, _ := model.NewMessageTemplate("promo", "hi {name}", map[string][]string{"name": {"Ann", "Bob"}}, base)
		if err := templates.Save(ctx, nil, tpl); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := templates.FindByID(ctx, nil, "promo")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if len(got.Variables["name"]) != 2 || !got.Active {
			t.Errorf("unexpected template %+v", got)
		}
		if _, err := templates.FindByID(ctx, nil, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should list only active groups by normalized link", func(t *testing.T) {
		cleanup(t)
		in := []*model.Group{
			{Link: "https://t.me/First", Active: true, AddedAt: base},
			{Link: "@second", Active: false, AddedAt: base.Add(time.Minute)},
			{Link: "t.me/third", Active: true, AddedAt: base.Add(2 * time.Minute)},
		}
		for _, g := range in {
			if err := groups.Save(ctx, nil, g); err != nil {
				t.Fatalf("Save group: %v", err)
			}
		}
		got, err := groups.ListActive(ctx, nil)
		if err != nil {
			t.Fatalf("ListActive: %v", err)
		}
		if len(got) != 2 || got[0].Link != "@first" || got[1].Link != "@third" {
			t.Fatalf("unexpected groups %v", got)
		}
	})
}

func TestSendLog_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	log := NewPostgresSendLog(testPool)
	ctx := context.Background()

	t.Run("should return sends inside the window oldest first", func(t *testing.T) {
		cleanup(t)
		for _, d := range []time.Duration{-30 * time.Hour, -90 * time.Minute, -10 * time.Minute} {
			if err := log.Record(ctx, "main", base.Add(d)); err != nil {
				t.Fatalf("Record: %v", err)
			}
		}
		got, err := log.Since(ctx, "main", base.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("Since: %v", err)
		}
		if len(got) != 2 || !got[0].Equal(base.Add(-90*time.Minute)) {
			t.Fatalf("unexpected sends %v", got)
		}
		other, _ := log.Since(ctx, "other", base.Add(-24*time.Hour))
		if len(other) != 0 {
			t.Fatalf("expected no sends for other account, got %d", len(other))
		}
	})
}
