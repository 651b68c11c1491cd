//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-automation/internal/usecase"
)

type fakeSweepable struct {
	sweeps int32
}

func (f *fakeSweepable) Sweep(ctx context.Context) int {
	atomic.AddInt32(&f.sweeps, 1)
	return 1
}

func (f *fakeSweepable) Stats() usecase.BlacklistStats {
	return usecase.BlacklistStats{PermanentCount: 2, TemporaryCount: 1, TotalBlacklisted: 3}
}

type fakeEvicter struct {
	cutoff time.Time
}

func (f *fakeEvicter) EvictFinished(cutoff time.Time) int {
	f.cutoff = cutoff
	return 2
}

func TestBlacklistSweeper_Run(t *testing.T) {
	logger := zerolog.Nop()
	store := &fakeSweepable{}
	w := NewBlacklistSweeper(10*time.Millisecond, store, &logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := w.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context error, got %v", err)
	}
	if n := atomic.LoadInt32(&store.sweeps); n < 2 {
		t.Fatalf("expected a sweep on start and on ticks, got %d", n)
	}
}

func TestTaskJanitor_RunOnce(t *testing.T) {
	logger := zerolog.Nop()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ev := &fakeEvicter{}
	w := NewTaskJanitor(time.Minute, time.Hour, ev, usecase.NewManualClock(now, false), &logger)

	if n := w.RunOnce(); n != 2 {
		t.Fatalf("expected 2 evicted, got %d", n)
	}
	if want := now.Add(-time.Hour); !ev.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, ev.cutoff)
	}
}
