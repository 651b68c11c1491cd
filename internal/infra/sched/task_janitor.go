package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-automation/internal/usecase"
)

type FinishedTaskEvicter interface {
	EvictFinished(cutoff time.Time) int
}

// TaskJanitor drops finished tasks from scheduler memory once they are older
// than the retention period. They stay readable from the task store.
type TaskJanitor struct {
	interval  time.Duration
	retention time.Duration
	tasks     FinishedTaskEvicter
	clock     usecase.Clock
	log       *zerolog.Logger
}

func NewTaskJanitor(interval, retention time.Duration, tasks FinishedTaskEvicter, clock usecase.Clock, logger *zerolog.Logger) *TaskJanitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if clock == nil {
		clock = usecase.RealClock
	}
	compLog := logger.With().Str("component", "TaskJanitor").Logger()
	return &TaskJanitor{interval: interval, retention: retention, tasks: tasks, clock: clock, log: &compLog}
}

func (w *TaskJanitor) Run(ctx context.Context) error {
	w.log.Info().Dur("retention", w.retention).Msg("Starting task janitor")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping task janitor")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

func (w *TaskJanitor) RunOnce() int {
	n := w.tasks.EvictFinished(w.clock.Now().Add(-w.retention))
	if n > 0 {
		w.log.Debug().Int("count", n).Msg("finished tasks evicted from memory")
	}
	return n
}
