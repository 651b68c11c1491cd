package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/adapter"
	"telegram-automation/internal/domain/ports/repository"
	ports "telegram-automation/internal/domain/ports/usecase"
	"telegram-automation/internal/infra/metrics"
	"telegram-automation/internal/usecase"
)

var (
	_ ports.TaskScheduler      = (*Scheduler)(nil)
	_ ports.AccountMonitor     = (*Scheduler)(nil)
	_ ports.PacingConfigurator = (*Scheduler)(nil)
)

const persistTimeout = 5 * time.Second

type SchedulerConfig struct {
	RateLimit           model.RateLimitConfig
	MaxFloodWaitRetries int
	AutoBlacklist       bool
	LockTTL             time.Duration
}

type Option func(*Scheduler)

func WithClock(c usecase.Clock) Option { return func(s *Scheduler) { s.clock = c } }

func WithSendLog(l repository.SendLog) Option { return func(s *Scheduler) { s.sendLog = l } }

// WithLocker guards each account loop with a cross-process lease.
func WithLocker(l adapter.Locker) Option { return func(s *Scheduler) { s.locker = l } }

func WithTracer(t trace.Tracer) Option { return func(s *Scheduler) { s.tracer = t } }

// account is the per-account worker state. pacing is touched only by the
// account's own loop.
type account struct {
	id        string
	messenger adapter.MessengerClient
	health    *usecase.HealthTracker
	pacing    usecase.PacingState
	queue     []*taskRun
	wake      chan struct{}
}

type taskRun struct {
	task       *model.Task
	cfg        model.RateLimitConfig
	cancel     chan struct{}
	cancelOnce sync.Once
}

func (r *taskRun) requestCancel() { r.cancelOnce.Do(func() { close(r.cancel) }) }

func (r *taskRun) cancelRequested() bool {
	select {
	case <-r.cancel:
		return true
	default:
		return false
	}
}

// Scheduler owns every task from submission to a terminal status. Each
// account gets one loop, run as a pool job, that drains its FIFO queue one
// task and one send at a time.
type Scheduler struct {
	mu       sync.RWMutex
	tasks    map[string]*taskRun
	accounts map[string]*account
	order    []string
	cfg      SchedulerConfig

	blacklist *usecase.BlacklistStore
	limiter   *usecase.RateLimiter
	renderer  *usecase.TemplateRenderer
	repo      repository.TaskRepository
	sendLog   repository.SendLog
	locker    adapter.Locker
	clock     usecase.Clock
	tracer    trace.Tracer
	log       *zerolog.Logger

	pool    *Pool
	root    context.Context
	stop    context.CancelFunc
	started bool
	stopped bool
}

func NewScheduler(
	cfg SchedulerConfig,
	messengers map[string]adapter.MessengerClient,
	order []string,
	blacklist *usecase.BlacklistStore,
	limiter *usecase.RateLimiter,
	renderer *usecase.TemplateRenderer,
	repo repository.TaskRepository,
	logger *zerolog.Logger,
	opts ...Option,
) (*Scheduler, error) {
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: at least one account is required", domain.ErrInvalidArgument)
	}
	if cfg.MaxFloodWaitRetries < 0 {
		cfg.MaxFloodWaitRetries = 0
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	lg := logger.With().Str("component", "scheduler").Logger()
	s := &Scheduler{
		tasks:     make(map[string]*taskRun),
		accounts:  make(map[string]*account, len(order)),
		cfg:       cfg,
		blacklist: blacklist,
		limiter:   limiter,
		renderer:  renderer,
		repo:      repo,
		clock:     usecase.RealClock,
		tracer:    otel.Tracer("telegram-automation/scheduler"),
		log:       &lg,
	}
	for _, o := range opts {
		o(s)
	}
	for _, id := range order {
		m, ok := messengers[id]
		if !ok || m == nil {
			return nil, fmt.Errorf("%w: no messenger for account %q", domain.ErrInvalidArgument, id)
		}
		if _, dup := s.accounts[id]; dup {
			return nil, fmt.Errorf("%w: duplicate account %q", domain.ErrInvalidArgument, id)
		}
		s.accounts[id] = &account{
			id:        id,
			messenger: m,
			health:    usecase.NewHealthTracker(id, s.clock),
			pacing:    usecase.PacingState{AccountID: id},
			wake:      make(chan struct{}, 1),
		}
		s.order = append(s.order, id)
	}
	return s, nil
}

// Start recovers tasks left over by a previous process, warms pacing from the
// send-log and launches one loop per account.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.root, s.stop = context.WithCancel(ctx)
	s.pool = NewPool(len(s.order), s.log)
	s.mu.Unlock()

	s.recover(ctx)
	s.warmPacing(ctx)

	s.pool.Start(s.root)
	for _, id := range s.order {
		acc := s.accounts[id]
		if err := s.pool.Submit(func(ctx context.Context) error { return s.runAccount(ctx, acc) }); err != nil {
			return fmt.Errorf("start account loop %s: %w", id, err)
		}
	}
	s.log.Info().Strs("accounts", s.order).Msg("scheduler started")
	return nil
}

// Stop cancels all loops and waits for them. A task interrupted mid-run is
// marked failed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.stopped = true
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	s.stop()
	s.pool.Stop()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) DefaultAccount() string { return s.order[0] }

func (s *Scheduler) Submit(ctx context.Context, req ports.SubmitRequest) (string, error) {
	if req.TemplateID == "" {
		return "", fmt.Errorf("%w: template is required", domain.ErrInvalidArgument)
	}
	acc, ok := s.accounts[req.AccountID]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownAccount, req.AccountID)
	}
	task, err := model.NewTask(ulid.Make().String(), req.AccountID, req.TemplateID, req.Targets, req.Variables, s.clock.Now())
	if err != nil {
		return "", err
	}
	run := &taskRun{task: task, cancel: make(chan struct{})}

	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return "", domain.ErrSchedulerStopped
	}
	// saved before it is visible to the account loop, so the pending row
	// never lands after a running one
	s.persist(task.Clone())

	s.mu.Lock()
	s.tasks[task.ID] = run
	acc.queue = append(acc.queue, run)
	depth := len(acc.queue)
	s.mu.Unlock()

	metrics.IncTaskSubmitted(acc.id)
	metrics.SetQueueDepth(acc.id, depth)
	signal(acc.wake)
	s.log.Debug().Str("task_id", task.ID).Str("account_id", acc.id).Int("targets", len(task.Targets)).Msg("task queued")
	return task.ID, nil
}

// Status returns a snapshot, falling back to the store for evicted tasks.
func (s *Scheduler) Status(ctx context.Context, id string) (*model.Task, error) {
	s.mu.RLock()
	run, ok := s.tasks[id]
	var snap *model.Task
	if ok {
		snap = run.task.Clone()
	}
	s.mu.RUnlock()
	if ok {
		return snap, nil
	}
	return s.repo.FindByID(ctx, repository.NoTX, id)
}

// Cancel is cooperative. A pending task is cancelled at once; a running one
// is flagged and its current wait is interrupted. Terminal tasks report
// domain.ErrTaskFinished.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	run, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		t, err := s.repo.FindByID(ctx, repository.NoTX, id)
		if err != nil {
			return err
		}
		if t.Status.IsTerminal() {
			return domain.ErrTaskFinished
		}
		return fmt.Errorf("%w: task %s is not owned by this scheduler", domain.ErrNotFound, id)
	}
	switch run.task.Status {
	case model.TaskStatusPending:
		_ = run.task.Transition(model.TaskStatusCancelled, s.clock.Now())
		run.requestCancel()
		snap := run.task.Clone()
		s.mu.Unlock()
		s.persist(snap)
		metrics.IncTaskFinished(string(model.TaskStatusCancelled))
		s.log.Info().Str("task_id", id).Msg("pending task cancelled")
		return nil
	case model.TaskStatusRunning:
		run.requestCancel()
		s.mu.Unlock()
		s.log.Info().Str("task_id", id).Msg("cancellation requested")
		return nil
	default:
		s.mu.Unlock()
		return domain.ErrTaskFinished
	}
}

// List merges in-memory tasks with the store, newest first.
func (s *Scheduler) List(ctx context.Context, f repository.TaskFilter) ([]*model.Task, error) {
	stored, err := s.repo.List(ctx, repository.NoTX, repository.TaskFilter{Status: f.Status, AccountID: f.AccountID})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Task, len(stored))
	for _, t := range stored {
		byID[t.ID] = t
	}
	s.mu.RLock()
	for id, run := range s.tasks {
		t := run.task
		if f.Status != "" && t.Status != f.Status {
			delete(byID, id)
			continue
		}
		if f.AccountID != "" && t.AccountID != f.AccountID {
			continue
		}
		byID[id] = t.Clone()
	}
	s.mu.RUnlock()

	out := make([]*model.Task, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Scheduler) QueueSizes() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.accounts))
	for id, acc := range s.accounts {
		n := 0
		for _, r := range acc.queue {
			if r.task.Status == model.TaskStatusPending {
				n++
			}
		}
		out[id] = n
	}
	return out
}

// EvictFinished drops terminal tasks completed before cutoff from memory.
// They remain readable through the store.
func (s *Scheduler) EvictFinished(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, run := range s.tasks {
		t := run.task
		if t.Status.IsTerminal() && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			delete(s.tasks, id)
			n++
		}
	}
	return n
}

func (s *Scheduler) Health(accountID string) (model.AccountHealthState, error) {
	acc, ok := s.accounts[accountID]
	if !ok {
		return model.AccountHealthState{}, fmt.Errorf("%w: %s", domain.ErrUnknownAccount, accountID)
	}
	h := acc.health.CurrentHealth()
	metrics.SetAccountRisk(accountID, h.RiskLevel.Score())
	return h, nil
}

// Accounts lists account ids in configuration order.
func (s *Scheduler) Accounts() []string { return append([]string(nil), s.order...) }

func (s *Scheduler) ClearAccountFault(accountID string) error {
	acc, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownAccount, accountID)
	}
	acc.health.ClearFault()
	metrics.SetAccountFaulted(accountID, false)
	signal(acc.wake)
	s.log.Info().Str("account_id", accountID).Msg("account fault cleared")
	return nil
}

func (s *Scheduler) RateLimitConfig() model.RateLimitConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.RateLimit
}

// UpdateRateLimitConfig applies to tasks started afterwards.
func (s *Scheduler) UpdateRateLimitConfig(cfg model.RateLimitConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg.RateLimit = cfg
	s.mu.Unlock()
	s.log.Info().Interface("rate_limit", cfg).Msg("rate limit config updated")
	return nil
}

// runAccount drains the account queue while it holds the lease. Losing the
// lease stops the loop at the next suspension point; it then waits to
// reacquire.
func (s *Scheduler) runAccount(ctx context.Context, acc *account) error {
	lg := s.log.With().Str("account_id", acc.id).Logger()
	for {
		lctx, release, ok := s.acquireLease(ctx, acc)
		if !ok {
			lg.Info().Msg("account loop stopped")
			return nil
		}
		lg.Info().Msg("account loop started")
		s.drain(lctx, acc)
		release()
		if ctx.Err() != nil {
			lg.Info().Msg("account loop stopped")
			return nil
		}
		metrics.IncLeaseLost(acc.id)
		lg.Warn().Msg("account lease lost, waiting to reacquire")
	}
}

func (s *Scheduler) drain(ctx context.Context, acc *account) {
	for ctx.Err() == nil {
		run := s.next(acc)
		if run == nil {
			select {
			case <-ctx.Done():
				return
			case <-acc.wake:
				continue
			}
		}
		s.execute(ctx, acc, run)
	}
}

// next pops the first pending task and marks it running. Nothing starts while
// the account is faulted.
func (s *Scheduler) next(acc *account) *taskRun {
	if faulted, _ := acc.health.Faulted(); faulted {
		return nil
	}
	s.mu.Lock()
	var run *taskRun
	for len(acc.queue) > 0 {
		head := acc.queue[0]
		acc.queue[0] = nil
		acc.queue = acc.queue[1:]
		if head.task.Status == model.TaskStatusPending {
			run = head
			break
		}
	}
	depth := len(acc.queue)
	if run == nil {
		s.mu.Unlock()
		metrics.SetQueueDepth(acc.id, depth)
		return nil
	}
	run.cfg = s.cfg.RateLimit
	_ = run.task.Transition(model.TaskStatusRunning, s.clock.Now())
	snap := run.task.Clone()
	s.mu.Unlock()

	metrics.SetQueueDepth(acc.id, depth)
	s.persist(snap)
	return run
}

var errCancelled = errors.New("cancelled")

func (s *Scheduler) execute(ctx context.Context, acc *account, run *taskRun) {
	task := run.task
	ctx, span := s.tracer.Start(ctx, "task.run", trace.WithAttributes(
		attribute.String("task.id", task.ID),
		attribute.String("account.id", acc.id),
		attribute.Int("task.targets", len(task.Targets)),
	))
	defer span.End()

	lg := s.log.With().Str("task_id", task.ID).Str("account_id", acc.id).Logger()
	lg.Info().Int("targets", len(task.Targets)).Msg("task started")

	for _, target := range task.Targets {
		if run.cancelRequested() {
			s.finish(run, model.TaskStatusCancelled, "", span)
			return
		}
		if s.blacklist.IsBlocked(target) {
			s.progress(run, (*model.Task).MarkSkipped)
			metrics.IncSend(acc.id, "skipped")
			lg.Debug().Str("target", target).Msg("target blacklisted, skipped")
			continue
		}
		if err := s.deliver(ctx, acc, run, target, &lg); err != nil {
			switch {
			case errors.Is(err, errCancelled):
				s.finish(run, model.TaskStatusCancelled, "", span)
			case errors.Is(err, domain.ErrAccountFatal):
				acc.health.MarkFaulted(err.Error())
				metrics.SetAccountFaulted(acc.id, true)
				lg.Error().Err(err).Msg("account faulted")
				s.finish(run, model.TaskStatusFailed, err.Error(), span)
			case ctx.Err() != nil:
				reason := domain.ErrSchedulerStopped
				if errors.Is(context.Cause(ctx), domain.ErrLeaseLost) {
					reason = domain.ErrLeaseLost
				}
				s.finish(run, model.TaskStatusFailed, reason.Error(), span)
			default:
				s.finish(run, model.TaskStatusFailed, err.Error(), span)
			}
			return
		}
	}
	if run.cancelRequested() {
		// every target was attempted; the task still ran to the end
		lg.Debug().Msg("cancel arrived after the last target")
	}
	s.finish(run, model.TaskStatusCompleted, "", span)
}

// deliver handles one target until it is counted. A returned error ends the
// task.
func (s *Scheduler) deliver(ctx context.Context, acc *account, run *taskRun, target string, lg *zerolog.Logger) error {
	task := run.task
	floodRetries := 0
	for {
		risk := acc.health.Risk()
		metrics.SetAccountRisk(acc.id, risk.Score())
		at := s.limiter.NextAllowedAt(run.cfg, &acc.pacing, risk)
		wait := at.Sub(s.clock.Now())
		if wait < 0 {
			wait = 0
		}
		metrics.ObservePacingWait(acc.id, wait.Seconds())
		if err := s.sleep(ctx, run, wait); err != nil {
			return err
		}

		text, err := s.renderer.Render(ctx, task.TemplateID, task.Variables)
		if err != nil {
			return fmt.Errorf("render template: %w", err)
		}

		sctx, span := s.tracer.Start(ctx, "message.send", trace.WithAttributes(attribute.String("target", target)))
		// sends run on the loop context: a cancel never aborts one mid-flight
		out, err := acc.messenger.Send(sctx, target, text)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, domain.ErrAccountFatal) {
				err = fmt.Errorf("%w: %v", domain.ErrAccountFatal, err)
			}
			return err
		}
		span.SetAttributes(attribute.String("outcome", string(out.Kind)))
		span.End()

		now := s.clock.Now()
		switch out.Kind {
		case adapter.OutcomeDelivered:
			s.recordSend(ctx, acc, now)
			acc.health.RecordOutcome(true)
			s.progress(run, (*model.Task).MarkSent)
			metrics.IncSend(acc.id, "sent")
			return nil

		case adapter.OutcomeFloodWait:
			acc.health.RecordFloodWait()
			metrics.IncFloodWait(acc.id)
			if floodRetries >= s.cfg.MaxFloodWaitRetries {
				lg.Warn().Str("target", target).Dur("retry_after", out.RetryAfter).Msg("flood-wait repeated, target failed")
				acc.health.RecordOutcome(false)
				s.progress(run, (*model.Task).MarkFailed)
				metrics.IncSend(acc.id, "failed")
				return nil
			}
			floodRetries++
			lg.Warn().Str("target", target).Dur("retry_after", out.RetryAfter).Msg("flood-wait, pausing task")
			if err := s.sleep(ctx, run, out.RetryAfter); err != nil {
				return err
			}

		default:
			s.recordSend(ctx, acc, now)
			acc.health.RecordOutcome(false)
			s.progress(run, (*model.Task).MarkFailed)
			metrics.IncSend(acc.id, "failed")
			lg.Info().Str("target", target).Str("reason", out.Reason).Msg("send failed")
			if out.Blacklist && s.cfg.AutoBlacklist {
				if _, err := s.blacklist.AddPermanent(ctx, target, out.Reason); err != nil {
					lg.Error().Err(err).Str("target", target).Msg("auto-blacklist failed")
				}
			}
			return nil
		}
	}
}

// sleep waits d unless the task is cancelled, the scheduler stops or the
// lease is lost. A cancel or stop that lands together with the timer still
// wins.
func (s *Scheduler) sleep(ctx context.Context, run *taskRun, d time.Duration) error {
	select {
	case <-s.clock.After(d):
	case <-run.cancel:
		return errCancelled
	case <-ctx.Done():
		return ctx.Err()
	}
	if run.cancelRequested() {
		return errCancelled
	}
	return ctx.Err()
}

func (s *Scheduler) recordSend(ctx context.Context, acc *account, at time.Time) {
	acc.pacing.Record(at)
	if s.sendLog == nil {
		return
	}
	if err := s.sendLog.Record(ctx, acc.id, at); err != nil {
		s.log.Warn().Err(err).Str("account_id", acc.id).Msg("send-log write failed")
	}
}

func (s *Scheduler) progress(run *taskRun, mark func(*model.Task, time.Time)) {
	s.mu.Lock()
	mark(run.task, s.clock.Now())
	snap := run.task.Clone()
	s.mu.Unlock()
	s.persist(snap)
}

func (s *Scheduler) finish(run *taskRun, status model.TaskStatus, reason string, span trace.Span) {
	s.mu.Lock()
	if err := run.task.Transition(status, s.clock.Now()); err != nil {
		s.mu.Unlock()
		return
	}
	if status == model.TaskStatusFailed {
		run.task.Error = reason
	}
	snap := run.task.Clone()
	s.mu.Unlock()

	s.persist(snap)
	metrics.IncTaskFinished(string(status))
	span.SetAttributes(
		attribute.String("task.status", string(status)),
		attribute.Int("task.sent", snap.Progress.Sent),
		attribute.Int("task.failed", snap.Progress.Failed),
		attribute.Int("task.skipped", snap.Progress.Skipped),
	)
	if status == model.TaskStatusFailed {
		span.SetStatus(codes.Error, reason)
	}
	s.log.Info().Str("task_id", snap.ID).Str("status", string(status)).
		Int("sent", snap.Progress.Sent).Int("failed", snap.Progress.Failed).Int("skipped", snap.Progress.Skipped).
		Str("error", reason).Msg("task finished")
}

// persist never fails the caller; the in-memory task stays authoritative.
func (s *Scheduler) persist(t *model.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.repo.Save(ctx, repository.NoTX, t); err != nil {
		s.log.Error().Err(err).Str("task_id", t.ID).Msg("task save failed")
	}
}

// recover re-queues pending tasks of a previous run in submission order and
// fails the ones that were interrupted while running.
func (s *Scheduler) recover(ctx context.Context) {
	pending, err := s.repo.List(ctx, repository.NoTX, repository.TaskFilter{Status: model.TaskStatusPending})
	if err != nil {
		s.log.Error().Err(err).Msg("load pending tasks")
	}
	running, err := s.repo.List(ctx, repository.NoTX, repository.TaskFilter{Status: model.TaskStatusRunning})
	if err != nil {
		s.log.Error().Err(err).Msg("load running tasks")
	}
	now := s.clock.Now()
	for _, t := range running {
		_ = t.Transition(model.TaskStatusFailed, now)
		t.Error = "interrupted by restart"
		s.persist(t)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	var orphans []*model.Task
	requeued := 0
	s.mu.Lock()
	for _, t := range pending {
		if _, known := s.tasks[t.ID]; known {
			continue
		}
		acc, ok := s.accounts[t.AccountID]
		if !ok {
			_ = t.Transition(model.TaskStatusCancelled, now)
			orphans = append(orphans, t)
			continue
		}
		run := &taskRun{task: t, cancel: make(chan struct{})}
		s.tasks[t.ID] = run
		acc.queue = append(acc.queue, run)
		requeued++
	}
	s.mu.Unlock()
	for _, t := range orphans {
		s.persist(t)
	}
	if requeued > 0 || len(running) > 0 {
		s.log.Info().Int("requeued", requeued).Int("interrupted", len(running)).Msg("recovered tasks from store")
	}
}

func (s *Scheduler) warmPacing(ctx context.Context) {
	if s.sendLog == nil {
		return
	}
	from := s.clock.Now().Add(-24 * time.Hour)
	for _, id := range s.order {
		sends, err := s.sendLog.Since(ctx, id, from)
		if err != nil {
			s.log.Warn().Err(err).Str("account_id", id).Msg("send-log read failed")
			continue
		}
		s.accounts[id].pacing.Seed(sends)
	}
}

// acquireLease blocks until the account lock is held or ctx ends. The
// returned context is cancelled with domain.ErrLeaseLost once another owner
// takes the key or refreshes keep failing for a whole TTL. Without a locker
// it succeeds at once with ctx itself.
func (s *Scheduler) acquireLease(ctx context.Context, acc *account) (context.Context, func(), bool) {
	if s.locker == nil {
		return ctx, func() {}, true
	}
	key := "tgauto:account:" + acc.id
	ttl := s.cfg.LockTTL
	var token string
	for {
		t, err := s.locker.TryLock(ctx, key, ttl)
		if err == nil {
			token = t
			break
		}
		s.log.Warn().Err(err).Str("account_id", acc.id).Msg("account lease busy, retrying")
		select {
		case <-ctx.Done():
			return nil, nil, false
		case <-time.After(ttl):
		}
	}

	lctx, lose := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go func() {
		tick := time.NewTicker(ttl / 3)
		defer tick.Stop()
		lastOK := time.Now()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
			}
			rctx, cancel := context.WithTimeout(context.Background(), ttl/3)
			err := s.locker.Refresh(rctx, key, token, ttl)
			cancel()
			if err == nil {
				lastOK = time.Now()
				continue
			}
			s.log.Error().Err(err).Str("account_id", acc.id).Msg("account lease refresh failed")
			if errors.Is(err, domain.ErrLockHeld) || time.Since(lastOK) >= ttl {
				lose(domain.ErrLeaseLost)
				return
			}
		}
	}()
	return lctx, func() {
		close(done)
		lose(context.Canceled)
		uctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.locker.Unlock(uctx, key, token); err != nil {
			s.log.Warn().Err(err).Str("account_id", acc.id).Msg("account lease release failed")
		}
	}, true
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
