// Command demo runs the scheduler end to end against in-memory stores and a
// logging messenger, with a few scripted failures.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"telegram-automation/internal/config"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/adapter"
	"telegram-automation/internal/domain/ports/repository"
	tele "telegram-automation/internal/infra/adapters/telegram"
	"telegram-automation/internal/infra/db/memory"
	"telegram-automation/internal/infra/logging"
	"telegram-automation/internal/infra/worker"
	"telegram-automation/internal/usecase"
)

func main() {
	delay := flag.Float64("delay", 0.3, "upper bound of the per-message delay in seconds")
	flag.Parse()

	logger := logging.NewWriter(os.Stdout, config.LogConfig{Level: "info", Format: "console"}, true)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	templates := memory.NewTemplateRepo()
	tpl, err := model.NewMessageTemplate("promo", "{greeting}, {product} is live!", map[string][]string{
		"greeting": {"Hi", "Hello"},
		"product":  {"the beta"},
	}, now)
	if err != nil {
		logger.Fatal().Err(err).Msg("template")
	}
	_ = templates.Save(ctx, repository.NoTX, tpl)

	groups := memory.NewGroupRepo()
	for _, g := range []string{"@demo_one", "@demo_two", "@demo_gone", "@demo_busy", "@demo_three"} {
		_ = groups.Save(ctx, repository.NoTX, &model.Group{Link: g, Active: true, AddedAt: now})
	}

	msg := tele.NewNoopMessenger("demo", 20*time.Millisecond, logger)
	msg.Script("@demo_gone", adapter.Outcome{Kind: adapter.OutcomePermanentFailure, Reason: "chat not found", Blacklist: true})
	msg.Script("@demo_busy", adapter.FloodWait(time.Second))

	rl := model.RateLimitConfig{
		MinDelay:   *delay / 2,
		MaxDelay:   *delay,
		MaxPerHour: 50,
		MaxPerDay:  200,
	}
	tasks := memory.NewTaskRepo()
	blacklist := usecase.NewBlacklistStore(memory.NewBlacklistRepo(), usecase.RealClock, logger)
	renderer := usecase.NewTemplateRenderer(templates, now.UnixNano())
	s, err := worker.NewScheduler(
		worker.SchedulerConfig{RateLimit: rl, MaxFloodWaitRetries: 1, AutoBlacklist: true},
		map[string]adapter.MessengerClient{"demo": msg}, []string{"demo"},
		blacklist,
		usecase.NewRateLimiter(now.UnixNano(), usecase.RealClock),
		renderer,
		tasks,
		logger,
		worker.WithSendLog(memory.NewSendLog()),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler")
	}
	if err := s.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("start")
	}
	defer s.Stop()

	uc := usecase.NewTaskUseCase(s, tasks, groups, renderer, logger)
	id, err := uc.Submit(ctx, usecase.SendRequest{TemplateID: "promo", UseAllGroups: true})
	if err != nil {
		logger.Fatal().Err(err).Msg("submit")
	}

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Fatal().Msg("demo timed out")
		case <-tick.C:
		}
		t, err := uc.Get(ctx, id)
		if err != nil {
			logger.Fatal().Err(err).Msg("status")
		}
		logger.Info().Str("status", string(t.Status)).Int("sent", t.Progress.Sent).
			Int("failed", t.Progress.Failed).Int("skipped", t.Progress.Skipped).
			Int("percentage", t.Progress.Percentage()).Msg("progress")
		if t.Status.IsTerminal() {
			break
		}
	}

	perm, temp := blacklist.List()
	logger.Info().Int("permanent", len(perm)).Int("temporary", len(temp)).Int("sent", len(msg.Sent())).Msg("demo finished")
}
