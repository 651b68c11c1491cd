package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"telegram-automation/internal/config"
	"telegram-automation/internal/domain/ports/adapter"
	"telegram-automation/internal/domain/ports/repository"
	tele "telegram-automation/internal/infra/adapters/telegram"
	"telegram-automation/internal/infra/api"
	"telegram-automation/internal/infra/api/apiv1"
	"telegram-automation/internal/infra/db/memory"
	pg "telegram-automation/internal/infra/db/postgres"
	"telegram-automation/internal/infra/logging"
	"telegram-automation/internal/infra/metrics"
	red "telegram-automation/internal/infra/redis"
	"telegram-automation/internal/infra/sched"
	"telegram-automation/internal/infra/tracing"
	"telegram-automation/internal/infra/worker"
	"telegram-automation/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

const sendLogRetention = 25 * time.Hour

type stores struct {
	tasks     repository.TaskRepository
	blacklist repository.BlacklistRepository
	templates repository.TemplateRepository
	groups    repository.GroupRepository
	sendLog   repository.SendLog
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, os.Stdout)
	if err != nil {
		logger.Fatal().Err(err).Msg("tracing init")
	}

	checks := map[string]api.HealthCheck{}
	st := stores{
		tasks:     memory.NewTaskRepo(),
		blacklist: memory.NewBlacklistRepo(),
		templates: memory.NewTemplateRepo(),
		groups:    memory.NewGroupRepo(),
		sendLog:   memory.NewSendLog(),
	}

	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		pool, err = pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connect")
		}
		defer pool.Close()
		st.tasks = pg.NewPostgresTaskRepo(pool)
		st.blacklist = pg.NewPostgresBlacklistRepo(pool)
		st.templates = pg.NewPostgresTemplateRepo(pool)
		st.groups = pg.NewPostgresGroupRepo(pool)
		st.sendLog = pg.NewPostgresSendLog(pool)
		checks["postgres"] = pool.Ping
		go pg.ReportPoolStats(ctx, pool, 15*time.Second)
		logger.Info().Msg("using postgres store")
	} else {
		logger.Warn().Msg("database.url is empty; tasks and blacklist live in memory only")
	}

	var (
		rdb     *red.Client
		opts    []worker.Option
		limiter api.Limiter
	)
	if cfg.Redis.URL != "" {
		rdb, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect")
		}
		defer rdb.Close()
		checks["redis"] = rdb.Ping
		st.sendLog = red.NewSendLog(rdb, sendLogRetention)
		limiter = red.NewRateLimiter(rdb)
		opts = append(opts, worker.WithLocker(red.NewLocker(rdb)))
		if pool != nil {
			st.tasks = pg.NewTaskRepoCacheDecorator(st.tasks, rdb, cfg.Redis.TTL)
			st.templates = pg.NewTemplateRepoCacheDecorator(st.templates, rdb, cfg.Redis.TTL)
		}
	}
	opts = append(opts, worker.WithSendLog(st.sendLog))

	accounts := cfg.AccountList()
	messengers := make(map[string]adapter.MessengerClient, len(accounts))
	order := make([]string, 0, len(accounts))
	for _, a := range accounts {
		var m adapter.MessengerClient
		switch cfg.Bot.Driver {
		case "noop":
			m = tele.NewNoopMessenger(a.ID, 50*time.Millisecond, logger)
		default:
			bm, err := tele.NewBotMessenger(a.ID, a.Token, cfg.Bot.APIEndpoint, logger)
			if err != nil {
				logger.Fatal().Err(err).Str("account_id", a.ID).Msg("telegram account init")
			}
			m = bm
		}
		messengers[a.ID] = m
		order = append(order, a.ID)
	}

	blacklist := usecase.NewBlacklistStore(st.blacklist, usecase.RealClock, logger)
	if err := blacklist.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("load blacklist")
	}

	seed := cfg.Scheduler.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	renderer := usecase.NewTemplateRenderer(st.templates, seed)
	scheduler, err := worker.NewScheduler(
		worker.SchedulerConfig{
			RateLimit:           cfg.RateLimit,
			MaxFloodWaitRetries: cfg.Scheduler.MaxFloodWaitRetries,
			AutoBlacklist:       cfg.Scheduler.AutoBlacklist,
			LockTTL:             cfg.Scheduler.LockTTL,
		},
		messengers, order,
		blacklist,
		usecase.NewRateLimiter(seed, usecase.RealClock),
		renderer,
		st.tasks,
		logger,
		opts...,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler init")
	}
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("scheduler start")
	}

	tasks := usecase.NewTaskUseCase(scheduler, st.tasks, st.groups, renderer, logger)

	go func() {
		if err := sched.NewBlacklistSweeper(cfg.Scheduler.SweepInterval, blacklist, logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("blacklist sweeper stopped")
		}
	}()
	go func() {
		j := sched.NewTaskJanitor(cfg.Scheduler.SweepInterval, cfg.Scheduler.TaskRetention, scheduler, usecase.RealClock, logger)
		if err := j.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("task janitor stopped")
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		API:       apiv1.NewServer(tasks, blacklist, scheduler, scheduler, logger),
		Auth:      api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.APIKey, cfg.Admin.SessionTTL, !cfg.Runtime.Dev),
		Limiter:   limiter,
		RateLimit: cfg.Admin.RateLimit,
		Checks:    checks,
	}, logger)
	srv := api.NewHTTPServer(cfg.Admin.Port, router)
	go func() {
		logger.Info().Int("port", cfg.Admin.Port).Msg("admin http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("admin http server")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	scheduler.Stop()
	if err := shutdownTracing(shCtx); err != nil {
		logger.Warn().Err(err).Msg("tracing shutdown")
	}
	logger.Info().Msg("bye")
}
