// Package apiv1 serves the admin dashboard REST API under /api/v1.
package apiv1

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-automation/internal/domain/model"
	ports "telegram-automation/internal/domain/ports/usecase"
	"telegram-automation/internal/usecase"
)

// TaskService is implemented by usecase.TaskUseCase.
type TaskService interface {
	Submit(ctx context.Context, req usecase.SendRequest) (string, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Cancel(ctx context.Context, id string) error
	List(ctx context.Context, status model.TaskStatus, limit int) ([]*model.Task, error)
	Overview(ctx context.Context) (*usecase.TaskOverview, error)
}

// BlacklistService is implemented by usecase.BlacklistStore.
type BlacklistService interface {
	AddPermanent(ctx context.Context, target, reason string) (*model.BlacklistEntry, error)
	AddTemporary(ctx context.Context, target, reason string, ttl time.Duration) (*model.BlacklistEntry, error)
	Remove(ctx context.Context, target string)
	List() (permanent, temporary []*model.BlacklistEntry)
	Stats() usecase.BlacklistStats
}

var (
	_ TaskService      = (*usecase.TaskUseCase)(nil)
	_ BlacklistService = (*usecase.BlacklistStore)(nil)
)

type Server struct {
	tasks     TaskService
	blacklist BlacklistService
	accounts  ports.AccountMonitor
	pacing    ports.PacingConfigurator
	now       func() time.Time
	log       *zerolog.Logger
}

func NewServer(tasks TaskService, blacklist BlacklistService, accounts ports.AccountMonitor, pacing ports.PacingConfigurator, logger *zerolog.Logger) *Server {
	lg := logger.With().Str("component", "apiv1").Logger()
	return &Server{tasks: tasks, blacklist: blacklist, accounts: accounts, pacing: pacing, now: time.Now, log: &lg}
}

// RegisterAPIV1 mounts every route with absolute /api/v1 paths.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.listTasks)
			r.Post("/message-sending", s.submitTask)
			r.Get("/stats/overview", s.taskOverview)
			r.Get("/{taskID}", s.getTask)
			r.Post("/{taskID}/cancel", s.cancelTask)
		})
		r.Route("/blacklist", func(r chi.Router) {
			r.Get("/", s.listBlacklist)
			r.Post("/permanent", s.addPermanent)
			r.Post("/temporary", s.addTemporary)
			r.Delete("/*", s.removeBlacklisted)
		})
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.listAccounts)
			r.Get("/{accountID}/health", s.accountHealth)
			r.Post("/{accountID}/clear-fault", s.clearFault)
		})
		r.Get("/config/rate-limit", s.getRateLimit)
		r.Put("/config/rate-limit", s.putRateLimit)
	})
}
