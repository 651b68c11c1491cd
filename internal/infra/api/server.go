package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-automation/internal/infra/api/apiv1"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	API       *apiv1.Server
	Auth      *AuthManager
	Limiter   Limiter
	RateLimit int // requests per minute per client, 0 disables
	Checks    map[string]HealthCheck
	Timeout   time.Duration
}

// NewRouter assembles the admin HTTP surface: health, metrics, login and the
// authenticated /api/v1 routes.
func NewRouter(cfg RouterConfig, logger *zerolog.Logger) http.Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	lg := logger.With().Str("component", "http").Logger()

	r := chi.NewRouter()
	r.Use(Recover(&lg), TraceID(), RequestLog(&lg), Timeout(cfg.Timeout))

	r.Get("/health", healthHandler(cfg.Checks))
	r.Handle("/metrics", promhttp.Handler())

	limited := RateLimit(cfg.Limiter, cfg.RateLimit, &lg)
	r.With(limited).Post("/api/v1/auth/login", cfg.Auth.LoginHandler(&lg))
	r.Group(func(r chi.Router) {
		r.Use(limited, cfg.Auth.RequireAdmin(&lg))
		apiv1.RegisterAPIV1(r, cfg.API)
	})
	return r
}

func NewHTTPServer(port int, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for n := range checks {
		names = append(names, n)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for _, n := range names {
			if err := checks[n](ctx); err != nil {
				status[n] = err.Error()
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[n] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
