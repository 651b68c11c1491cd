//go:build !integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/infra/api/apiv1"
	"telegram-automation/internal/infra/db/memory"
	"telegram-automation/internal/usecase"
)

type stubAccounts struct{}

func (stubAccounts) Accounts() []string { return []string{"main"} }
func (stubAccounts) Health(id string) (model.AccountHealthState, error) {
	return model.AccountHealthState{AccountID: id, SuccessRate: 100, RiskLevel: model.RiskLow}, nil
}
func (stubAccounts) ClearAccountFault(string) error { return nil }

type stubPacing struct{}

func (stubPacing) RateLimitConfig() model.RateLimitConfig            { return model.DefaultRateLimitConfig() }
func (stubPacing) UpdateRateLimitConfig(model.RateLimitConfig) error { return nil }

type mockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.AllowFunc(ctx, key, limit, window)
}

func newTestRouter(auth *AuthManager, limiter Limiter, checks map[string]HealthCheck) http.Handler {
	logger := zerolog.Nop()
	store := usecase.NewBlacklistStore(memory.NewBlacklistRepo(), usecase.RealClock, &logger)
	srv := apiv1.NewServer(nil, store, stubAccounts{}, stubPacing{}, &logger)
	return NewRouter(RouterConfig{API: srv, Auth: auth, Limiter: limiter, RateLimit: 2, Checks: checks}, &logger)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Auth(t *testing.T) {
	auth := NewAuthManager("s3cret", "key-123", time.Hour, false)
	h := newTestRouter(auth, nil, nil)

	t.Run("should reject requests without credentials", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/main/health", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("should exchange the api key for a working token", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"api_key":"key-123"}`)))
		if rec.Code != http.StatusOK {
			t.Fatalf("login: want 200, got %d", rec.Code)
		}
		var body loginResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Token == "" {
			t.Fatalf("decode login: %v", err)
		}
		if len(rec.Result().Cookies()) == 0 {
			t.Fatal("expected a session cookie")
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/main/health", nil)
		req.Header.Set("Authorization", "Bearer "+body.Token)
		if rec := serve(h, req); rec.Code != http.StatusOK {
			t.Fatalf("bearer: want 200, got %d", rec.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/api/v1/accounts/main/health", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: body.Token})
		if rec := serve(h, req); rec.Code != http.StatusOK {
			t.Fatalf("cookie: want 200, got %d", rec.Code)
		}
	})

	t.Run("should reject a wrong api key", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"api_key":"nope"}`)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("should accept the api key as a bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/config/rate-limit", nil)
		req.Header.Set("Authorization", "Bearer key-123")
		if rec := serve(h, req); rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})

	t.Run("should reject expired and foreign tokens", func(t *testing.T) {
		old := NewAuthManager("s3cret", "", time.Minute, false)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		expired, _, _ := old.Mint("admin")

		other := NewAuthManager("different", "", time.Hour, false)
		foreign, _, _ := other.Mint("admin")

		for name, tok := range map[string]string{"expired": expired, "foreign": foreign} {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			if rec := serve(h, req); rec.Code != http.StatusUnauthorized {
				t.Errorf("%s: want 401, got %d", name, rec.Code)
			}
		}
	})

	t.Run("should leave health and metrics open", func(t *testing.T) {
		if rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
			t.Fatalf("health: want 200, got %d", rec.Code)
		}
		if rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil)); rec.Code != http.StatusOK {
			t.Fatalf("metrics: want 200, got %d", rec.Code)
		}
	})
}

func TestRouter_DevModeWithoutSecret(t *testing.T) {
	h := newTestRouter(NewAuthManager("", "", 0, false), nil, nil)
	if rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)); rec.Code != http.StatusOK {
		t.Fatalf("want 200 with auth disabled, got %d", rec.Code)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	auth := NewAuthManager("", "", 0, false)

	t.Run("should return 429 once the window is used up", func(t *testing.T) {
		calls := 0
		lim := &mockLimiter{AllowFunc: func(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
			calls++
			if limit != 2 || window != time.Minute {
				t.Errorf("unexpected limit %d/%v", limit, window)
			}
			return calls <= 2, nil
		}}
		h := newTestRouter(auth, lim, nil)
		codes := []int{}
		for i := 0; i < 3; i++ {
			codes = append(codes, serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)).Code)
		}
		if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
			t.Fatalf("unexpected codes %v", codes)
		}
	})

	t.Run("should fail open when the limiter errors", func(t *testing.T) {
		lim := &mockLimiter{AllowFunc: func(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
			return false, errors.New("redis down")
		}}
		h := newTestRouter(auth, lim, nil)
		if rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)); rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})
}

func TestRouter_HealthAndTrace(t *testing.T) {
	auth := NewAuthManager("", "", 0, false)

	t.Run("should report failing dependencies", func(t *testing.T) {
		h := newTestRouter(auth, nil, map[string]HealthCheck{
			"postgres": func(ctx context.Context) error { return nil },
			"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
		})
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("want 503, got %d", rec.Code)
		}
		var body map[string]string
		_ = json.NewDecoder(rec.Body).Decode(&body)
		if body["postgres"] != "ok" || body["status"] != "degraded" {
			t.Fatalf("unexpected body %v", body)
		}
	})

	t.Run("should echo the request id", func(t *testing.T) {
		h := newTestRouter(auth, nil, nil)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc")
		if got := serve(h, req).Header().Get("X-Request-ID"); got != "abc" {
			t.Fatalf("expected echoed id, got %q", got)
		}
		if got := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil)).Header().Get("X-Request-ID"); got == "" {
			t.Fatal("expected a generated request id")
		}
	})
}
