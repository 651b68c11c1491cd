package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"telegram-automation/internal/infra/logging"
	"telegram-automation/internal/infra/metrics"
)

const sessionCookie = "tgauto_session"

var errMissingToken = errors.New("missing token")

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthManager mints and verifies HS256 admin session tokens. The static API
// key is only ever exchanged for a token at login, or accepted directly as a
// bearer for scripts.
type AuthManager struct {
	secret []byte
	apiKey string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewAuthManager(secret, apiKey string, ttl time.Duration, secure bool) *AuthManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthManager{secret: []byte(secret), apiKey: apiKey, ttl: ttl, secure: secure, now: time.Now}
}

// Enabled is false when no signing secret is configured (dev mode).
func (a *AuthManager) Enabled() bool { return len(a.secret) > 0 }

func (a *AuthManager) Mint(subject string) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   subject,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Authenticate accepts a bearer JWT, the session cookie, or the raw API key.
func (a *AuthManager) Authenticate(r *http.Request) (*AdminClaims, error) {
	tok := ""
	if hdr := r.Header.Get("Authorization"); len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") {
		tok = strings.TrimSpace(hdr[7:])
	} else if c, err := r.Cookie(sessionCookie); err == nil {
		tok = c.Value
	}
	if tok == "" {
		return nil, errMissingToken
	}
	if a.apiKey != "" && subtle.ConstantTimeCompare([]byte(tok), []byte(a.apiKey)) == 1 {
		return &AdminClaims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "api-key"}}, nil
	}
	return a.parse(tok)
}

func (a *AuthManager) parse(tok string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role != "admin" {
		return nil, errors.New("insufficient role")
	}
	return claims, nil
}

// RequireAdmin rejects requests without valid admin credentials. With auth
// disabled every request passes.
func (a *AuthManager) RequireAdmin(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if !a.Enabled() {
			logger.Warn().Msg("admin auth disabled: no jwt secret configured")
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.Authenticate(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="tgauto"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(logging.WithSubject(r.Context(), claims.Subject)))
		})
	}
}

type loginRequest struct {
	APIKey string `json:"api_key"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginHandler exchanges the API key for a session token and cookie.
func (a *AuthManager) LoginHandler(logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if !a.Enabled() || a.apiKey == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(a.apiKey)) != 1 {
			metrics.IncAdminLogin("unauthorized")
			logging.With(r.Context(), logger).Warn().Msg("admin login rejected")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		tok, exp, err := a.Mint("admin")
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		metrics.IncAdminLogin("authorized")
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    tok,
			Path:     "/",
			MaxAge:   int(a.ttl.Seconds()),
			HttpOnly: true,
			Secure:   a.secure,
			SameSite: http.SameSiteStrictMode,
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(loginResponse{Token: tok, ExpiresAt: exp})
	}
}
