package apiv1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"telegram-automation/internal/domain/model"
)

type accountList struct {
	Accounts []model.AccountHealthState `json:"accounts"`
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	ids := s.accounts.Accounts()
	out := accountList{Accounts: make([]model.AccountHealthState, 0, len(ids))}
	for _, id := range ids {
		h, err := s.accounts.Health(id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		out.Accounts = append(out.Accounts, h)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) accountHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.accounts.Health(chi.URLParam(r, "accountID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) clearFault(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")
	if err := s.accounts.ClearAccountFault(id); err != nil {
		s.fail(w, r, err)
		return
	}
	h, err := s.accounts.Health(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) getRateLimit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pacing.RateLimitConfig())
}

func (s *Server) putRateLimit(w http.ResponseWriter, r *http.Request) {
	var cfg model.RateLimitConfig
	if err := decode(r, &cfg); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.pacing.UpdateRateLimitConfig(cfg); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.pacing.RateLimitConfig())
}
