package apiv1

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"telegram-automation/internal/domain"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/usecase"
)

type blacklistItem struct {
	*model.BlacklistEntry
	ExpiresInMinutes int `json:"expires_in_minutes"`
}

type blacklistView struct {
	Permanent []blacklistItem        `json:"permanent_blacklist"`
	Temporary []blacklistItem        `json:"temporary_blacklist"`
	Stats     usecase.BlacklistStats `json:"stats"`
}

type blacklistRequest struct {
	Target        string `json:"group_link"`
	Reason        string `json:"reason"`
	ExpiryMinutes int    `json:"expiry_minutes"`
}

func (s *Server) items(entries []*model.BlacklistEntry) []blacklistItem {
	now := s.now()
	out := make([]blacklistItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, blacklistItem{BlacklistEntry: e, ExpiresInMinutes: e.ExpiresInMinutes(now)})
	}
	return out
}

func (s *Server) listBlacklist(w http.ResponseWriter, r *http.Request) {
	perm, temp := s.blacklist.List()
	writeJSON(w, http.StatusOK, blacklistView{
		Permanent: s.items(perm),
		Temporary: s.items(temp),
		Stats:     s.blacklist.Stats(),
	})
}

func (s *Server) addPermanent(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Reason == "" {
		req.Reason = model.ReasonManual
	}
	e, err := s.blacklist.AddPermanent(r.Context(), req.Target, req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, blacklistItem{BlacklistEntry: e})
}

func (s *Server) addTemporary(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.ExpiryMinutes <= 0 {
		s.fail(w, r, fmt.Errorf("%w: expiry_minutes must be positive", domain.ErrInvalidArgument))
		return
	}
	if req.Reason == "" {
		req.Reason = model.ReasonManual
	}
	e, err := s.blacklist.AddTemporary(r.Context(), req.Target, req.Reason, time.Duration(req.ExpiryMinutes)*time.Minute)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, blacklistItem{BlacklistEntry: e, ExpiresInMinutes: e.ExpiresInMinutes(s.now())})
}

// removeBlacklisted takes the rest of the path so full t.me links work.
func (s *Server) removeBlacklisted(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	target, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(target) == "" {
		s.fail(w, r, fmt.Errorf("%w: target is required", domain.ErrInvalidArgument))
		return
	}
	s.blacklist.Remove(r.Context(), target)
	writeJSON(w, http.StatusOK, map[string]string{
		"group_link": model.NormalizeTarget(target),
		"message":    "removed from blacklist",
	})
}
