package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
)

// BlacklistStats mirrors the counters the dashboard shows above the tables.
type BlacklistStats struct {
	PermanentCount   int `json:"permanent_count"`
	TemporaryCount   int `json:"temporary_count"`
	TotalBlacklisted int `json:"total_blacklisted"`
}

// BlacklistStore answers "may we send to this target" for the scheduler.
// Reads are served from memory; writes go through to the repository when one
// is set, and repository failures are only logged.
type BlacklistStore struct {
	mu      sync.RWMutex
	entries map[string]*model.BlacklistEntry
	repo    repository.BlacklistRepository
	clock   Clock
	log     *zerolog.Logger
}

func NewBlacklistStore(repo repository.BlacklistRepository, clock Clock, logger *zerolog.Logger) *BlacklistStore {
	if clock == nil {
		clock = RealClock
	}
	lg := logger.With().Str("component", "blacklist").Logger()
	return &BlacklistStore{
		entries: make(map[string]*model.BlacklistEntry),
		repo:    repo,
		clock:   clock,
		log:     &lg,
	}
}

// Load replaces the in-memory view with what the repository holds.
func (s *BlacklistStore) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	list, err := s.repo.ListAll(ctx, repository.NoTX)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	m := make(map[string]*model.BlacklistEntry, len(list))
	for _, e := range list {
		if !e.ActiveAt(now) {
			continue
		}
		if cur, ok := m[e.Target]; ok && cur.Kind == model.BlacklistPermanent {
			continue
		}
		m[e.Target] = e
	}
	s.mu.Lock()
	s.entries = m
	s.mu.Unlock()
	s.log.Info().Int("entries", len(m)).Msg("blacklist loaded")
	return nil
}

// IsBlocked treats expired temporary entries as absent.
func (s *BlacklistStore) IsBlocked(target string) bool {
	key := model.NormalizeTarget(target)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key].ActiveAt(s.clock.Now())
}

// Entry returns a copy of the active entry for target.
func (s *BlacklistStore) Entry(target string) (*model.BlacklistEntry, bool) {
	key := model.NormalizeTarget(target)
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entries[key]
	if !e.ActiveAt(s.clock.Now()) {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// AddPermanent blocks target for good, replacing any temporary entry.
func (s *BlacklistStore) AddPermanent(ctx context.Context, target, reason string) (*model.BlacklistEntry, error) {
	e, err := model.NewPermanentEntry(target, reason, s.clock.Now())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.entries[e.Target] = e
	s.mu.Unlock()
	s.persist(ctx, e)
	s.log.Info().Str("target", e.Target).Str("reason", reason).Msg("permanently blacklisted")
	return e, nil
}

// AddTemporary blocks target for ttl. A permanent entry is never downgraded;
// an existing temporary one is replaced.
func (s *BlacklistStore) AddTemporary(ctx context.Context, target, reason string, ttl time.Duration) (*model.BlacklistEntry, error) {
	now := s.clock.Now()
	e, err := model.NewTemporaryEntry(target, reason, ttl, now)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if cur := s.entries[e.Target]; cur != nil && cur.Kind == model.BlacklistPermanent {
		s.mu.Unlock()
		cp := *cur
		return &cp, nil
	}
	s.entries[e.Target] = e
	s.mu.Unlock()
	s.persist(ctx, e)
	s.log.Info().Str("target", e.Target).Str("reason", reason).Dur("ttl", ttl).Msg("temporarily blacklisted")
	return e, nil
}

// Remove deletes any entry for target; removing an absent target is a no-op.
func (s *BlacklistStore) Remove(ctx context.Context, target string) {
	key := model.NormalizeTarget(target)
	s.mu.Lock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()
	if !ok {
		return
	}
	if s.repo != nil {
		if err := s.repo.Delete(ctx, repository.NoTX, key); err != nil {
			s.log.Error().Err(err).Str("target", key).Msg("blacklist delete failed")
		}
	}
}

// List returns active entries split by kind, each sorted by target.
func (s *BlacklistStore) List() (permanent, temporary []*model.BlacklistEntry) {
	now := s.clock.Now()
	s.mu.RLock()
	for _, e := range s.entries {
		if !e.ActiveAt(now) {
			continue
		}
		cp := *e
		if e.Kind == model.BlacklistPermanent {
			permanent = append(permanent, &cp)
		} else {
			temporary = append(temporary, &cp)
		}
	}
	s.mu.RUnlock()
	byTarget := func(l []*model.BlacklistEntry) {
		sort.Slice(l, func(i, j int) bool { return l[i].Target < l[j].Target })
	}
	byTarget(permanent)
	byTarget(temporary)
	return permanent, temporary
}

func (s *BlacklistStore) Stats() BlacklistStats {
	p, t := s.List()
	return BlacklistStats{PermanentCount: len(p), TemporaryCount: len(t), TotalBlacklisted: len(p) + len(t)}
}

// Sweep drops expired temporary entries from memory and the repository.
func (s *BlacklistStore) Sweep(ctx context.Context) int {
	now := s.clock.Now()
	s.mu.Lock()
	n := 0
	for k, e := range s.entries {
		if !e.ActiveAt(now) {
			delete(s.entries, k)
			n++
		}
	}
	s.mu.Unlock()
	if s.repo != nil {
		if _, err := s.repo.DeleteExpired(ctx, repository.NoTX, now); err != nil {
			s.log.Error().Err(err).Msg("blacklist sweep failed")
		}
	}
	if n > 0 {
		s.log.Debug().Int("removed", n).Msg("expired blacklist entries swept")
	}
	return n
}

func (s *BlacklistStore) persist(ctx context.Context, e *model.BlacklistEntry) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Upsert(ctx, repository.NoTX, e); err != nil {
		s.log.Error().Err(err).Str("target", e.Target).Msg("blacklist write failed")
	}
}
