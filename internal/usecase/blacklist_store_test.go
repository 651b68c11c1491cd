//go:build !integration

package usecase

import (
	"context"
	"testing"
	"time"

	"telegram-automation/internal/domain/model"
)

func TestBlacklistStore(t *testing.T) {
	ctx := context.Background()

	t.Run("should treat an expired temporary entry as absent", func(t *testing.T) {
		clock := NewManualClock(t0, false)
		s := NewBlacklistStore(nil, clock, &nopLogger)
		if _, err := s.AddTemporary(ctx, "@group", model.ReasonSlowMode, 10*time.Minute); err != nil {
			t.Fatalf("AddTemporary: %v", err)
		}
		if !s.IsBlocked("@group") {
			t.Fatalf("expected target blocked before expiry")
		}
		clock.Advance(10 * time.Minute)
		if s.IsBlocked("@group") {
			t.Fatalf("expected expired entry to be ignored without Remove")
		}
		if got := s.Stats().TotalBlacklisted; got != 0 {
			t.Fatalf("expected no active entries, got %d", got)
		}
	})

	t.Run("should let permanent supersede temporary", func(t *testing.T) {
		s := NewBlacklistStore(nil, NewManualClock(t0, false), &nopLogger)
		_, _ = s.AddTemporary(ctx, "https://t.me/Group", "slow", time.Hour)
		if _, err := s.AddPermanent(ctx, "@group", model.ReasonChatForbidden); err != nil {
			t.Fatalf("AddPermanent: %v", err)
		}
		perm, temp := s.List()
		if len(perm) != 1 || len(temp) != 0 {
			t.Fatalf("expected exactly one permanent entry, got %d/%d", len(perm), len(temp))
		}
		if perm[0].Kind != model.BlacklistPermanent || perm[0].ExpiresAt != nil {
			t.Fatalf("unexpected entry %+v", perm[0])
		}
	})

	t.Run("should not downgrade a permanent entry", func(t *testing.T) {
		s := NewBlacklistStore(nil, NewManualClock(t0, false), &nopLogger)
		_, _ = s.AddPermanent(ctx, "@group", "")
		e, err := s.AddTemporary(ctx, "@group", "slow", time.Minute)
		if err != nil {
			t.Fatalf("AddTemporary: %v", err)
		}
		if e.Kind != model.BlacklistPermanent {
			t.Fatalf("expected permanent entry returned, got %s", e.Kind)
		}
	})

	t.Run("should ignore Remove of an absent target", func(t *testing.T) {
		repo := newFakeBlacklistRepo()
		s := NewBlacklistStore(repo, NewManualClock(t0, false), &nopLogger)
		s.Remove(ctx, "@nobody")
		if repo.deletes != 0 {
			t.Fatalf("expected no repository delete")
		}
		_, _ = s.AddPermanent(ctx, "@x", "")
		s.Remove(ctx, "t.me/X")
		if s.IsBlocked("@x") || repo.deletes != 1 {
			t.Fatalf("expected entry removed through the normalized key")
		}
	})

	t.Run("should write through and reload from the repository", func(t *testing.T) {
		clock := NewManualClock(t0, false)
		repo := newFakeBlacklistRepo()
		s := NewBlacklistStore(repo, clock, &nopLogger)
		_, _ = s.AddPermanent(ctx, "@a", "")
		_, _ = s.AddTemporary(ctx, "@b", "", time.Hour)
		_, _ = s.AddTemporary(ctx, "@c", "", time.Minute)

		clock.Advance(2 * time.Minute)
		fresh := NewBlacklistStore(repo, clock, &nopLogger)
		if err := fresh.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		st := fresh.Stats()
		if st.PermanentCount != 1 || st.TemporaryCount != 1 {
			t.Fatalf("unexpected stats after reload %+v", st)
		}
	})

	t.Run("should keep serving when the repository fails", func(t *testing.T) {
		repo := newFakeBlacklistRepo()
		repo.failErr = errBoom
		s := NewBlacklistStore(repo, NewManualClock(t0, false), &nopLogger)
		if _, err := s.AddPermanent(ctx, "@a", ""); err != nil {
			t.Fatalf("expected repository error swallowed, got %v", err)
		}
		if !s.IsBlocked("@a") {
			t.Fatalf("expected in-memory entry despite repository failure")
		}
	})

	t.Run("should sweep expired entries", func(t *testing.T) {
		clock := NewManualClock(t0, false)
		repo := newFakeBlacklistRepo()
		s := NewBlacklistStore(repo, clock, &nopLogger)
		_, _ = s.AddTemporary(ctx, "@a", "", time.Minute)
		_, _ = s.AddTemporary(ctx, "@b", "", time.Hour)
		clock.Advance(5 * time.Minute)
		if n := s.Sweep(ctx); n != 1 {
			t.Fatalf("expected 1 swept, got %d", n)
		}
		if len(repo.entries) != 1 {
			t.Fatalf("expected repository pruned, got %d entries", len(repo.entries))
		}
	})

	t.Run("should reject an empty target", func(t *testing.T) {
		s := NewBlacklistStore(nil, nil, &nopLogger)
		if _, err := s.AddPermanent(ctx, "  ", ""); err == nil {
			t.Fatalf("expected error for empty target")
		}
	})
}
