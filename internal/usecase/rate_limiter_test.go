//go:build !integration

package usecase

import (
	"testing"
	"time"

	"telegram-automation/internal/domain/model"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestRateLimiter_NextAllowedAt(t *testing.T) {
	cfg := model.DefaultRateLimitConfig()

	t.Run("should allow the first send immediately", func(t *testing.T) {
		rl := NewRateLimiter(1, NewManualClock(t0, true))
		got := rl.NextAllowedAt(cfg, &PacingState{}, model.RiskLow)
		if !got.Equal(t0) {
			t.Fatalf("expected %v, got %v", t0, got)
		}
	})

	t.Run("should sample delays uniformly within bounds", func(t *testing.T) {
		rl := NewRateLimiter(42, NewManualClock(t0, true))
		st := &PacingState{LastSendAt: t0}
		minD, maxD := cfg.DelayBounds()

		const samples, bins = 1000, 10
		var counts [bins]int
		for i := 0; i < samples; i++ {
			gap := rl.NextAllowedAt(cfg, st, model.RiskLow).Sub(t0)
			if gap < minD || gap > maxD {
				t.Fatalf("gap %v outside [%v, %v]", gap, minD, maxD)
			}
			b := int(float64(gap-minD) / float64(maxD-minD) * bins)
			if b == bins {
				b--
			}
			counts[b]++
		}
		expected := float64(samples) / bins
		chi := 0.0
		for _, c := range counts {
			d := float64(c) - expected
			chi += d * d / expected
		}
		// 9 degrees of freedom, p = 0.001
		if chi > 27.877 {
			t.Fatalf("distribution not uniform: chi-square %.2f, bins %v", chi, counts)
		}
	})

	t.Run("should widen the expected gap at high risk", func(t *testing.T) {
		rl := NewRateLimiter(7, NewManualClock(t0, true))
		st := &PacingState{LastSendAt: t0}
		mean := func(risk model.RiskLevel) time.Duration {
			var sum time.Duration
			for i := 0; i < 500; i++ {
				sum += rl.NextAllowedAt(cfg, st, risk).Sub(t0)
			}
			return sum / 500
		}
		low, high := mean(model.RiskLow), mean(model.RiskHigh)
		if high <= low {
			t.Fatalf("expected high-risk mean gap > low-risk, got %v <= %v", high, low)
		}
		minD, _ := cfg.DelayBounds()
		if high < time.Duration(float64(minD)*HighRiskDelayFactor) {
			t.Fatalf("high-risk mean %v below widened minimum", high)
		}
	})

	t.Run("should not release before the hourly window drops under cap", func(t *testing.T) {
		c := cfg
		c.MaxPerHour = 10
		clock := NewManualClock(t0, false)
		rl := NewRateLimiter(3, clock)
		st := &PacingState{}
		for i := 0; i < 10; i++ {
			st.Record(t0.Add(time.Duration(i) * time.Minute))
		}
		clock.Advance(10 * time.Minute)
		releaseAt := t0.Add(time.Hour)
		for i := 0; i < 50; i++ {
			got := rl.NextAllowedAt(c, st, model.RiskLow)
			if got.Before(releaseAt) {
				t.Fatalf("expected >= %v, got %v", releaseAt, got)
			}
		}
	})

	t.Run("should apply the daily cap", func(t *testing.T) {
		c := cfg
		c.MaxPerHour = 1000
		c.MaxPerDay = 5
		clock := NewManualClock(t0, false)
		rl := NewRateLimiter(3, clock)
		st := &PacingState{}
		for i := 0; i < 5; i++ {
			st.Record(t0.Add(time.Duration(i) * time.Hour))
		}
		clock.Advance(5 * time.Hour)
		got := rl.NextAllowedAt(c, st, model.RiskLow)
		if want := t0.Add(24 * time.Hour); !got.Equal(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("should shrink caps at high risk", func(t *testing.T) {
		c := cfg
		c.MaxPerHour = 10
		clock := NewManualClock(t0, false)
		rl := NewRateLimiter(3, clock)
		st := &PacingState{}
		for i := 0; i < 7; i++ {
			st.Record(t0.Add(time.Duration(i) * time.Second))
		}
		clock.Advance(time.Minute)
		if got := rl.NextAllowedAt(c, st, model.RiskLow); !got.Before(t0.Add(time.Hour)) {
			t.Fatalf("low risk should not hit the cap, got %v", got)
		}
		if got := rl.NextAllowedAt(c, st, model.RiskHigh); !got.Equal(t0.Add(time.Hour)) {
			t.Fatalf("high risk cap is 7, expected release at %v, got %v", t0.Add(time.Hour), got)
		}
	})

	t.Run("should insert the cycle delay after every N session sends", func(t *testing.T) {
		c := cfg
		c.MessagesPerCycle = 3
		c.MaxPerHour = 1000
		rl := NewRateLimiter(9, NewManualClock(t0, true))
		st := &PacingState{}
		for i := 0; i < 3; i++ {
			st.Record(t0.Add(time.Duration(i) * 10 * time.Second))
		}
		minC, maxC := c.CycleBounds()
		gap := rl.NextAllowedAt(c, st, model.RiskLow).Sub(st.LastSendAt)
		if gap < minC || gap > maxC {
			t.Fatalf("expected cycle delay in [%v, %v], got %v", minC, maxC, gap)
		}
		st.Record(st.LastSendAt.Add(gap))
		minD, maxD := c.DelayBounds()
		gap = rl.NextAllowedAt(c, st, model.RiskLow).Sub(st.LastSendAt)
		if gap < minD || gap > maxD {
			t.Fatalf("expected per-message delay after the cycle, got %v", gap)
		}
	})
}

func TestPacingState_Record(t *testing.T) {
	st := &PacingState{}
	st.Record(t0)
	st.Record(t0.Add(23 * time.Hour))
	st.Record(t0.Add(25 * time.Hour))
	if len(st.Sends) != 2 {
		t.Fatalf("expected sends older than 24h pruned, got %d", len(st.Sends))
	}
	if st.SessionSends != 3 {
		t.Fatalf("expected 3 session sends, got %d", st.SessionSends)
	}
	if !st.LastSendAt.Equal(t0.Add(25 * time.Hour)) {
		t.Fatalf("unexpected last send %v", st.LastSendAt)
	}
}
