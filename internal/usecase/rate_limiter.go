package usecase

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"telegram-automation/internal/domain/model"
)

const (
	// HighRiskDelayFactor widens both per-message delay bounds at high risk.
	HighRiskDelayFactor = 2.0
	// HighRiskCapFactor shrinks hourly and daily caps at high risk.
	HighRiskCapFactor = 0.75

	hourWindow = time.Hour
	dayWindow  = 24 * time.Hour
)

// PacingState is what the limiter needs to know about one account's recent
// sends. The scheduler owns it and records every delivered or failed send.
type PacingState struct {
	AccountID  string
	LastSendAt time.Time
	// Sends holds send instants of the last 24h, ascending.
	Sends []time.Time
	// SessionSends counts sends since the worker loop started.
	SessionSends int
}

// Record appends a send and drops entries that fell out of the daily window.
func (p *PacingState) Record(at time.Time) {
	p.Sends = append(p.Sends, at)
	p.SessionSends++
	if at.After(p.LastSendAt) {
		p.LastSendAt = at
	}
	p.Prune(at)
}

// Prune drops sends older than 24h before now.
func (p *PacingState) Prune(now time.Time) {
	cut := now.Add(-dayWindow)
	i := sort.Search(len(p.Sends), func(i int) bool { return p.Sends[i].After(cut) })
	if i > 0 {
		p.Sends = append(p.Sends[:0], p.Sends[i:]...)
	}
}

// Seed loads a persisted history, e.g. from the send-log, keeping order.
func (p *PacingState) Seed(sends []time.Time) {
	p.Sends = append([]time.Time(nil), sends...)
	sort.Slice(p.Sends, func(i, j int) bool { return p.Sends[i].Before(p.Sends[j]) })
	if n := len(p.Sends); n > 0 && p.Sends[n-1].After(p.LastSendAt) {
		p.LastSendAt = p.Sends[n-1]
	}
}

// within returns the sends inside (now-window, now].
func (p *PacingState) within(now time.Time, window time.Duration) []time.Time {
	cut := now.Add(-window)
	i := sort.Search(len(p.Sends), func(i int) bool { return p.Sends[i].After(cut) })
	return p.Sends[i:]
}

// RateLimiter computes the earliest instant the next send may happen. It has
// no side effects beyond advancing its random source.
type RateLimiter struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	clock Clock
}

func NewRateLimiter(seed int64, clock Clock) *RateLimiter {
	if clock == nil {
		clock = RealClock
	}
	return &RateLimiter{rnd: rand.New(rand.NewSource(seed)), clock: clock}
}

// NextAllowedAt returns max(last send + delay, hourly release, daily release).
// The delay is drawn on every call; after every MessagesPerCycle session sends
// the inter-cycle delay replaces the per-message one.
func (rl *RateLimiter) NextAllowedAt(cfg model.RateLimitConfig, st *PacingState, risk model.RiskLevel) time.Time {
	now := rl.clock.Now()
	minD, maxD := cfg.DelayBounds()
	hourCap, dayCap := cfg.MaxPerHour, cfg.MaxPerDay
	if risk == model.RiskHigh {
		minD = time.Duration(float64(minD) * HighRiskDelayFactor)
		maxD = time.Duration(float64(maxD) * HighRiskDelayFactor)
		hourCap = reducedCap(hourCap)
		dayCap = reducedCap(dayCap)
	}
	if cfg.MessagesPerCycle > 0 && st.SessionSends > 0 && st.SessionSends%cfg.MessagesPerCycle == 0 {
		minD, maxD = cfg.CycleBounds()
	}

	next := now
	if !st.LastSendAt.IsZero() {
		next = st.LastSendAt.Add(rl.sample(minD, maxD))
	}
	if r := release(st.within(now, hourWindow), hourCap, hourWindow); r.After(next) {
		next = r
	}
	if r := release(st.within(now, dayWindow), dayCap, dayWindow); r.After(next) {
		next = r
	}
	return next
}

func (rl *RateLimiter) sample(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	rl.mu.Lock()
	f := rl.rnd.Float64()
	rl.mu.Unlock()
	return lo + time.Duration(f*float64(hi-lo))
}

// Float64 exposes the seeded source to collaborators that need jitter.
func (rl *RateLimiter) Float64() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.rnd.Float64()
}

// release is the instant the window count drops below limit again, or the
// zero time when it already is below.
func release(sends []time.Time, limit int, window time.Duration) time.Time {
	if limit <= 0 || len(sends) < limit {
		return time.Time{}
	}
	return sends[len(sends)-limit].Add(window)
}

func reducedCap(c int) int {
	r := int(float64(c) * HighRiskCapFactor)
	if r < 1 {
		return 1
	}
	return r
}
