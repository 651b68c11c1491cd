package usecase

import (
	"sync"
	"time"

	"telegram-automation/internal/domain/model"
)

const (
	HealthWindow           = 200
	HealthMinSamples       = 10
	LowSuccessRate         = 70.0
	FloodWaitThreshold     = 2
	RiskDeescalationPeriod = 30 * time.Minute
)

// HealthTracker keeps the rolling health of one account. Risk is the number
// of active signals (low success rate, frequent flood-waits) mapped onto
// low/medium/high; it rises immediately and falls one step per quiet period.
type HealthTracker struct {
	mu        sync.Mutex
	accountID string
	clock     Clock

	outcomes  []bool
	next      int
	successes int

	floodWaits []time.Time

	sentToday int
	day       time.Time

	level     model.RiskLevel
	changedAt time.Time

	lastActivity time.Time
	faulted      bool
	faultReason  string
}

func NewHealthTracker(accountID string, clock Clock) *HealthTracker {
	if clock == nil {
		clock = RealClock
	}
	return &HealthTracker{
		accountID: accountID,
		clock:     clock,
		outcomes:  make([]bool, 0, HealthWindow),
		level:     model.RiskLow,
	}
}

// RecordOutcome adds one delivered (true) or failed (false) send. Only
// delivered sends count towards messages sent today.
func (h *HealthTracker) RecordOutcome(success bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.clock.Now()

	if len(h.outcomes) < HealthWindow {
		h.outcomes = append(h.outcomes, success)
	} else {
		if h.outcomes[h.next] {
			h.successes--
		}
		h.outcomes[h.next] = success
		h.next = (h.next + 1) % HealthWindow
	}
	if success {
		h.successes++
	}

	h.rollDay(now)
	if success {
		h.sentToday++
	}
	h.lastActivity = now
	h.commit(now)
}

func (h *HealthTracker) RecordFloodWait() {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.clock.Now()
	h.floodWaits = append(h.floodWaits, now)
	h.lastActivity = now
	h.commit(now)
}

// Risk is the level the rate limiter should use for its next query.
func (h *HealthTracker) Risk() model.RiskLevel {
	h.mu.Lock()
	defer h.mu.Unlock()
	lvl, _ := h.levelAt(h.clock.Now())
	return lvl
}

func (h *HealthTracker) CurrentHealth() model.AccountHealthState {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.clock.Now()
	lvl, _ := h.levelAt(now)
	sent := h.sentToday
	if !sameDay(h.day, now) {
		sent = 0
	}
	return model.AccountHealthState{
		AccountID:          h.accountID,
		SuccessRate:        h.successRate(),
		MessagesSentToday:  sent,
		FloodWaitsLastHour: h.floodWaitsSince(now.Add(-time.Hour)),
		RiskLevel:          lvl,
		LastActivity:       h.lastActivity,
		Faulted:            h.faulted,
		FaultReason:        h.faultReason,
	}
}

// MarkFaulted stops the scheduler from starting tasks for the account.
func (h *HealthTracker) MarkFaulted(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.faulted = true
	h.faultReason = reason
}

func (h *HealthTracker) ClearFault() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.faulted = false
	h.faultReason = ""
}

func (h *HealthTracker) Faulted() (bool, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.faulted, h.faultReason
}

func (h *HealthTracker) successRate() float64 {
	if len(h.outcomes) == 0 {
		return 100
	}
	return float64(h.successes) * 100 / float64(len(h.outcomes))
}

func (h *HealthTracker) floodWaitsSince(from time.Time) int {
	n := 0
	for _, t := range h.floodWaits {
		if t.After(from) {
			n++
		}
	}
	return n
}

func (h *HealthTracker) signals(now time.Time) int {
	s := 0
	if len(h.outcomes) >= HealthMinSamples && h.successRate() < LowSuccessRate {
		s++
	}
	if h.floodWaitsSince(now.Add(-time.Hour)) >= FloodWaitThreshold {
		s++
	}
	return s
}

// levelAt derives the level at now from the last committed one without
// mutating state, so reads stay pure.
func (h *HealthTracker) levelAt(now time.Time) (model.RiskLevel, time.Time) {
	target := h.signals(now)
	cur, at := h.level.Score(), h.changedAt
	if target >= cur {
		return model.RiskFromScore(target), now
	}
	// the quiet period starts when the flood-wait signal lapsed
	if n := len(h.floodWaits); n >= FloodWaitThreshold {
		end := h.floodWaits[n-FloodWaitThreshold].Add(time.Hour)
		if end.After(at) && !end.After(now) {
			at = end
		}
	}
	for cur > target && now.Sub(at) >= RiskDeescalationPeriod {
		cur--
		at = at.Add(RiskDeescalationPeriod)
	}
	return model.RiskFromScore(cur), at
}

func (h *HealthTracker) commit(now time.Time) {
	h.level, h.changedAt = h.levelAt(now)
	cut := now.Add(-time.Hour)
	i := 0
	for i < len(h.floodWaits) && !h.floodWaits[i].After(cut) {
		i++
	}
	h.floodWaits = h.floodWaits[i:]
}

func (h *HealthTracker) rollDay(now time.Time) {
	if !sameDay(h.day, now) {
		h.day = now
		h.sentToday = 0
	}
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	a, b = a.Local(), b.Local()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
