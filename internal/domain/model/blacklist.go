package model

import (
	"strings"
	"time"

	"telegram-automation/internal/domain"
)

type BlacklistKind string

const (
	BlacklistPermanent BlacklistKind = "permanent"
	BlacklistTemporary BlacklistKind = "temporary"
)

// Common reasons recorded when the engine blocks a target on its own.
const (
	ReasonChatForbidden      = "ChatForbidden"
	ReasonChatWriteForbidden = "ChatWriteForbidden"
	ReasonChatNotFound       = "ChatNotFound"
	ReasonUserBlocked        = "UserBlocked"
	ReasonSlowMode           = "SlowModeWait"
	ReasonManual             = "Manual"
)

// BlacklistEntry blocks sends to a single target. ExpiresAt is set only for
// temporary entries.
type BlacklistEntry struct {
	Target    string        `json:"group_link"`
	Kind      BlacklistKind `json:"blacklist_type"`
	Reason    string        `json:"reason"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
}

func NewPermanentEntry(target, reason string, now time.Time) (*BlacklistEntry, error) {
	key := NormalizeTarget(target)
	if key == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &BlacklistEntry{Target: key, Kind: BlacklistPermanent, Reason: reason, CreatedAt: now}, nil
}

func NewTemporaryEntry(target, reason string, ttl time.Duration, now time.Time) (*BlacklistEntry, error) {
	key := NormalizeTarget(target)
	if key == "" || ttl <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	exp := now.Add(ttl)
	return &BlacklistEntry{Target: key, Kind: BlacklistTemporary, Reason: reason, CreatedAt: now, ExpiresAt: &exp}, nil
}

// ActiveAt reports whether the entry still blocks at the given instant.
// Temporary entries stop blocking once expires-at is reached.
func (e *BlacklistEntry) ActiveAt(now time.Time) bool {
	if e == nil {
		return false
	}
	if e.Kind == BlacklistPermanent {
		return true
	}
	return e.ExpiresAt != nil && e.ExpiresAt.After(now)
}

// ExpiresInMinutes is zero for permanent or expired entries.
func (e *BlacklistEntry) ExpiresInMinutes(now time.Time) int {
	if e == nil || e.ExpiresAt == nil {
		return 0
	}
	m := int(e.ExpiresAt.Sub(now) / time.Minute)
	if m < 0 {
		return 0
	}
	return m
}

// NormalizeTarget maps the different spellings of a Telegram target onto one
// key: "https://t.me/Foo", "t.me/foo" and "@foo" all become "@foo". Numeric
// chat ids are kept as-is.
func NormalizeTarget(target string) string {
	t := strings.TrimSpace(target)
	if t == "" {
		return ""
	}
	lower := strings.ToLower(t)
	for _, p := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		if strings.HasPrefix(lower, p) {
			rest := strings.Trim(t[len(p):], "/")
			if rest == "" {
				return ""
			}
			// invite links (t.me/+hash, t.me/joinchat/hash) are case sensitive
			if strings.HasPrefix(rest, "+") || strings.HasPrefix(strings.ToLower(rest), "joinchat/") {
				return "https://t.me/" + rest
			}
			return "@" + strings.ToLower(rest)
		}
	}
	if strings.HasPrefix(t, "@") {
		if len(t) == 1 {
			return ""
		}
		return strings.ToLower(t)
	}
	return t
}
