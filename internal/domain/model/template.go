package model

import (
	"strings"
	"time"

	"telegram-automation/internal/domain"
)

// MessageTemplate is the text sent to targets. Each variable may carry a pool
// of values, one of which is picked per message when the task does not pin it.
type MessageTemplate struct {
	ID        string              `json:"template_id"`
	Content   string              `json:"content"`
	Variables map[string][]string `json:"variables"`
	Active    bool                `json:"active"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func NewMessageTemplate(id, content string, vars map[string][]string, now time.Time) (*MessageTemplate, error) {
	if !validTemplateID(id) || strings.TrimSpace(content) == "" {
		return nil, domain.ErrInvalidArgument
	}
	for _, pool := range vars {
		if len(pool) == 0 {
			return nil, domain.ErrInvalidArgument
		}
	}
	if vars == nil {
		vars = map[string][]string{}
	}
	return &MessageTemplate{ID: id, Content: content, Variables: vars, Active: true, CreatedAt: now, UpdatedAt: now}, nil
}

// letters, digits, '_' and '-' only
func validTemplateID(id string) bool {
	if id == "" || len(id) > 100 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// Group is a known target the operator manages from the dashboard.
type Group struct {
	Link    string    `json:"group_link"`
	Active  bool      `json:"active"`
	AddedAt time.Time `json:"added_at"`
}
