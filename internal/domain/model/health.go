package model

import "time"

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

var riskOrder = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// RiskFromScore clamps a number of active risk signals onto a level.
func RiskFromScore(score int) RiskLevel {
	if score <= 0 {
		return RiskLow
	}
	if score >= len(riskOrder) {
		return RiskHigh
	}
	return riskOrder[score]
}

// Score is the inverse of RiskFromScore.
func (r RiskLevel) Score() int {
	for i, v := range riskOrder {
		if v == r {
			return i
		}
	}
	return 0
}

// AccountHealthState is the read model for one sending account.
type AccountHealthState struct {
	AccountID          string    `json:"account_id"`
	SuccessRate        float64   `json:"success_rate"`
	MessagesSentToday  int       `json:"messages_sent_today"`
	FloodWaitsLastHour int       `json:"flood_waits_last_hour"`
	RiskLevel          RiskLevel `json:"risk_level"`
	LastActivity       time.Time `json:"last_activity"`
	Faulted            bool      `json:"faulted"`
	FaultReason        string    `json:"fault_reason,omitempty"`
}
