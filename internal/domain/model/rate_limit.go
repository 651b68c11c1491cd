package model

import (
	"fmt"
	"time"

	"telegram-automation/internal/domain"
)

// RateLimitConfig bounds how fast one account may send. Delays are seconds,
// cycle delays are hours.
type RateLimitConfig struct {
	MinDelay           float64 `yaml:"min_delay_msg" json:"min_delay_msg"`
	MaxDelay           float64 `yaml:"max_delay_msg" json:"max_delay_msg"`
	MinCycleDelayHours float64 `yaml:"min_cycle_delay_hours" json:"min_cycle_delay_hours"`
	MaxCycleDelayHours float64 `yaml:"max_cycle_delay_hours" json:"max_cycle_delay_hours"`
	MessagesPerCycle   int     `yaml:"messages_per_cycle" json:"messages_per_cycle"`
	MaxPerHour         int     `yaml:"max_messages_per_hour" json:"max_messages_per_hour"`
	MaxPerDay          int     `yaml:"max_messages_per_day" json:"max_messages_per_day"`
}

// DefaultRateLimitConfig mirrors the dashboard's stock delay/safety settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MinDelay:           5,
		MaxDelay:           10,
		MinCycleDelayHours: 1.1,
		MaxCycleDelayHours: 1.3,
		MessagesPerCycle:   20,
		MaxPerHour:         50,
		MaxPerDay:          200,
	}
}

func (c RateLimitConfig) Validate() error {
	switch {
	case c.MinDelay < 0 || c.MaxDelay < c.MinDelay:
		return fmt.Errorf("%w: delay bounds [%v, %v]", domain.ErrInvalidArgument, c.MinDelay, c.MaxDelay)
	case c.MinCycleDelayHours < 0 || c.MaxCycleDelayHours < c.MinCycleDelayHours:
		return fmt.Errorf("%w: cycle delay bounds [%v, %v]", domain.ErrInvalidArgument, c.MinCycleDelayHours, c.MaxCycleDelayHours)
	case c.MessagesPerCycle < 0:
		return fmt.Errorf("%w: messages_per_cycle must be >= 0", domain.ErrInvalidArgument)
	case c.MaxPerHour <= 0 || c.MaxPerDay <= 0:
		return fmt.Errorf("%w: hourly and daily caps must be positive", domain.ErrInvalidArgument)
	}
	return nil
}

func (c RateLimitConfig) DelayBounds() (time.Duration, time.Duration) {
	return secondsToDuration(c.MinDelay), secondsToDuration(c.MaxDelay)
}

func (c RateLimitConfig) CycleBounds() (time.Duration, time.Duration) {
	return secondsToDuration(c.MinCycleDelayHours * 3600), secondsToDuration(c.MaxCycleDelayHours * 3600)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
