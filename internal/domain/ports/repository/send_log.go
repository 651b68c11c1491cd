package repository

import (
	"context"
	"time"
)

// SendLog remembers when an account delivered messages so hourly and daily
// caps survive restarts.
type SendLog interface {
	Record(ctx context.Context, accountID string, at time.Time) error
	// Since returns send times at or after from, oldest first.
	Since(ctx context.Context, accountID string, from time.Time) ([]time.Time, error)
}
