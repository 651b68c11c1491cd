package adapter

import (
	"context"
	"time"
)

type OutcomeKind string

const (
	OutcomeDelivered        OutcomeKind = "delivered"
	OutcomePermanentFailure OutcomeKind = "permanent_failure"
	OutcomeFloodWait        OutcomeKind = "flood_wait"
)

// Outcome is the three-way result of one send.
type Outcome struct {
	Kind OutcomeKind
	// Reason describes a permanent failure.
	Reason string
	// RetryAfter is the provider-issued pause for a flood-wait.
	RetryAfter time.Duration
	// Blacklist marks a permanent failure as a property of the target itself
	// (kicked, chat deleted, writes forbidden) rather than of this message.
	Blacklist bool
}

func Delivered() Outcome { return Outcome{Kind: OutcomeDelivered} }

func PermanentFailure(reason string) Outcome {
	return Outcome{Kind: OutcomePermanentFailure, Reason: reason}
}

func FloodWait(d time.Duration) Outcome {
	return Outcome{Kind: OutcomeFloodWait, RetryAfter: d}
}

// MessengerClient performs a single send for one account. A non-nil error
// means the account itself is unusable and should wrap domain.ErrAccountFatal;
// everything target-specific is reported through the Outcome.
type MessengerClient interface {
	Send(ctx context.Context, target, text string) (Outcome, error)
}
