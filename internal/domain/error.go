package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Task engine
	ErrTaskFinished     = errors.New("task already finished")
	ErrNoTargets        = errors.New("task has no targets")
	ErrTemplateNotFound = errors.New("message template not found")
	ErrTemplateInactive = errors.New("message template is inactive")
	ErrUnknownAccount   = errors.New("unknown sending account")
	ErrSchedulerStopped = errors.New("scheduler is not running")

	// ErrAccountFatal is wrapped by messenger adapters when the sending account
	// itself is unusable (revoked session, banned, invalid token).
	ErrAccountFatal = errors.New("account-level failure")
	// ErrAccountFaulted is recorded on tasks that were refused because the
	// account has an uncleared fault.
	ErrAccountFaulted = errors.New("account is faulted")

	ErrLockHeld = errors.New("lock is held by another owner")
	// ErrLeaseLost fails a task whose account lease passed to another process
	// while it ran.
	ErrLeaseLost = errors.New("account lease lost")
)
