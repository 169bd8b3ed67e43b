package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAction         = errors.New("action must be approve or reject")
	ErrWithdrawalNotFound    = errors.New("withdrawal not found")
	ErrProfileNotFound       = errors.New("profile not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrAdminRequired         = errors.New("admin access required")
	ErrLedger                = errors.New("ledger operation failed")
	ErrDependencyTimeout     = errors.New("dependency call timed out")
	ErrDuplicateNotification = errors.New("notification already recorded")
)

// AlreadyProcessedError reports a decision attempt on a withdrawal that has
// already left pending. Status is the terminal status observed, so the caller
// can show which decision won.
type AlreadyProcessedError struct {
	Status WithdrawalStatus
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("withdrawal request already processed (status: %s)", e.Status)
}
