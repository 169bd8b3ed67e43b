package domain

import (
	"time"

	"github.com/google/uuid"
)

type WithdrawalStatus string

const (
	StatusPending  WithdrawalStatus = "pending"
	StatusApproved WithdrawalStatus = "approved"
	StatusRejected WithdrawalStatus = "rejected"
)

type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionReject  DecisionAction = "reject"
)

// Withdrawal is created by the user-facing request flow with funds already
// debited and status pending. This service only ever moves it out of pending.
type Withdrawal struct {
	ID          uuid.UUID
	UserID      string
	Amount      float64
	Status      WithdrawalStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
	ProcessedBy *string
}

// TxTypeRefund tags the wallet credit written when a withdrawal is rejected.
const TxTypeRefund = "refund"

type WalletTransaction struct {
	ID          uuid.UUID
	UserID      string
	Amount      float64
	Type        string
	ReferenceID string
	Metadata    map[string]any
	CreatedAt   time.Time
}

type Notification struct {
	ID        uuid.UUID
	UserID    string
	Title     string
	Message   string
	Type      string
	RelatedID string
	CreatedAt time.Time
}

const (
	NotificationWithdrawalApproved = "withdrawal_approved"
	NotificationWithdrawalRejected = "withdrawal_rejected"
)

const RoleAdmin = "admin"

type DecisionOutcome struct {
	WithdrawalID uuid.UUID
	Status       WithdrawalStatus
	Message      string
}
