package port

import (
	"context"
	"payadmin/internal/domain"

	"github.com/google/uuid"
)

type DecisionService interface {
	Decide(ctx context.Context, withdrawalID uuid.UUID, action domain.DecisionAction, callerID string) (*domain.DecisionOutcome, error)
	GetWithdrawal(ctx context.Context, callerID string, id uuid.UUID) (*domain.Withdrawal, error)
	ListWithdrawals(ctx context.Context, callerID string, status domain.WithdrawalStatus) ([]*domain.Withdrawal, error)
}
