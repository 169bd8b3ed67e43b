package port

import (
	"context"
	"payadmin/internal/domain"
	"time"

	"github.com/google/uuid"
)

type WithdrawalRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	List(ctx context.Context, status domain.WithdrawalStatus) ([]*domain.Withdrawal, error)
	// SetStatusIfPending flips the status with a WHERE status = 'pending'
	// guard and reports whether this call won the transition.
	SetStatusIfPending(ctx context.Context, id uuid.UUID, status domain.WithdrawalStatus, processedAt time.Time, processedBy string) (bool, error)
}

type WalletRepository interface {
	// Credit increases the user's balance by amount and records one audit
	// transaction. Both writes honor a transaction carried in ctx.
	Credit(ctx context.Context, userID string, amount float64, txType string, referenceID string, metadata map[string]any) error
	Balance(ctx context.Context, userID string) (float64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
}

type ProfileRepository interface {
	Role(ctx context.Context, userID string) (string, error)
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
