package service

import (
	"context"
	"errors"
	"fmt"
	"payadmin/internal/domain"
	"payadmin/internal/port"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	approvedMessage = "Withdrawal approved and is being processed"
	rejectedMessage = "Withdrawal rejected and funds returned to wallet"
)

// errDecisionLost marks the loser of a concurrent decision race: the
// conditional update matched no row because another decision got there first.
var errDecisionLost = errors.New("decision lost to concurrent update")

type decisionService struct {
	withdrawals   port.WithdrawalRepository
	wallets       port.WalletRepository
	notifications port.NotificationRepository
	profiles      port.ProfileRepository
	tx            port.TxRunner
	callTimeout   time.Duration
	logger        *zap.SugaredLogger
}

func NewDecisionService(
	withdrawals port.WithdrawalRepository,
	wallets port.WalletRepository,
	notifications port.NotificationRepository,
	profiles port.ProfileRepository,
	tx port.TxRunner,
	callTimeout time.Duration,
	logger *zap.SugaredLogger,
) port.DecisionService {
	return &decisionService{
		withdrawals:   withdrawals,
		wallets:       wallets,
		notifications: notifications,
		profiles:      profiles,
		tx:            tx,
		callTimeout:   callTimeout,
		logger:        logger,
	}
}

// call bounds one external round trip and maps a deadline hit to the
// dependency-timeout error.
func (s *decisionService) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	err := fn(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrDependencyTimeout
	}
	return err
}

// requireAdmin re-derives the caller's role from the store on every request.
// The role is never taken from the token or any client-supplied flag.
func (s *decisionService) requireAdmin(ctx context.Context, callerID string) error {
	if callerID == "" {
		return domain.ErrUnauthorized
	}

	var role string
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		role, err = s.profiles.Role(ctx, callerID)
		return err
	})
	if errors.Is(err, domain.ErrProfileNotFound) {
		return domain.ErrAdminRequired
	}
	if err != nil {
		return err
	}

	if role != domain.RoleAdmin {
		return domain.ErrAdminRequired
	}
	return nil
}

func (s *decisionService) loadWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	var w *domain.Withdrawal
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		w, err = s.withdrawals.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *decisionService) Decide(ctx context.Context, withdrawalID uuid.UUID, action domain.DecisionAction, callerID string) (*domain.DecisionOutcome, error) {
	if action != domain.ActionApprove && action != domain.ActionReject {
		return nil, domain.ErrInvalidAction
	}

	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	w, err := s.loadWithdrawal(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}

	if w.Status != domain.StatusPending {
		return nil, &domain.AlreadyProcessedError{Status: w.Status}
	}

	now := time.Now().UTC()

	var status domain.WithdrawalStatus
	switch action {
	case domain.ActionApprove:
		status = domain.StatusApproved
		// Funds were debited when the withdrawal was requested; approval
		// only flips the status.
		err = s.call(ctx, func(ctx context.Context) error {
			won, err := s.withdrawals.SetStatusIfPending(ctx, withdrawalID, status, now, callerID)
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrLedger, err)
			}
			if !won {
				return errDecisionLost
			}
			return nil
		})
	case domain.ActionReject:
		status = domain.StatusRejected
		// Status flip and refund commit together or not at all.
		err = s.call(ctx, func(ctx context.Context) error {
			return s.tx.WithinTx(ctx, func(txCtx context.Context) error {
				won, err := s.withdrawals.SetStatusIfPending(txCtx, withdrawalID, status, now, callerID)
				if err != nil {
					return fmt.Errorf("%w: %v", domain.ErrLedger, err)
				}
				if !won {
					return errDecisionLost
				}

				metadata := map[string]any{
					"rejected_at": now.Format(time.RFC3339),
					"rejected_by": callerID,
				}
				if err := s.wallets.Credit(txCtx, w.UserID, w.Amount, domain.TxTypeRefund, withdrawalID.String(), metadata); err != nil {
					return fmt.Errorf("%w: %v", domain.ErrLedger, err)
				}
				return nil
			})
		})
	}

	if errors.Is(err, errDecisionLost) {
		return nil, s.alreadyProcessed(ctx, withdrawalID, w.Status)
	}
	if err != nil {
		return nil, err
	}

	s.notify(ctx, w, status)

	message := approvedMessage
	if status == domain.StatusRejected {
		message = rejectedMessage
	}
	return &domain.DecisionOutcome{
		WithdrawalID: withdrawalID,
		Status:       status,
		Message:      message,
	}, nil
}

// alreadyProcessed re-reads the row once so the race loser can report which
// terminal status won.
func (s *decisionService) alreadyProcessed(ctx context.Context, id uuid.UUID, observed domain.WithdrawalStatus) error {
	status := observed
	if w, err := s.loadWithdrawal(ctx, id); err == nil {
		status = w.Status
	}
	return &domain.AlreadyProcessedError{Status: status}
}

// notify is best effort: a failure here never rolls back the decision.
func (s *decisionService) notify(ctx context.Context, w *domain.Withdrawal, status domain.WithdrawalStatus) {
	n := &domain.Notification{
		UserID:    w.UserID,
		RelatedID: w.ID.String(),
	}
	if status == domain.StatusApproved {
		n.Title = "Withdrawal Approved"
		n.Message = "Your withdrawal request has been approved and is being processed"
		n.Type = domain.NotificationWithdrawalApproved
	} else {
		n.Title = "Withdrawal Rejected"
		n.Message = "Your withdrawal request was rejected and the funds have been returned to your wallet"
		n.Type = domain.NotificationWithdrawalRejected
	}

	err := s.call(ctx, func(ctx context.Context) error {
		return s.notifications.Create(ctx, n)
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicateNotification):
		s.logger.Debugw("notification already recorded", "withdrawal_id", w.ID)
	default:
		s.logger.Errorw("failed to record notification", "withdrawal_id", w.ID, "user_id", w.UserID, "error", err)
	}
}

func (s *decisionService) GetWithdrawal(ctx context.Context, callerID string, id uuid.UUID) (*domain.Withdrawal, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.loadWithdrawal(ctx, id)
}

func (s *decisionService) ListWithdrawals(ctx context.Context, callerID string, status domain.WithdrawalStatus) ([]*domain.Withdrawal, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	var withdrawals []*domain.Withdrawal
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		withdrawals, err = s.withdrawals.List(ctx, status)
		return err
	})
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}
