package postgresql

import (
	"context"
	"database/sql"
	"payadmin/internal/domain"
	"payadmin/internal/port"
	"time"

	"github.com/google/uuid"
)

type withdrawalRepository struct {
	store *Store
}

func NewWithdrawalRepository(store *Store) port.WithdrawalRepository {
	return &withdrawalRepository{store: store}
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	const query = `SELECT id, user_id, amount, status, created_at, processed_at, processed_by
              FROM withdrawals WHERE id = $1`

	err := r.store.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&w.ID, &w.UserID, &w.Amount, &w.Status, &w.CreatedAt, &w.ProcessedAt, &w.ProcessedBy,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *withdrawalRepository) List(ctx context.Context, status domain.WithdrawalStatus) ([]*domain.Withdrawal, error) {
	const query = `SELECT id, user_id, amount, status, created_at, processed_at, processed_by
              FROM withdrawals WHERE status = $1 ORDER BY created_at`

	rows, err := r.store.conn(ctx).QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []*domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		if err := rows.Scan(&w.ID, &w.UserID, &w.Amount, &w.Status, &w.CreatedAt, &w.ProcessedAt, &w.ProcessedBy); err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, &w)
	}
	return withdrawals, rows.Err()
}

// SetStatusIfPending is the idempotency guard: the status predicate sits in
// the UPDATE itself, so of two concurrent decisions exactly one sees a row
// affected and the other reports false.
func (r *withdrawalRepository) SetStatusIfPending(ctx context.Context, id uuid.UUID, status domain.WithdrawalStatus, processedAt time.Time, processedBy string) (bool, error) {
	const query = `UPDATE withdrawals SET status = $1, processed_at = $2, processed_by = $3
              WHERE id = $4 AND status = 'pending'`

	result, err := r.store.conn(ctx).ExecContext(ctx, query, status, processedAt, processedBy, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
