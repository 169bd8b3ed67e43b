package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"payadmin/internal/port"
	"time"

	"github.com/google/uuid"
)

type walletRepository struct {
	store *Store
}

func NewWalletRepository(store *Store) port.WalletRepository {
	return &walletRepository{store: store}
}

func (r *walletRepository) Credit(ctx context.Context, userID string, amount float64, txType string, referenceID string, metadata map[string]any) error {
	const upsert = `INSERT INTO balances (user_id, amount, updated_at)
              VALUES ($1, $2, NOW())
              ON CONFLICT (user_id)
              DO UPDATE SET amount = balances.amount + EXCLUDED.amount, updated_at = NOW()`

	conn := r.store.conn(ctx)
	if _, err := conn.ExecContext(ctx, upsert, userID, amount); err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal transaction metadata: %w", err)
	}

	const insert = `INSERT INTO wallet_transactions (id, user_id, amount, type, reference_id, metadata, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := conn.ExecContext(ctx, insert, uuid.New(), userID, amount, txType, referenceID, meta, time.Now()); err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

func (r *walletRepository) Balance(ctx context.Context, userID string) (float64, error) {
	var amount float64
	const query = `SELECT amount FROM balances WHERE user_id = $1`

	err := r.store.conn(ctx).QueryRowContext(ctx, query, userID).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return amount, err
}
