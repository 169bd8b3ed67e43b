package postgresql

import (
	"context"
	"database/sql"
	"fmt"
)

type ctxtype string

const (
	trKey ctxtype = "tx"
)

// querier is satisfied by both *sql.DB and *sql.Tx so repositories run the
// same queries inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func getTr(ctx context.Context) (*sql.Tx, bool) {
	tr, ok := ctx.Value(trKey).(*sql.Tx)
	return tr, ok
}

func (s *Store) conn(ctx context.Context) querier {
	if tr, ok := getTr(ctx); ok {
		return tr
	}
	return s.db
}

// WithinTx runs fn inside a transaction carried through ctx. Any error from
// fn rolls the whole transaction back, so paired mutations (status flip plus
// wallet credit) either both commit or neither does.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(context.WithValue(ctx, trKey, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
