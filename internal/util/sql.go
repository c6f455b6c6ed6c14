package util

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type TransactionCallback func(*sqlx.Tx) error

// ErrRollback can be returned by a TransactionCallback to discard every write
// made in the transaction without reporting a failure to the caller.
const ErrRollback = ErrPublic("transaction rolled back")

// Transaction runs cb in a transaction that is committed only if cb returns
// nil. Any other return value, including a canceled context, rolls back.
func Transaction(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, cb TransactionCallback) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}

	if err := cb(tx); err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			return fmt.Errorf("rollback error: %w\noriginal error: %w", err2, err)
		}

		if errors.Is(err, ErrRollback) {
			return nil
		}

		return err
	}

	return tx.Commit()
}
