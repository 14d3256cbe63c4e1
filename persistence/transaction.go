package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Transaction is the database transaction of a session. At most one is active at a time.
type Transaction struct {
	s  *Session
	tx *sql.Tx
}

// Begin starts a transaction.
func (t *Transaction) Begin(ctx context.Context) error {
	if err := t.s.checkOpen(); err != nil {
		return err
	}
	if t.tx != nil {
		return ErrTransactionActive
	}

	tx, err := t.s.factory.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	t.tx = tx
	t.s.logger.Debug("Transaction started")
	return nil
}

// Commit flushes pending changes and commits. When either step fails the transaction
// is rolled back, every managed entity becomes detached, and the error is returned.
func (t *Transaction) Commit(ctx context.Context) error {
	if err := t.s.requireTransaction(); err != nil {
		return err
	}

	if err := t.s.flush(ctx); err != nil {
		if rbErr := t.rollback(); rbErr != nil {
			t.s.logger.Error("Rollback after failed flush failed", "error", rbErr)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	tx := t.tx
	t.tx = nil
	if err := tx.Commit(); err != nil {
		t.s.detachAll()
		t.s.logger.Warn("Transaction commit failed", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.s.logger.Debug("Transaction committed")
	return nil
}

// Rollback rolls the transaction back. The persistence context is cleared and every
// managed entity becomes detached.
func (t *Transaction) Rollback() error {
	if t.tx == nil {
		return ErrTransactionRequired
	}
	return t.rollback()
}

// IsActive reports whether a transaction has begun and not yet ended.
func (t *Transaction) IsActive() bool {
	return t.tx != nil
}

func (t *Transaction) rollback() error {
	tx := t.tx
	t.tx = nil
	t.s.detachAll()

	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	t.s.logger.Debug("Transaction rolled back")
	return nil
}
