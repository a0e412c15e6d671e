package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// txContextKey is the key for storing transaction in context
type txContextKey struct{}

const deadlockRetries = 3

// TransactionManager implements ports.TxRunner. The transaction rides in
// the context handed to fn; repositories in this package pick it up
// transparently, so service code never touches *sql.Tx.
type TransactionManager struct {
	db *sql.DB
}

// NewTransactionManager creates a new TransactionManager
func NewTransactionManager(db *sql.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// InTransaction runs fn inside a transaction, committing on nil and rolling
// back on error or panic. Deadlocks and lock-wait timeouts are retried with
// exponential backoff; any other error returns immediately.
func (tm *TransactionManager) InTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < deadlockRetries; attempt++ {
		err := tm.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isDeadlock(err) {
			return err
		}
		if attempt < deadlockRetries-1 {
			backoff := time.Millisecond * time.Duration(100*(1<<uint(attempt)))
			time.Sleep(backoff)
		}
	}
	return fmt.Errorf("transaction failed after %d retries: %w", deadlockRetries, lastErr)
}

func (tm *TransactionManager) runOnce(ctx context.Context, fn func(txCtx context.Context) error) error {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback error: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// executor is satisfied by both *sql.DB and *sql.Tx
type executor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// executorFrom returns the context's transaction if present, else the pool
func executorFrom(ctx context.Context, db *sql.DB) executor {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// isDeadlock checks if an error is a deadlock or lock-wait timeout.
// MySQL error codes: 1213 (deadlock), 1205 (lock wait timeout).
func isDeadlock(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "1213") ||
		strings.Contains(msg, "1205")
}
