package feed

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const txRetryBackoff = 20 * time.Millisecond

// withTxRetry runs fn inside a transaction, re-running it on transient
// concurrency failures up to the service retry budget. fn must therefore be
// a pure retryable function with no externally visible side effects before
// commit. Budget exhaustion surfaces as ErrConflicted.
func (s *FeedService) withTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= s.maxTxRetry; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn)
		if err == nil || !retryable(err) {
			return err
		}
		// No point backing off after the last attempt, the budget is spent.
		if attempt < s.maxTxRetry {
			time.Sleep(time.Duration(attempt+1) * txRetryBackoff)
		}
	}
	return errors.Wrap(ErrConflicted, err.Error())
}

// lockForUpdate adds a row lock on postgres. The sqlite dialect used by
// tests serializes writers with a database level lock and rejects the
// FOR UPDATE syntax, so the clause is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
