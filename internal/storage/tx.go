package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RunInTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic; the panic is re-raised after rollback.
func (s *Store) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit tx: %w", cErr)
		}
	}()
	return fn(tx)
}
