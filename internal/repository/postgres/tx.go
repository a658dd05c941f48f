package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"ridehail/internal/repository"
)

// Transactor is a PostgreSQL implementation of repository.Transactor.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new Transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

type sqlTx struct {
	rides   *RideRepository
	drivers *DriverRepository
}

func (t *sqlTx) Rides() repository.RideRepository     { return t.rides }
func (t *sqlTx) Drivers() repository.DriverRepository { return t.drivers }

// WithinTx runs fn with transaction-scoped repositories.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	scoped := &sqlTx{
		rides:   NewRideRepositoryWithTx(tx),
		drivers: NewDriverRepositoryWithTx(tx),
	}
	if err = fn(ctx, scoped); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var _ repository.Transactor = (*Transactor)(nil)
