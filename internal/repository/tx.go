package repository

import "context"

// Tx exposes repositories bound to one transaction.
type Tx interface {
	Rides() RideRepository
	Drivers() DriverRepository
}

// Transactor runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
