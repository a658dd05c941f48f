// Package memory provides in-process implementations of the repository
// interfaces. It backs the "memory" store driver and the test suites.
package memory

import (
	"context"
	"sync"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// Store holds every entity in maps guarded by a single mutex.
type Store struct {
	mu       sync.Mutex
	rides    map[string]*domain.Ride
	drivers  map[string]*domain.Driver
	riders   map[string]*domain.Rider
	payments map[string]*domain.Payment // by ride ID
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		rides:    make(map[string]*domain.Ride),
		drivers:  make(map[string]*domain.Driver),
		riders:   make(map[string]*domain.Rider),
		payments: make(map[string]*domain.Payment),
	}
}

// Rides returns a ride repository backed by the store.
func (s *Store) Rides() *RideRepository { return &RideRepository{s: s} }

// Drivers returns a driver repository backed by the store.
func (s *Store) Drivers() *DriverRepository { return &DriverRepository{s: s} }

// Riders returns a rider repository backed by the store.
func (s *Store) Riders() *RiderRepository { return &RiderRepository{s: s} }

// Payments returns a payment repository backed by the store.
func (s *Store) Payments() *PaymentRepository { return &PaymentRepository{s: s} }

// WithinTx runs fn with repositories that record an undo entry for every
// write. If fn fails the entries are replayed in reverse.
//
// Undo entries are inverse operations on the touched fields rather than
// whole-record snapshots, so a rollback never clobbers a concurrent write to
// another field of the same record.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	log := &undoLog{}
	tx := &storeTx{
		rides:   &RideRepository{s: s, undo: log},
		drivers: &DriverRepository{s: s, undo: log},
	}
	if err := fn(ctx, tx); err != nil {
		s.mu.Lock()
		log.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

type storeTx struct {
	rides   *RideRepository
	drivers *DriverRepository
}

func (t *storeTx) Rides() repository.RideRepository     { return t.rides }
func (t *storeTx) Drivers() repository.DriverRepository { return t.drivers }

// undoLog is appended to with s.mu held and replayed with s.mu held.
type undoLog struct {
	entries []func()
}

func (l *undoLog) record(fn func()) {
	if l == nil {
		return
	}
	l.entries = append(l.entries, fn)
}

func (l *undoLog) rollback() {
	for i := len(l.entries) - 1; i >= 0; i-- {
		l.entries[i]()
	}
	l.entries = nil
}

// Ensure interfaces are satisfied.
var (
	_ repository.Transactor        = (*Store)(nil)
	_ repository.RideRepository    = (*RideRepository)(nil)
	_ repository.DriverRepository  = (*DriverRepository)(nil)
	_ repository.RiderRepository   = (*RiderRepository)(nil)
	_ repository.PaymentRepository = (*PaymentRepository)(nil)
)
