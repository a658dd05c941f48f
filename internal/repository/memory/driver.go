package memory

import (
	"context"
	"sort"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// DriverRepository is an in-memory implementation of repository.DriverRepository.
type DriverRepository struct {
	s    *Store
	undo *undoLog
}

// Create adds a new driver.
func (r *DriverRepository) Create(_ context.Context, driver *domain.Driver) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.drivers[driver.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, d := range r.s.drivers {
		if d.Email == driver.Email {
			return repository.ErrDuplicate
		}
	}
	r.s.drivers[driver.ID] = driver.Clone()
	return nil
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(_ context.Context, id string) (*domain.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d.Clone(), nil
}

// GetByEmail retrieves a driver by email.
func (r *DriverRepository) GetByEmail(_ context.Context, email string) (*domain.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.drivers {
		if d.Email == email {
			return d.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetAll retrieves all drivers ordered by registration time.
func (r *DriverRepository) GetAll(_ context.Context) ([]*domain.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	drivers := make([]*domain.Driver, 0, len(r.s.drivers))
	for _, d := range r.s.drivers {
		drivers = append(drivers, d.Clone())
	}
	sort.Slice(drivers, func(i, j int) bool {
		if drivers[i].CreatedAt.Equal(drivers[j].CreatedAt) {
			return drivers[i].ID < drivers[j].ID
		}
		return drivers[i].CreatedAt.Before(drivers[j].CreatedAt)
	})
	return drivers, nil
}

// ApplyStats atomically adds delta to the driver's statistics.
func (r *DriverRepository) ApplyStats(_ context.Context, id string, delta domain.StatsDelta) (domain.DriverStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return domain.DriverStats{}, repository.ErrNotFound
	}
	d.Stats = d.Stats.Apply(delta)
	d.UpdatedAt = time.Now()

	inverse := domain.StatsDelta{Earnings: -delta.Earnings, Rides: -delta.Rides, Distance: -delta.Distance}
	r.undo.record(func() { d.Stats = d.Stats.Apply(inverse) })
	return d.Stats, nil
}

// SetPresence records the online status and live socket of a driver.
func (r *DriverRepository) SetPresence(_ context.Context, id string, status domain.DriverStatus, socketID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	prevStatus, prevSocket := d.Status, d.SocketID
	d.Status = status
	d.SocketID = socketID
	d.UpdatedAt = time.Now()
	r.undo.record(func() { d.Status, d.SocketID = prevStatus, prevSocket })
	return nil
}

// UpdateLocation records the last known position of a driver.
func (r *DriverRepository) UpdateLocation(_ context.Context, id string, location domain.Coordinates) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	prev := d.Location
	d.Location = &location
	d.UpdatedAt = time.Now()
	r.undo.record(func() { d.Location = prev })
	return nil
}
