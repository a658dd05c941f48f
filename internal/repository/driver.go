package repository

import (
	"context"

	"ridehail/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver. It returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByEmail retrieves a driver by email.
	GetByEmail(ctx context.Context, email string) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// ApplyStats atomically adds delta to the driver's statistics and returns
	// the resulting totals.
	ApplyStats(ctx context.Context, id string, delta domain.StatsDelta) (domain.DriverStats, error)

	// SetPresence records the online status and live socket of a driver.
	SetPresence(ctx context.Context, id string, status domain.DriverStatus, socketID string) error

	// UpdateLocation records the last known position of a driver.
	UpdateLocation(ctx context.Context, id string, location domain.Coordinates) error
}
