package repository

import (
	"context"

	"ridehail/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListByRider retrieves the rides requested by a rider, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error)

	// ListByDriver retrieves the rides assigned to a driver, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// UpdateIfStatus writes the mutable fields of ride (driver, status,
	// distance, cancel reason, updated_at) only if the stored status still
	// equals expected. It returns ErrStatusConflict when the status has moved
	// on and ErrNotFound when the ride does not exist.
	UpdateIfStatus(ctx context.Context, ride *domain.Ride, expected domain.RideStatus) error
}
