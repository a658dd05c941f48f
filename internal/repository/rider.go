package repository

import (
	"context"

	"ridehail/internal/domain"
)

// RiderRepository defines the persistence operations for riders.
type RiderRepository interface {
	// Create adds a new rider. It returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, rider *domain.Rider) error

	// GetByID retrieves a rider by ID.
	GetByID(ctx context.Context, id string) (*domain.Rider, error)

	// GetByEmail retrieves a rider by email.
	GetByEmail(ctx context.Context, email string) (*domain.Rider, error)

	// SetSocketID records the live socket of a rider. An empty id clears it.
	SetSocketID(ctx context.Context, id string, socketID string) error
}
