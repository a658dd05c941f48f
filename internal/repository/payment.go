package repository

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// PaymentRepository persists ride settlements.
type PaymentRepository interface {
	// Create records a pending payment. Returns ErrDuplicate if the ride
	// already has one.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByRide returns the payment of a ride or ErrNotFound.
	GetByRide(ctx context.Context, rideID string) (*domain.Payment, error)

	// Settle moves a payment to its final status.
	Settle(ctx context.Context, id string, status domain.PaymentStatus, at time.Time) error
}
