package memory

import (
	"context"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// PaymentRepository is an in-memory implementation of repository.PaymentRepository.
// Payments are keyed by ride.
type PaymentRepository struct {
	s *Store
}

func (r *PaymentRepository) Create(_ context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.payments[payment.RideID]; ok {
		return repository.ErrDuplicate
	}
	cp := *payment
	r.s.payments[payment.RideID] = &cp
	return nil
}

func (r *PaymentRepository) GetByRide(_ context.Context, rideID string) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[rideID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PaymentRepository) Settle(_ context.Context, id string, status domain.PaymentStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.payments {
		if p.ID == id {
			p.Status = status
			settled := at
			p.SettledAt = &settled
			return nil
		}
	}
	return repository.ErrNotFound
}
