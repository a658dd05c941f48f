package memory

import (
	"context"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RiderRepository is an in-memory implementation of repository.RiderRepository.
type RiderRepository struct {
	s *Store
}

// Create adds a new rider.
func (r *RiderRepository) Create(_ context.Context, rider *domain.Rider) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.riders[rider.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.s.riders {
		if existing.Email == rider.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *rider
	r.s.riders[rider.ID] = &cp
	return nil
}

// GetByID retrieves a rider by ID.
func (r *RiderRepository) GetByID(_ context.Context, id string) (*domain.Rider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rider, ok := r.s.riders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rider
	return &cp, nil
}

// GetByEmail retrieves a rider by email.
func (r *RiderRepository) GetByEmail(_ context.Context, email string) (*domain.Rider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rider := range r.s.riders {
		if rider.Email == email {
			cp := *rider
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// SetSocketID records the live socket of a rider.
func (r *RiderRepository) SetSocketID(_ context.Context, id string, socketID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rider, ok := r.s.riders[id]
	if !ok {
		return repository.ErrNotFound
	}
	rider.SocketID = socketID
	return nil
}
