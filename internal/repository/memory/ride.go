package memory

import (
	"context"
	"sort"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RideRepository is an in-memory implementation of repository.RideRepository.
type RideRepository struct {
	s    *Store
	undo *undoLog
}

// Create persists a new ride.
func (r *RideRepository) Create(_ context.Context, ride *domain.Ride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rides[ride.ID]; ok {
		return repository.ErrDuplicate
	}
	r.s.rides[ride.ID] = ride.Clone()
	return nil
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(_ context.Context, id string) (*domain.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ride.Clone(), nil
}

// ListByRider retrieves the rides requested by a rider, newest first.
func (r *RideRepository) ListByRider(_ context.Context, riderID string) ([]*domain.Ride, error) {
	return r.list(func(ride *domain.Ride) bool { return ride.RiderID == riderID }), nil
}

// ListByDriver retrieves the rides assigned to a driver, newest first.
func (r *RideRepository) ListByDriver(_ context.Context, driverID string) ([]*domain.Ride, error) {
	return r.list(func(ride *domain.Ride) bool { return ride.DriverID == driverID }), nil
}

func (r *RideRepository) list(match func(*domain.Ride) bool) []*domain.Ride {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var rides []*domain.Ride
	for _, ride := range r.s.rides {
		if match(ride) {
			rides = append(rides, ride.Clone())
		}
	}
	sort.Slice(rides, func(i, j int) bool {
		return rides[i].CreatedAt.After(rides[j].CreatedAt)
	})
	return rides
}

// UpdateIfStatus writes the mutable fields of ride if the stored status
// equals expected.
func (r *RideRepository) UpdateIfStatus(_ context.Context, ride *domain.Ride, expected domain.RideStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.rides[ride.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Status != expected {
		return repository.ErrStatusConflict
	}

	prev := mutableRideFields(cur)
	setMutableRideFields(cur, mutableRideFields(ride))
	r.undo.record(func() { setMutableRideFields(cur, prev) })
	return nil
}

type rideFields struct {
	driverID     string
	status       domain.RideStatus
	distance     string
	cancelReason string
	updatedAt    time.Time
}

func mutableRideFields(ride *domain.Ride) rideFields {
	return rideFields{
		driverID:     ride.DriverID,
		status:       ride.Status,
		distance:     ride.Distance,
		cancelReason: ride.CancelReason,
		updatedAt:    ride.UpdatedAt,
	}
}

func setMutableRideFields(ride *domain.Ride, f rideFields) {
	ride.DriverID = f.driverID
	ride.Status = f.status
	ride.Distance = f.distance
	ride.CancelReason = f.cancelReason
	ride.UpdatedAt = f.updatedAt
}
