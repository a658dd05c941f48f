package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, rider_id, driver_id, pickup, pickup_lat, pickup_lng, destination, destination_lat, destination_lng, vehicle_class, fare, otp, status, distance, cancel_reason, created_at, updated_at`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	pickupLat, pickupLng := nullCoords(ride.Pickup.Coords)
	destLat, destLng := nullCoords(ride.Destination.Coords)

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		nullString(ride.DriverID),
		ride.Pickup.Name,
		pickupLat,
		pickupLng,
		ride.Destination.Name,
		destLat,
		destLng,
		ride.VehicleClass,
		ride.Fare,
		ride.OTP,
		ride.Status,
		nullString(ride.Distance),
		nullString(ride.CancelReason),
		ride.CreatedAt,
		ride.UpdatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// ListByRider retrieves the rides requested by a rider, newest first.
func (r *RideRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE rider_id = $1 ORDER BY created_at DESC LIMIT 100`, riderID)
}

// ListByDriver retrieves the rides assigned to a driver, newest first.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE driver_id = $1 ORDER BY created_at DESC LIMIT 100`, driverID)
}

func (r *RideRepository) list(ctx context.Context, query string, arg string) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// UpdateIfStatus writes the mutable fields of ride if the stored status
// still equals expected. The status predicate in the WHERE clause makes the
// check and the write a single atomic statement.
func (r *RideRepository) UpdateIfStatus(ctx context.Context, ride *domain.Ride, expected domain.RideStatus) error {
	query := `
		UPDATE rides
		SET driver_id = $1, status = $2, distance = $3, cancel_reason = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(ride.DriverID),
		ride.Status,
		nullString(ride.Distance),
		nullString(ride.CancelReason),
		ride.UpdatedAt,
		ride.ID,
		expected,
	)
	if err != nil {
		return err
	}

	if err := checkAffected(result); err == nil || !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	// Nothing matched: either the ride is gone or its status moved on.
	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, ride.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrStatusConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID, distance, cancelReason sql.NullString
	var pickupLat, pickupLng, destLat, destLng sql.NullFloat64

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&driverID,
		&ride.Pickup.Name,
		&pickupLat,
		&pickupLng,
		&ride.Destination.Name,
		&destLat,
		&destLng,
		&ride.VehicleClass,
		&ride.Fare,
		&ride.OTP,
		&ride.Status,
		&distance,
		&cancelReason,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.Distance = distance.String
	ride.CancelReason = cancelReason.String
	ride.Pickup.Coords = coordsFromNull(pickupLat, pickupLng)
	ride.Destination.Coords = coordsFromNull(destLat, destLng)
	return &ride, nil
}

func nullCoords(c *domain.Coordinates) (sql.NullFloat64, sql.NullFloat64) {
	if c == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true}, sql.NullFloat64{Float64: c.Lng, Valid: true}
}

func coordsFromNull(lat, lng sql.NullFloat64) *domain.Coordinates {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
}
