package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

const driverColumns = `id, name, email, vehicle_color, vehicle_plate, vehicle_capacity, vehicle_class, status, socket_id, location_lat, location_lng, earnings_total, rides_total, distance_total, created_at, updated_at`

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, name, email, vehicle_color, vehicle_plate, vehicle_capacity, vehicle_class, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.Name,
		driver.Email,
		driver.Vehicle.Color,
		driver.Vehicle.Plate,
		driver.Vehicle.Capacity,
		driver.Vehicle.Class,
		driver.Status,
		driver.CreatedAt,
		driver.UpdatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	return r.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id)
}

// GetByEmail retrieves a driver by email.
func (r *DriverRepository) GetByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	return r.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE email = $1`, email)
}

func (r *DriverRepository) getOne(ctx context.Context, query string, arg string) (*domain.Driver, error) {
	driver, err := scanDriver(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return driver, nil
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

// ApplyStats atomically adds delta to the driver's statistics.
func (r *DriverRepository) ApplyStats(ctx context.Context, id string, delta domain.StatsDelta) (domain.DriverStats, error) {
	query := `
		UPDATE drivers
		SET earnings_total = earnings_total + $1,
		    rides_total = rides_total + $2,
		    distance_total = distance_total + $3,
		    updated_at = now()
		WHERE id = $4
		RETURNING earnings_total, rides_total, distance_total
	`

	var stats domain.DriverStats
	err := r.q.QueryRowContext(ctx, query, delta.Earnings, delta.Rides, delta.Distance, id).Scan(
		&stats.EarningsTotal,
		&stats.RidesTotal,
		&stats.DistanceTotal,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DriverStats{}, repository.ErrNotFound
		}
		return domain.DriverStats{}, err
	}
	return stats, nil
}

// SetPresence records the online status and live socket of a driver.
func (r *DriverRepository) SetPresence(ctx context.Context, id string, status domain.DriverStatus, socketID string) error {
	query := `UPDATE drivers SET status = $1, socket_id = $2, updated_at = now() WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, status, nullString(socketID), id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// UpdateLocation records the last known position of a driver.
func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, location domain.Coordinates) error {
	query := `UPDATE drivers SET location_lat = $1, location_lng = $2, updated_at = now() WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, location.Lat, location.Lng, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var driver domain.Driver
	var socketID sql.NullString
	var lat, lng sql.NullFloat64

	err := row.Scan(
		&driver.ID,
		&driver.Name,
		&driver.Email,
		&driver.Vehicle.Color,
		&driver.Vehicle.Plate,
		&driver.Vehicle.Capacity,
		&driver.Vehicle.Class,
		&driver.Status,
		&socketID,
		&lat,
		&lng,
		&driver.Stats.EarningsTotal,
		&driver.Stats.RidesTotal,
		&driver.Stats.DistanceTotal,
		&driver.CreatedAt,
		&driver.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	driver.SocketID = socketID.String
	driver.Location = coordsFromNull(lat, lng)
	return &driver, nil
}
