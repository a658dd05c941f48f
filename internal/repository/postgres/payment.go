package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// Create inserts a pending payment. payments.ride_id is unique, so a second
// settlement of the same ride surfaces as repository.ErrDuplicate.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, ride_id, driver_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.RideID,
		payment.DriverID,
		payment.Amount,
		payment.Status,
		payment.CreatedAt,
	)

	return mapWriteError(err)
}

func (r *PaymentRepository) GetByRide(ctx context.Context, rideID string) (*domain.Payment, error) {
	query := `
		SELECT id, ride_id, driver_id, amount, status, created_at, settled_at
		FROM payments WHERE ride_id = $1
	`

	var (
		payment   domain.Payment
		settledAt sql.NullTime
	)
	err := r.q.QueryRowContext(ctx, query, rideID).Scan(
		&payment.ID,
		&payment.RideID,
		&payment.DriverID,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
		&settledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if settledAt.Valid {
		payment.SettledAt = &settledAt.Time
	}

	return &payment, nil
}

func (r *PaymentRepository) Settle(ctx context.Context, id string, status domain.PaymentStatus, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE payments SET status = $1, settled_at = $2 WHERE id = $3`,
		status, at, id,
	)
	if err != nil {
		return err
	}

	return checkAffected(result)
}
