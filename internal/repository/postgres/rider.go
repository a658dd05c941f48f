package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RiderRepository implements repository.RiderRepository using PostgreSQL.
type RiderRepository struct {
	db *sql.DB
}

// NewRiderRepository creates a new RiderRepository.
func NewRiderRepository(db *sql.DB) *RiderRepository {
	return &RiderRepository{db: db}
}

// Create adds a new rider.
func (r *RiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	query := `INSERT INTO riders (id, name, email, phone, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, rider.ID, rider.Name, rider.Email, nullString(rider.Phone), rider.CreatedAt)
	return mapWriteError(err)
}

// GetByID retrieves a rider by ID.
func (r *RiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	return r.getOne(ctx, `SELECT id, name, email, COALESCE(phone, ''), COALESCE(socket_id, ''), created_at FROM riders WHERE id = $1`, id)
}

// GetByEmail retrieves a rider by email.
func (r *RiderRepository) GetByEmail(ctx context.Context, email string) (*domain.Rider, error) {
	return r.getOne(ctx, `SELECT id, name, email, COALESCE(phone, ''), COALESCE(socket_id, ''), created_at FROM riders WHERE email = $1`, email)
}

func (r *RiderRepository) getOne(ctx context.Context, query string, arg string) (*domain.Rider, error) {
	var rider domain.Rider
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&rider.ID, &rider.Name, &rider.Email, &rider.Phone, &rider.SocketID, &rider.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rider, nil
}

// SetSocketID records the live socket of a rider.
func (r *RiderRepository) SetSocketID(ctx context.Context, id string, socketID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE riders SET socket_id = $1 WHERE id = $2`, nullString(socketID), id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
