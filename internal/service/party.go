package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const minNameLength = 3

// PartyService registers riders and drivers and serves their profiles.
type PartyService struct {
	riders  repository.RiderRepository
	drivers repository.DriverRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewPartyService creates a new PartyService.
func NewPartyService(riders repository.RiderRepository, drivers repository.DriverRepository, logger *zap.Logger) *PartyService {
	return &PartyService{
		riders:  riders,
		drivers: drivers,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterRiderRequest contains the parameters for registering a rider.
type RegisterRiderRequest struct {
	Name  string
	Email string
	Phone string
}

// RegisterRider creates a rider.
func (s *PartyService) RegisterRider(ctx context.Context, req RegisterRiderRequest) (*domain.Rider, error) {
	name, email, err := validateIdentity(req.Name, req.Email)
	if err != nil {
		return nil, err
	}

	rider := &domain.Rider{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: s.now(),
	}
	if err := s.riders.Create(ctx, rider); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create rider: %w", err)
	}

	s.logger.Info("rider registered", zap.String("rider_id", rider.ID))
	return rider, nil
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	Name    string
	Email   string
	Vehicle domain.Vehicle
}

// RegisterDriver creates an offline driver with zeroed statistics.
func (s *PartyService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	name, email, err := validateIdentity(req.Name, req.Email)
	if err != nil {
		return nil, err
	}

	vehicle := req.Vehicle
	vehicle.Color = strings.TrimSpace(vehicle.Color)
	vehicle.Plate = strings.TrimSpace(vehicle.Plate)
	class, ok := domain.ParseVehicleClass(string(vehicle.Class))
	if !ok {
		return nil, ErrInvalidVehicleClass
	}
	vehicle.Class = class
	if len(vehicle.Color) < 3 || len(vehicle.Plate) < 3 || vehicle.Capacity < 1 {
		return nil, ErrInvalidVehicle
	}

	now := s.now()
	driver := &domain.Driver{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Vehicle:   vehicle,
		Status:    domain.DriverStatusInactive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.drivers.Create(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create driver: %w", err)
	}

	s.logger.Info("driver registered",
		zap.String("driver_id", driver.ID),
		zap.String("vehicle_class", string(class)),
	)
	return driver, nil
}

// GetRider returns a rider profile.
func (s *PartyService) GetRider(ctx context.Context, id string) (*domain.Rider, error) {
	rider, err := s.riders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRiderNotFound
	}
	return rider, err
}

// GetDriver returns a driver profile including statistics.
func (s *PartyService) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	driver, err := s.drivers.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrDriverNotFound
	}
	return driver, err
}

// ListDrivers returns every registered driver.
func (s *PartyService) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.drivers.GetAll(ctx)
}

func validateIdentity(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	if len(name) < minNameLength {
		return "", "", ErrInvalidName
	}
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", "", ErrInvalidEmail
	}
	return name, email, nil
}
