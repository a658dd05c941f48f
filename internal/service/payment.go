package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// PSP is the interface for a Payment Service Provider.
type PSP interface {
	Charge(ctx context.Context, amount float64) (bool, error)
}

// SimulatedPSP approves every charge. Real payment processing is out of scope.
type SimulatedPSP struct{}

// NewSimulatedPSP creates a new SimulatedPSP.
func NewSimulatedPSP() *SimulatedPSP {
	return &SimulatedPSP{}
}

// Charge always succeeds.
func (p *SimulatedPSP) Charge(ctx context.Context, amount float64) (bool, error) {
	return true, nil
}

// PaymentService settles completed rides.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	psp         PSP
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(paymentRepo repository.PaymentRepository, psp PSP, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		psp:         psp,
		logger:      logger,
	}
}

// ProcessPaymentRequest contains the parameters for processing a payment.
type ProcessPaymentRequest struct {
	RideID   string
	DriverID string
	Amount   float64
}

// ProcessPayment charges a ride at most once. A second call for the same ride
// returns the existing payment.
func (s *PaymentService) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*domain.Payment, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}

	if req.Amount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	existing, err := s.paymentRepo.GetByRide(ctx, req.RideID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	payment := &domain.Payment{
		ID:        uuid.New().String(),
		RideID:    req.RideID,
		DriverID:  req.DriverID,
		Amount:    req.Amount,
		Status:    domain.PaymentStatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent settle of the same ride.
			return s.paymentRepo.GetByRide(ctx, req.RideID)
		}
		return nil, err
	}

	status := domain.PaymentStatusSuccess
	success, err := s.psp.Charge(ctx, req.Amount)
	if err != nil || !success {
		s.logger.Warn("payment charge declined",
			zap.String("ride_id", req.RideID),
			zap.Float64("amount", req.Amount),
			zap.Error(err),
		)
		status = domain.PaymentStatusFailed
	}

	settledAt := time.Now()
	if err := s.paymentRepo.Settle(ctx, payment.ID, status, settledAt); err != nil {
		return nil, err
	}
	payment.Status = status
	payment.SettledAt = &settledAt

	return payment, nil
}

// GetRidePayment retrieves the payment recorded for a ride.
func (s *PaymentService) GetRidePayment(ctx context.Context, rideID string) (*domain.Payment, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	payment, err := s.paymentRepo.GetByRide(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}
