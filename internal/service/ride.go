package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ridehail/internal/domain"
	"ridehail/internal/metrics"
	"ridehail/internal/repository"
)

// CancellationFine is deducted from a driver's earnings when they cancel an
// accepted ride, whatever the fare.
const CancellationFine = 20

// MapsClient resolves place names and driving routes.
type MapsClient interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
	Route(ctx context.Context, from, to domain.Coordinates) (domain.Route, error)
}

// Notifier delivers real-time events. Delivery is best effort: a party with
// no live connection simply misses the event.
type Notifier interface {
	Notify(ctx context.Context, partyID, event string, payload any)
	BroadcastToOnlineDrivers(ctx context.Context, event string, payload any)
}

// RideStore groups the persistence the ride engine needs.
type RideStore struct {
	Rides      repository.RideRepository
	Drivers    repository.DriverRepository
	Riders     repository.RiderRepository
	Transactor repository.Transactor
}

// RideService owns the ride state machine.
//
// Every mutating operation runs under an in-process lock keyed by ride ID and
// commits through a status compare-and-set, so concurrent callers on one ride
// are serialized here and a second process racing on the same row still
// loses at the store.
type RideService struct {
	store    RideStore
	maps     MapsClient
	notifier Notifier
	payments *PaymentService
	logger   *zap.Logger
	locks    *rideLocks

	now         func() time.Time
	generateOTP func(digits int) string
}

// NewRideService creates a new RideService. payments may be nil.
func NewRideService(store RideStore, maps MapsClient, notifier Notifier, payments *PaymentService, logger *zap.Logger) *RideService {
	return &RideService{
		store:       store,
		maps:        maps,
		notifier:    notifier,
		payments:    payments,
		logger:      logger,
		locks:       newRideLocks(),
		now:         time.Now,
		generateOTP: GenerateOTP,
	}
}

// CreateRideRequest contains the parameters for creating a ride.
type CreateRideRequest struct {
	RiderID           string
	Pickup            string
	Destination       string
	VehicleClass      string
	PickupCoords      *domain.Coordinates
	DestinationCoords *domain.Coordinates
}

// CreateRide prices and persists a pending ride, then offers it to every
// online driver.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}

	class, ok := domain.ParseVehicleClass(req.VehicleClass)
	if !ok {
		return nil, ErrInvalidVehicleClass
	}

	pickup, err := s.resolvePlace(ctx, req.Pickup, req.PickupCoords, ErrInvalidPickupLocation)
	if err != nil {
		return nil, err
	}
	destination, err := s.resolvePlace(ctx, req.Destination, req.DestinationCoords, ErrInvalidDestinationLocation)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Riders.GetByID(ctx, req.RiderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRiderID
		}
		return nil, err
	}

	route, err := s.maps.Route(ctx, *pickup.Coords, *destination.Coords)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoutingFailed, err)
	}

	fare, err := EstimateFare(class, route.DistanceKm, route.DurationMin)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ride := &domain.Ride{
		ID:           uuid.New().String(),
		RiderID:      req.RiderID,
		Pickup:       pickup,
		Destination:  destination,
		VehicleClass: class,
		Fare:         fare,
		OTP:          s.generateOTP(OTPDigits),
		Status:       domain.RideStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Rides.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}
	metrics.RideTransitions.WithLabelValues(string(domain.RideStatusPending)).Inc()

	s.logger.Info("ride created",
		zap.String("ride_id", ride.ID),
		zap.String("rider_id", ride.RiderID),
		zap.String("vehicle_class", string(class)),
		zap.Float64("fare", fare),
	)

	s.notifier.BroadcastToOnlineDrivers(ctx, domain.EventNewRide, domain.RideEvent{Ride: ride.DriverView()})
	return ride, nil
}

// resolvePlace validates the name and fills in coordinates, geocoding the
// name when the client did not send any.
func (s *RideService) resolvePlace(ctx context.Context, name string, coords *domain.Coordinates, invalid error) (domain.Place, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return domain.Place{}, invalid
	}

	if coords != nil {
		if !coords.Valid() {
			return domain.Place{}, invalid
		}
		c := *coords
		return domain.Place{Name: name, Coords: &c}, nil
	}

	c, err := s.maps.Geocode(ctx, name)
	if err != nil {
		return domain.Place{}, fmt.Errorf("%w: %w", ErrGeocodingFailed, err)
	}
	return domain.Place{Name: name, Coords: &c}, nil
}

// AcceptRide assigns a pending ride to driverID. Exactly one of any number
// of concurrent callers succeeds; the others get ErrRideNotPending.
func (s *RideService) AcceptRide(ctx context.Context, driverID, rideID string) (domain.DriverRideView, error) {
	if driverID == "" {
		return domain.DriverRideView{}, ErrInvalidDriverID
	}
	if rideID == "" {
		return domain.DriverRideView{}, ErrInvalidRideID
	}

	unlock := s.locks.lock(rideID)
	defer unlock()

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return domain.DriverRideView{}, err
	}
	if ride.Status != domain.RideStatusPending {
		return domain.DriverRideView{}, s.conflict("accept", ErrRideNotPending)
	}

	driver, err := s.store.Drivers.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DriverRideView{}, ErrDriverNotFound
		}
		return domain.DriverRideView{}, err
	}

	ride.DriverID = driverID
	ride.Status = domain.RideStatusAccepted
	ride.UpdatedAt = s.now()

	if err := s.store.Rides.UpdateIfStatus(ctx, ride, domain.RideStatusPending); err != nil {
		return domain.DriverRideView{}, s.mapUpdateError("accept", err, ErrRideNotPending)
	}
	s.transitioned(ride)

	// Notifying under the ride lock keeps one ride's events in transition order.
	s.notifier.Notify(ctx, ride.RiderID, domain.EventRideAccepted, domain.RideEvent{Ride: ride.RiderView(driver)})
	return ride.DriverView(), nil
}

// StartRide moves an accepted ride to ongoing once the driver presents the
// rider's OTP. On a mismatch the ride stays accepted.
func (s *RideService) StartRide(ctx context.Context, driverID, rideID, otp string) (domain.DriverRideView, error) {
	if driverID == "" {
		return domain.DriverRideView{}, ErrInvalidDriverID
	}
	if rideID == "" {
		return domain.DriverRideView{}, ErrInvalidRideID
	}
	if !validOTP(otp) {
		return domain.DriverRideView{}, ErrInvalidOTP
	}

	unlock := s.locks.lock(rideID)
	defer unlock()

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return domain.DriverRideView{}, err
	}
	if ride.Status != domain.RideStatusAccepted {
		return domain.DriverRideView{}, s.conflict("start", ErrRideNotAccepted)
	}
	if ride.DriverID != driverID {
		return domain.DriverRideView{}, ErrNotRideOwner
	}
	if subtle.ConstantTimeCompare([]byte(ride.OTP), []byte(otp)) != 1 {
		s.logger.Info("otp mismatch", zap.String("ride_id", rideID), zap.String("driver_id", driverID))
		return domain.DriverRideView{}, s.conflict("start", ErrOtpMismatch)
	}

	ride.Status = domain.RideStatusOngoing
	ride.UpdatedAt = s.now()

	if err := s.store.Rides.UpdateIfStatus(ctx, ride, domain.RideStatusAccepted); err != nil {
		return domain.DriverRideView{}, s.mapUpdateError("start", err, ErrRideNotAccepted)
	}
	s.transitioned(ride)

	s.notifier.Notify(ctx, ride.RiderID, domain.EventRideStarted, domain.RideEvent{Ride: ride.RiderView(nil)})
	return ride.DriverView(), nil
}

// EndRideResult is returned by EndRide.
type EndRideResult struct {
	Ride        domain.DriverRideView `json:"ride"`
	DriverStats domain.DriverStats    `json:"driverStats"`
}

// EndRide completes an ongoing ride and credits the driver. The status change
// and the statistics update commit together, so the credit is applied once.
func (s *RideService) EndRide(ctx context.Context, driverID, rideID string) (*EndRideResult, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	unlock := s.locks.lock(rideID)
	defer unlock()

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusOngoing {
		return nil, s.conflict("end", ErrRideNotOngoing)
	}
	if ride.DriverID != driverID {
		return nil, ErrNotRideOwner
	}

	distanceKm, ok := ParseDistanceKm(ride.Distance)
	if !ok && ride.Distance != "" {
		s.logger.Warn("unparseable ride distance, counting 0",
			zap.String("ride_id", rideID),
			zap.String("distance", ride.Distance),
		)
	}

	ride.Status = domain.RideStatusCompleted
	ride.UpdatedAt = s.now()

	var stats domain.DriverStats
	err = s.store.Transactor.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Rides().UpdateIfStatus(ctx, ride, domain.RideStatusOngoing); err != nil {
			return err
		}
		var err error
		stats, err = tx.Drivers().ApplyStats(ctx, driverID, domain.StatsDelta{
			Earnings: ride.Fare,
			Rides:    1,
			Distance: distanceKm,
		})
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDriverNotFound
		}
		return err
	})
	if err != nil {
		return nil, s.mapUpdateError("end", err, ErrRideNotOngoing)
	}
	s.transitioned(ride)

	s.settle(ctx, ride)

	s.notifier.Notify(ctx, ride.RiderID, domain.EventRideEnded, domain.RideEvent{Ride: ride.RiderView(nil)})
	return &EndRideResult{Ride: ride.DriverView(), DriverStats: stats}, nil
}

// CancelRideResult is returned by CancelRide.
type CancelRideResult struct {
	Message     string                `json:"message"`
	Fine        float64               `json:"fine"`
	DriverStats domain.DriverStats    `json:"driverStats"`
	Ride        domain.DriverRideView `json:"ride"`
}

// CancelRide lets the assigned driver back out of an accepted ride. The ride
// loses its driver and the driver is fined. Earnings may go negative.
func (s *RideService) CancelRide(ctx context.Context, driverID, rideID, reason string) (*CancelRideResult, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	unlock := s.locks.lock(rideID)
	defer unlock()

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusAccepted {
		return nil, s.conflict("cancel", ErrRideNotAccepted)
	}
	if ride.DriverID != driverID {
		return nil, ErrNotRideOwner
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Driver cancelled the ride"
	}

	ride.Status = domain.RideStatusCancelled
	ride.DriverID = ""
	ride.CancelReason = reason
	ride.UpdatedAt = s.now()

	var stats domain.DriverStats
	err = s.store.Transactor.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Rides().UpdateIfStatus(ctx, ride, domain.RideStatusAccepted); err != nil {
			return err
		}
		var err error
		stats, err = tx.Drivers().ApplyStats(ctx, driverID, domain.StatsDelta{Earnings: -CancellationFine})
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDriverNotFound
		}
		return err
	})
	if err != nil {
		return nil, s.mapUpdateError("cancel", err, ErrRideNotAccepted)
	}
	s.transitioned(ride)

	s.logger.Info("ride cancelled by driver",
		zap.String("ride_id", rideID),
		zap.String("driver_id", driverID),
		zap.Float64("earnings_total", stats.EarningsTotal),
	)

	s.notifier.Notify(ctx, ride.RiderID, domain.EventRideCancelled, domain.RideEvent{
		Ride:    ride.RiderView(nil),
		Message: "Your driver cancelled the ride: " + reason,
	})

	return &CancelRideResult{
		Message:     fmt.Sprintf("Ride cancelled. A fine of %d has been deducted from your earnings.", CancellationFine),
		Fine:        CancellationFine,
		DriverStats: stats,
		Ride:        ride.DriverView(),
	}, nil
}

// UpdateRouteInfo stores the client-reported distance summary of an active
// ride. Either party to the ride may report it.
func (s *RideService) UpdateRouteInfo(ctx context.Context, party domain.Party, rideID, distance string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if nonFiniteDistance(distance) {
		return nil, ErrInvalidDistance
	}

	unlock := s.locks.lock(rideID)
	defer unlock()

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !isRideParty(ride, party) {
		return nil, ErrNotRideParty
	}
	if ride.Status != domain.RideStatusAccepted && ride.Status != domain.RideStatusOngoing {
		return nil, s.conflict("route-info", ErrRideNotActive)
	}

	ride.Distance = strings.TrimSpace(distance)
	ride.UpdatedAt = s.now()

	if err := s.store.Rides.UpdateIfStatus(ctx, ride, ride.Status); err != nil {
		return nil, s.mapUpdateError("route-info", err, ErrRideNotActive)
	}
	return ride, nil
}

// GetRide returns a ride to one of its parties.
func (s *RideService) GetRide(ctx context.Context, party domain.Party, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !isRideParty(ride, party) {
		return nil, ErrNotRideParty
	}
	return ride, nil
}

// ListRides returns the ride history of a party, newest first.
func (s *RideService) ListRides(ctx context.Context, party domain.Party) ([]*domain.Ride, error) {
	switch party.Type {
	case domain.PartyRider:
		return s.store.Rides.ListByRider(ctx, party.ID)
	case domain.PartyDriver:
		return s.store.Rides.ListByDriver(ctx, party.ID)
	}
	return nil, ErrNotRideParty
}

// FareQuote prices one route for every vehicle class.
type FareQuote struct {
	Route domain.Route                    `json:"route"`
	Fares map[domain.VehicleClass]float64 `json:"fares"`
}

// QuoteFares resolves both places and prices the route for every class.
func (s *RideService) QuoteFares(ctx context.Context, pickup, destination string) (*FareQuote, error) {
	from, err := s.resolvePlace(ctx, pickup, nil, ErrInvalidPickupLocation)
	if err != nil {
		return nil, err
	}
	to, err := s.resolvePlace(ctx, destination, nil, ErrInvalidDestinationLocation)
	if err != nil {
		return nil, err
	}

	route, err := s.maps.Route(ctx, *from.Coords, *to.Coords)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoutingFailed, err)
	}
	return &FareQuote{Route: route, Fares: EstimateFares(route.DistanceKm, route.DurationMin)}, nil
}

func (s *RideService) getRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	ride, err := s.store.Rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	return ride, nil
}

// mapUpdateError converts a failed conditional write into a service error.
// conflict is returned when the stored status moved on underneath us.
func (s *RideService) mapUpdateError(operation string, err, conflict error) error {
	switch {
	case errors.Is(err, repository.ErrStatusConflict):
		return s.conflict(operation, conflict)
	case errors.Is(err, repository.ErrNotFound):
		return ErrRideNotFound
	case errors.Is(err, ErrDriverNotFound):
		return err
	}
	return fmt.Errorf("%s ride: %w", operation, err)
}

func (s *RideService) conflict(operation string, err error) error {
	metrics.RideConflicts.WithLabelValues(operation).Inc()
	return err
}

func (s *RideService) transitioned(ride *domain.Ride) {
	metrics.RideTransitions.WithLabelValues(string(ride.Status)).Inc()
	s.logger.Info("ride transitioned",
		zap.String("ride_id", ride.ID),
		zap.String("status", string(ride.Status)),
		zap.String("driver_id", ride.DriverID),
	)
}

// settle records the simulated payment of a completed ride. Failures are
// logged and never undo the completion.
func (s *RideService) settle(ctx context.Context, ride *domain.Ride) {
	if s.payments == nil {
		return
	}
	payment, err := s.payments.ProcessPayment(ctx, ProcessPaymentRequest{
		RideID:   ride.ID,
		DriverID: ride.DriverID,
		Amount:   ride.Fare,
	})
	if err != nil {
		s.logger.Error("payment failed", zap.String("ride_id", ride.ID), zap.Error(err))
		return
	}
	s.logger.Info("payment recorded",
		zap.String("ride_id", ride.ID),
		zap.String("payment_id", payment.ID),
		zap.String("status", string(payment.Status)),
	)
}

func isRideParty(ride *domain.Ride, party domain.Party) bool {
	switch party.Type {
	case domain.PartyRider:
		return party.ID != "" && party.ID == ride.RiderID
	case domain.PartyDriver:
		return party.ID != "" && party.ID == ride.DriverID
	}
	return false
}
