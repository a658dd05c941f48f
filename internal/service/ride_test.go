package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"ridehail/internal/domain"
	"ridehail/internal/repository/memory"
	"ridehail/internal/service"
)

type fakeMaps struct {
	mu         sync.Mutex
	route      domain.Route
	geocodeErr error
	routeErr   error
	geocoded   []string
}

func (m *fakeMaps) Geocode(_ context.Context, address string) (domain.Coordinates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.geocoded = append(m.geocoded, address)
	if m.geocodeErr != nil {
		return domain.Coordinates{}, m.geocodeErr
	}
	return domain.Coordinates{Lat: 12.97, Lng: 77.59}, nil
}

func (m *fakeMaps) Route(_ context.Context, _, _ domain.Coordinates) (domain.Route, error) {
	if m.routeErr != nil {
		return domain.Route{}, m.routeErr
	}
	return m.route, nil
}

type sentEvent struct {
	partyID   string
	event     string
	payload   any
	broadcast bool
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, partyID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{partyID: partyID, event: event, payload: payload})
}

func (n *recordingNotifier) BroadcastToOnlineDrivers(_ context.Context, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{event: event, payload: payload, broadcast: true})
}

func (n *recordingNotifier) sentTo(partyID string) []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentEvent
	for _, e := range n.events {
		if !e.broadcast && e.partyID == partyID {
			out = append(out, e)
		}
	}
	return out
}

func (n *recordingNotifier) broadcasts() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentEvent
	for _, e := range n.events {
		if e.broadcast {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store    *memory.Store
	rides    *service.RideService
	maps     *fakeMaps
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	if err := store.Riders().Create(ctx, &domain.Rider{ID: "rider-1", Name: "Asha", Email: "asha@example.com"}); err != nil {
		t.Fatalf("seed rider: %v", err)
	}
	for _, id := range []string{"driver-1", "driver-2"} {
		err := store.Drivers().Create(ctx, &domain.Driver{
			ID:      id,
			Name:    "Driver " + id,
			Email:   id + "@example.com",
			Vehicle: domain.Vehicle{Color: "white", Plate: "KA01AB1234", Capacity: 4, Class: domain.VehicleClassCar},
			Status:  domain.DriverStatusActive,
		})
		if err != nil {
			t.Fatalf("seed driver: %v", err)
		}
	}

	// 50 + 18*5 + 2*5 = 150 for a car.
	maps := &fakeMaps{route: domain.Route{DistanceKm: 5, DurationMin: 5}}
	notifier := &recordingNotifier{}
	payments := service.NewPaymentService(store.Payments(), service.NewSimulatedPSP(), zap.NewNop())
	rides := service.NewRideService(service.RideStore{
		Rides:      store.Rides(),
		Drivers:    store.Drivers(),
		Riders:     store.Riders(),
		Transactor: store,
	}, maps, notifier, payments, zap.NewNop())

	return &fixture{store: store, rides: rides, maps: maps, notifier: notifier}
}

func (f *fixture) createRide(t *testing.T) *domain.Ride {
	t.Helper()
	ride, err := f.rides.CreateRide(context.Background(), service.CreateRideRequest{
		RiderID:      "rider-1",
		Pickup:       "MG Road Metro",
		Destination:  "Indiranagar 100ft Road",
		VehicleClass: "car",
	})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return ride
}

func (f *fixture) acceptedRide(t *testing.T, driverID string) *domain.Ride {
	t.Helper()
	ride := f.createRide(t)
	if _, err := f.rides.AcceptRide(context.Background(), driverID, ride.ID); err != nil {
		t.Fatalf("accept ride: %v", err)
	}
	return ride
}

func (f *fixture) ongoingRide(t *testing.T, driverID string) *domain.Ride {
	t.Helper()
	ride := f.acceptedRide(t, driverID)
	if _, err := f.rides.StartRide(context.Background(), driverID, ride.ID, ride.OTP); err != nil {
		t.Fatalf("start ride: %v", err)
	}
	return ride
}

func (f *fixture) storedRide(t *testing.T, id string) *domain.Ride {
	t.Helper()
	ride, err := f.store.Rides().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	return ride
}

func (f *fixture) driverStats(t *testing.T, id string) domain.DriverStats {
	t.Helper()
	d, err := f.store.Drivers().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	return d.Stats
}

func eventNames(events []sentEvent) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.event)
	}
	return names
}

func TestCreateRide_PersistsPendingRideAndBroadcasts(t *testing.T) {
	f := newFixture(t)

	ride := f.createRide(t)

	if ride.Status != domain.RideStatusPending {
		t.Errorf("expected pending, got %s", ride.Status)
	}
	if ride.Fare != 150 {
		t.Errorf("expected fare 150, got %v", ride.Fare)
	}
	if len(ride.OTP) != 6 {
		t.Errorf("expected 6-digit otp, got %q", ride.OTP)
	}
	if ride.DriverID != "" {
		t.Errorf("expected no driver, got %q", ride.DriverID)
	}
	if ride.Pickup.Coords == nil || ride.Destination.Coords == nil {
		t.Error("expected geocoded coordinates")
	}

	stored := f.storedRide(t, ride.ID)
	if stored.OTP != ride.OTP {
		t.Errorf("expected stored otp %q, got %q", ride.OTP, stored.OTP)
	}

	broadcasts := f.notifier.broadcasts()
	if len(broadcasts) != 1 || broadcasts[0].event != domain.EventNewRide {
		t.Fatalf("expected one new-ride broadcast, got %v", eventNames(broadcasts))
	}
	body, _ := json.Marshal(broadcasts[0].payload)
	if strings.Contains(string(body), ride.OTP) || strings.Contains(string(body), `"otp"`) {
		t.Errorf("new-ride payload leaked the otp: %s", body)
	}
}

func TestCreateRide_Validation(t *testing.T) {
	f := newFixture(t)
	bad := domain.Coordinates{Lat: 100, Lng: 0}

	testCases := []struct {
		name     string
		req      service.CreateRideRequest
		expected error
	}{
		{"missing rider", service.CreateRideRequest{Pickup: "MG Road", Destination: "Indiranagar", VehicleClass: "car"}, service.ErrInvalidRiderID},
		{"unknown rider", service.CreateRideRequest{RiderID: "ghost", Pickup: "MG Road", Destination: "Indiranagar", VehicleClass: "car"}, service.ErrInvalidRiderID},
		{"bad class", service.CreateRideRequest{RiderID: "rider-1", Pickup: "MG Road", Destination: "Indiranagar", VehicleClass: "boat"}, service.ErrInvalidVehicleClass},
		{"short pickup", service.CreateRideRequest{RiderID: "rider-1", Pickup: "MG", Destination: "Indiranagar", VehicleClass: "car"}, service.ErrInvalidPickupLocation},
		{"bad destination coords", service.CreateRideRequest{RiderID: "rider-1", Pickup: "MG Road", Destination: "Indiranagar", VehicleClass: "car", DestinationCoords: &bad}, service.ErrInvalidDestinationLocation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.rides.CreateRide(context.Background(), tc.req)
			if !errors.Is(err, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, err)
			}
			if !errors.Is(err, service.ErrValidation) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}

	if n := len(f.notifier.broadcasts()); n != 0 {
		t.Errorf("expected no broadcasts, got %d", n)
	}
}

func TestCreateRide_UsesClientCoordinates(t *testing.T) {
	f := newFixture(t)

	_, err := f.rides.CreateRide(context.Background(), service.CreateRideRequest{
		RiderID:           "rider-1",
		Pickup:            "MG Road",
		Destination:       "Indiranagar",
		VehicleClass:      "motorcycle",
		PickupCoords:      &domain.Coordinates{Lat: 12.97, Lng: 77.6},
		DestinationCoords: &domain.Coordinates{Lat: 12.98, Lng: 77.64},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.maps.geocoded) != 0 {
		t.Errorf("expected no geocoding, got %v", f.maps.geocoded)
	}
}

func TestCreateRide_UpstreamFailures(t *testing.T) {
	t.Run("geocoding", func(t *testing.T) {
		f := newFixture(t)
		f.maps.geocodeErr = errors.New("nominatim: no results")

		_, err := f.rides.CreateRide(context.Background(), service.CreateRideRequest{
			RiderID: "rider-1", Pickup: "Nowhere Land", Destination: "Indiranagar", VehicleClass: "car",
		})
		if !errors.Is(err, service.ErrGeocodingFailed) || !errors.Is(err, service.ErrUpstream) {
			t.Errorf("expected ErrGeocodingFailed, got %v", err)
		}
	})

	t.Run("routing", func(t *testing.T) {
		f := newFixture(t)
		f.maps.routeErr = errors.New("ors: 502")

		_, err := f.rides.CreateRide(context.Background(), service.CreateRideRequest{
			RiderID: "rider-1", Pickup: "MG Road", Destination: "Indiranagar", VehicleClass: "car",
		})
		if !errors.Is(err, service.ErrRoutingFailed) || !errors.Is(err, service.ErrUpstream) {
			t.Errorf("expected ErrRoutingFailed, got %v", err)
		}
	})
}

func TestAcceptRide_ConcurrentDriversOneWinner(t *testing.T) {
	f := newFixture(t)
	ride := f.createRide(t)

	drivers := []string{"driver-1", "driver-2"}
	results := make([]error, len(drivers))
	views := make([]domain.DriverRideView, len(drivers))

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, driverID := range drivers {
		wg.Add(1)
		go func(i int, driverID string) {
			defer wg.Done()
			<-start
			views[i], results[i] = f.rides.AcceptRide(context.Background(), driverID, ride.ID)
		}(i, driverID)
	}
	close(start)
	wg.Wait()

	winner := ""
	for i, err := range results {
		switch {
		case err == nil:
			if winner != "" {
				t.Fatalf("two winners: %s and %s", winner, drivers[i])
			}
			winner = drivers[i]
			if views[i].DriverID != winner {
				t.Errorf("expected view driver %s, got %s", winner, views[i].DriverID)
			}
		case errors.Is(err, service.ErrRideNotPending) && errors.Is(err, service.ErrStateConflict):
		default:
			t.Errorf("unexpected error for %s: %v", drivers[i], err)
		}
	}
	if winner == "" {
		t.Fatal("expected one winner")
	}

	stored := f.storedRide(t, ride.ID)
	if stored.DriverID != winner || stored.Status != domain.RideStatusAccepted {
		t.Errorf("expected ride accepted by %s, got %s/%s", winner, stored.DriverID, stored.Status)
	}

	accepted := f.notifier.sentTo("rider-1")
	if len(accepted) != 1 || accepted[0].event != domain.EventRideAccepted {
		t.Errorf("expected exactly one ride-accepted, got %v", eventNames(accepted))
	}
}

func TestAcceptRide_RiderSeesOTPDriverDoesNot(t *testing.T) {
	f := newFixture(t)
	ride := f.createRide(t)

	view, err := f.rides.AcceptRide(context.Background(), "driver-1", ride.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := json.Marshal(view)
	if strings.Contains(string(body), ride.OTP) {
		t.Errorf("driver view leaked the otp: %s", body)
	}

	events := f.notifier.sentTo("rider-1")
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	payload := events[0].payload.(domain.RideEvent)
	riderView, ok := payload.Ride.(domain.RiderRideView)
	if !ok {
		t.Fatalf("expected RiderRideView, got %T", payload.Ride)
	}
	if riderView.OTP != ride.OTP {
		t.Errorf("expected rider otp %q, got %q", ride.OTP, riderView.OTP)
	}
	if riderView.Driver == nil || riderView.Driver.ID != "driver-1" {
		t.Errorf("expected driver summary, got %+v", riderView.Driver)
	}
}

func TestAcceptRide_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.rides.AcceptRide(context.Background(), "driver-1", "missing")
	if !errors.Is(err, service.ErrRideNotFound) || !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrRideNotFound, got %v", err)
	}

	ride := f.createRide(t)
	_, err = f.rides.AcceptRide(context.Background(), "ghost", ride.ID)
	if !errors.Is(err, service.ErrDriverNotFound) {
		t.Errorf("expected ErrDriverNotFound, got %v", err)
	}
	if got := f.storedRide(t, ride.ID).Status; got != domain.RideStatusPending {
		t.Errorf("expected ride still pending, got %s", got)
	}

	_, err = f.rides.AcceptRide(context.Background(), "", ride.ID)
	if !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}
}

func TestStartRide_OTPMismatchKeepsAccepted(t *testing.T) {
	f := newFixture(t)
	ride := f.acceptedRide(t, "driver-1")

	wrong := "100000"
	if ride.OTP == wrong {
		wrong = "100001"
	}
	_, err := f.rides.StartRide(context.Background(), "driver-1", ride.ID, wrong)
	if !errors.Is(err, service.ErrOtpMismatch) {
		t.Fatalf("expected ErrOtpMismatch, got %v", err)
	}
	if got := f.storedRide(t, ride.ID).Status; got != domain.RideStatusAccepted {
		t.Errorf("expected accepted, got %s", got)
	}

	view, err := f.rides.StartRide(context.Background(), "driver-1", ride.ID, ride.OTP)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != domain.RideStatusOngoing {
		t.Errorf("expected ongoing, got %s", view.Status)
	}
}

func TestStartRide_Errors(t *testing.T) {
	f := newFixture(t)
	pending := f.createRide(t)

	_, err := f.rides.StartRide(context.Background(), "driver-1", pending.ID, pending.OTP)
	if !errors.Is(err, service.ErrRideNotAccepted) {
		t.Errorf("expected ErrRideNotAccepted, got %v", err)
	}

	accepted := f.acceptedRide(t, "driver-1")
	_, err = f.rides.StartRide(context.Background(), "driver-2", accepted.ID, accepted.OTP)
	if !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}

	_, err = f.rides.StartRide(context.Background(), "driver-1", accepted.ID, "12ab")
	if !errors.Is(err, service.ErrInvalidOTP) {
		t.Errorf("expected ErrInvalidOTP, got %v", err)
	}

	_, err = f.rides.StartRide(context.Background(), "driver-1", "missing", "123456")
	if !errors.Is(err, service.ErrRideNotFound) {
		t.Errorf("expected ErrRideNotFound, got %v", err)
	}
}

func TestEndRide_AppliesStatsOnce(t *testing.T) {
	f := newFixture(t)
	ride := f.ongoingRide(t, "driver-1")

	party := domain.Party{ID: "driver-1", Type: domain.PartyDriver}
	if _, err := f.rides.UpdateRouteInfo(context.Background(), party, ride.ID, "2.8 km"); err != nil {
		t.Fatalf("route info: %v", err)
	}

	result, err := f.rides.EndRide(context.Background(), "driver-1", ride.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := domain.DriverStats{EarningsTotal: 150, RidesTotal: 1, DistanceTotal: 2.8}
	if result.DriverStats != expected {
		t.Errorf("expected %+v, got %+v", expected, result.DriverStats)
	}
	if result.Ride.Status != domain.RideStatusCompleted {
		t.Errorf("expected completed, got %s", result.Ride.Status)
	}

	_, err = f.rides.EndRide(context.Background(), "driver-1", ride.ID)
	if !errors.Is(err, service.ErrRideNotOngoing) {
		t.Errorf("expected ErrRideNotOngoing on repeat, got %v", err)
	}
	if got := f.driverStats(t, "driver-1"); got != expected {
		t.Errorf("expected stats unchanged at %+v, got %+v", expected, got)
	}

	payment, err := f.store.Payments().GetByRide(context.Background(), ride.ID)
	if err != nil {
		t.Fatalf("expected a payment, got %v, %v", payment, err)
	}
	if payment.Amount != 150 || payment.Status != domain.PaymentStatusSuccess || payment.DriverID != "driver-1" {
		t.Errorf("unexpected payment: %+v", payment)
	}
}

func TestEndRide_ConcurrentCallsCreditOnce(t *testing.T) {
	f := newFixture(t)
	ride := f.ongoingRide(t, "driver-1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.rides.EndRide(context.Background(), "driver-1", ride.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected 1 success, got %d", successes)
	}
	if got := f.driverStats(t, "driver-1"); got.RidesTotal != 1 || got.EarningsTotal != 150 {
		t.Errorf("expected one credit, got %+v", got)
	}
}

func TestEndRide_UnparseableDistanceCountsZero(t *testing.T) {
	testCases := []struct {
		name     string
		distance string
		reject   bool
	}{
		{"free text", "about twenty minutes", false},
		{"nan", "NaN km", true},
		{"inf", "Inf km", true},
		{"infinity", "infinity", true},
	}

	party := domain.Party{ID: "rider-1", Type: domain.PartyRider}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ride := f.ongoingRide(t, "driver-1")

			_, err := f.rides.UpdateRouteInfo(context.Background(), party, ride.ID, tc.distance)
			if tc.reject {
				if !errors.Is(err, service.ErrInvalidDistance) {
					t.Fatalf("expected ErrInvalidDistance, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("route info: %v", err)
			}

			result, err := f.rides.EndRide(context.Background(), "driver-1", ride.ID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.DriverStats.DistanceTotal != 0 || result.DriverStats.RidesTotal != 1 {
				t.Errorf("unexpected stats: %+v", result.DriverStats)
			}
			if _, err := json.Marshal(result); err != nil {
				t.Errorf("expected result to encode, got %v", err)
			}
		})
	}
}

func TestEndRide_StoredNonFiniteDistanceCountsZero(t *testing.T) {
	f := newFixture(t)
	ride := f.storedRide(t, f.ongoingRide(t, "driver-1").ID)

	// Rows written before route info was validated can still hold NaN.
	ride.Distance = "NaN km"
	if err := f.store.Rides().UpdateIfStatus(context.Background(), ride, domain.RideStatusOngoing); err != nil {
		t.Fatalf("seed distance: %v", err)
	}

	result, err := f.rides.EndRide(context.Background(), "driver-1", ride.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.DriverStats.DistanceTotal; got != 0 {
		t.Errorf("expected distance total 0, got %v", got)
	}
}

func TestEndRide_Errors(t *testing.T) {
	f := newFixture(t)

	accepted := f.acceptedRide(t, "driver-1")
	_, err := f.rides.EndRide(context.Background(), "driver-1", accepted.ID)
	if !errors.Is(err, service.ErrRideNotOngoing) {
		t.Errorf("expected ErrRideNotOngoing, got %v", err)
	}

	ongoing := f.ongoingRide(t, "driver-1")
	_, err = f.rides.EndRide(context.Background(), "driver-2", ongoing.ID)
	if !errors.Is(err, service.ErrNotRideOwner) || !errors.Is(err, service.ErrAuthorization) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
	if got := f.driverStats(t, "driver-2"); got != (domain.DriverStats{}) {
		t.Errorf("expected no credit for driver-2, got %+v", got)
	}
}

func TestCancelRide_FineCanGoNegative(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.Drivers().ApplyStats(context.Background(), "driver-1", domain.StatsDelta{Earnings: 15}); err != nil {
		t.Fatalf("seed earnings: %v", err)
	}
	ride := f.acceptedRide(t, "driver-1")

	result, err := f.rides.CancelRide(context.Background(), "driver-1", ride.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DriverStats.EarningsTotal != -5 {
		t.Errorf("expected earnings -5, got %v", result.DriverStats.EarningsTotal)
	}
	if result.Fine != 20 {
		t.Errorf("expected fine 20, got %v", result.Fine)
	}

	stored := f.storedRide(t, ride.ID)
	if stored.Status != domain.RideStatusCancelled || stored.DriverID != "" {
		t.Errorf("expected cancelled with no driver, got %s/%q", stored.Status, stored.DriverID)
	}
	if stored.Fare != 150 {
		t.Errorf("expected fare unchanged, got %v", stored.Fare)
	}

	events := f.notifier.sentTo("rider-1")
	last := events[len(events)-1]
	if last.event != domain.EventRideCancelled {
		t.Fatalf("expected ride-cancelled, got %s", last.event)
	}
	if msg := last.payload.(domain.RideEvent).Message; !strings.Contains(msg, "cancelled") {
		t.Errorf("expected a cancellation message, got %q", msg)
	}
}

func TestCancelRide_Errors(t *testing.T) {
	f := newFixture(t)

	pending := f.createRide(t)
	_, err := f.rides.CancelRide(context.Background(), "driver-1", pending.ID, "")
	if !errors.Is(err, service.ErrRideNotAccepted) {
		t.Errorf("expected ErrRideNotAccepted for pending, got %v", err)
	}

	ongoing := f.ongoingRide(t, "driver-1")
	_, err = f.rides.CancelRide(context.Background(), "driver-1", ongoing.ID, "")
	if !errors.Is(err, service.ErrRideNotAccepted) {
		t.Errorf("expected ErrRideNotAccepted for ongoing, got %v", err)
	}

	accepted := f.acceptedRide(t, "driver-1")
	_, err = f.rides.CancelRide(context.Background(), "driver-2", accepted.ID, "")
	if !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
	if got := f.driverStats(t, "driver-1").EarningsTotal; got != 0 {
		t.Errorf("expected no fine, got earnings %v", got)
	}
}

func TestRideLifecycle_RiderNotificationsInOrder(t *testing.T) {
	f := newFixture(t)
	ride := f.ongoingRide(t, "driver-1")

	if _, err := f.rides.EndRide(context.Background(), "driver-1", ride.ID); err != nil {
		t.Fatalf("end ride: %v", err)
	}

	got := eventNames(f.notifier.sentTo("rider-1"))
	expected := []string{domain.EventRideAccepted, domain.EventRideStarted, domain.EventRideEnded}
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, got)
	}
	if got := f.storedRide(t, ride.ID).Status; got != domain.RideStatusCompleted {
		t.Errorf("expected completed, got %s", got)
	}
}

func TestGetRide_OnlyParties(t *testing.T) {
	f := newFixture(t)
	ride := f.acceptedRide(t, "driver-1")

	for _, party := range []domain.Party{
		{ID: "rider-1", Type: domain.PartyRider},
		{ID: "driver-1", Type: domain.PartyDriver},
	} {
		if _, err := f.rides.GetRide(context.Background(), party, ride.ID); err != nil {
			t.Errorf("expected %s to see the ride, got %v", party.ID, err)
		}
	}

	_, err := f.rides.GetRide(context.Background(), domain.Party{ID: "driver-2", Type: domain.PartyDriver}, ride.ID)
	if !errors.Is(err, service.ErrNotRideParty) {
		t.Errorf("expected ErrNotRideParty, got %v", err)
	}
}

func TestUpdateRouteInfo_RejectsInactiveRide(t *testing.T) {
	f := newFixture(t)
	ride := f.createRide(t)

	_, err := f.rides.UpdateRouteInfo(context.Background(), domain.Party{ID: "rider-1", Type: domain.PartyRider}, ride.ID, "3 km")
	if !errors.Is(err, service.ErrRideNotActive) {
		t.Errorf("expected ErrRideNotActive, got %v", err)
	}
}

func TestQuoteFares_AllClasses(t *testing.T) {
	f := newFixture(t)

	quote, err := f.rides.QuoteFares(context.Background(), "MG Road", "Indiranagar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Fares[domain.VehicleClassCar] != 150 {
		t.Errorf("expected car 150, got %v", quote.Fares[domain.VehicleClassCar])
	}
	if len(quote.Fares) != 3 {
		t.Errorf("expected 3 classes, got %d", len(quote.Fares))
	}
}

func TestRideService_Timestamps(t *testing.T) {
	f := newFixture(t)
	before := time.Now().Add(-time.Second)

	ride := f.acceptedRide(t, "driver-1")
	stored := f.storedRide(t, ride.ID)

	if stored.CreatedAt.Before(before) || stored.UpdatedAt.Before(stored.CreatedAt) {
		t.Errorf("unexpected timestamps: created %v updated %v", stored.CreatedAt, stored.UpdatedAt)
	}
}
