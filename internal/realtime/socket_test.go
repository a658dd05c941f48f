package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/realtime"
	"ridehail/internal/repository/memory"
)

const socketSecret = "socket-secret"

var (
	rider1  = domain.Party{ID: "rider-1", Type: domain.PartyRider}
	driver1 = domain.Party{ID: "driver-1", Type: domain.PartyDriver}
)

type socketFixture struct {
	server     *realtime.Server
	registry   *realtime.Registry
	dispatcher *realtime.Dispatcher
	store      *memory.Store
	url        string
}

func newSocketFixture(t *testing.T) *socketFixture {
	t.Helper()
	registry, store, _ := newTestRegistry(t)
	dispatcher := realtime.NewDispatcher(registry, zap.NewNop())
	auth := middleware.SocketAuthenticator{Secret: socketSecret}
	server := realtime.NewServer(registry, dispatcher, auth, zap.NewNop())
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		server.Close()
		httpServer.Close()
	})
	return &socketFixture{
		server:     server,
		registry:   registry,
		dispatcher: dispatcher,
		store:      store,
		url:        "ws" + strings.TrimPrefix(httpServer.URL, "http"),
	}
}

func socketToken(t *testing.T, party domain.Party) string {
	t.Helper()
	tok, err := middleware.SignToken(socketSecret, party, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func (f *socketFixture) dial(t *testing.T, party domain.Party) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+socketToken(t, party))
	ws, _, err := websocket.DefaultDialer.Dial(f.url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := ws.WriteJSON(realtime.Frame{Event: event, Data: raw}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readFrame(t *testing.T, ws *websocket.Conn) realtime.Frame {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f realtime.Frame
	if err := ws.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (f *socketFixture) join(t *testing.T, ws *websocket.Conn, partyID string, partyType domain.PartyType) {
	t.Helper()
	send(t, ws, realtime.EventJoin, realtime.JoinMessage{PartyID: partyID, PartyType: string(partyType)})
	waitFor(t, partyID+" to join", func() bool {
		_, ok := f.registry.Lookup(partyID)
		return ok
	})
}

func ptr(v float64) *float64 { return &v }

func TestServer_JoinAndReceiveNotification(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, rider1)
	f.join(t, ws, "rider-1", domain.PartyRider)

	f.dispatcher.Notify(context.Background(), "rider-1", domain.EventRideAccepted, domain.RideEvent{Ride: "ride-1"})

	frame := readFrame(t, ws)
	if frame.Event != domain.EventRideAccepted {
		t.Errorf("expected ride-accepted, got %s", frame.Event)
	}
}

func TestServer_RejectsUpgradeWithoutToken(t *testing.T) {
	f := newSocketFixture(t)

	_, resp, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err == nil {
		t.Fatal("expected the handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %v", resp)
	}
}

func TestServer_AcceptsTokenQueryParameter(t *testing.T) {
	f := newSocketFixture(t)

	ws, _, err := websocket.DefaultDialer.Dial(f.url+"?token="+socketToken(t, rider1), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })

	f.join(t, ws, "rider-1", domain.PartyRider)
}

func TestServer_JoinAsAnotherPartyIsRefused(t *testing.T) {
	f := newSocketFixture(t)
	rider := f.dial(t, rider1)
	f.join(t, rider, "rider-1", domain.PartyRider)

	// A driver who saw the rider id in a new-ride offer tries to take over
	// the rider's channel.
	intruder := f.dial(t, driver1)
	send(t, intruder, realtime.EventJoin, realtime.JoinMessage{PartyID: "rider-1", PartyType: "rider"})

	frame := readFrame(t, intruder)
	var msg realtime.ErrorMessage
	_ = json.Unmarshal(frame.Data, &msg)
	if frame.Event != domain.EventError || msg.Message != realtime.ErrIdentityMismatch.Error() {
		t.Fatalf("expected identity mismatch error, got %s %q", frame.Event, msg.Message)
	}

	f.dispatcher.Notify(context.Background(), "rider-1", domain.EventRideAccepted, domain.RideEvent{Ride: "ride-1"})

	if got := readFrame(t, rider); got.Event != domain.EventRideAccepted {
		t.Errorf("expected rider to keep the channel, got %s", got.Event)
	}
	_ = intruder.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := intruder.ReadMessage(); err == nil {
		t.Error("expected the intruder to receive nothing")
	}
}

func TestServer_JoinAcceptsLegacyPartyNames(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, driver1)

	send(t, ws, realtime.EventJoin, realtime.JoinMessage{PartyID: "driver-1", PartyType: "captain"})
	waitFor(t, "driver to go online", func() bool {
		return len(f.registry.AllOnlineDrivers()) == 1
	})
}

func TestServer_JoinInvalidPartyTypeSendsError(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, driver1)

	send(t, ws, realtime.EventJoin, realtime.JoinMessage{PartyID: "driver-1", PartyType: "admin"})

	frame := readFrame(t, ws)
	if frame.Event != domain.EventError {
		t.Fatalf("expected error event, got %s", frame.Event)
	}
	var msg realtime.ErrorMessage
	_ = json.Unmarshal(frame.Data, &msg)
	if msg.Message != realtime.ErrInvalidPartyType.Error() {
		t.Errorf("expected %q, got %q", realtime.ErrInvalidPartyType.Error(), msg.Message)
	}
}

func TestServer_DriverLocationUpdate(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, driver1)
	f.join(t, ws, "driver-1", domain.PartyDriver)

	send(t, ws, realtime.EventUpdateDriverLocation, realtime.DriverLocationMessage{
		PartyID:  "driver-1",
		Location: &realtime.LocationData{Lat: ptr(12.97), Lng: ptr(77.59)},
	})

	waitFor(t, "location to persist", func() bool {
		d, err := f.store.Drivers().GetByID(context.Background(), "driver-1")
		return err == nil && d.Location != nil && d.Location.Lat == 12.97
	})
}

func TestServer_DriverLocationInvalid(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, driver1)
	f.join(t, ws, "driver-1", domain.PartyDriver)

	send(t, ws, realtime.EventUpdateDriverLocation, realtime.DriverLocationMessage{
		PartyID:  "driver-1",
		Location: &realtime.LocationData{Lat: ptr(12.97)},
	})

	frame := readFrame(t, ws)
	var msg realtime.ErrorMessage
	_ = json.Unmarshal(frame.Data, &msg)
	if frame.Event != domain.EventError || msg.Message != "Invalid location data" {
		t.Errorf("expected invalid location error, got %s %q", frame.Event, msg.Message)
	}
}

func TestServer_DriverLocationRequiresJoin(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, driver1)

	send(t, ws, realtime.EventUpdateDriverLocation, realtime.DriverLocationMessage{
		PartyID:  "driver-1",
		Location: &realtime.LocationData{Lat: ptr(1), Lng: ptr(2)},
	})

	frame := readFrame(t, ws)
	if frame.Event != domain.EventError {
		t.Errorf("expected error event, got %s", frame.Event)
	}
	d, _ := f.store.Drivers().GetByID(context.Background(), "driver-1")
	if d.Location != nil {
		t.Errorf("expected no location stored, got %v", d.Location)
	}
}

func TestServer_LocationRelayedToOthers(t *testing.T) {
	f := newSocketFixture(t)
	driver := f.dial(t, driver1)
	rider := f.dial(t, rider1)
	f.join(t, driver, "driver-1", domain.PartyDriver)
	f.join(t, rider, "rider-1", domain.PartyRider)

	send(t, driver, realtime.EventUpdateLocation, realtime.LocationRelayMessage{
		RideID:    "ride-1",
		PartyType: "driver",
		Location:  &realtime.LocationData{Lat: ptr(10), Lng: ptr(20)},
	})

	frame := readFrame(t, rider)
	if frame.Event != domain.EventLocationUpdate {
		t.Fatalf("expected location-update, got %s", frame.Event)
	}
	var msg realtime.LocationRelayMessage
	if err := json.Unmarshal(frame.Data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.RideID != "ride-1" || msg.Location == nil || *msg.Location.Lat != 10 {
		t.Errorf("unexpected relay payload %s", frame.Data)
	}

	// Nothing is echoed back to the sender.
	_ = driver.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := driver.ReadMessage(); err == nil {
		t.Error("expected sender to receive nothing")
	}
}

func TestServer_UnknownEvent(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, rider1)

	send(t, ws, "dance", map[string]string{})

	frame := readFrame(t, ws)
	var msg realtime.ErrorMessage
	_ = json.Unmarshal(frame.Data, &msg)
	if frame.Event != domain.EventError || msg.Message != "Unknown event dance" {
		t.Errorf("expected unknown event error, got %s %q", frame.Event, msg.Message)
	}
}

func TestServer_DisconnectTakesDriverOffline(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, driver1)
	f.join(t, ws, "driver-1", domain.PartyDriver)

	_ = ws.Close()

	waitFor(t, "driver to go offline", func() bool {
		d, err := f.store.Drivers().GetByID(context.Background(), "driver-1")
		return err == nil && d.Status == domain.DriverStatusInactive && d.SocketID == ""
	})
	if _, ok := f.registry.Lookup("driver-1"); ok {
		t.Error("expected driver unregistered")
	}
}

func TestServer_CloseDisconnectsClients(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t, rider1)
	f.join(t, ws, "rider-1", domain.PartyRider)

	f.server.Close()

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Fatal("expected connection to close")
	}
	waitFor(t, "rider to unregister", func() bool {
		_, ok := f.registry.Lookup("rider-1")
		return !ok
	})
}
