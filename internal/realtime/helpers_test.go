package realtime_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"go.uber.org/zap"

	"ridehail/internal/domain"
	"ridehail/internal/realtime"
	"ridehail/internal/repository/memory"
)

type fakeConn struct {
	id     string
	mu     sync.Mutex
	frames []realtime.Frame
	err    error
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	var f realtime.Frame
	if err := json.Unmarshal(frame, &f); err != nil {
		return err
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		names = append(names, f.Event)
	}
	return names
}

type fakeLocationIndex struct {
	mu      sync.Mutex
	updates map[string]domain.Coordinates
	removed []string
}

func (f *fakeLocationIndex) UpdateLocation(_ context.Context, driverID string, location domain.Coordinates) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = make(map[string]domain.Coordinates)
	}
	f.updates[driverID] = location
	return nil
}

func (f *fakeLocationIndex) RemoveLocation(_ context.Context, driverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, driverID)
	return nil
}

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.Riders().Create(ctx, &domain.Rider{ID: "rider-1", Name: "Asha", Email: "asha@example.com"}); err != nil {
		t.Fatalf("seed rider: %v", err)
	}
	for _, id := range []string{"driver-1", "driver-2"} {
		err := store.Drivers().Create(ctx, &domain.Driver{
			ID:     id,
			Name:   "Driver " + id,
			Email:  id + "@example.com",
			Status: domain.DriverStatusInactive,
		})
		if err != nil {
			t.Fatalf("seed driver: %v", err)
		}
	}
	return store
}

func newTestRegistry(t *testing.T) (*realtime.Registry, *memory.Store, *fakeLocationIndex) {
	t.Helper()
	store := newTestStore(t)
	index := &fakeLocationIndex{}
	return realtime.NewRegistry(store.Drivers(), store.Riders(), index, zap.NewNop()), store, index
}
