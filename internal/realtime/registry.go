package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ridehail/internal/domain"
	"ridehail/internal/metrics"
	"ridehail/internal/repository"
)

var (
	// ErrInvalidPartyType is returned when joining with an unknown party type.
	ErrInvalidPartyType = errors.New("invalid party type")

	// ErrUnknownParty is returned when joining as a party that is not registered.
	ErrUnknownParty = errors.New("unknown party")

	// ErrInvalidLocation is returned for missing or out-of-range coordinates.
	ErrInvalidLocation = errors.New("invalid location data")
)

// Conn is a live connection handle.
type Conn interface {
	ID() string
	// Send queues an encoded frame without blocking.
	Send(frame []byte) error
}

// LocationIndex mirrors driver positions for geo lookups.
type LocationIndex interface {
	UpdateLocation(ctx context.Context, driverID string, location domain.Coordinates) error
	RemoveLocation(ctx context.Context, driverID string) error
}

type binding struct {
	partyID   string
	partyType domain.PartyType
}

// Registry tracks which connection belongs to which party. It is the only
// writer of the presence fields on party records.
type Registry struct {
	// writeMu serializes Register and Unregister, including their store
	// writes, so the persisted socket id agrees with the in-memory map.
	writeMu sync.Mutex

	mu      sync.RWMutex
	conns   map[string]Conn    // every open connection by handle id
	bound   map[string]binding // handle id to party
	parties map[string]Conn    // party id to its current handle

	drivers   repository.DriverRepository
	riders    repository.RiderRepository
	locations LocationIndex
	logger    *zap.Logger
}

// NewRegistry creates a new Registry. locations may be nil.
func NewRegistry(drivers repository.DriverRepository, riders repository.RiderRepository, locations LocationIndex, logger *zap.Logger) *Registry {
	return &Registry{
		conns:     make(map[string]Conn),
		bound:     make(map[string]binding),
		parties:   make(map[string]Conn),
		drivers:   drivers,
		riders:    riders,
		locations: locations,
		logger:    logger,
	}
}

// Attach tracks an open connection that has not joined yet. Attached
// connections receive relayed location updates.
func (r *Registry) Attach(conn Conn) {
	r.mu.Lock()
	r.conns[conn.ID()] = conn
	r.mu.Unlock()
	r.updateGauges()
}

// Register binds conn to a party. Any handle the party held before is
// replaced, and a connection re-joining as another party releases the first.
func (r *Registry) Register(ctx context.Context, partyID string, partyType domain.PartyType, conn Conn) error {
	if partyID == "" {
		return ErrUnknownParty
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var err error
	switch partyType {
	case domain.PartyRider:
		err = r.riders.SetSocketID(ctx, partyID, conn.ID())
	case domain.PartyDriver:
		err = r.drivers.SetPresence(ctx, partyID, domain.DriverStatusActive, conn.ID())
	default:
		return ErrInvalidPartyType
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownParty
		}
		return fmt.Errorf("persist presence: %w", err)
	}

	r.mu.Lock()
	prev, rebinding := r.bound[conn.ID()]
	releasePrev := rebinding && prev.partyID != partyID && r.isCurrentLocked(prev.partyID, conn.ID())
	if releasePrev {
		delete(r.parties, prev.partyID)
	}
	if old, ok := r.parties[partyID]; ok && old.ID() != conn.ID() {
		// The superseded handle stays open but no longer receives events.
		delete(r.bound, old.ID())
	}
	r.conns[conn.ID()] = conn
	r.bound[conn.ID()] = binding{partyID: partyID, partyType: partyType}
	r.parties[partyID] = conn
	r.mu.Unlock()

	if releasePrev {
		r.persistOffline(ctx, prev)
	}
	r.updateGauges()

	r.logger.Info("party joined",
		zap.String("party_id", partyID),
		zap.String("party_type", string(partyType)),
		zap.String("socket_id", conn.ID()),
	)
	return nil
}

// Unregister forgets conn. If it was its party's current handle the party
// goes offline, and a driver is flipped to inactive.
func (r *Registry) Unregister(ctx context.Context, conn Conn) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	delete(r.conns, conn.ID())
	b, ok := r.bound[conn.ID()]
	delete(r.bound, conn.ID())
	current := ok && r.isCurrentLocked(b.partyID, conn.ID())
	if current {
		delete(r.parties, b.partyID)
	}
	r.mu.Unlock()

	if current {
		r.persistOffline(ctx, b)
		r.logger.Info("party left",
			zap.String("party_id", b.partyID),
			zap.String("party_type", string(b.partyType)),
			zap.String("socket_id", conn.ID()),
		)
	}
	r.updateGauges()
}

// Lookup returns the current handle of a party.
func (r *Registry) Lookup(partyID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.parties[partyID]
	return conn, ok
}

// BoundParty returns the party conn has joined as.
func (r *Registry) BoundParty(conn Conn) (domain.Party, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bound[conn.ID()]
	if !ok {
		return domain.Party{}, false
	}
	return domain.Party{ID: b.partyID, Type: b.partyType}, true
}

// AllOnlineDrivers returns a snapshot of every driver's current handle.
func (r *Registry) AllOnlineDrivers() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.parties))
	for _, conn := range r.parties {
		if r.bound[conn.ID()].partyType == domain.PartyDriver {
			conns = append(conns, conn)
		}
	}
	return conns
}

// Connections returns a snapshot of every open connection.
func (r *Registry) Connections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

// UpdateDriverLocation persists a driver's position. An unknown driver is
// logged and ignored.
func (r *Registry) UpdateDriverLocation(ctx context.Context, partyID string, location domain.Coordinates) error {
	if !location.Valid() {
		return ErrInvalidLocation
	}

	if err := r.drivers.UpdateLocation(ctx, partyID, location); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.logger.Warn("location update for unknown driver", zap.String("party_id", partyID))
			return nil
		}
		return fmt.Errorf("persist location: %w", err)
	}

	if r.locations != nil {
		if err := r.locations.UpdateLocation(ctx, partyID, location); err != nil {
			r.logger.Warn("geo index update failed", zap.String("party_id", partyID), zap.Error(err))
		}
	}
	return nil
}

func (r *Registry) isCurrentLocked(partyID, connID string) bool {
	conn, ok := r.parties[partyID]
	return ok && conn.ID() == connID
}

func (r *Registry) persistOffline(ctx context.Context, b binding) {
	var err error
	switch b.partyType {
	case domain.PartyDriver:
		err = r.drivers.SetPresence(ctx, b.partyID, domain.DriverStatusInactive, "")
		if r.locations != nil {
			if lerr := r.locations.RemoveLocation(ctx, b.partyID); lerr != nil {
				r.logger.Warn("geo index removal failed", zap.String("party_id", b.partyID), zap.Error(lerr))
			}
		}
	case domain.PartyRider:
		err = r.riders.SetSocketID(ctx, b.partyID, "")
	}
	if err != nil {
		r.logger.Error("failed to clear presence",
			zap.String("party_id", b.partyID),
			zap.String("party_type", string(b.partyType)),
			zap.Error(err),
		)
	}
}

func (r *Registry) updateGauges() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	drivers := 0
	for _, conn := range r.parties {
		if r.bound[conn.ID()].partyType == domain.PartyDriver {
			drivers++
		}
	}
	metrics.SocketConnections.Set(float64(len(r.conns)))
	metrics.OnlineDrivers.Set(float64(drivers))
}
