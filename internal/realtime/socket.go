package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ridehail/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

var (
	// ErrSendBufferFull is returned when a slow client has too many frames queued.
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrIdentityMismatch is sent when a join names a party other than the
	// one the connection authenticated as.
	ErrIdentityMismatch = errors.New("join does not match the authenticated party")

	errClientClosed = errors.New("client closed")
)

// Authenticator resolves the party behind an upgrade request.
type Authenticator interface {
	Authenticate(r *http.Request) (domain.Party, error)
}

// Server upgrades HTTP requests to websockets and routes inbound frames.
type Server struct {
	registry   *Registry
	dispatcher *Dispatcher
	auth       Authenticator
	upgrader   websocket.Upgrader
	logger     *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewServer creates a new Server.
func NewServer(registry *Registry, dispatcher *Dispatcher, auth Authenticator, logger *zap.Logger) *Server {
	return &Server{
		registry:   registry,
		dispatcher: dispatcher,
		auth:       auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP authenticates and upgrades the connection, then blocks until it
// closes. A connection may only join as the party it authenticated as.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	party, err := s.auth.Authenticate(r)
	if err != nil {
		s.logger.Info("websocket auth rejected", zap.String("remote", r.RemoteAddr), zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn, party)
	if !s.add(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	s.registry.Attach(c)
	s.logger.Info("socket connected",
		zap.String("socket_id", c.id),
		zap.String("party_id", party.ID),
		zap.String("remote", r.RemoteAddr),
	)

	go c.writePump()
	s.readPump(c)
}

// Close disconnects every client. Disconnects are unregistered as usual.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (s *Server) add(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

func (s *Server) readPump(c *client) {
	ctx := context.Background()

	defer func() {
		s.registry.Unregister(ctx, c)
		s.remove(c)
		c.close()
		s.logger.Info("socket disconnected", zap.String("socket_id", c.id))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("socket read failed", zap.String("socket_id", c.id), zap.Error(err))
			}
			return
		}
		s.handleFrame(ctx, c, data)
	}
}

func (s *Server) handleFrame(ctx context.Context, c *client, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.sendError(c, "Invalid message")
		return
	}

	switch frame.Event {
	case EventJoin:
		var msg JoinMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			s.sendError(c, "Invalid join data")
			return
		}
		partyType, ok := domain.ParsePartyType(msg.PartyType)
		if !ok {
			s.sendError(c, ErrInvalidPartyType.Error())
			return
		}
		if msg.PartyID != c.party.ID || partyType != c.party.Type {
			s.logger.Warn("join identity mismatch",
				zap.String("socket_id", c.id),
				zap.String("authenticated_as", c.party.ID),
				zap.String("party_id", msg.PartyID),
			)
			s.sendError(c, ErrIdentityMismatch.Error())
			return
		}
		if err := s.registry.Register(ctx, msg.PartyID, partyType, c); err != nil {
			s.logger.Warn("join rejected", zap.String("party_id", msg.PartyID), zap.Error(err))
			s.sendError(c, err.Error())
		}

	case EventUpdateDriverLocation:
		var msg DriverLocationMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			s.sendError(c, ErrInvalidLocation.Error())
			return
		}
		location, ok := msg.Location.coordinates()
		if !ok {
			s.sendError(c, "Invalid location data")
			return
		}
		party, joined := s.registry.BoundParty(c)
		if !joined || party.Type != domain.PartyDriver || (msg.PartyID != "" && msg.PartyID != party.ID) {
			s.sendError(c, "Join as this driver before sending locations")
			return
		}
		if err := s.registry.UpdateDriverLocation(ctx, party.ID, location); err != nil {
			s.logger.Error("driver location update failed", zap.String("party_id", party.ID), zap.Error(err))
			s.sendError(c, "Location update failed")
		}

	case EventUpdateLocation:
		var msg LocationRelayMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			s.sendError(c, ErrInvalidLocation.Error())
			return
		}
		if _, ok := msg.Location.coordinates(); !ok {
			s.sendError(c, "Invalid location data")
			return
		}
		s.dispatcher.Relay(ctx, c, domain.EventLocationUpdate, msg)

	default:
		s.sendError(c, "Unknown event "+frame.Event)
	}
}

func (s *Server) sendError(c *client, message string) {
	s.dispatcher.SendTo(c, domain.EventError, ErrorMessage{Message: message})
}

func (l *LocationData) coordinates() (domain.Coordinates, bool) {
	if l == nil || l.Lat == nil || l.Lng == nil {
		return domain.Coordinates{}, false
	}
	c := domain.Coordinates{Lat: *l.Lat, Lng: *l.Lng}
	return c, c.Valid()
}

// client is one websocket connection. Frames are queued on send and written
// by writePump; done is closed exactly once to stop it.
type client struct {
	id        string
	party     domain.Party
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, party domain.Party) *client {
	return &client{
		id:    uuid.New().String(),
		party: party,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		done:  make(chan struct{}),
	}
}

func (c *client) ID() string { return c.id }

// Send queues frame. A full buffer drops it.
func (c *client) Send(frame []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
