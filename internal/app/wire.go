package app

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"ridehail/internal/config"
	"ridehail/internal/handler"
	"ridehail/internal/middleware"
	"ridehail/internal/realtime"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
	"ridehail/internal/repository/postgres"
	"ridehail/internal/service"
)

// Store groups the repositories of one durable store.
type Store struct {
	Rides      repository.RideRepository
	Drivers    repository.DriverRepository
	Riders     repository.RiderRepository
	Payments   repository.PaymentRepository
	Transactor repository.Transactor
}

// NewMemoryStore returns a Store kept in process memory.
func NewMemoryStore() Store {
	s := memory.NewStore()
	return Store{
		Rides:      s.Rides(),
		Drivers:    s.Drivers(),
		Riders:     s.Riders(),
		Payments:   s.Payments(),
		Transactor: s,
	}
}

// NewPostgresStore returns a Store backed by db.
func NewPostgresStore(db *sql.DB) Store {
	return Store{
		Rides:      postgres.NewRideRepository(db),
		Drivers:    postgres.NewDriverRepository(db),
		Riders:     postgres.NewRiderRepository(db),
		Payments:   postgres.NewPaymentRepository(db),
		Transactor: postgres.NewTransactor(db),
	}
}

// WireDeps are the collaborators Wire cannot build itself.
type WireDeps struct {
	Config *config.Config
	Store  Store
	Maps   service.MapsClient
	// Locations mirrors driver positions. Nil disables the geo index.
	Locations realtime.LocationIndex
	// Idempotency enables request replay. Nil disables it.
	Idempotency middleware.ResponseStore
	NewRelicApp *newrelic.Application
	Logger      *zap.Logger
}

// Components are the long-lived pieces built by Wire.
type Components struct {
	Router   *gin.Engine
	Hub      *realtime.Server
	Registry *realtime.Registry
	Rides    *service.RideService
}

// Wire builds the services, the real-time hub and the router.
func Wire(deps WireDeps) *Components {
	logger := deps.Logger
	store := deps.Store

	registry := realtime.NewRegistry(store.Drivers, store.Riders, deps.Locations, logger.Named("registry"))
	dispatcher := realtime.NewDispatcher(registry, logger.Named("dispatcher"))
	socketAuth := middleware.SocketAuthenticator{Secret: deps.Config.Auth.JWTSecret}
	hub := realtime.NewServer(registry, dispatcher, socketAuth, logger.Named("socket"))

	payments := service.NewPaymentService(store.Payments, service.NewSimulatedPSP(), logger.Named("payments"))
	parties := service.NewPartyService(store.Riders, store.Drivers, logger.Named("parties"))
	rides := service.NewRideService(service.RideStore{
		Rides:      store.Rides,
		Drivers:    store.Drivers,
		Riders:     store.Riders,
		Transactor: store.Transactor,
	}, deps.Maps, dispatcher, payments, logger.Named("rides"))

	router := NewRouter(RouterDeps{
		RideHandler:      handler.NewRideHandler(rides, parties),
		DriverHandler:    handler.NewDriverHandler(parties),
		RiderHandler:     handler.NewRiderHandler(parties),
		PaymentHandler:   handler.NewPaymentHandler(payments, rides),
		Socket:           hub,
		SocketPath:       deps.Config.Server.SocketPath,
		JWTSecret:        deps.Config.Auth.JWTSecret,
		CORSOrigins:      deps.Config.Server.CORSOrigins,
		IdempotencyStore: deps.Idempotency,
		NewRelicApp:      deps.NewRelicApp,
		Logger:           logger,
	})

	return &Components{
		Router:   router,
		Hub:      hub,
		Registry: registry,
		Rides:    rides,
	}
}
