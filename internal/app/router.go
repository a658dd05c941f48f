package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ridehail/internal/domain"
	"ridehail/internal/handler"
	"ridehail/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler    *handler.RideHandler
	DriverHandler  *handler.DriverHandler
	RiderHandler   *handler.RiderHandler
	PaymentHandler *handler.PaymentHandler
	Socket         http.Handler
	SocketPath     string
	JWTSecret      string
	CORSOrigins    []string
	// IdempotencyStore enables Idempotency-Key replay when set.
	IdempotencyStore middleware.ResponseStore
	NewRelicApp      *newrelic.Application
	Logger           *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(deps.CORSOrigins))
	router.Use(middleware.PrometheusMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Socket != nil {
		socketPath := deps.SocketPath
		if socketPath == "" {
			socketPath = "/ws"
		}
		// The socket server checks the token itself, from the header or ?token=.
		router.GET(socketPath, gin.WrapH(deps.Socket))
	}

	requireRider := middleware.RequireRole(domain.PartyRider)
	requireDriver := middleware.RequireRole(domain.PartyDriver)

	v1 := router.Group("/v1")
	{
		v1.POST("/riders/register", deps.RiderHandler.Register)
		v1.POST("/drivers/register", deps.DriverHandler.Register)

		authed := v1.Group("", middleware.AuthMiddleware(deps.JWTSecret))
		if deps.IdempotencyStore != nil {
			authed.Use(middleware.IdempotencyMiddleware(deps.IdempotencyStore, deps.Logger))
		}

		authed.GET("/riders/me", requireRider, deps.RiderHandler.Me)

		drivers := authed.Group("/drivers")
		{
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.GET("/me", requireDriver, deps.DriverHandler.Me)
		}

		rides := authed.Group("/rides")
		{
			rides.POST("/create", requireRider, deps.RideHandler.CreateRide)
			rides.POST("/accept", requireDriver, deps.RideHandler.AcceptRide)
			rides.POST("/start", requireDriver, deps.RideHandler.StartRide)
			rides.POST("/end", requireDriver, deps.RideHandler.EndRide)
			rides.POST("/cancel", requireDriver, deps.RideHandler.CancelRide)
			rides.POST("/route-info", deps.RideHandler.UpdateRouteInfo)
			rides.GET("/fare", deps.RideHandler.GetFare)
			rides.GET("", deps.RideHandler.ListRides)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.GET("/:id/payment", deps.PaymentHandler.GetRidePayment)
		}
	}

	return router
}
