package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService  *service.RideService
	partyService *service.PartyService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, partyService *service.PartyService) *RideHandler {
	return &RideHandler{
		rideService:  rideService,
		partyService: partyService,
	}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	Pickup            string              `json:"pickup" binding:"required"`
	Destination       string              `json:"destination" binding:"required"`
	VehicleType       string              `json:"vehicleType" binding:"required"`
	PickupCoords      *domain.Coordinates `json:"pickupCoords,omitempty"`
	DestinationCoords *domain.Coordinates `json:"destinationCoords,omitempty"`
}

// RideActionRequest is the HTTP request body for accept, end and cancel.
type RideActionRequest struct {
	RideID string `json:"rideId" binding:"required"`
	Reason string `json:"reason,omitempty"`
}

// StartRideRequest is the HTTP request body for starting a ride.
type StartRideRequest struct {
	RideID string `json:"rideId" binding:"required"`
	OTP    string `json:"otp" binding:"required"`
}

// RouteInfoRequest is the HTTP request body for reporting route information.
type RouteInfoRequest struct {
	RideID   string `json:"rideId" binding:"required"`
	Distance string `json:"distance" binding:"required"`
}

// RideResponse wraps a single ride projection.
type RideResponse struct {
	Ride any `json:"ride"`
}

// RideListResponse wraps a list of ride projections.
type RideListResponse struct {
	Rides []any `json:"rides"`
}

// CreateRide handles POST /v1/rides/create
func (h *RideHandler) CreateRide(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		RiderID:           party.ID,
		Pickup:            req.Pickup,
		Destination:       req.Destination,
		VehicleClass:      req.VehicleType,
		PickupCoords:      req.PickupCoords,
		DestinationCoords: req.DestinationCoords,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, RideResponse{Ride: ride.DriverView()})
}

// AcceptRide handles POST /v1/rides/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	var req RideActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.rideService.AcceptRide(c.Request.Context(), party.ID, req.RideID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RideResponse{Ride: view})
}

// StartRide handles POST /v1/rides/start
func (h *RideHandler) StartRide(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	var req StartRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.rideService.StartRide(c.Request.Context(), party.ID, req.RideID, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RideResponse{Ride: view})
}

// EndRide handles POST /v1/rides/end
func (h *RideHandler) EndRide(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	var req RideActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.rideService.EndRide(c.Request.Context(), party.ID, req.RideID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, result)
}

// CancelRide handles POST /v1/rides/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	var req RideActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.rideService.CancelRide(c.Request.Context(), party.ID, req.RideID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, result)
}

// UpdateRouteInfo handles POST /v1/rides/route-info
func (h *RideHandler) UpdateRouteInfo(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	var req RouteInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.UpdateRouteInfo(c.Request.Context(), party, req.RideID, req.Distance)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RideResponse{Ride: h.view(c, party, ride)})
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), party, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RideResponse{Ride: h.view(c, party, ride)})
}

// ListRides handles GET /v1/rides
func (h *RideHandler) ListRides(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	rides, err := h.rideService.ListRides(c.Request.Context(), party)
	if err != nil {
		respondError(c, err)
		return
	}

	response := RideListResponse{Rides: make([]any, 0, len(rides))}
	for _, ride := range rides {
		if party.Type == domain.PartyRider {
			response.Rides = append(response.Rides, ride.RiderView(nil))
		} else {
			response.Rides = append(response.Rides, ride.DriverView())
		}
	}

	respondJSON(c, http.StatusOK, response)
}

// GetFare handles GET /v1/rides/fare?pickup=&destination=
func (h *RideHandler) GetFare(c *gin.Context) {
	pickup := c.Query("pickup")
	destination := c.Query("destination")
	if pickup == "" || destination == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pickup and destination are required"})
		return
	}

	quote, err := h.rideService.QuoteFares(c.Request.Context(), pickup, destination)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, quote)
}

// view projects ride for the caller. The rider also gets a summary of the
// assigned driver.
func (h *RideHandler) view(c *gin.Context, party domain.Party, ride *domain.Ride) any {
	if party.Type != domain.PartyRider {
		return ride.DriverView()
	}

	var driver *domain.Driver
	if ride.DriverID != "" {
		d, err := h.partyService.GetDriver(c.Request.Context(), ride.DriverID)
		if err != nil {
			// The ride is still served, just without the driver summary.
			_ = c.Error(fmt.Errorf("load driver %s for ride %s: %w", ride.DriverID, ride.ID, err))
		} else {
			driver = d
		}
	}
	return ride.RiderView(driver)
}
