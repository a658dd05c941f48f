package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	partyService *service.PartyService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(partyService *service.PartyService) *DriverHandler {
	return &DriverHandler{partyService: partyService}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name    string         `json:"name" binding:"required"`
	Email   string         `json:"email" binding:"required"`
	Vehicle domain.Vehicle `json:"vehicle"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Vehicle   domain.Vehicle      `json:"vehicle"`
	Status    string              `json:"status"`
	Location  *domain.Coordinates `json:"location,omitempty"`
	Stats     domain.DriverStats  `json:"stats"`
	CreatedAt time.Time           `json:"createdAt"`
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Vehicle:   d.Vehicle,
		Status:    string(d.Status),
		Location:  d.Location,
		Stats:     d.Stats,
		CreatedAt: d.CreatedAt,
	}
}

// Register handles POST /v1/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.partyService.RegisterDriver(c.Request.Context(), service.RegisterDriverRequest{
		Name:    req.Name,
		Email:   req.Email,
		Vehicle: req.Vehicle,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// Me handles GET /v1/drivers/me
func (h *DriverHandler) Me(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	driver, err := h.partyService.GetDriver(c.Request.Context(), party.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers, err := h.partyService.ListDrivers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, toDriverResponse(d))
	}

	c.JSON(http.StatusOK, response)
}
