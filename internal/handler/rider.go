package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// RiderHandler handles HTTP requests for riders.
type RiderHandler struct {
	partyService *service.PartyService
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(partyService *service.PartyService) *RiderHandler {
	return &RiderHandler{partyService: partyService}
}

// RegisterRiderRequest is the HTTP request body for rider registration.
type RegisterRiderRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Phone string `json:"phone"`
}

// RiderResponse is the HTTP response for rider data.
type RiderResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toRiderResponse(r *domain.Rider) RiderResponse {
	return RiderResponse{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		CreatedAt: r.CreatedAt,
	}
}

// Register handles POST /v1/riders/register
func (h *RiderHandler) Register(c *gin.Context) {
	var req RegisterRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rider, err := h.partyService.RegisterRider(c.Request.Context(), service.RegisterRiderRequest{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRiderResponse(rider))
}

// Me handles GET /v1/riders/me
func (h *RiderHandler) Me(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	rider, err := h.partyService.GetRider(c.Request.Context(), party.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRiderResponse(rider))
}
