package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
	rideService    *service.RideService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, rideService *service.RideService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		rideService:    rideService,
	}
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID        string     `json:"id"`
	RideID    string     `json:"rideId"`
	DriverID  string     `json:"driverId"`
	Amount    float64    `json:"amount"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	SettledAt *time.Time `json:"settledAt,omitempty"`
}

// GetRidePayment handles GET /v1/rides/:id/payment
func (h *PaymentHandler) GetRidePayment(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	// Only a party to the ride may see its payment.
	ride, err := h.rideService.GetRide(c.Request.Context(), party, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	payment, err := h.paymentService.GetRidePayment(c.Request.Context(), ride.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentResponse{
		ID:        payment.ID,
		RideID:    payment.RideID,
		DriverID:  payment.DriverID,
		Amount:    payment.Amount,
		Status:    string(payment.Status),
		CreatedAt: payment.CreatedAt,
		SettledAt: payment.SettledAt,
	})
}
