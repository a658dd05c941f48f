package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment records the settlement of a completed ride. A ride has at most one.
type Payment struct {
	ID        string
	RideID    string
	DriverID  string
	Amount    float64
	Status    PaymentStatus
	CreatedAt time.Time
	SettledAt *time.Time
}

// Settled reports whether the charge has reached a final status.
func (p *Payment) Settled() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}
