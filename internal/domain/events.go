package domain

// Real-time event names.
const (
	EventNewRide        = "new-ride"
	EventRideAccepted   = "ride-accepted"
	EventRideStarted    = "ride-started"
	EventRideEnded      = "ride-ended"
	EventRideCancelled  = "ride-cancelled"
	EventLocationUpdate = "location-update"
	EventError          = "error"
)

// RideEvent is the payload of every ride lifecycle event. Ride holds a
// RiderRideView or a DriverRideView depending on the recipient.
type RideEvent struct {
	Ride    any    `json:"ride"`
	Message string `json:"message,omitempty"`
}
