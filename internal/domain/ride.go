package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusPending   RideStatus = "pending"
	RideStatusAccepted  RideStatus = "accepted"
	RideStatusOngoing   RideStatus = "ongoing"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible from s.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// HasDriver reports whether a ride in status s must reference a driver.
func (s RideStatus) HasDriver() bool {
	return s == RideStatusAccepted || s == RideStatusOngoing || s == RideStatusCompleted
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within latitude and longitude bounds.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Place is a human-readable location with optionally resolved coordinates.
type Place struct {
	Name   string       `json:"name"`
	Coords *Coordinates `json:"coords,omitempty"`
}

// Ride represents a ride request and its fulfilment.
type Ride struct {
	ID           string
	RiderID      string
	DriverID     string // empty unless accepted, ongoing or completed
	Pickup       Place
	Destination  Place
	VehicleClass VehicleClass
	Fare         float64
	OTP          string
	Status       RideStatus
	Distance     string // client-reported summary such as "2.8 km"
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy of the ride.
func (r *Ride) Clone() *Ride {
	c := *r
	c.Pickup = r.Pickup.clone()
	c.Destination = r.Destination.clone()
	return &c
}

func (p Place) clone() Place {
	if p.Coords != nil {
		coords := *p.Coords
		p.Coords = &coords
	}
	return p
}
