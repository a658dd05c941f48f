package domain

import "time"

// DriverStatus represents the online status of a driver.
type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "active"
	DriverStatusInactive DriverStatus = "inactive"
)

// DriverStats are the lifetime counters mutated by ride completion and
// cancellation.
type DriverStats struct {
	EarningsTotal float64 `json:"earningsTotal"`
	RidesTotal    int     `json:"ridesTotal"`
	DistanceTotal float64 `json:"distanceTotal"`
}

// StatsDelta is an increment applied atomically to DriverStats.
type StatsDelta struct {
	Earnings float64
	Rides    int
	Distance float64
}

// Apply returns s with d added.
func (s DriverStats) Apply(d StatsDelta) DriverStats {
	s.EarningsTotal += d.Earnings
	s.RidesTotal += d.Rides
	s.DistanceTotal += d.Distance
	return s
}

// Driver represents a driver in the system.
type Driver struct {
	ID        string
	Name      string
	Email     string
	Vehicle   Vehicle
	Status    DriverStatus
	SocketID  string
	Location  *Coordinates
	Stats     DriverStats
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the driver.
func (d *Driver) Clone() *Driver {
	c := *d
	if d.Location != nil {
		loc := *d.Location
		c.Location = &loc
	}
	return &c
}
