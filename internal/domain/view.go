package domain

import "time"

// DriverSummary is the part of a driver profile shown to the rider.
type DriverSummary struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Vehicle Vehicle `json:"vehicle"`
}

// RiderRideView is the rider-facing projection of a ride. It carries the OTP.
type RiderRideView struct {
	ID           string         `json:"id"`
	RiderID      string         `json:"riderId"`
	DriverID     string         `json:"driverId,omitempty"`
	Driver       *DriverSummary `json:"driver,omitempty"`
	Pickup       Place          `json:"pickup"`
	Destination  Place          `json:"destination"`
	VehicleClass VehicleClass   `json:"vehicleClass"`
	Fare         float64        `json:"fare"`
	OTP          string         `json:"otp"`
	Status       RideStatus     `json:"status"`
	Distance     string         `json:"distance,omitempty"`
	CancelReason string         `json:"cancelReason,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// DriverRideView is the driver-facing projection of a ride. It never carries
// the OTP, and it is also what gets broadcast to online drivers.
type DriverRideView struct {
	ID           string       `json:"id"`
	RiderID      string       `json:"riderId"`
	DriverID     string       `json:"driverId,omitempty"`
	Pickup       Place        `json:"pickup"`
	Destination  Place        `json:"destination"`
	VehicleClass VehicleClass `json:"vehicleClass"`
	Fare         float64      `json:"fare"`
	Status       RideStatus   `json:"status"`
	Distance     string       `json:"distance,omitempty"`
	CancelReason string       `json:"cancelReason,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// RiderView projects the ride for its rider. driver may be nil.
func (r *Ride) RiderView(driver *Driver) RiderRideView {
	r = r.Clone()
	v := RiderRideView{
		ID:           r.ID,
		RiderID:      r.RiderID,
		DriverID:     r.DriverID,
		Pickup:       r.Pickup,
		Destination:  r.Destination,
		VehicleClass: r.VehicleClass,
		Fare:         r.Fare,
		OTP:          r.OTP,
		Status:       r.Status,
		Distance:     r.Distance,
		CancelReason: r.CancelReason,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if driver != nil {
		v.Driver = &DriverSummary{ID: driver.ID, Name: driver.Name, Vehicle: driver.Vehicle}
	}
	return v
}

// DriverView projects the ride for drivers.
func (r *Ride) DriverView() DriverRideView {
	r = r.Clone()
	return DriverRideView{
		ID:           r.ID,
		RiderID:      r.RiderID,
		DriverID:     r.DriverID,
		Pickup:       r.Pickup,
		Destination:  r.Destination,
		VehicleClass: r.VehicleClass,
		Fare:         r.Fare,
		Status:       r.Status,
		Distance:     r.Distance,
		CancelReason: r.CancelReason,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
