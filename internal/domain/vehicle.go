package domain

import "strings"

// VehicleClass is the service class a ride is requested for.
type VehicleClass string

const (
	VehicleClassAutorickshaw VehicleClass = "autorickshaw"
	VehicleClassCar          VehicleClass = "car"
	VehicleClassMotorcycle   VehicleClass = "motorcycle"
)

// VehicleClasses lists every supported class.
var VehicleClasses = []VehicleClass{
	VehicleClassAutorickshaw,
	VehicleClassCar,
	VehicleClassMotorcycle,
}

// ParseVehicleClass parses a case-insensitive class name. The legacy "auto"
// and "moto" aliases are accepted.
func ParseVehicleClass(s string) (VehicleClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "autorickshaw", "auto":
		return VehicleClassAutorickshaw, true
	case "car":
		return VehicleClassCar, true
	case "motorcycle", "moto":
		return VehicleClassMotorcycle, true
	}
	return "", false
}

// Vehicle describes a driver's registered vehicle.
type Vehicle struct {
	Color    string       `json:"color"`
	Plate    string       `json:"plate"`
	Capacity int          `json:"capacity"`
	Class    VehicleClass `json:"vehicleClass"`
}
