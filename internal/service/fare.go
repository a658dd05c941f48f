package service

import (
	"math"

	"ridehail/internal/domain"
)

type fareRate struct {
	base      float64
	perKm     float64
	perMinute float64
}

var fareRates = map[domain.VehicleClass]fareRate{
	domain.VehicleClassAutorickshaw: {base: 30, perKm: 12, perMinute: 1.0},
	domain.VehicleClassCar:          {base: 50, perKm: 18, perMinute: 2.0},
	domain.VehicleClassMotorcycle:   {base: 20, perKm: 8, perMinute: 0.5},
}

// EstimateFare prices a trip of distanceKm and durationMin for class,
// rounded to the nearest whole unit.
func EstimateFare(class domain.VehicleClass, distanceKm, durationMin float64) (float64, error) {
	rate, ok := fareRates[class]
	if !ok {
		return 0, ErrInvalidVehicleClass
	}
	return math.Round(rate.base + rate.perKm*distanceKm + rate.perMinute*durationMin), nil
}

// EstimateFares prices the trip for every vehicle class.
func EstimateFares(distanceKm, durationMin float64) map[domain.VehicleClass]float64 {
	fares := make(map[domain.VehicleClass]float64, len(fareRates))
	for _, class := range domain.VehicleClasses {
		fare, _ := EstimateFare(class, distanceKm, durationMin)
		fares[class] = fare
	}
	return fares
}
