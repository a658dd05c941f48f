package domain

// Route is a driving distance and duration between two points.
type Route struct {
	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`
}
