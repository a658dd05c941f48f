package domain

import "time"

// Rider represents a rider in the system.
type Rider struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	SocketID  string
	CreatedAt time.Time
}
