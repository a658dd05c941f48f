package domain

import "strings"

// PartyType distinguishes riders from drivers.
type PartyType string

const (
	PartyRider  PartyType = "rider"
	PartyDriver PartyType = "driver"
)

// ParsePartyType accepts "rider" and "driver" along with the older "user" and
// "captain" names still sent by some clients.
func ParsePartyType(s string) (PartyType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rider", "user":
		return PartyRider, true
	case "driver", "captain":
		return PartyDriver, true
	}
	return "", false
}

// Party identifies an authenticated actor.
type Party struct {
	ID   string
	Type PartyType
}
