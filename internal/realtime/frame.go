// Package realtime carries ride events to connected parties over websockets.
//
// A Registry maps parties to their live connection, a Dispatcher pushes
// encoded frames through it, and a Server owns the websocket connections.
package realtime

import "encoding/json"

// Client-to-server event names.
const (
	EventJoin                 = "join"
	EventUpdateDriverLocation = "update-location-driver"
	EventUpdateLocation       = "update-location"
)

// Frame is the wire envelope used in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame marshals payload into a frame for event.
func EncodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// JoinMessage binds a connection to a party.
type JoinMessage struct {
	PartyID   string `json:"partyId"`
	PartyType string `json:"partyType"`
}

// DriverLocationMessage reports a driver's current position.
type DriverLocationMessage struct {
	PartyID  string        `json:"partyId"`
	Location *LocationData `json:"location"`
}

// LocationRelayMessage is a position update relayed to other connections.
type LocationRelayMessage struct {
	RideID    string        `json:"rideId"`
	PartyType string        `json:"partyType"`
	Location  *LocationData `json:"location"`
}

// LocationData uses pointers so a missing coordinate is distinguishable
// from zero.
type LocationData struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// ErrorMessage is the payload of the error event.
type ErrorMessage struct {
	Message string `json:"message"`
}
