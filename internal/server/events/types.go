// Package events carries server notifications to downstream consumers.
package events

import "time"

// EventType names a kind of notification. It doubles as the MQTT topic suffix.
type EventType string

const (
	EventPlayerJoin  EventType = "player_join"
	EventPlayerLeave EventType = "player_leave"
	EventPlayerChat  EventType = "player_chat"
)

// Event is one notification. Payload must be JSON-encodable.
type Event struct {
	Type    EventType `json:"type"`
	Source  string    `json:"source"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`
}

// PlayerPayload identifies a player in join and leave events.
type PlayerPayload struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type ChatPayload struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// New stamps an event with the current time.
func New(t EventType, source string, payload any) Event {
	return Event{Type: t, Source: source, Time: time.Now().UTC(), Payload: payload}
}
