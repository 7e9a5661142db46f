package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventRoomCreated       EventType = "roomCreated"
	EventParticipantJoined EventType = "participantJoined"
	EventRoomDeleted       EventType = "roomDeleted"
)

// Event is a room lifecycle notification as sent to dashboard observers.
type Event struct {
	Type       EventType       `json:"event"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type RoomCreatedPayload struct {
	Room    *Room  `json:"room"`
	Message string `json:"message"`
}

type ParticipantJoinedPayload struct {
	RoomID      RoomID      `json:"roomId"`
	Participant Participant `json:"participant"`
}

type RoomDeletedPayload struct {
	RoomID RoomID `json:"roomId"`
}

// NewEvent marshals payload into an event of the given type.
func NewEvent(t EventType, payload any, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{Type: t, Data: data, OccurredAt: at}, nil
}

// RoomCreatedMessage is the human readable text attached to roomCreated.
func RoomCreatedMessage(name string) string {
	return fmt.Sprintf("New classroom \"%s\" has been created", name)
}
