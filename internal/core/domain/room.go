package domain

import (
	"time"
)

type RoomID string

// Room is an examination session. After creation only Participants changes,
// and only by append.
type Room struct {
	RoomID       RoomID        `json:"roomId" bson:"_id" dynamodbav:"roomId"`
	RoomName     string        `json:"roomName" bson:"roomName" dynamodbav:"roomName"`
	Participants []Participant `json:"participants" bson:"participants" dynamodbav:"participants"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt" dynamodbav:"createdAt"`
}

type Participant struct {
	RollNo   string    `json:"rollNo" bson:"rollNo" dynamodbav:"rollNo"`
	JoinTime time.Time `json:"joinTime" bson:"joinTime" dynamodbav:"joinTime"`
}

// NewRoom builds a room with no participants.
func NewRoom(id RoomID, name string, createdAt time.Time) *Room {
	return &Room{
		RoomID:       id,
		RoomName:     name,
		Participants: []Participant{},
		CreatedAt:    createdAt,
	}
}

// Clone returns a deep copy so callers can't alias repository state.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Participants = make([]Participant, len(r.Participants))
	copy(cp.Participants, r.Participants)
	return &cp
}

// Placeholder used when a participant's registry data can't be resolved.
const NotAvailable = "N/A"

// EnrichedParticipant is a participant joined with degree registry and
// live photo data.
type EnrichedParticipant struct {
	RollNo      string    `json:"rollNo"`
	JoinTime    time.Time `json:"joinTime"`
	DegreeImage *string   `json:"degreeImage"`
	LiveImage   *string   `json:"liveImage"`
	Department  string    `json:"department"`
	Year        string    `json:"year"`
}

type RoomDetail struct {
	Room         *Room                 `json:"room"`
	Participants []EnrichedParticipant `json:"participants"`
}

// ActionUnpinExit tells a polling student client to tear down its room UI.
const ActionUnpinExit = "unpin_exit"

type RoomStatus struct {
	Alive   bool   `json:"success"`
	Action  string `json:"action,omitempty"`
	Message string `json:"message,omitempty"`
}
