package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomClone_DoesNotAlias(t *testing.T) {
	r := NewRoom("A3F9K", "Midterm", time.Now())
	r.Participants = append(r.Participants, Participant{RollNo: "247525"})

	cp := r.Clone()
	cp.Participants[0].RollNo = "changed"
	cp.Participants = append(cp.Participants, Participant{RollNo: "x"})

	assert.Equal(t, "247525", r.Participants[0].RollNo)
	assert.Len(t, r.Participants, 1)
}

func TestNewRoom_EmptyParticipantsSerializeAsArray(t *testing.T) {
	r := NewRoom("A3F9K", "Midterm", time.Unix(0, 0).UTC())
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"participants":[]`)
}

func TestStudentPhoto_LiveImage(t *testing.T) {
	assert.Equal(t, "img", (&StudentPhoto{Image: "img", PhotoURL: "url"}).LiveImage())
	assert.Equal(t, "url", (&StudentPhoto{PhotoURL: "url"}).LiveImage())
	assert.Empty(t, (&StudentPhoto{}).LiveImage())
}

func TestNewEvent_WireShape(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ev, err := NewEvent(EventRoomDeleted, RoomDeletedPayload{RoomID: "A3F9K"}, at)
	require.NoError(t, err)

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"roomDeleted","data":{"roomId":"A3F9K"},"occurredAt":"2024-05-01T10:00:00Z"}`, string(b))
}

func TestRoomCreatedMessage(t *testing.T) {
	assert.Equal(t, `New classroom "Midterm" has been created`, RoomCreatedMessage("Midterm"))
}
