package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Room key formats are part of the server contract and must not drift.
func TestRoomKeyFormats(t *testing.T) {
	assert.Equal(t, "student-notes-7-42", NotesRoom(7, 42))
	assert.Equal(t, "student-video-7-42", VideoRoom(7, 42))
	assert.Equal(t, "student-notes-1-10", NotesRoom(1, 10))
}

func TestRoomKeyDeterministic(t *testing.T) {
	assert.Equal(t, NotesRoom(3, 9), NotesRoom(3, 9))
	assert.NotEqual(t, NotesRoom(3, 9), VideoRoom(3, 9))
}

func TestFrameRoundTrip(t *testing.T) {
	f, err := NewFrame(CmdJoinRoom, JoinPayload{Room: "student-video-1-5"})
	require.NoError(t, err)

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var got Frame
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, CmdJoinRoom, got.Target)

	var p JoinPayload
	require.NoError(t, json.Unmarshal(got.Data, &p))
	assert.Equal(t, "student-video-1-5", p.Room)
}

func TestDeletedEventsCarryBareIDs(t *testing.T) {
	f, err := NewFrame(EventMessageDeleted, int64(17))
	require.NoError(t, err)
	var id int64
	require.NoError(t, json.Unmarshal(f.Data, &id))
	assert.Equal(t, int64(17), id)

	f, err = NewFrame(EventNoteDeleted, "abc-123")
	require.NoError(t, err)
	var sid string
	require.NoError(t, json.Unmarshal(f.Data, &sid))
	assert.Equal(t, "abc-123", sid)
}
