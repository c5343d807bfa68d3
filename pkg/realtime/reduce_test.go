package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id int64) Message {
	return Message{ID: id, RoomID: "r1", Content: "m"}
}

func note(id string, createdAt time.Time) Note {
	return Note{ID: id, StudentID: 1, LessonID: 10, Content: "n", CreatedAt: createdAt}
}

func TestAppendMessageDedupes(t *testing.T) {
	var list []Message
	list = appendMessage(list, msg(1))
	list = appendMessage(list, msg(2))
	list = appendMessage(list, msg(1)) // redelivery
	list = appendMessage(list, msg(2)) // redelivery

	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(2), list[1].ID)
}

func TestUpdateMessageAbsentIsNoop(t *testing.T) {
	list := appendMessage(nil, msg(1))
	got := updateMessage(list, msg(99))
	assert.Equal(t, list, got)
}

func TestUpdateMessageReplacesInPlace(t *testing.T) {
	list := appendMessage(nil, msg(1))
	list = appendMessage(list, msg(2))

	updated := msg(1)
	updated.Content = "edited"
	got := updateMessage(list, updated)

	require.Len(t, got, 2)
	assert.Equal(t, "edited", got[0].Content)
	assert.Equal(t, "m", got[1].Content)
}

func TestDeleteMessageAbsentIsNoop(t *testing.T) {
	list := appendMessage(nil, msg(1))
	got := deleteMessage(list, 99)
	assert.Equal(t, list, got)

	// duplicate delete of an already-removed id
	got = deleteMessage(deleteMessage(list, 1), 1)
	assert.Empty(t, got)
}

func TestReducersDoNotMutateInput(t *testing.T) {
	list := appendMessage(nil, msg(1))
	list = appendMessage(list, msg(2))
	snapshot := append([]Message(nil), list...)

	updated := msg(1)
	updated.Content = "edited"
	_ = updateMessage(list, updated)
	_ = deleteMessage(list, 2)
	_ = appendMessage(list, msg(3))

	assert.Equal(t, snapshot, list)
}

func TestNotesSortedByCreationDescending(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t1.Add(2 * time.Minute)

	var list []Note
	list = appendNote(list, note("a", t1))
	list = appendNote(list, note("c", t3))
	list = appendNote(list, note("b", t2))

	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})

	// An update that moves a note's creation time re-sorts the whole list.
	moved := note("a", t3.Add(time.Minute))
	list = updateNote(list, moved)
	assert.Equal(t, "a", list[0].ID)
}

func TestNoteScenarioCreateCreateDelete(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)

	var list []Note
	list = appendNote(list, note("a", t1))
	list = appendNote(list, note("b", t2))

	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)

	list = deleteNote(list, "a")
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
}

func TestNoteDuplicateCreateIsNoop(t *testing.T) {
	t1 := time.Now()
	list := appendNote(nil, note("a", t1))
	list = appendNote(list, note("a", t1))
	assert.Len(t, list, 1)
}

func TestDeltaBeforeSnapshotIsDropped(t *testing.T) {
	got := applyDelta(nil, PositionDelta{StudentID: 1, LessonID: 5, CurrentTime: 130}, time.Now())
	assert.Nil(t, got)
}

func TestDeltaPatchesPlayheadOnly(t *testing.T) {
	snap := applySnapshot(VideoProgress{
		StudentID:       1,
		LessonID:        5,
		TotalDuration:   600,
		WatchedDuration: 120,
		CurrentTime:     120,
	})

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	got := applyDelta(snap, PositionDelta{StudentID: 1, LessonID: 5, CurrentTime: 130, IsPlaying: true}, now)

	require.NotNil(t, got)
	assert.Equal(t, 130.0, got.CurrentTime)
	assert.True(t, got.IsPlaying)
	assert.Equal(t, 600.0, got.TotalDuration)
	assert.Equal(t, 120.0, got.WatchedDuration)
	assert.Equal(t, now, got.UpdatedAt)

	// input snapshot untouched
	assert.Equal(t, 120.0, snap.CurrentTime)
	assert.False(t, snap.IsPlaying)
}
