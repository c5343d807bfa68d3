package realtime

import (
	"sort"
	"time"
)

// Reducers are pure: they never mutate their input and are idempotent under
// re-delivery, because the hub delivers at-least-once. An update or delete
// for an id that never arrived is a no-op, not an error; the network may
// have dropped the earlier created event.

func appendMessage(list []Message, m Message) []Message {
	for _, cur := range list {
		if cur.ID == m.ID {
			return list
		}
	}
	out := make([]Message, len(list), len(list)+1)
	copy(out, list)
	return append(out, m)
}

func updateMessage(list []Message, m Message) []Message {
	for i, cur := range list {
		if cur.ID == m.ID {
			out := make([]Message, len(list))
			copy(out, list)
			out[i] = m
			return out
		}
	}
	return list
}

func deleteMessage(list []Message, id int64) []Message {
	for i, cur := range list {
		if cur.ID == id {
			out := make([]Message, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return list
}

// Notes keep a total order: creation time descending, newest first. The sort
// runs after every created/updated mutation, not just on insert.

func appendNote(list []Note, n Note) []Note {
	for _, cur := range list {
		if cur.ID == n.ID {
			return list
		}
	}
	out := make([]Note, len(list), len(list)+1)
	copy(out, list)
	out = append(out, n)
	sortNotes(out)
	return out
}

func updateNote(list []Note, n Note) []Note {
	for i, cur := range list {
		if cur.ID == n.ID {
			out := make([]Note, len(list))
			copy(out, list)
			out[i] = n
			sortNotes(out)
			return out
		}
	}
	return list
}

func deleteNote(list []Note, id string) []Note {
	for i, cur := range list {
		if cur.ID == id {
			out := make([]Note, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return list
}

func sortNotes(list []Note) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// applySnapshot replaces the whole progress record.
func applySnapshot(p VideoProgress) *VideoProgress {
	out := p
	return &out
}

// applyDelta patches playhead position and play state onto an existing
// snapshot. With no snapshot there is nothing to patch and the delta is
// dropped; duration and watched-range fields are never touched.
func applyDelta(cur *VideoProgress, d PositionDelta, now time.Time) *VideoProgress {
	if cur == nil {
		return nil
	}
	out := *cur
	out.CurrentTime = d.CurrentTime
	out.IsPlaying = d.IsPlaying
	out.UpdatedAt = now
	return &out
}
