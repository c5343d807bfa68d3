package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Client → server commands.
const (
	CmdJoinRoom   = "JoinRoom"
	CmdLeaveRoom  = "LeaveRoom"
	CmdSendTyping = "SendTyping"
)

// Server → client events. Names are part of the wire contract and must match
// the hub exactly.
const (
	EventReceiveMessage = "ReceiveMessage"
	EventMessageUpdated = "MessageUpdated"
	EventMessageDeleted = "MessageDeleted"
	EventTyping         = "Typing"

	EventNoteCreated = "StudentNoteCreated"
	EventNoteUpdated = "StudentNoteUpdated"
	EventNoteDeleted = "StudentNoteDeleted"

	EventProgressUpdated = "StudentVideoProgressUpdated"
	EventPositionChanged = "StudentVideoPositionChanged"
)

// Frame is the envelope for every message on the hub connection, in both
// directions. Target is a command or event name; Data is the payload.
type Frame struct {
	Target string          `json:"target"`
	Data   json.RawMessage `json:"data"`
}

// NewFrame marshals payload into a Frame for the given target.
func NewFrame(target string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s payload: %w", target, err)
	}
	return Frame{Target: target, Data: data}, nil
}

// NotesRoom derives the hub room for a student's notes on a lesson.
// The format is fixed by the server; do not change it.
func NotesRoom(studentID, lessonID int) string {
	return fmt.Sprintf("student-notes-%d-%d", studentID, lessonID)
}

// VideoRoom derives the hub room for a student's watch progress on a lesson.
func VideoRoom(studentID, lessonID int) string {
	return fmt.Sprintf("student-video-%d-%d", studentID, lessonID)
}

// JoinPayload is the body of JoinRoom and LeaveRoom commands.
type JoinPayload struct {
	Room string `json:"room"`
}

// TypingPayload is the body of SendTyping and of the Typing event.
type TypingPayload struct {
	RoomID string `json:"roomId"`
	UserID int    `json:"userId"`
}

// TypingEvent is delivered to chat consumers when another participant types.
// It is ephemeral: never stored, no delivery guarantee.
type TypingEvent = TypingPayload

// Message is a chat message as pushed by the hub.
type Message struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"roomId"`
	UserID    int       `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Note is a student note as pushed by the hub.
type Note struct {
	ID        string    `json:"id"`
	StudentID int       `json:"studentId"`
	LessonID  int       `json:"lessonId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// VideoProgress is the full watch-progress record for one student-lesson
// pair. StudentVideoProgressUpdated carries the whole record.
type VideoProgress struct {
	StudentID       int       `json:"studentId"`
	LessonID        int       `json:"lessonId"`
	TotalDuration   float64   `json:"totalDuration"`
	WatchedDuration float64   `json:"watchedDuration"`
	CurrentTime     float64   `json:"currentTime"`
	IsPlaying       bool      `json:"isPlaying"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PositionDelta is the partial patch carried by StudentVideoPositionChanged:
// playhead position and play state only.
type PositionDelta struct {
	StudentID   int     `json:"studentId"`
	LessonID    int     `json:"lessonId"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
}
