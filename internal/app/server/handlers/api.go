package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"edulive/internal/core/domain"
	"edulive/internal/core/services"
	"edulive/pkg/middleware"
)

// APIHandler exposes the REST write path that originates hub events: the
// e-learning backend (or a trusted service) calls these, the services
// persist and broadcast.
type APIHandler struct {
	messages *services.MessageService
	notes    *services.NoteService
	progress *services.ProgressService
	rooms    *services.RoomService
}

func NewAPIHandler(
	messages *services.MessageService,
	notes *services.NoteService,
	progress *services.ProgressService,
	rooms *services.RoomService,
) *APIHandler {
	return &APIHandler{messages: messages, notes: notes, progress: progress, rooms: rooms}
}

func reqLogger(r *http.Request) *slog.Logger {
	if log, ok := r.Context().Value(middleware.LoggerKey).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMessageNotFound),
		errors.Is(err, domain.ErrNoteNotFound),
		errors.Is(err, domain.ErrProgressNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidRoomID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// --- Chat messages ---

func (h *APIHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	log := reqLogger(r)
	room := r.PathValue("room")
	userID, _ := r.Context().Value(middleware.UserIDKey).(int)
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		log.ErrorContext(r.Context(), "api handler - create message - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	msg, err := h.messages.Create(r.Context(), room, userID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *APIHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.History(r.Context(), r.PathValue("room"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *APIHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	log := reqLogger(r)
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		log.ErrorContext(r.Context(), "api handler - update message - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	msg, err := h.messages.Update(r.Context(), id, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *APIHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	if err := h.messages.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Student notes ---

func (h *APIHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	log := reqLogger(r)
	var req struct {
		StudentID int    `json:"studentId"`
		LessonID  int    `json:"lessonId"`
		Content   string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentID == 0 || req.LessonID == 0 {
		log.ErrorContext(r.Context(), "api handler - create note - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	note, err := h.notes.Create(r.Context(), req.StudentID, req.LessonID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *APIHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	log := reqLogger(r)
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.ErrorContext(r.Context(), "api handler - update note - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	note, err := h.notes.Update(r.Context(), r.PathValue("id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *APIHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	studentID, err1 := strconv.Atoi(r.PathValue("studentId"))
	lessonID, err2 := strconv.Atoi(r.PathValue("lessonId"))
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid ids", http.StatusBadRequest)
		return
	}
	notes, err := h.notes.List(r.Context(), studentID, lessonID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// --- Video progress ---

func (h *APIHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	log := reqLogger(r)
	var req struct {
		StudentID       int     `json:"studentId"`
		LessonID        int     `json:"lessonId"`
		TotalDuration   float64 `json:"totalDuration"`
		WatchedDuration float64 `json:"watchedDuration"`
		CurrentTime     float64 `json:"currentTime"`
		IsPlaying       bool    `json:"isPlaying"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentID == 0 || req.LessonID == 0 {
		log.ErrorContext(r.Context(), "api handler - save progress - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	p := &domain.VideoProgress{
		StudentID:       req.StudentID,
		LessonID:        req.LessonID,
		TotalDuration:   req.TotalDuration,
		WatchedDuration: req.WatchedDuration,
		CurrentTime:     req.CurrentTime,
		IsPlaying:       req.IsPlaying,
	}
	if err := h.progress.SaveSnapshot(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *APIHandler) RecordPosition(w http.ResponseWriter, r *http.Request) {
	log := reqLogger(r)
	var req struct {
		StudentID   int     `json:"studentId"`
		LessonID    int     `json:"lessonId"`
		CurrentTime float64 `json:"currentTime"`
		IsPlaying   bool    `json:"isPlaying"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentID == 0 || req.LessonID == 0 {
		log.ErrorContext(r.Context(), "api handler - record position - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	d := &domain.PositionDelta{
		StudentID:   req.StudentID,
		LessonID:    req.LessonID,
		CurrentTime: req.CurrentTime,
		IsPlaying:   req.IsPlaying,
	}
	if err := h.progress.RecordPosition(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *APIHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	studentID, err1 := strconv.Atoi(r.PathValue("studentId"))
	lessonID, err2 := strconv.Atoi(r.PathValue("lessonId"))
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid ids", http.StatusBadRequest)
		return
	}
	p, err := h.progress.Get(r.Context(), studentID, lessonID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- Presence ---

func (h *APIHandler) RoomPresence(w http.ResponseWriter, r *http.Request) {
	users, err := h.rooms.OnlineUsers(r.Context(), r.PathValue("room"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"online_user_ids": users})
}
