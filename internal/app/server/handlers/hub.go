package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"edulive/internal/app/server/ws"
	"edulive/internal/core/services"
	"edulive/pkg/middleware"
	"edulive/pkg/realtime"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HubHandler owns the /hub WebSocket endpoint: upgrade, optional
// authentication, then a read loop dispatching room commands. A missing
// token is tolerated (the connection runs as user 0); a present but invalid
// token is rejected.
type HubHandler struct {
	rooms  *services.RoomService
	tokens *services.TokenService
}

func NewHubHandler(rooms *services.RoomService, tokens *services.TokenService) *HubHandler {
	return &HubHandler{rooms: rooms, tokens: tokens}
}

func (h *HubHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log, ok := r.Context().Value(middleware.LoggerKey).(*slog.Logger)
	if !ok {
		log = slog.Default()
	}
	span := trace.SpanFromContext(r.Context())

	userID := 0
	if token := bearerToken(r); token != "" {
		uid, err := h.tokens.ValidateToken(token)
		if err != nil {
			log.WarnContext(r.Context(), "hub handler - auth - invalid token", "err", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		userID = uid
	}
	span.SetAttributes(attribute.Int("user.id", userID))

	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "hub handler - upgrade - ws upgrade failed", "err", err)
		cancel()
		return
	}
	conn.SetCloseHandler(func(code int, text string) error {
		log.Info("hub handler - ws closed", "user_id", userID)
		cancel()
		return nil
	})

	socket := ws.NewWebSocket(ctx, conn, log)
	client := ws.NewClient(ctx, socket, uuid.NewString(), userID)
	defer client.Close()
	defer h.rooms.HandleDisconnect(sessionCtx, client)
	log.InfoContext(r.Context(), "hub handler - ws connection established", "client_id", client.ID(), "user_id", userID)

	socket.ReadLoop(func(data []byte) {
		var f realtime.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.WarnContext(ctx, "hub handler - read - malformed frame", "client_id", client.ID(), "err", err)
			return
		}
		h.rooms.HandleCommand(ctx, client, f)
	})
}

// bearerToken pulls the token from the access_token query parameter or the
// Authorization header. Browser WebSocket clients cannot set headers, so
// the query parameter is the primary path.
func bearerToken(r *http.Request) string {
	if tok := r.URL.Query().Get("access_token"); tok != "" {
		return tok
	}
	auth := r.Header.Get("Authorization")
	if parts := strings.Split(auth, " "); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
