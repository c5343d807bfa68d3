package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubHub is a minimal in-process hub: it records JoinRoom/LeaveRoom/
// SendTyping commands and lets tests push event frames to connections by
// room.
type stubHub struct {
	t   *testing.T
	srv *httptest.Server

	mu     sync.Mutex
	gate   chan struct{} // when non-nil, upgrades block until it closes
	conns  []*stubConn
	joins  []string
	leaves []string
	typing []TypingPayload
}

type stubConn struct {
	mu    sync.Mutex
	ws    *websocket.Conn
	rooms map[string]bool
}

func newStubHub(t *testing.T) *stubHub {
	h := &stubHub{t: t}
	h.srv = httptest.NewServer(http.HandlerFunc(h.handler))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *stubHub) url() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http")
}

func (h *stubHub) holdUpgrades() chan struct{} {
	gate := make(chan struct{})
	h.mu.Lock()
	h.gate = gate
	h.mu.Unlock()
	return gate
}

func (h *stubHub) handler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	gate := h.gate
	h.mu.Unlock()
	if gate != nil {
		<-gate
	}

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn := &stubConn{ws: ws, rooms: make(map[string]bool)}
	h.mu.Lock()
	h.conns = append(h.conns, conn)
	h.mu.Unlock()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		switch f.Target {
		case CmdJoinRoom:
			var p JoinPayload
			_ = json.Unmarshal(f.Data, &p)
			h.mu.Lock()
			conn.mu.Lock()
			conn.rooms[p.Room] = true
			conn.mu.Unlock()
			h.joins = append(h.joins, p.Room)
			h.mu.Unlock()
		case CmdLeaveRoom:
			var p JoinPayload
			_ = json.Unmarshal(f.Data, &p)
			h.mu.Lock()
			conn.mu.Lock()
			delete(conn.rooms, p.Room)
			conn.mu.Unlock()
			h.leaves = append(h.leaves, p.Room)
			h.mu.Unlock()
		case CmdSendTyping:
			var p TypingPayload
			_ = json.Unmarshal(f.Data, &p)
			h.mu.Lock()
			h.typing = append(h.typing, p)
			h.mu.Unlock()
		}
	}
}

// push delivers an event frame to every connection joined to room.
func (h *stubHub) push(room, target string, payload any) {
	h.sendWhere(target, payload, func(c *stubConn) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.rooms[room]
	})
}

// pushAll delivers an event frame to every live connection regardless of
// room, simulating cross-room delivery noise.
func (h *stubHub) pushAll(target string, payload any) {
	h.sendWhere(target, payload, func(*stubConn) bool { return true })
}

func (h *stubHub) sendWhere(target string, payload any, match func(*stubConn) bool) {
	f, err := NewFrame(target, payload)
	if err != nil {
		h.t.Fatalf("build frame: %v", err)
	}
	data, _ := json.Marshal(f)
	h.mu.Lock()
	conns := append([]*stubConn(nil), h.conns...)
	h.mu.Unlock()
	for _, c := range conns {
		if !match(c) {
			continue
		}
		c.mu.Lock()
		_ = c.ws.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
	}
}

// killConns drops every live connection server-side to force client
// reconnects.
func (h *stubHub) killConns() {
	h.mu.Lock()
	conns := h.conns
	h.conns = nil
	h.mu.Unlock()
	for _, c := range conns {
		c.mu.Lock()
		_ = c.ws.Close()
		c.mu.Unlock()
	}
}

func (h *stubHub) joinCount(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.joins {
		if r == room {
			n++
		}
	}
	return n
}

func (h *stubHub) leaveCount(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.leaves {
		if r == room {
			n++
		}
	}
	return n
}

func (h *stubHub) allJoins() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.joins...)
}

func (h *stubHub) typingSignals() []TypingPayload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]TypingPayload(nil), h.typing...)
}
