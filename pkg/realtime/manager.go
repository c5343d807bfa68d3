package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Handler consumes the payload of one event kind. Handlers run on the
// manager's pump goroutine, in delivery order.
type Handler func(data json.RawMessage)

// Manager owns the lifecycle of one logical room subscription:
// dial → join → subscribed → leave → close. Every exit path tears the
// connection down, and no failure escapes to the caller; the session
// degrades to StatusDisconnected instead.
//
// A Manager may be re-activated with a new room at any time, including while
// a previous activation is still connecting. Each activation bumps an epoch
// counter; anything still running under an older epoch is ignored when it
// eventually resolves (the transport has no cancellation primitive for an
// in-flight join, so staleness is detected, not aborted).
type Manager struct {
	tr  *Transport
	log *slog.Logger

	mu       sync.Mutex
	epoch    uint64
	conn     *Conn
	room     string
	joined   bool
	status   ConnectivityStatus
	statusFn func(ConnectivityStatus)
}

func NewManager(tr *Transport, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{tr: tr, log: log}
}

// Status reports current connectivity. connected means the room is joined
// and events are flowing.
func (m *Manager) Status() ConnectivityStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// OnStatus registers a callback invoked on every status transition. Must be
// set before Activate.
func (m *Manager) OnStatus(fn func(ConnectivityStatus)) {
	m.mu.Lock()
	m.statusFn = fn
	m.mu.Unlock()
}

func (m *Manager) setStatusLocked(s ConnectivityStatus) {
	if m.status == s {
		return
	}
	m.status = s
	if m.statusFn != nil {
		go m.statusFn(s)
	}
}

// Activate subscribes to room. Any previous subscription is torn down first.
// The connect and join run asynchronously; failures are logged and surface
// only through Status. reset is called before the first event of the new
// subscription and again after a re-join that follows a transport reconnect,
// so feature state is never carried across rooms or gaps.
func (m *Manager) Activate(ctx context.Context, room string, handlers map[string]Handler, reset func()) {
	m.mu.Lock()
	m.epoch++
	e := m.epoch
	prev, prevRoom, prevJoined := m.conn, m.room, m.joined
	m.conn, m.room, m.joined = nil, room, false
	m.setStatusLocked(StatusConnecting)
	m.mu.Unlock()

	if reset != nil {
		reset()
	}
	if prev != nil {
		go m.teardown(prev, prevRoom, prevJoined)
	}
	go m.connect(ctx, e, room, handlers, reset)
}

// Deactivate leaves the current room, if one was actually joined, and closes
// the connection. Guaranteed safe on every state, including mid-connect;
// teardown failures are logged, never returned.
func (m *Manager) Deactivate() {
	m.mu.Lock()
	m.epoch++
	conn, room, joined := m.conn, m.room, m.joined
	m.conn, m.joined = nil, false
	m.setStatusLocked(StatusDisconnected)
	m.mu.Unlock()

	m.teardown(conn, room, joined)
}

// Signal is a best-effort invoke for ephemeral payloads (typing). It
// silently no-ops unless the room is joined; there is no ack and no retry.
func (m *Manager) Signal(target string, payload any) {
	m.mu.Lock()
	conn, joined := m.conn, m.joined
	m.mu.Unlock()
	if conn == nil || !joined {
		return
	}
	if err := conn.Invoke(target, payload); err != nil {
		m.log.Debug("manager - signal - dropped", "target", target, "err", err)
	}
}

func (m *Manager) connect(ctx context.Context, e uint64, room string, handlers map[string]Handler, reset func()) {
	conn, err := m.tr.Dial(ctx)
	if err != nil {
		m.log.Warn("manager - connect - dial failed", "room", room, "err", err)
		m.fail(e)
		return
	}

	m.mu.Lock()
	if m.epoch != e {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	m.mu.Unlock()

	if err := conn.Invoke(CmdJoinRoom, JoinPayload{Room: room}); err != nil {
		m.log.Warn("manager - connect - join failed", "room", room, "err", err)
		conn.Close()
		m.fail(e)
		return
	}

	m.mu.Lock()
	if m.epoch != e {
		m.mu.Unlock()
		m.teardown(conn, room, true)
		return
	}
	m.joined = true
	m.setStatusLocked(StatusConnected)
	m.mu.Unlock()
	m.log.Info("manager - connect - subscribed", "room", room)

	go m.pump(e, conn, room, handlers, reset)
}

// pump dispatches inbound frames to handlers and re-joins after transport
// reconnects. It exits when the connection dies or the epoch moves on.
func (m *Manager) pump(e uint64, conn *Conn, room string, handlers map[string]Handler, reset func()) {
	for {
		select {
		case f, ok := <-conn.Frames():
			if !ok {
				m.fail(e)
				return
			}
			if m.stale(e) {
				return
			}
			if h, known := handlers[f.Target]; known {
				h(f.Data)
			}
		case <-conn.Reconnected():
			if m.stale(e) {
				return
			}
			// The new socket holds no subscriptions; re-join and drop any
			// state accumulated before the gap.
			if reset != nil {
				reset()
			}
			if err := conn.Invoke(CmdJoinRoom, JoinPayload{Room: room}); err != nil {
				m.log.Warn("manager - pump - re-join failed", "room", room, "err", err)
				conn.Close()
				m.fail(e)
				return
			}
			m.log.Info("manager - pump - re-joined after reconnect", "room", room)
		}
	}
}

func (m *Manager) stale(e uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch != e
}

// fail flips the status to disconnected, unless a newer activation already
// owns the manager.
func (m *Manager) fail(e uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != e {
		return
	}
	m.conn = nil
	m.joined = false
	m.setStatusLocked(StatusDisconnected)
}

func (m *Manager) teardown(conn *Conn, room string, joined bool) {
	if conn == nil {
		return
	}
	if joined {
		// Leave is skipped when the join never landed; it would only fail.
		if err := conn.Invoke(CmdLeaveRoom, JoinPayload{Room: room}); err != nil {
			m.log.Warn("manager - teardown - leave failed", "room", room, "err", err)
		}
	}
	conn.Close()
}
