package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub endpoint per environment. The path is negotiated with the server and
// identical in both; only the base differs.
const (
	HubEndpointDev  = "ws://localhost:8080/hub"
	HubEndpointProd = "wss://hub.edulive.io/hub"
)

const (
	writeTimeout  = 10 * time.Second
	dialTimeout   = 10 * time.Second
	pingInterval  = 15 * time.Second
	maxFrameSize  = 512 * 1024 // 512KB max inbound frame
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// ErrConnClosed is returned by writes on a closed connection.
var ErrConnClosed = errors.New("hub connection closed")

// TokenProvider supplies the bearer token for a connection attempt. It is
// invoked once per attempt, including reconnects, so a refreshed token is
// picked up automatically. Returning "" makes the attempt unauthenticated;
// the hub tolerates that.
type TokenProvider func() string

// Transport builds hub connections. One Transport can be shared by any
// number of sessions; each Dial produces an independent connection.
type Transport struct {
	endpoint string
	token    TokenProvider
	log      *slog.Logger
}

func NewTransport(endpoint string, token TokenProvider, log *slog.Logger) *Transport {
	if token == nil {
		token = func() string { return "" }
	}
	if log == nil {
		log = slog.Default()
	}
	return &Transport{endpoint: endpoint, token: token, log: log}
}

func (t *Transport) dialURL() (string, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return "", err
	}
	if tok := t.token(); tok != "" {
		q := u.Query()
		q.Set("access_token", tok)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (t *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	addr, err := t.dialURL()
	if err != nil {
		return nil, err
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// Dial opens a connection to the hub. The returned Conn reconnects on its
// own after transport loss; callers that hold room subscriptions must watch
// Reconnected and re-join, the transport does not replay commands.
func (t *Transport) Dial(ctx context.Context) (*Conn, error) {
	ws, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		tr:          t,
		log:         t.log,
		ws:          ws,
		frames:      make(chan Frame, 64),
		reconnected: make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

// Conn is one duplex hub connection. Inbound frames are delivered on
// Frames in transport order (FIFO per stream); the channel closes when the
// connection is closed for good.
type Conn struct {
	tr  *Transport
	log *slog.Logger

	mu sync.Mutex // guards ws for writes and reconnect swaps
	ws *websocket.Conn

	frames      chan Frame
	reconnected chan struct{}
	done        chan struct{}
	once        sync.Once
}

// Frames returns the inbound frame stream.
func (c *Conn) Frames() <-chan Frame { return c.frames }

// Reconnected signals that the underlying socket was replaced after a
// transport loss. Joined rooms are gone on the new socket.
func (c *Conn) Reconnected() <-chan struct{} { return c.reconnected }

// Invoke sends a command frame to the hub.
func (c *Conn) Invoke(target string, payload any) error {
	f, err := NewFrame(target, payload)
	if err != nil {
		return err
	}
	return c.write(f)
}

func (c *Conn) write(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed() {
		return ErrConnClosed
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		_ = c.ws.Close()
		c.mu.Unlock()
	})
}

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Conn) readLoop() {
	defer close(c.frames)
	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()
		ws.SetReadLimit(maxFrameSize)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if c.closed() {
					return
				}
				c.log.Warn("transport - read - connection lost", "err", err)
				break
			}
			var f Frame
			if err := json.Unmarshal(data, &f); err != nil {
				c.log.Warn("transport - read - malformed frame", "err", err)
				continue
			}
			select {
			case c.frames <- f:
			case <-c.done:
				return
			}
		}
		if !c.redial() {
			return
		}
	}
}

// redial retries with doubling backoff until it succeeds or the connection
// is closed. Returns false only on close.
func (c *Conn) redial() bool {
	delay := reconnectBase
	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		ws, err := c.tr.dial(ctx)
		cancel()
		if err == nil {
			c.mu.Lock()
			if c.closed() {
				c.mu.Unlock()
				_ = ws.Close()
				return false
			}
			old := c.ws
			c.ws = ws
			c.mu.Unlock()
			_ = old.Close()
			select {
			case c.reconnected <- struct{}{}:
			default:
			}
			c.log.Info("transport - redial - reconnected", "endpoint", c.tr.endpoint)
			return true
		}
		c.log.Warn("transport - redial - attempt failed", "err", err, "retry_in", delay)
		if delay *= 2; delay > reconnectMax {
			delay = reconnectMax
		}
	}
}

// pingLoop keeps the connection alive through idle-timeout middleboxes.
func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.closed() {
				_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
				_ = c.ws.WriteMessage(websocket.PingMessage, nil)
			}
			c.mu.Unlock()
		}
	}
}
