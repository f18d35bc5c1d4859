package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"notia-client/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMessageSize   = 1 << 20 // note content blocks can be large HTML
	handshakeTimeout = 10 * time.Second
)

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

// DialFunc opens the underlying websocket. Tests substitute their own.
type DialFunc func(ctx context.Context, url string) (*websocket.Conn, error)

func defaultDial(ctx context.Context, url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	return ws, err
}

// Conn owns the single persistent socket connection of a client session.
// It is constructed explicitly and injected into subsystems; nothing in
// this package holds it as shared module state.
//
// Room membership is modeled as a desired set reconciled against the live
// connection: joins requested before the dial completes are flushed exactly
// once when the connect event fires.
type Conn struct {
	url      string
	logger   logger.ILogger
	dial     DialFunc
	registry *Registry

	// Lifecycle observers, diagnostics only. They must not mutate
	// application state. Set before Connect.
	OnConnect    func()
	OnDisconnect func()
	OnError      func(err error)

	mu           sync.Mutex
	ws           *websocket.Conn
	state        connState
	closed       bool
	desiredRooms map[string]struct{}
	send         chan []byte
	sessionId    uuid.UUID
}

func NewConn(url string, log logger.ILogger) *Conn {
	return NewConnWithDialer(url, log, defaultDial)
}

func NewConnWithDialer(url string, log logger.ILogger, dial DialFunc) *Conn {
	return &Conn{
		url:          url,
		logger:       log,
		dial:         dial,
		registry:     newRegistry(),
		desiredRooms: make(map[string]struct{}),
		sessionId:    uuid.New(),
	}
}

// On subscribes handler to a server event. See Registry.On.
func (c *Conn) On(event string, handler Handler) func() {
	return c.registry.On(event, handler)
}

// Connect is idempotent: when a connection exists or a dial is in flight it
// returns immediately. Dial failures are observed and logged, never
// returned; reconnection policy beyond that is left to callers.
func (c *Conn) Connect() {
	c.mu.Lock()
	if c.closed || c.state != stateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = stateConnecting
	c.mu.Unlock()

	go c.run()
}

func (c *Conn) run() {
	ws, err := c.dial(context.Background(), c.url)
	if err != nil {
		c.logger.Error("Socket", "Connection failed", map[string]interface{}{
			"url": c.url, "session": c.sessionId.String(), "error": err.Error(),
		})
		c.mu.Lock()
		c.state = stateDisconnected
		c.mu.Unlock()
		if c.OnError != nil {
			c.OnError(err)
		}
		return
	}

	c.mu.Lock()
	if c.closed {
		// Disconnect won the race with the dial: drop the socket instead
		// of establishing a connection nothing will ever tear down.
		c.state = stateDisconnected
		c.mu.Unlock()
		ws.Close()
		return
	}
	c.ws = ws
	c.state = stateConnected
	c.send = make(chan []byte, 256)
	rooms := make([]string, 0, len(c.desiredRooms))
	for room := range c.desiredRooms {
		rooms = append(rooms, room)
	}
	send := c.send
	c.mu.Unlock()

	c.logger.Info("Socket", "Connected", map[string]interface{}{
		"url": c.url, "session": c.sessionId.String(),
	})
	if c.OnConnect != nil {
		c.OnConnect()
	}

	go c.writePump(ws, send)

	// Reconcile the desired room set: exactly one join per room requested
	// while the dial was pending. Joins arriving from here on see
	// stateConnected and emit themselves.
	for _, room := range rooms {
		c.emit(EventJoinNotebook, room)
	}

	c.readPump(ws)
}

func (c *Conn) readPump(ws *websocket.Conn) {
	defer c.teardown(ws)

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Socket", "Read error", map[string]interface{}{"error": err.Error()})
			}
			if c.OnError != nil {
				c.OnError(err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn("Socket", "Malformed frame dropped", map[string]interface{}{"error": err.Error()})
			continue
		}
		// Handlers run synchronously in this delivery goroutine.
		c.registry.dispatch(env.Event, env.Data)
	}
}

func (c *Conn) writePump(ws *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown marks the connection closed after the read loop exits. The
// desired room set survives so a later Connect rejoins the same rooms.
func (c *Conn) teardown(ws *websocket.Conn) {
	c.mu.Lock()
	if c.ws != ws {
		c.mu.Unlock()
		return
	}
	c.ws = nil
	c.state = stateDisconnected
	if c.send != nil {
		close(c.send)
		c.send = nil
	}
	c.mu.Unlock()

	ws.Close()
	c.logger.Info("Socket", "Disconnected", map[string]interface{}{
		"session": c.sessionId.String(),
	})
	if c.OnDisconnect != nil {
		c.OnDisconnect()
	}
}

// JoinNotebook subscribes this client to a notebook's update room. If the
// connection is not established yet, the join is deferred to the connect
// event; no message is lost and none is duplicated.
func (c *Conn) JoinNotebook(notebookId string) {
	c.mu.Lock()
	c.desiredRooms[notebookId] = struct{}{}
	connected := c.state == stateConnected
	c.mu.Unlock()

	if connected {
		c.emit(EventJoinNotebook, notebookId)
	} else {
		c.Connect()
	}
}

// LeaveNotebook emits a leave only when connected; otherwise it is a
// silent no-op beyond dropping the room from the desired set.
func (c *Conn) LeaveNotebook(notebookId string) {
	c.mu.Lock()
	delete(c.desiredRooms, notebookId)
	connected := c.state == stateConnected
	c.mu.Unlock()

	if connected {
		c.emit(EventLeaveNotebook, notebookId)
	}
}

// SendNoteUpdate broadcasts a full (title, content) delta for a note to the
// notebook's room.
func (c *Conn) SendNoteUpdate(notebookId, noteId, title string, content []string) {
	c.emit(EventNoteUpdate, NoteUpdatePayload{
		NotebookId: notebookId,
		NoteId:     noteId,
		Title:      title,
		Content:    content,
	})
}

func (c *Conn) SendCursorPosition(notebookId, noteId string, position CursorPosition) {
	c.emit(EventCursorPosition, CursorPositionPayload{
		NotebookId: notebookId,
		NoteId:     noteId,
		Position:   position,
	})
}

// Disconnect tears the channel down for good: a dial still in flight is
// dropped when it completes, and later Connect calls are no-ops. Safe to
// call when already disconnected. Pending sends are dropped.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	c.closed = true
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		// Closing the socket unblocks the read loop, which runs teardown.
		ws.Close()
	}
}

func (c *Conn) emit(event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		c.logger.Error("Socket", "Failed to marshal event", map[string]interface{}{
			"event": event, "error": err.Error(),
		})
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return
	}

	// The channel send happens under the mutex: teardown closes c.send
	// under the same lock, so a frame can never race the close.
	c.mu.Lock()
	if c.state != stateConnected || c.send == nil {
		c.mu.Unlock()
		c.logger.Warn("Socket", "Emit while disconnected, dropping", map[string]interface{}{"event": event})
		return
	}
	select {
	case c.send <- frame:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		c.logger.Warn("Socket", "Send buffer full, dropping message", map[string]interface{}{"event": event})
	}
}
