package web

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mediaveil/mediaveil/internal/overlay"
)

const (
	streamWriteWait = 5 * time.Second
	streamBuffer    = 16
)

var upgrader = websocket.Upgrader{
	// the API only listens on a local address
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is sent to stream clients on connect and on every transition
type StreamMessage struct {
	Type  string        `json:"type"` // "snapshot" on connect, "state" afterwards
	State overlay.State `json:"state"`
	At    time.Time     `json:"at"`
}

type streamClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	out  chan StreamMessage
	once sync.Once
}

func (c *streamClient) close() {
	c.once.Do(func() { close(c.out) })
}

// writeLoop owns every write to the connection
func (c *streamClient) writeLoop() {
	for msg := range c.out {
		_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			break
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}

// Hub fans published states out to websocket clients. A client that falls
// more than streamBuffer messages behind is disconnected; publication never
// waits for the network.
type Hub struct {
	tracker Tracker
	logger  *slog.Logger

	mu      sync.Mutex
	clients map[uuid.UUID]*streamClient
	subID   uuid.UUID
	closed  bool
}

func NewHub(tracker Tracker, logger *slog.Logger) *Hub {
	h := &Hub{
		tracker: tracker,
		logger:  logger,
		clients: make(map[uuid.UUID]*streamClient),
	}
	h.subID = tracker.Subscribe(h.broadcast)
	return h
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	// the server's read timeout does not apply to a long-lived stream
	_ = conn.SetReadDeadline(time.Time{})

	client := &streamClient{id: uuid.New(), conn: conn, out: make(chan StreamMessage, streamBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[client.id] = client
	client.out <- StreamMessage{Type: "snapshot", State: h.tracker.CurrentState(), At: time.Now()}
	h.mu.Unlock()

	h.logger.Debug("stream client connected", "client", client.id)
	go client.writeLoop()

	// clients never send anything meaningful; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(client.id)
}

func (h *Hub) broadcast(s overlay.State) {
	msg := StreamMessage{Type: "state", State: s, At: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.out <- msg:
		default:
			h.logger.Warn("stream client too slow, disconnecting", "client", id)
			delete(h.clients, id)
			c.close()
		}
	}
}

func (h *Hub) drop(id uuid.UUID) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		c.close()
		h.logger.Debug("stream client disconnected", "client", id)
	}
}

// Close unsubscribes from the tracker and disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		c.close()
	}
	h.mu.Unlock()

	h.tracker.Unsubscribe(h.subID)
}
