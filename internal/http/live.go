package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tutorbook/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// liveMessage is the frame pushed to dashboard sockets.
type liveMessage struct {
	Type    string             `json:"type"`
	Payload *services.Snapshot `json:"payload"`
}

type liveClient struct {
	hub    *liveHub
	conn   *websocket.Conn
	userID string

	mu     sync.Mutex
	send   chan []byte
	closed bool
	stop   func()
}

// liveHub tracks open dashboard sockets. Each socket watches its user's
// dashboard and receives a fresh snapshot after every change.
type liveHub struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[*liveClient]struct{}
}

func newLiveHub(dashboard *services.Dashboard, logger *slog.Logger) *liveHub {
	return &liveHub{
		dashboard: dashboard,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*liveClient]struct{}),
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	snapshot, err := s.dashboard.Snapshot(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := s.live.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	c := &liveClient{hub: s.live, conn: conn, userID: userID, send: make(chan []byte, sendBuffer)}
	s.live.register(c)
	c.push("snapshot", snapshot)
	c.watch(s.dashboard.Watch(userID, func(snap *services.Snapshot) { c.push("update", snap) }))

	go c.writePump()
	go c.readPump()
}

func (h *liveHub) register(c *liveClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Live client registered", "user_id", c.userID, "clients", n)
}

func (h *liveHub) unregister(c *liveClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.shutdown()
		h.logger.Info("Live client unregistered", "user_id", c.userID)
	}
}

func (h *liveHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// closeAll sends a going-away close frame to every socket.
func (h *liveHub) closeAll() {
	h.mu.Lock()
	clients := make([]*liveClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		h.unregister(c)
	}
}

// push enqueues a frame. A slow client whose buffer is full is dropped.
func (c *liveClient) push(kind string, s *services.Snapshot) {
	b, err := json.Marshal(liveMessage{Type: kind, Payload: s})
	if err != nil {
		c.hub.logger.Error("Failed to marshal live message", "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		c.hub.logger.Warn("Live client too slow, dropping", "user_id", c.userID)
		go c.hub.unregister(c)
	}
}

// watch keeps the cancel func, or runs it when the client is already gone.
func (c *liveClient) watch(stop func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		stop()
		return
	}
	c.stop = stop
}

func (c *liveClient) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.stop != nil {
		c.stop()
	}
	close(c.send)
}

// readPump only handles control frames; clients never send data.
func (c *liveClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("Unexpected websocket close error", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.logger.Warn("Failed to write message to websocket", "user_id", c.userID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
