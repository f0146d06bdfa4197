package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/normienation/normie/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 8
)

// Snapshotter supplies the record sent to a client when it connects.
type Snapshotter interface {
	Metrics() models.TokenMetrics
	DataSource() string
}

type streamClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes the metrics envelope to websocket clients after every poll
// cycle. It implements metrics.Subscriber.
type Hub struct {
	source   Snapshotter
	upgrader websocket.Upgrader
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*streamClient
	closed  bool
}

func NewHub(source Snapshotter, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		source: source,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		now:     time.Now,
		clients: make(map[string]*streamClient),
	}
}

// OnMetrics broadcasts m to every connected client. Clients whose buffer
// is full are dropped.
func (h *Hub) OnMetrics(m models.TokenMetrics, dataSource string) {
	msg, err := json.Marshal(newMetricsResponse(m, dataSource, h.now()))
	if err != nil {
		h.logger.Error("failed to encode stream message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("stream client too slow, dropping", zap.String("client_id", id))
			h.removeLocked(id)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("error upgrading connection", zap.Error(err))
		return
	}

	c := &streamClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	msg, err := json.Marshal(newMetricsResponse(h.source.Metrics(), h.source.DataSource(), h.now()))
	if err != nil {
		h.logger.Error("failed to encode stream message", zap.Error(err))
		_ = conn.Close()
		return
	}
	c.send <- msg

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	h.logger.Info("stream client connected", zap.String("client_id", c.id))

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards inbound frames and unregisters the client once the
// connection drops.
func (h *Hub) readPump(c *streamClient) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(c.id)
		h.mu.Unlock()
		h.logger.Info("stream client disconnected", zap.String("client_id", c.id))
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id := range h.clients {
		h.removeLocked(id)
	}
}

// removeLocked must be called with mu held.
func (h *Hub) removeLocked(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.send)
}
