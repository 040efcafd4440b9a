package handler

import (
	"encoding/json"
	"sync"

	"carelink/pkg/logger"
	"carelink/pkg/metrics"
)

// envelope is the wire frame in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type connection struct {
	id     string
	userID string
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func newConnection(id, userID string, buffer int) *connection {
	return &connection{
		id:     id,
		userID: userID,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// close signals both pumps. send is never closed, so a late Emit cannot panic.
func (c *connection) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub routes outbound events to open connections.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*connection
	log   *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		conns: make(map[string]*connection),
		log:   log,
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	metrics.SocketConnections.Inc()
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	_, ok := h.conns[c.id]
	if ok {
		delete(h.conns, c.id)
	}
	h.mu.Unlock()

	if ok {
		metrics.SocketConnections.Dec()
	}
	c.close()
}

// Emit never blocks. A connection whose buffer is full is closed and misses
// the event.
func (h *Hub) Emit(connID, event string, data any) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	frame, err := encode(event, data)
	if err != nil {
		h.log.Error("Failed to encode socket event", "event", event, "conn_id", connID, "error", err)
		return
	}

	select {
	case <-c.done:
	case c.send <- frame:
	default:
		metrics.SocketDrops.Inc()
		h.log.Warn("Dropping slow socket connection", "conn_id", connID, "event", event)
		c.close()
	}
}

// Len reports the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll signals every connection to stop. Their read pumps run the
// disconnect path on the way out.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		c.close()
	}
}

func encode(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Data: payload})
}
