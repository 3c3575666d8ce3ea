package dev

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rivet-web/rivet/internal/metrics"
)

// UpdateMessage is the wire format pushed to browsers: one message per
// ChangeEvent, carrying its sequence number so clients can detect gaps.
type UpdateMessage struct {
	Type         string   `json:"type"`
	ChangedFiles []string `json:"changedFiles,omitempty"`
	Sequence     uint64   `json:"sequence,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// ReloadHub manages the WebSocket connections of live-reload clients.
type ReloadHub struct {
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// NewReloadHub creates an empty hub.
func NewReloadHub(m *metrics.Metrics) *ReloadHub {
	if m == nil {
		m = metrics.Default()
	}
	return &ReloadHub{
		metrics: m,
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dev server only; any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWebSocket upgrades the request and parks the connection until
// the client disconnects.
func (h *ReloadHub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.metrics.ReloadClients.Inc()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(conn)
}

// drop removes the connection and closes it. The gauge is decremented
// only when the connection was still tracked, since both the reader
// loop and a failed broadcast race to clean up the same connection.
func (h *ReloadHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, present := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if present {
		h.metrics.ReloadClients.Dec()
	}
	conn.Close()
}

// NotifyChange pushes one update message for a completed ChangeEvent.
func (h *ReloadHub) NotifyChange(event ChangeEvent) {
	h.broadcast(UpdateMessage{
		Type:         "update",
		ChangedFiles: event.ChangedFiles,
		Sequence:     event.Sequence,
	})
}

// NotifyError pushes a compile failure so clients can show an overlay.
func (h *ReloadHub) NotifyError(msg string) {
	h.broadcast(UpdateMessage{Type: "error", Error: msg})
}

func (h *ReloadHub) broadcast(msg UpdateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(conn)
		}
	}
}

// ClientCount reports connected clients.
func (h *ReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close drops every connection.
func (h *ReloadHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
		h.metrics.ReloadClients.Dec()
	}
}
