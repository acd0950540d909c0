package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkflowEvent is pushed to subscribers when a workflow is saved or
// deleted so open editors can refresh their workflow list.
type WorkflowEvent struct {
	Type string `json:"type"`
	ID   uint   `json:"id"`
	Name string `json:"name,omitempty"`
}

// Hub fans events out to WebSocket subscribers. Slow or dead connections
// are dropped rather than allowed to stall a broadcast.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*websocket.Conn
	closed bool
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{conns: make(map[string]*websocket.Conn), logger: logger}
}

// HandleWS upgrades the request and keeps the connection registered until
// the client goes away. Inbound frames are discarded; the feed is one-way.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	h.conns[id] = conn
	h.mu.Unlock()
	h.logger.Debug("subscriber connected", zap.String("conn_id", id))

	defer func() {
		h.mu.Lock()
		delete(h.conns, id)
		h.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Debug("subscriber disconnected", zap.String("conn_id", id))
	}()

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

// Publish sends v to every subscriber as JSON.
func (h *Hub) Publish(ctx context.Context, v any) {
	h.mu.RLock()
	targets := make(map[string]*websocket.Conn, len(h.conns))
	for id, c := range h.conns {
		targets[id] = c
	}
	h.mu.RUnlock()

	for id, conn := range targets {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := wsjson.Write(writeCtx, conn, v)
		cancel()
		if err != nil {
			h.logger.Debug("dropping subscriber", zap.String("conn_id", id), zap.Error(err))
			h.mu.Lock()
			delete(h.conns, id)
			h.mu.Unlock()
			_ = conn.Close(websocket.StatusPolicyViolation, "write failed")
		}
	}
}

// Close disconnects all subscribers and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := h.conns
	h.conns = make(map[string]*websocket.Conn)
	h.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
	}
}
