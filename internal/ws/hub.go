// Package ws pushes dataset-change events to open dashboards so a page does
// not have to poll while an import is running.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event kinds broadcast to dashboard clients.
const (
	EventSessionsImported = "sessions_imported"
	EventSessionUpdated   = "session_updated"
	EventSessionsDeleted  = "sessions_deleted"
)

// Event is one dataset-change notification for a user.
type Event struct {
	Kind   string `json:"event"`
	UserID int64  `json:"-"`
	Count  int    `json:"count,omitempty"`
	ID     string `json:"id,omitempty"`
}

// Hub tracks dashboard connections per user and broadcasts events to them.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*client]struct{}
	logger       *zap.Logger
	pingInterval time.Duration
	writeTimeout time.Duration
}

type client struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// NewHub builds an event hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:      make(map[*client]struct{}),
		logger:       logger,
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,
	}
}

// Serve registers a connection for a user and pumps outgoing events until the
// peer goes away or the context is cancelled.
func (h *Hub) Serve(ctx context.Context, userID int64, conn *websocket.Conn) {
	c := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 16),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	// Reads are discarded; the dashboard socket is one-way. The read pump
	// still runs to surface closes promptly.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Info("dashboard connection closed", zap.Int64("user_id", userID), zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// Broadcast delivers an event to every connection of the event's user. Slow
// clients drop the event rather than blocking an import.
func (h *Hub) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to encode ws event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.userID != event.UserID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping ws event, buffer full", zap.Int64("user_id", c.userID))
		}
	}
}
