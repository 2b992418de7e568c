package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"fitpair-backend/internal/metrics"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

// WebSocket message types
const (
	MessageNotification = "notification"
	MessageFriendAdded  = "friend_added"
	MessageError        = "error"
)

// ErrNotConnected is returned when sending to a user without a live connection
var ErrNotConnected = errors.New("user is not connected")

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type hubConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *hubConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// close waits for a write in flight before closing
func (c *hubConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.Close()
}

// NotificationHub keeps one live WebSocket connection per user
type NotificationHub struct {
	mu          sync.RWMutex
	connections map[string]*hubConn
}

// NewNotificationHub creates a new hub
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		connections: make(map[string]*hubConn),
	}
}

// Register registers a new WebSocket connection for a user, replacing any
// previous one
func (h *NotificationHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	existing, replaced := h.connections[userID]
	h.connections[userID] = &hubConn{conn: conn}
	if !replaced {
		metrics.WebSocketConnections.Inc()
	}
	h.mu.Unlock()

	if replaced {
		existing.close()
	}

	log.Info().Str("user_id", userID).Bool("replaced", replaced).Msg("WebSocket connection registered")
}

// Unregister removes the connection of a user if it is still the registered one
func (h *NotificationHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	current, ok := h.connections[userID]
	if !ok || current.conn != conn {
		h.mu.Unlock()
		return
	}
	delete(h.connections, userID)
	metrics.WebSocketConnections.Dec()
	h.mu.Unlock()

	current.close()

	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

// SendToUser sends a message to a specific user
func (h *NotificationHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	c, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, userID)
	}

	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := c.write(data); err != nil {
		h.Unregister(userID, c.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is online
func (h *NotificationHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// Close drops every connection
func (h *NotificationHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, c := range h.connections {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.conn.Close()
		c.mu.Unlock()
		delete(h.connections, userID)
		metrics.WebSocketConnections.Dec()
	}
}
