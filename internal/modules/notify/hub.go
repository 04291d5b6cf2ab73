// Package notify pushes order status changes over WebSocket. One
// connection per user; staff connections additionally receive every
// status event so the office sees the whole order book move.
package notify

import (
	"sync"
	"time"

	"souvenir/internal/domain"

	"github.com/gorilla/websocket"
)

// StatusEvent is the wire format of one status change.
type StatusEvent struct {
	Type        string             `json:"type"`
	OrderID     int64              `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Status      domain.OrderStatus `json:"status"`
	At          time.Time          `json:"at"`
}

type Hub struct {
	connections map[int64]*websocket.Conn
	staff       map[int64]bool
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]*websocket.Conn),
		staff:       make(map[int64]bool),
	}
}

// Register replaces a previous connection of the same user, one live
// socket per account.
func (h *Hub) Register(userID int64, isStaff bool, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if oldConn, exists := h.connections[userID]; exists && oldConn != nil {
		_ = oldConn.Close()
	}

	h.connections[userID] = conn
	if isStaff {
		h.staff[userID] = true
	} else {
		delete(h.staff, userID)
	}
}

func (h *Hub) Unregister(userID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conn, exists := h.connections[userID]; exists && conn != nil {
		_ = conn.Close()
	}
	delete(h.connections, userID)
	delete(h.staff, userID)
}

func (h *Hub) SendToUser(userID int64, message interface{}) bool {
	h.mutex.RLock()
	conn, exists := h.connections[userID]
	h.mutex.RUnlock()

	if !exists || conn == nil {
		return false
	}

	if err := conn.WriteJSON(message); err != nil {
		h.Unregister(userID)
		return false
	}
	return true
}

// OrderStatusChanged fans one status event out to the order's client and
// master plus every connected staff user. Offline recipients are simply
// skipped; delivery is best-effort.
func (h *Hub) OrderStatusChanged(o *domain.Order, recipients []int64) {
	event := StatusEvent{
		Type:        "order_status_changed",
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		At:          time.Now(),
	}

	targets := make(map[int64]struct{}, len(recipients))
	for _, id := range recipients {
		targets[id] = struct{}{}
	}
	h.mutex.RLock()
	for id := range h.staff {
		targets[id] = struct{}{}
	}
	h.mutex.RUnlock()

	for id := range targets {
		_ = h.SendToUser(id, event)
	}
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[userID]
	return exists
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, conn := range h.connections {
		if conn != nil {
			_ = conn.Close()
		}
		delete(h.connections, userID)
		delete(h.staff, userID)
	}
}
