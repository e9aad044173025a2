package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Event notifies connected clients that a memo changed so they can refresh
// without polling.
type Event struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	MemoID int64  `json:"memo_id,omitempty"`
}

// MemoEvent builds an Event for the given action ("created", "updated",
// "deleted").
func MemoEvent(action string, memoID int64) Event {
	return Event{
		Type:   fmt.Sprintf("memo_%s", action),
		Action: action,
		MemoID: memoID,
	}
}

// Hub maintains the set of active WebSocket clients and fans events out to
// them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends an event to all connected clients.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// client buffer full, drop the event rather than block
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
