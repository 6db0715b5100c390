package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a real-time notification delivered to subscribed clients.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains the set of active clients and routes messages to them.
// Every client is addressable by its authenticated user id; a client may
// additionally subscribe to one family channel at a time. Delivery is
// best-effort and at-most-once: with no subscriber, or a full send buffer,
// the message is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
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

// JoinFamily subscribes the client to a family channel, replacing any
// previous subscription.
func (h *Hub) JoinFamily(c *Client, familyID int64) {
	h.mu.Lock()
	c.familyID = familyID
	h.mu.Unlock()
}

// LeaveFamily drops the client's family subscription.
func (h *Hub) LeaveFamily(c *Client) {
	h.mu.Lock()
	c.familyID = 0
	h.mu.Unlock()
}

// EmitToUser sends a message to every connection authenticated as userID.
func (h *Hub) EmitToUser(userID int64, msg Message) {
	h.emit(msg, func(c *Client) bool { return c.userID == userID })
}

// EmitToFamily sends a message to every connection subscribed to the family
// channel.
func (h *Hub) EmitToFamily(familyID int64, msg Message) {
	h.emit(msg, func(c *Client) bool { return c.familyID == familyID })
}

func (h *Hub) emit(msg Message, match func(*Client) bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
