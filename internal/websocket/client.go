package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// JoinCheck reports whether the user may subscribe to a family channel.
// It mirrors the HTTP permission gate: only ACCEPTED members may listen in.
type JoinCheck func(userID, familyID int64) (bool, error)

// Client represents a single authenticated WebSocket connection.
type Client struct {
	hub     *Hub
	conn    *ws.Conn
	send    chan []byte
	canJoin JoinCheck

	userID int64

	// familyID is the current family subscription, 0 when none. Guarded by
	// hub.mu.
	familyID int64
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *ws.Conn, userID int64, canJoin JoinCheck) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		canJoin: canJoin,
		userID:  userID,
	}
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// controlMessage is the only client-to-server payload: family channel
// subscription management, mirroring which family view is open in the UI.
type controlMessage struct {
	Action   string `json:"action"`
	FamilyID int64  `json:"family_id"`
}

// readPump processes subscription control messages and returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Action {
		case "join-family":
			ok, err := c.canJoin(c.userID, msg.FamilyID)
			if err != nil || !ok {
				continue
			}
			c.hub.JoinFamily(c, msg.FamilyID)
		case "leave-family":
			c.hub.LeaveFamily(c)
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Hub closed the channel — connection is done
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
