// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/skywarden/internal/logging"
)

const (
	// writeWait bounds every write to the peer, close frames included.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent. The read deadline
	// resets on every protocol pong, and pings go out at pingPeriod so a
	// healthy peer always beats the deadline.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxControlBytes caps inbound frames. Clients only send small control
	// messages; the assessment volume flows the other way.
	maxControlBytes = 4 * 1024

	// sendBuffer is the per-client outbound queue. A client that falls this
	// far behind is disconnected by the hub rather than allowed to stall
	// the broadcast loop.
	sendBuffer = 256
)

// clientIDCounter generates unique, monotonically increasing client IDs.
// DETERMINISM: the hub sorts clients by ID so broadcast and shutdown order
// is reproducible instead of following map iteration order.
var clientIDCounter atomic.Uint64

// control is the only shape clients send: liveness pings and subscription
// changes. Anything that does not decode as this envelope is dropped.
type control struct {
	Type  string   `json:"type"`
	Types []string `json:"types,omitempty"`
}

// Client is a middleman between one websocket connection and the hub. The
// read pump consumes control frames and the write pump drains the send
// queue; either one failing tears the connection down.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	// filter is the set of message types this client subscribed to.
	// nil means everything, which is what a client gets until it sends
	// a subscribe frame.
	filterMu sync.RWMutex
	filter   map[string]struct{}
}

// NewClient creates a Client with a unique ID. Callers register it with
// the hub and call Start to begin the pumps.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Start begins the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// subscribe replaces the client's type filter. An empty list clears the
// filter back to everything.
func (c *Client) subscribe(types []string) {
	var filter map[string]struct{}
	if len(types) > 0 {
		filter = make(map[string]struct{}, len(types))
		for _, t := range types {
			filter[t] = struct{}{}
		}
	}
	c.filterMu.Lock()
	c.filter = filter
	c.filterMu.Unlock()
}

// wants reports whether a broadcast of this type should reach the client.
// Pong replies bypass the filter; they go straight onto the send queue.
func (c *Client) wants(messageType string) bool {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	if c.filter == nil {
		return true
	}
	_, ok := c.filter[messageType]
	return ok
}

// readPump consumes inbound control frames until the connection drops,
// then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxControlBytes)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Uint64("client_id", c.id).Msg("websocket closed unexpectedly")
			}
			return
		}

		var frame control
		if err := json.NewDecoder(r).Decode(&frame); err != nil {
			// Malformed control frames are dropped. A dead connection
			// surfaces on the next NextReader call.
			continue
		}
		c.handleControl(frame)
	}
}

func (c *Client) handleControl(frame control) {
	switch frame.Type {
	case MessageTypePing:
		select {
		case c.send <- Message{Type: MessageTypePong}:
		default:
		}
	case MessageTypeSubscribe:
		c.subscribe(frame.Types)
		logging.Debug().
			Uint64("client_id", c.id).
			Strs("types", frame.Types).
			Msg("websocket subscription updated")
	}
}

// writePump drains the send queue onto the connection and keeps it alive
// with protocol pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Uint64("client_id", c.id).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel.
				closeFrame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = c.conn.WriteMessage(websocket.CloseMessage, closeFrame)
				return
			}

			if err := c.writeFrame(message); err != nil {
				logging.Error().Err(err).Uint64("client_id", c.id).Msg("failed to write websocket frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeFrame encodes one envelope as a text frame.
func (c *Client) writeFrame(message Message) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(message); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
