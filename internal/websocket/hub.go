// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/skywarden/internal/alerts"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
	"github.com/tomtom215/skywarden/internal/stream"
	"github.com/tomtom215/skywarden/internal/threat"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types pushed to connected clients, plus the two control types
// clients send (ping and subscribe).
const (
	MessageTypeAssessment   = "assessment"
	MessageTypeAlert        = "alert"
	MessageTypeStreamStatus = "stream_status"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeSubscribe    = "subscribe"
)

// Message is the envelope for every frame on the wire.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and fans broadcast messages out
// to them. Assessments, alerts, and stream status changes all flow through
// the same broadcast channel so delivery order matches emission order.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub event loop until the context is canceled,
// then closes every connected client and returns ctx.Err(). The non-nil
// return on shutdown is what suture expects from a supervised service.
//
// DETERMINISM: channels are drained in priority order (shutdown, then
// client lifecycle, then broadcasts) instead of relying on select's random
// choice, so client state is always settled before a message fans out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown.
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: pending lifecycle events.
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: block until any event arrives.
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.TrackWSConnection(true)
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	// The map check keeps the gauge honest: a client already dropped by a
	// broadcast unregisters itself again when its pumps exit.
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		metrics.TrackWSConnection(false)
	}
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// logGracefulShutdown closes all connected clients and logs structured
// shutdown information.
//
// Note: ctx.Err() is NOT logged as an error because context cancellation
// is expected behavior during graceful shutdown. Logging it as .Err()
// would confuse operators monitoring error logs.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()

	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		// Fallback for any future context error types
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to every connected client that
// subscribed to its type.
// DETERMINISM: clients are visited in ID order so delivery order is
// reproducible across runs. A client whose send buffer is full is dropped
// rather than allowed to stall the loop; its read pump notices the closed
// channel and tears the connection down.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	// Can't modify the map during iteration, so collect casualties first.
	var toRemove []*Client

	for _, client := range clients {
		if !client.wants(message.Type) {
			continue
		}
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.TrackWSConnection(false)
	}
}

// closeAllClients closes every connected client in ID order. Called once
// during shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.TrackWSConnection(false)
	}
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAssessment pushes a finished threat assessment to all connected
// clients. Called for every processed frame, so a full broadcast channel
// drops the message instead of backpressuring the pipeline.
func (h *Hub) BroadcastAssessment(a *threat.Assessment) {
	message := Message{
		Type: MessageTypeAssessment,
		Data: a,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Msg("broadcast channel full, dropping assessment message")
	}
}

// BroadcastAlert pushes a dispatched alert to all connected clients.
func (h *Hub) BroadcastAlert(alert *alerts.Alert) {
	message := Message{
		Type: MessageTypeAlert,
		Data: alert,
	}

	select {
	case h.broadcast <- message:
		logging.Debug().
			Int("clients", h.GetClientCount()).
			Str("threat_level", alert.Level.String()).
			Str("alert_id", alert.ID).
			Msg("broadcast alert")
	default:
		logging.Warn().Msg("broadcast channel full, dropping alert message")
	}
}

// BroadcastStreamStatus announces a stream lifecycle change (started,
// stopped) so dashboards can track the processor without polling.
func (h *Hub) BroadcastStreamStatus(status stream.Status) {
	message := Message{
		Type: MessageTypeStreamStatus,
		Data: status,
	}

	select {
	case h.broadcast <- message:
		logging.Debug().
			Int("clients", h.GetClientCount()).
			Bool("running", status.Running).
			Str("source", status.Source).
			Msg("broadcast stream_status")
	default:
		logging.Warn().Msg("broadcast channel full, dropping stream_status message")
	}
}

// BroadcastJSON sends an arbitrary typed message to all connected clients.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping JSON message")
	}
}
