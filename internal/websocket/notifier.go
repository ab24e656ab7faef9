// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package websocket

import (
	"context"

	"github.com/tomtom215/skywarden/internal/alerts"
)

// AlertNotifier adapts the hub to the alert dispatcher's notifier
// interface so alerts reach connected dashboards alongside the log and
// webhook channels.
type AlertNotifier struct {
	hub *Hub
}

// NewAlertNotifier creates a notifier that broadcasts alerts over the hub.
func NewAlertNotifier(hub *Hub) *AlertNotifier {
	return &AlertNotifier{hub: hub}
}

// Name returns the notifier name.
func (n *AlertNotifier) Name() string {
	return "websocket"
}

// Enabled reports whether the notifier can deliver.
func (n *AlertNotifier) Enabled() bool {
	return n.hub != nil
}

// Send never blocks: a full broadcast channel drops the message rather
// than stalling the dispatch loop, and browser clients are not a delivery
// channel worth retrying.
func (n *AlertNotifier) Send(_ context.Context, alert *alerts.Alert) error {
	n.hub.BroadcastAlert(alert)
	return nil
}
