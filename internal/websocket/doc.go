// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

/*
Package websocket provides the live feed that pushes threat assessments,
alerts, and stream status changes to connected dashboards.

It uses the gorilla/websocket library with a hub-client architecture: one
Hub goroutine owns the client set and fans messages out, and each Client
runs a read pump and a write pump around its connection.

Key Components:

  - Hub: central broker managing client connections and broadcasts
  - Client: a single WebSocket connection with read/write goroutines
  - AlertNotifier: adapter that plugs the hub into the alert dispatcher

Viewer nodes that follow alerts raised by other instances feed the hub
through the NATS alert relay in internal/alerts, wired up in cmd/server.

Message Types:

Every outbound frame is a Message envelope {"type": ..., "data": ...}:

  - assessment: a finished threat assessment for a processed frame
  - alert: a dispatched alert at or above the configured minimum level
  - stream_status: the stream processor started or stopped
  - pong: reply to an application-level ping

Clients send two control frames back:

  - {"type": "ping"}: application-level liveness, answered with a pong
  - {"type": "subscribe", "types": ["alert", "stream_status"]}: limit the
    feed to the listed message types. Assessments arrive per processed
    frame, so low-bandwidth viewers subscribe down to alerts only. An
    empty list restores the full feed, which is also what a client gets
    before its first subscribe frame.

Usage:

	hub := websocket.NewHub()
	go func() { _ = hub.RunWithContext(ctx) }()

	// Push a finished assessment to every dashboard.
	hub.BroadcastAssessment(&assessment)

	// Route dispatcher alerts through the hub as well.
	dispatcher.RegisterNotifier(websocket.NewAlertNotifier(hub))

The HTTP upgrade handler lives in internal/api; browser clients that
cannot set an Authorization header authenticate the upgrade request with
a short-lived viewer token in the "token" query parameter.

Lifecycle:

RunWithContext is designed for suture supervision: it drains events in a
deterministic priority order (shutdown, client lifecycle, broadcasts),
and on context cancellation closes every client before returning
ctx.Err(). Slow clients never stall the hub; a client whose send buffer
is full is disconnected and can reconnect.

Timeouts follow the usual gorilla pattern: 10s write deadline, 60s pong
wait with protocol pings at 9/10 of that. Inbound frames are capped at
4 KB since clients only ever send control messages.
*/
package websocket
