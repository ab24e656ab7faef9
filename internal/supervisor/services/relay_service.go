// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package services

import (
	"context"
)

// RelayRunner interface matches *alerts.AlertRelay's Run method.
//
// This interface allows the AlertRelayService to work with the relay
// without importing the alerts package. It also keeps this wrapper free
// of build tags: the relay itself is only constructible with -tags=nats,
// but the wrapper compiles either way.
//
// Satisfied by *alerts.AlertRelay from internal/alerts/relay.go.
type RelayRunner interface {
	Run(ctx context.Context) error
}

// AlertRelayService wraps the NATS alert relay as a supervised service.
//
// The relay consumes alerts from the JetStream stream and feeds them to
// the local WebSocket hub on viewer nodes. Its Run method already
// implements the suture.Service pattern, so this wrapper delegates to
// it and provides a name for logging.
//
// Example usage:
//
//	relay, _ := alerts.NewAlertRelay(cfg, sink)
//	svc := services.NewAlertRelayService(relay)
//	tree.AddMessagingService(svc)
type AlertRelayService struct {
	relay RelayRunner
	name  string
}

// NewAlertRelayService creates a new alert relay service wrapper.
func NewAlertRelayService(relay RelayRunner) *AlertRelayService {
	return &AlertRelayService{
		relay: relay,
		name:  "nats-alert-relay",
	}
}

// Serve implements suture.Service.
// Returns ctx.Err() on normal shutdown.
func (r *AlertRelayService) Serve(ctx context.Context) error {
	return r.relay.Run(ctx)
}

// String implements fmt.Stringer for logging.
func (r *AlertRelayService) String() string {
	return r.name
}
