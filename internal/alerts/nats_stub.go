// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

//go:build !nats

package alerts

import (
	"context"
	"fmt"

	"github.com/tomtom215/skywarden/internal/config"
)

// NATSNotifier is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable JetStream alert publishing.
type NATSNotifier struct{}

// NewNATSNotifier returns an error when NATS support is not compiled in.
func NewNATSNotifier(cfg *config.NATSConfig) (*NATSNotifier, error) {
	return nil, fmt.Errorf("NATS notifier not available: build with -tags=nats")
}

// Name returns the notifier name.
func (n *NATSNotifier) Name() string {
	return "nats"
}

// Enabled returns false for the stub.
func (n *NATSNotifier) Enabled() bool {
	return false
}

// Send is a stub that returns an error.
func (n *NATSNotifier) Send(ctx context.Context, alert *Alert) error {
	return fmt.Errorf("NATS notifier not available: build with -tags=nats")
}

// Close is a no-op stub.
func (n *NATSNotifier) Close() error {
	return nil
}
