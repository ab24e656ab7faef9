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

// AlertRelay is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable alert relaying.
type AlertRelay struct{}

// NewAlertRelay returns an error when NATS support is not compiled in.
func NewAlertRelay(cfg *config.NATSConfig, sink func(*Alert)) (*AlertRelay, error) {
	return nil, fmt.Errorf("alert relay not available: build with -tags=nats")
}

// Run is a stub that returns an error.
func (r *AlertRelay) Run(ctx context.Context) error {
	return fmt.Errorf("alert relay not available: build with -tags=nats")
}

// Close is a no-op stub.
func (r *AlertRelay) Close() error {
	return nil
}
