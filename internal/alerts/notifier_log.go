// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package alerts

import (
	"context"

	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/threat"
)

// LogNotifier writes alerts to the structured log. It needs no
// configuration and serves as the default notifier, so an operator sees
// every emitted alert even before external channels are set up.
type LogNotifier struct{}

// NewLogNotifier creates the log notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Name returns the notifier name.
func (n *LogNotifier) Name() string {
	return "log"
}

// Enabled always returns true.
func (n *LogNotifier) Enabled() bool {
	return true
}

// Send logs the alert, at error severity for CRITICAL and warn below.
func (n *LogNotifier) Send(ctx context.Context, alert *Alert) error {
	event := logging.Warn()
	if alert.Level >= threat.LevelCritical {
		event = logging.Error()
	}
	event.
		Str("alert_id", alert.ID).
		Str("threat_level", alert.Level.String()).
		Float64("confidence", alert.Confidence).
		Int("detections", alert.DetectionCount).
		Str("source", alert.Source).
		Uint64("seq", alert.Seq).
		Str("scene", alert.SceneExcerpt).
		Msg("Threat alert")
	return nil
}
