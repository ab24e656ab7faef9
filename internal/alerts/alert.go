// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package alerts

import (
	"context"
	"time"

	"github.com/tomtom215/skywarden/internal/threat"
)

// sceneExcerptLimit caps the scene description carried by an alert so
// notifier payloads stay small. The full text lives in the assessment
// store.
const sceneExcerptLimit = 200

// Alert is the notification emitted for an assessment at or above the
// configured threat level. It carries enough context to act on without a
// follow-up query.
type Alert struct {
	ID             string       `json:"id"`
	Timestamp      time.Time    `json:"timestamp"`
	Level          threat.Level `json:"threat_level"`
	Confidence     float64      `json:"confidence"`
	SceneExcerpt   string       `json:"scene_excerpt,omitempty"`
	DetectionCount int          `json:"detection_count"`
	Source         string       `json:"source"`
	Seq            uint64       `json:"seq"`
}

// NewAlert builds an alert from a finished assessment. The alert reuses
// the assessment ID so journal entries, store rows, and notifications
// correlate.
func NewAlert(a *threat.Assessment) *Alert {
	return &Alert{
		ID:             a.ID,
		Timestamp:      a.Timestamp,
		Level:          a.Level,
		Confidence:     a.Confidence,
		SceneExcerpt:   excerpt(a.SceneDescription),
		DetectionCount: a.DetectionCount,
		Source:         a.Source,
		Seq:            a.Sequence,
	}
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= sceneExcerptLimit {
		return s
	}
	return string(runes[:sceneExcerptLimit]) + "..."
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Send delivers an alert to the notification channel.
	Send(ctx context.Context, alert *Alert) error

	// Name returns the notifier name (e.g., "log", "webhook", "nats").
	Name() string

	// Enabled returns whether this notifier is enabled.
	Enabled() bool
}
