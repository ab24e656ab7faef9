// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package threat

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/skywarden/internal/vision"
)

// Assessment is the outcome of processing one frame. It is immutable after
// construction: every consumer (stream results, API responses, storage,
// alerting, websocket fan-out) receives the same value and none mutates it.
type Assessment struct {
	ID                string             `json:"id"`
	Timestamp         time.Time          `json:"timestamp"`
	Source            string             `json:"source"`
	Sequence          uint64             `json:"sequence"`
	Level             Level              `json:"threat_level"`
	Confidence        float64            `json:"confidence"`
	Detections        []vision.Detection `json:"detections"`
	DetectionCount    int                `json:"num_detections"`
	SceneDescription  string             `json:"scene_description"`
	RecommendedAction string             `json:"recommended_action"`
	ProcessingTimeMs  float64            `json:"processing_time_ms"`
}

// NewAssessment assembles an assessment with a fresh ID and timestamp.
// The detections slice is referenced, not copied; callers hand over
// ownership.
func NewAssessment(
	level Level,
	confidence float64,
	dets []vision.Detection,
	sceneDescription, recommendedAction string,
	processingTimeMs float64,
	source string,
	sequence uint64,
) Assessment {
	if dets == nil {
		dets = []vision.Detection{}
	}
	return Assessment{
		ID:                uuid.New().String(),
		Timestamp:         time.Now().UTC(),
		Source:            source,
		Sequence:          sequence,
		Level:             level,
		Confidence:        confidence,
		Detections:        dets,
		DetectionCount:    len(dets),
		SceneDescription:  sceneDescription,
		RecommendedAction: recommendedAction,
		ProcessingTimeMs:  processingTimeMs,
	}
}

// String implements fmt.Stringer for log output.
func (a Assessment) String() string {
	return fmt.Sprintf("Assessment(level=%s, conf=%.2f, detections=%d)",
		a.Level, a.Confidence, a.DetectionCount)
}

// SceneExcerpt returns the scene description truncated to max runes, for
// alert payloads and log lines.
func (a Assessment) SceneExcerpt(max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(a.SceneDescription)
	if len(runes) <= max {
		return a.SceneDescription
	}
	return string(runes[:max]) + "..."
}
