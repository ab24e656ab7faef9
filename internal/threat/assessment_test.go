// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package threat

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestNewAssessment(t *testing.T) {
	dets := detections(0.9, 0.7)
	before := time.Now().UTC()

	a := NewAssessment(LevelCritical, 0.9, dets, "a drone overhead", "action text", 152.4, "cam-1", 42)

	if a.ID == "" {
		t.Error("assessment must carry an ID")
	}
	if a.Timestamp.Before(before) || a.Timestamp.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("timestamp %v outside expected window", a.Timestamp)
	}
	if a.Source != "cam-1" || a.Sequence != 42 {
		t.Errorf("source/sequence = %q/%d, want cam-1/42", a.Source, a.Sequence)
	}
	if a.Level != LevelCritical || a.Confidence != 0.9 {
		t.Errorf("level/confidence = %v/%v", a.Level, a.Confidence)
	}
	if a.DetectionCount != 2 || len(a.Detections) != 2 {
		t.Errorf("detection count = %d/%d, want 2", a.DetectionCount, len(a.Detections))
	}
	if a.ProcessingTimeMs != 152.4 {
		t.Errorf("processing time = %v, want 152.4", a.ProcessingTimeMs)
	}

	// Two assessments never share an ID.
	b := NewAssessment(LevelLow, 0.3, nil, "", "", 1, "cam-1", 43)
	if a.ID == b.ID {
		t.Error("assessment IDs must be unique")
	}
	if b.Detections == nil || b.DetectionCount != 0 {
		t.Error("nil detections should normalize to an empty slice")
	}
}

func TestAssessment_JSON(t *testing.T) {
	a := NewAssessment(LevelHigh, 0.8, detections(0.8), "suspicious activity", "monitor", 88, "upload", 0)

	encoded, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	for _, want := range []string{
		`"threat_level":"HIGH"`,
		`"num_detections":1`,
		`"scene_description":"suspicious activity"`,
		`"recommended_action":"monitor"`,
		`"processing_time_ms":88`,
	} {
		if !strings.Contains(string(encoded), want) {
			t.Errorf("JSON missing %s: %s", want, encoded)
		}
	}
}

func TestAssessment_SceneExcerpt(t *testing.T) {
	a := Assessment{SceneDescription: "A drone hovering near the fence."}

	tests := []struct {
		name string
		max  int
		want string
	}{
		{"zero", 0, ""},
		{"shorter than max", 100, "A drone hovering near the fence."},
		{"truncated", 7, "A drone..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.SceneExcerpt(tt.max); got != tt.want {
				t.Errorf("SceneExcerpt(%d) = %q, want %q", tt.max, got, tt.want)
			}
		})
	}
}
