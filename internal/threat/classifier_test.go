// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package threat

import (
	"strconv"
	"strings"
	"testing"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/vision"
)

func detections(confidences ...float64) []vision.Detection {
	dets := make([]vision.Detection, 0, len(confidences))
	for i, conf := range confidences {
		dets = append(dets, vision.Detection{
			X1: float64(i * 10), Y1: 0, X2: float64(i*10 + 5), Y2: 5,
			Confidence: conf,
			ClassName:  "drone",
			ClassID:    4,
		})
	}
	return dets
}

func TestClassify_KeywordMatching(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name      string
		scene     string
		dets      []vision.Detection
		wantLevel Level
		wantConf  float64
	}{
		{
			name:      "drone is critical",
			scene:     "A drone is hovering near the fence line.",
			dets:      detections(0.92),
			wantLevel: LevelCritical,
			wantConf:  0.92,
		},
		{
			name:      "drone any case",
			scene:     "DRONE SPOTTED overhead",
			dets:      detections(0.75),
			wantLevel: LevelCritical,
			wantConf:  0.75,
		},
		{
			name:      "uav is critical",
			scene:     "Possible UAV activity in sector 4.",
			dets:      detections(0.6),
			wantLevel: LevelCritical,
			wantConf:  0.6,
		},
		{
			name:      "suspicious is high",
			scene:     "A suspicious vehicle parked by the gate.",
			dets:      detections(0.8),
			wantLevel: LevelHigh,
			wantConf:  0.8,
		},
		{
			name:      "unidentified is medium",
			scene:     "An unidentified object on the tarmac.",
			dets:      detections(0.55),
			wantLevel: LevelMedium,
			wantConf:  0.55,
		},
		{
			name:      "all clear is low",
			scene:     "all clear, normal operations",
			dets:      nil,
			wantLevel: LevelLow,
			wantConf:  0.5,
		},
		{
			name:      "severity order wins over later match",
			scene:     "The area looks safe but a drone is visible.",
			dets:      detections(0.88),
			wantLevel: LevelCritical,
			wantConf:  0.88,
		},
		{
			name:      "keyword with no detections falls back to 0.5",
			scene:     "Danger near the north perimeter.",
			dets:      nil,
			wantLevel: LevelHigh,
			wantConf:  0.5,
		},
		{
			name:      "max confidence across detections",
			scene:     "drone swarm",
			dets:      detections(0.4, 0.9, 0.7),
			wantLevel: LevelCritical,
			wantConf:  0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, conf := c.Classify(tt.dets, tt.scene)
			if level != tt.wantLevel {
				t.Errorf("Classify() level = %v, want %v", level, tt.wantLevel)
			}
			if conf != tt.wantConf {
				t.Errorf("Classify() confidence = %v, want %v", conf, tt.wantConf)
			}
		})
	}
}

func TestClassify_FallbackLadder(t *testing.T) {
	c := NewClassifier(nil)

	// Scene text with no keyword at any level.
	scene := "Trees swaying in wind."

	tests := []struct {
		name      string
		dets      []vision.Detection
		wantLevel Level
		wantConf  float64
	}{
		{"zero detections", nil, LevelLow, 0.3},
		{"one detection", detections(0.9), LevelLow, 0.5},
		{"five detections", detections(0.1, 0.2, 0.3, 0.4, 0.5), LevelLow, 0.5},
		{"six detections", detections(0.1, 0.2, 0.3, 0.4, 0.5, 0.6), LevelMedium, 0.6},
		{"ten detections", detections(0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1), LevelMedium, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, conf := c.Classify(tt.dets, scene)
			if level != tt.wantLevel {
				t.Errorf("Classify() level = %v, want %v", level, tt.wantLevel)
			}
			if conf != tt.wantConf {
				t.Errorf("Classify() confidence = %v, want %v", conf, tt.wantConf)
			}
		})
	}
}

func TestClassify_KeywordOverrides(t *testing.T) {
	cfg := &config.ThreatConfig{
		CriticalKeywords: []string{"Quadcopter", " FPV "},
	}
	c := NewClassifier(cfg)

	// Override applies, lowercased and trimmed.
	level, _ := c.Classify(nil, "a quadcopter crossing the runway")
	if level != LevelCritical {
		t.Errorf("override keyword level = %v, want CRITICAL", level)
	}
	level, _ = c.Classify(nil, "fpv signal detected")
	if level != LevelCritical {
		t.Errorf("override keyword level = %v, want CRITICAL", level)
	}

	// Default critical keywords are replaced.
	level, _ = c.Classify(nil, "a drone overhead")
	if level == LevelCritical {
		t.Error("default keyword should be replaced by override")
	}

	// Untouched levels keep their defaults.
	level, _ = c.Classify(nil, "suspicious movement")
	if level != LevelHigh {
		t.Errorf("non-overridden level = %v, want HIGH", level)
	}
}

func TestClassifier_Rules(t *testing.T) {
	c := NewClassifier(nil)
	rules := c.Rules()

	if len(rules) != 4 {
		t.Fatalf("Rules() returned %d rules, want 4", len(rules))
	}

	wantOrder := []Level{LevelCritical, LevelHigh, LevelMedium, LevelLow}
	for i, rule := range rules {
		if rule.Level != wantOrder[i] {
			t.Errorf("rule[%d].Level = %v, want %v", i, rule.Level, wantOrder[i])
		}
		if len(rule.Keywords) == 0 {
			t.Errorf("rule[%d] has no keywords", i)
		}
	}

	// Returned slice is a copy: mutating it must not affect the classifier.
	rules[0].Keywords[0] = "mutated"
	level, _ := c.Classify(nil, "a drone overhead")
	if level != LevelCritical {
		t.Error("Rules() must return a defensive copy")
	}
}

func TestRecommendAction(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name       string
		level      Level
		dets       []vision.Detection
		wantPrefix string
		wantCount  bool
	}{
		{"critical", LevelCritical, detections(0.9), "🚨 IMMEDIATE ACTION REQUIRED:", true},
		{"high", LevelHigh, detections(0.8, 0.7), "⚠️ HIGH ALERT:", true},
		{"medium", LevelMedium, detections(0.6), "⚡ INCREASED VIGILANCE:", true},
		{"low", LevelLow, nil, "✅ NORMAL OPERATIONS:", false},
		{"critical no detections", LevelCritical, nil, "🚨 IMMEDIATE ACTION REQUIRED:", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := c.RecommendAction(tt.level, tt.dets)
			if !strings.HasPrefix(action, tt.wantPrefix) {
				t.Errorf("action = %q, want prefix %q", action, tt.wantPrefix)
			}

			hasCount := strings.Contains(action, "\n\nDetected: ")
			if hasCount != tt.wantCount {
				t.Errorf("action detection suffix present = %v, want %v: %q", hasCount, tt.wantCount, action)
			}
			if tt.wantCount {
				want := "\n\nDetected: " + strconv.Itoa(len(tt.dets)) + " objects"
				if !strings.HasSuffix(action, want) {
					t.Errorf("action = %q, want suffix %q", action, want)
				}
			}
		})
	}
}

func TestRecommendAction_ExactTexts(t *testing.T) {
	c := NewClassifier(nil)

	wantCritical := "🚨 IMMEDIATE ACTION REQUIRED:\n" +
		"1. Activate countermeasures\n" +
		"2. Alert security personnel\n" +
		"3. Prepare evacuation if necessary"
	if got := c.RecommendAction(LevelCritical, nil); got != wantCritical {
		t.Errorf("critical action = %q, want %q", got, wantCritical)
	}

	wantLow := "✅ NORMAL OPERATIONS:\n" +
		"1. Maintain awareness\n" +
		"2. Continue routine monitoring"
	if got := c.RecommendAction(LevelLow, nil); got != wantLow {
		t.Errorf("low action = %q, want %q", got, wantLow)
	}
}

