// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package threat

import (
	"fmt"
	"strings"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/vision"
)

// Fallback confidences for scenes where no keyword matched at any level.
const (
	confidenceKeywordNoDets = 0.5 // keyword match, empty detection list
	confidenceManyObjects   = 0.6 // >5 detections, no keyword
	confidenceSomeObjects   = 0.5 // 1-5 detections, no keyword
	confidenceEmptyScene    = 0.3 // 0 detections, no keyword
)

// manyObjectsThreshold is the detection count above which an unmatched scene
// escalates to MEDIUM.
const manyObjectsThreshold = 5

// Operator guidance per level. The texts are fixed so downstream systems
// can pattern-match on them; RecommendAction appends a detection count line.
const (
	actionCritical = "🚨 IMMEDIATE ACTION REQUIRED:\n" +
		"1. Activate countermeasures\n" +
		"2. Alert security personnel\n" +
		"3. Prepare evacuation if necessary"

	actionHigh = "⚠️ HIGH ALERT:\n" +
		"1. Monitor closely\n" +
		"2. Prepare countermeasures\n" +
		"3. Notify command center"

	actionMedium = "⚡ INCREASED VIGILANCE:\n" +
		"1. Continue surveillance\n" +
		"2. Track detected objects\n" +
		"3. Increase alert level"

	actionLow = "✅ NORMAL OPERATIONS:\n" +
		"1. Maintain awareness\n" +
		"2. Continue routine monitoring"
)

// Rule pairs a level with its keyword set, in the order checks run.
type Rule struct {
	Level    Level    `json:"level"`
	Keywords []string `json:"keywords"`
}

// defaultRules is the shipped keyword table, checked strictly top-down.
// First match wins, which makes the severity tie-break auditable: a scene
// mentioning both "drone" and "safe" is CRITICAL.
func defaultRules() []Rule {
	return []Rule{
		{LevelCritical, []string{"drone", "uav", "weapon", "attack", "explosive", "critical risk"}},
		{LevelHigh, []string{"suspicious", "unauthorized", "approaching", "high risk", "danger"}},
		{LevelMedium, []string{"unknown", "unidentified", "moderate risk", "caution"}},
		{LevelLow, []string{"clear", "safe", "normal", "low risk", "no threat"}},
	}
}

// Classifier maps detections plus free-form scene text to a threat level.
// Construct once and share: classification is pure and safe for concurrent
// use.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from configuration. A nil config or an
// empty keyword list for a level keeps that level's shipped defaults;
// overrides are lowercased because matching is case-insensitive.
func NewClassifier(cfg *config.ThreatConfig) *Classifier {
	rules := defaultRules()
	if cfg != nil {
		overrides := map[Level][]string{
			LevelCritical: cfg.CriticalKeywords,
			LevelHigh:     cfg.HighKeywords,
			LevelMedium:   cfg.MediumKeywords,
			LevelLow:      cfg.LowKeywords,
		}
		for i, rule := range rules {
			if words := overrides[rule.Level]; len(words) > 0 {
				lowered := make([]string, 0, len(words))
				for _, w := range words {
					if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
						lowered = append(lowered, w)
					}
				}
				if len(lowered) > 0 {
					rules[i].Keywords = lowered
				}
			}
		}
	}
	return &Classifier{rules: rules}
}

// Rules returns a copy of the active rule table in check order, for the
// threat-levels API endpoint.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Level: r.Level, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Classify scans sceneText for the keyword tables in severity order and
// returns the first matching level. On a match the confidence is the
// highest detection confidence, or 0.5 when nothing was detected. Without
// any match the detection count decides: more than five objects is
// (MEDIUM, 0.6), one to five is (LOW, 0.5), none is (LOW, 0.3).
func (c *Classifier) Classify(dets []vision.Detection, sceneText string) (Level, float64) {
	sceneLower := strings.ToLower(sceneText)

	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(sceneLower, keyword) {
				confidence := vision.MaxConfidence(dets)
				if len(dets) == 0 {
					confidence = confidenceKeywordNoDets
				}
				return rule.Level, confidence
			}
		}
	}

	switch {
	case len(dets) > manyObjectsThreshold:
		return LevelMedium, confidenceManyObjects
	case len(dets) > 0:
		return LevelLow, confidenceSomeObjects
	default:
		return LevelLow, confidenceEmptyScene
	}
}

// RecommendAction returns the operator guidance for a level, with a
// detection count line appended when anything was detected.
func (c *Classifier) RecommendAction(level Level, dets []vision.Detection) string {
	var base string
	switch level {
	case LevelCritical:
		base = actionCritical
	case LevelHigh:
		base = actionHigh
	case LevelMedium:
		base = actionMedium
	case LevelLow:
		base = actionLow
	default:
		base = "Unknown threat level"
	}

	if len(dets) > 0 {
		return base + fmt.Sprintf("\n\nDetected: %d objects", len(dets))
	}
	return base
}
