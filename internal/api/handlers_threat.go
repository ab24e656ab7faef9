// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	"net/http"

	"github.com/tomtom215/skywarden/internal/threat"
)

// levelDescriptions is operator-facing documentation for each severity.
var levelDescriptions = map[threat.Level]string{
	threat.LevelLow:      "Normal operation, maintain awareness",
	threat.LevelMedium:   "Heightened vigilance, continuous monitoring",
	threat.LevelHigh:     "High alert, prepare countermeasures",
	threat.LevelCritical: "Immediate action, activate countermeasures",
}

// threatLevelInfo describes one severity level for API consumers.
type threatLevelInfo struct {
	Level             string   `json:"level"`
	Description       string   `json:"description"`
	Keywords          []string `json:"keywords"`
	RecommendedAction string   `json:"recommended_action"`
}

// threatLevelsResponse lists the severity taxonomy.
//
// ThreatLevels and Descriptions preserve the original flat shape; Levels
// adds the active keyword tables (including any configured overrides) and
// the action text each level triggers.
type threatLevelsResponse struct {
	ThreatLevels []string          `json:"threat_levels"`
	Descriptions map[string]string `json:"descriptions"`
	Levels       []threatLevelInfo `json:"levels"`
}

// GetThreatLevels handles GET /api/v1/threat-levels.
func (h *Handler) GetThreatLevels(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	keywords := make(map[threat.Level][]string, 4)
	for _, rule := range h.classifier.Rules() {
		keywords[rule.Level] = rule.Keywords
	}

	levels := threat.Levels()
	names := make([]string, 0, len(levels))
	descriptions := make(map[string]string, len(levels))
	details := make([]threatLevelInfo, 0, len(levels))

	for _, level := range levels {
		names = append(names, level.String())
		descriptions[level.String()] = levelDescriptions[level]
		details = append(details, threatLevelInfo{
			Level:             level.String(),
			Description:       levelDescriptions[level],
			Keywords:          keywords[level],
			RecommendedAction: h.classifier.RecommendAction(level, nil),
		})
	}

	rw.Success(threatLevelsResponse{
		ThreatLevels: names,
		Descriptions: descriptions,
		Levels:       details,
	})
}
