// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package threat turns raw vision output into an actionable assessment.
//
// Classification is deliberately a rule table, not a model: the scene
// description text from the vision-language backend is scanned for keywords
// in strict severity order (CRITICAL first), and the first level with any
// match wins. The table is an explicit ordered list so the tie-break order
// stays auditable and testable in isolation from the language model that
// feeds it.
//
// Flow:
//
//	[]Detection + scene text -> Classify -> (Level, confidence)
//	                                |
//	                                v
//	                        RecommendAction -> operator guidance
//	                                |
//	                                v
//	                        Assessment (immutable record)
//
// When no keyword matches at any level, a detection-count fallback ladder
// applies: more than five objects is MEDIUM, one to five is LOW, an empty
// scene is LOW with reduced confidence. The fallback constants ship as
// defaults and keyword tables are overridable per level via configuration.
package threat
