// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package vision defines the detection and scene-analysis contracts that the
// threat assessment pipeline is built on, plus the HTTP backends that fulfil
// them against external inference servers.
//
// Architecture:
//
//	Frame -> Detector (YOLO-style server) -> []Detection
//	Frame -> SceneDescriber (VLM server)  -> free-text scene analysis
//	                |
//	                v
//	        internal/pipeline combines both into a ThreatAssessment
//
// The heavy lifting (neural network inference) always happens out of process.
// This package contributes the value types (Detection, Frame), the backend
// interfaces, a string-keyed backend registry, and resilient HTTP clients
// with circuit breaker protection for the two inference services.
//
// Backends:
//   - "http": production backend speaking JSON to an inference server
//     (detector: POST /v1/detect; describer: OpenAI-compatible
//     /v1/chat/completions with an image content part)
//   - "static": canned responses for tests, demos, and offline smoke runs
//
// Additional backends register themselves via RegisterDetector or
// RegisterSceneDescriber, typically from an init function.
//
// Error Classification:
// Backends wrap failures in the package sentinels (ErrModelLoad,
// ErrDetection, ErrInference) so callers can distinguish fatal startup
// errors from per-frame errors with errors.Is. See errors.go.
package vision
