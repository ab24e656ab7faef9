// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package vision

import (
	"context"
	"sync/atomic"

	"github.com/tomtom215/skywarden/internal/config"
)

func init() {
	RegisterDetector("static", func(cfg *config.DetectorConfig) (Detector, error) {
		return &staticDetector{model: cfg.Model}, nil
	})
	RegisterSceneDescriber("static", func(cfg *config.AnalyzerConfig) (SceneDescriber, error) {
		return &staticDescriber{model: cfg.Model}, nil
	})
}

// staticDescription is what the static backend reports for every frame.
// The wording deliberately hits the low-threat keyword table so smoke runs
// produce a deterministic LOW assessment.
const staticDescription = "Scene clear. No threats visible, normal operations."

// staticDetector is the offline detector backend: no detections, no I/O.
// Useful for smoke-testing the pipeline, API, and stream machinery without
// an inference server.
type staticDetector struct {
	model  string
	loaded atomic.Bool
}

func (d *staticDetector) Load(_ context.Context) error {
	d.loaded.Store(true)
	return nil
}

func (d *staticDetector) Detect(_ context.Context, _ Frame) ([]Detection, error) {
	return []Detection{}, nil
}

func (d *staticDetector) Info() BackendInfo {
	return BackendInfo{Name: "static", Model: d.model, Loaded: d.loaded.Load()}
}

// staticDescriber is the offline scene describer backend, pairing with
// staticDetector.
type staticDescriber struct {
	model  string
	loaded atomic.Bool
}

func (d *staticDescriber) Load(_ context.Context) error {
	d.loaded.Store(true)
	return nil
}

func (d *staticDescriber) Describe(_ context.Context, _ Frame, _ string) (string, error) {
	return staticDescription, nil
}

func (d *staticDescriber) Info() BackendInfo {
	return BackendInfo{Name: "static", Model: d.model, Loaded: d.loaded.Load()}
}
