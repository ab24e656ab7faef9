// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
)

func init() {
	RegisterDetector("http", func(cfg *config.DetectorConfig) (Detector, error) {
		return newHTTPDetector(cfg)
	})
}

// detectRequest is the wire format sent to the detection server.
// Thresholds travel with the request so the server can prune early, but the
// client re-applies them after decoding: the response contract only requires
// raw detections.
type detectRequest struct {
	Model               string   `json:"model"`
	Image               string   `json:"image"`
	ImageFormat         string   `json:"image_format"`
	ConfidenceThreshold float64  `json:"confidence_threshold"`
	IoUThreshold        float64  `json:"iou_threshold"`
	Classes             []string `json:"classes,omitempty"`
}

// detectResponse is the wire format returned by the detection server.
type detectResponse struct {
	Detections  []Detection `json:"detections"`
	Model       string      `json:"model"`
	InferenceMs float64     `json:"inference_ms"`
}

// modelListResponse is the OpenAI-style model listing both inference
// servers expose, used as the load-time connectivity check.
type modelListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// httpDetector is the production detector backend. It speaks JSON to a
// YOLO-family inference server (POST {endpoint}/v1/detect) and applies
// confidence, class, and NMS filtering to whatever comes back.
type httpDetector struct {
	cfg     *config.DetectorConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]Detection]
	loaded  atomic.Bool
}

func newHTTPDetector(cfg *config.DetectorConfig) (*httpDetector, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: http detector requires an endpoint", ErrConfiguration)
	}

	d := &httpDetector{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.BreakerEnabled {
		d.breaker = newBreaker[[]Detection]("detector-" + cfg.Model)
	}
	return d, nil
}

// Load verifies the inference server is reachable. Model availability is
// logged but not enforced: servers frequently alias model names, and a
// missing model surfaces immediately on the first Detect anyway.
func (d *httpDetector) Load(ctx context.Context) error {
	var models modelListResponse
	if err := getJSON(ctx, d.client, d.cfg.Endpoint+"/v1/models", d.cfg.APIKey, &models); err != nil {
		return fmt.Errorf("%w: detector server at %s: %v", ErrModelLoad, d.cfg.Endpoint, err)
	}

	available := make([]string, 0, len(models.Data))
	found := false
	for _, m := range models.Data {
		available = append(available, m.ID)
		if m.ID == d.cfg.Model {
			found = true
		}
	}
	if len(available) > 0 && !found {
		logging.Warn().
			Str("model", d.cfg.Model).
			Strs("available", available).
			Msg("Configured detector model not in server model list")
	}

	d.loaded.Store(true)
	logging.Info().
		Str("endpoint", d.cfg.Endpoint).
		Str("model", d.cfg.Model).
		Bool("breaker", d.cfg.BreakerEnabled).
		Msg("Detector backend loaded")
	return nil
}

// Detect runs object detection on one frame. Failures are wrapped in
// ErrDetection so the caller can skip the frame and continue.
func (d *httpDetector) Detect(ctx context.Context, frame Frame) ([]Detection, error) {
	if !d.loaded.Load() {
		return nil, fmt.Errorf("%w: detector not loaded, call Load first", ErrDetection)
	}

	start := time.Now()
	dets, err := d.detect(ctx, frame)
	metrics.RecordDetectorRequest("http", d.cfg.Model, time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetection, err)
	}
	return dets, nil
}

func (d *httpDetector) detect(ctx context.Context, frame Frame) ([]Detection, error) {
	if d.breaker == nil {
		return d.doDetect(ctx, frame)
	}

	dets, err := d.breaker.Execute(func() ([]Detection, error) {
		return d.doDetect(ctx, frame)
	})
	recordBreakerResult(d.breaker.Name(), err)
	return dets, err
}

func (d *httpDetector) doDetect(ctx context.Context, frame Frame) ([]Detection, error) {
	req := detectRequest{
		Model:               d.cfg.Model,
		Image:               base64.StdEncoding.EncodeToString(frame.Data),
		ImageFormat:         frame.Format.MIMEType(),
		ConfidenceThreshold: d.cfg.ConfidenceThreshold,
		IoUThreshold:        d.cfg.IoUThreshold,
		Classes:             d.cfg.Classes,
	}

	var resp detectResponse
	if err := postJSON(ctx, d.client, d.cfg.Endpoint+"/v1/detect", d.cfg.APIKey, req, &resp); err != nil {
		return nil, err
	}

	dets := FilterByConfidence(resp.Detections, d.cfg.ConfidenceThreshold)
	dets = FilterByClasses(dets, d.cfg.Classes)
	dets = NMS(dets, d.cfg.IoUThreshold)
	return dets, nil
}

func (d *httpDetector) Info() BackendInfo {
	return BackendInfo{
		Name:     "http",
		Model:    d.cfg.Model,
		Endpoint: d.cfg.Endpoint,
		Loaded:   d.loaded.Load(),
	}
}
