// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skywarden/internal/config"
)

func detectorTestConfig(endpoint string) *config.DetectorConfig {
	return &config.DetectorConfig{
		Backend:             "http",
		Endpoint:            endpoint,
		Model:               "yolov8n",
		ConfidenceThreshold: 0.25,
		IoUThreshold:        0.45,
		Timeout:             5 * time.Second,
		BreakerEnabled:      false,
	}
}

// newDetectorServer builds a fake inference server answering the model list
// and detect endpoints.
func newDetectorServer(t *testing.T, dets []Detection, capture *detectRequest) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"yolov8n"},{"id":"yolov8s"}]}`))
	})
	mux.HandleFunc("/v1/detect", func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("failed to decode detect request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		resp := detectResponse{Detections: dets, Model: "yolov8n", InferenceMs: 12.5}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("failed to encode detect response: %v", err)
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPDetector_RequiresEndpoint(t *testing.T) {
	cfg := detectorTestConfig("")

	_, err := NewDetector(cfg)
	if err == nil {
		t.Fatal("expected error for missing endpoint")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error %v should match ErrConfiguration", err)
	}
}

func TestHTTPDetector_LoadAndDetect(t *testing.T) {
	serverDets := []Detection{
		det(10, 10, 110, 110, 0.92, "drone", 4),
		det(200, 50, 260, 180, 0.81, "person", 0),
	}
	var captured detectRequest
	server := newDetectorServer(t, serverDets, &captured)

	d, err := NewDetector(detectorTestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}

	if err := d.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	info := d.Info()
	if !info.Loaded || info.Name != "http" || info.Model != "yolov8n" {
		t.Errorf("Info() = %+v after Load", info)
	}

	frameData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	dets, err := d.Detect(context.Background(), NewFrame(7, frameData, FormatJPEG, "cam-1"))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(dets) != 2 {
		t.Fatalf("Detect() returned %d detections, want 2", len(dets))
	}

	// Request carried the model, encoded image, and thresholds.
	if captured.Model != "yolov8n" {
		t.Errorf("request model = %q, want yolov8n", captured.Model)
	}
	decoded, err := base64.StdEncoding.DecodeString(captured.Image)
	if err != nil {
		t.Fatalf("request image is not valid base64: %v", err)
	}
	if string(decoded) != string(frameData) {
		t.Error("request image does not round-trip the frame bytes")
	}
	if captured.ImageFormat != "image/jpeg" {
		t.Errorf("request image_format = %q, want image/jpeg", captured.ImageFormat)
	}
	if captured.ConfidenceThreshold != 0.25 || captured.IoUThreshold != 0.45 {
		t.Errorf("request thresholds = %v/%v, want 0.25/0.45",
			captured.ConfidenceThreshold, captured.IoUThreshold)
	}
}

func TestHTTPDetector_DetectBeforeLoad(t *testing.T) {
	server := newDetectorServer(t, nil, nil)

	d, err := NewDetector(detectorTestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}

	_, err = d.Detect(context.Background(), NewFrame(1, []byte{1}, FormatJPEG, "test"))
	if !errors.Is(err, ErrDetection) {
		t.Errorf("Detect before Load = %v, want ErrDetection", err)
	}
}

func TestHTTPDetector_LoadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model still loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	d, err := NewDetector(detectorTestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}

	err = d.Load(context.Background())
	if !errors.Is(err, ErrModelLoad) {
		t.Errorf("Load() = %v, want ErrModelLoad", err)
	}
	if !IsFatal(err) {
		t.Error("load failure should be fatal")
	}
	if d.Info().Loaded {
		t.Error("backend must not report loaded after failed Load")
	}
}

func TestHTTPDetector_FiltersServerResults(t *testing.T) {
	// Server returns one below-threshold box and two overlapping same-class
	// boxes; the client applies confidence filtering and NMS regardless.
	serverDets := []Detection{
		det(0, 0, 10, 10, 0.10, "car", 2),
		det(20, 20, 120, 120, 0.90, "drone", 4),
		det(22, 22, 122, 122, 0.70, "drone", 4),
	}
	server := newDetectorServer(t, serverDets, nil)

	d, err := NewDetector(detectorTestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	if err := d.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	dets, err := d.Detect(context.Background(), NewFrame(1, []byte{1}, FormatJPEG, "test"))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("Detect() returned %d detections, want 1 after filtering: %v", len(dets), dets)
	}
	if dets[0].Confidence != 0.90 {
		t.Errorf("survivor confidence = %v, want 0.90", dets[0].Confidence)
	}
}

func TestHTTPDetector_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	mux.HandleFunc("/v1/detect", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d, err := NewDetector(detectorTestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	if err := d.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	_, err = d.Detect(context.Background(), NewFrame(1, []byte{1}, FormatJPEG, "test"))
	if !errors.Is(err, ErrDetection) {
		t.Errorf("Detect() = %v, want ErrDetection", err)
	}
	if IsFatal(err) {
		t.Error("per-frame detection failure must not be fatal")
	}
}

func TestHTTPDetector_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	mux.HandleFunc("/v1/detect", func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server detects the client disconnect;
		// with unread body bytes it never cancels r.Context() and the
		// deferred server.Close() deadlocks.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d, err := NewDetector(detectorTestConfig(server.URL))
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	if err := d.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err = d.Detect(ctx, NewFrame(1, []byte{1}, FormatJPEG, "test"))
	if !errors.Is(err, ErrDetection) {
		t.Errorf("cancelled Detect() = %v, want ErrDetection wrap", err)
	}
}
