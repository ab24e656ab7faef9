// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	"net/http"
	"time"
)

// healthResponse reports overall service health.
//
// The first four fields preserve the flat shape monitoring already scrapes;
// the rest cover the subsystems added since: streaming, persistence, and the
// live feed.
type healthResponse struct {
	Status           string  `json:"status"`
	ModelLoaded      bool    `json:"model_loaded"`
	DetectorLoaded   bool    `json:"detector_loaded"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	Version          string  `json:"version"`
	StreamRunning    bool    `json:"stream_running"`
	StorageConnected bool    `json:"storage_connected"`
	WebSocketClients int     `json:"websocket_clients"`
}

// Health handles GET /api/v1/health.
//
// Reports "healthy" when both inference backends are loaded and, when
// persistence is enabled, the store answers a ping. Anything less is
// "degraded"; the endpoint itself always returns 200 so monitors can read
// the detail fields.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	detectorLoaded := h.pipeline.DetectorInfo().Loaded
	modelLoaded := h.pipeline.DescriberInfo().Loaded
	storageConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	status := "healthy"
	if !detectorLoaded || !modelLoaded {
		status = "degraded"
	} else if h.store != nil && !storageConnected {
		status = "degraded"
	}

	clients := 0
	if h.wsHub != nil {
		clients = h.wsHub.GetClientCount()
	}

	rw.Success(healthResponse{
		Status:           status,
		ModelLoaded:      modelLoaded,
		DetectorLoaded:   detectorLoaded,
		UptimeSeconds:    time.Since(h.startTime).Seconds(),
		Version:          serviceVersion,
		StreamRunning:    h.processor.Running(),
		StorageConnected: storageConnected,
		WebSocketClients: clients,
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Returns 200 OK only when both inference backends are loaded and, when
// persistence is enabled, the store answers a ping. Returns 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	detectorLoaded := h.pipeline.DetectorInfo().Loaded
	modelLoaded := h.pipeline.DescriberInfo().Loaded
	storageReady := h.store == nil || h.store.Ping(r.Context()) == nil
	ready := detectorLoaded && modelLoaded && storageReady

	checks := map[string]interface{}{
		"detector_loaded": detectorLoaded,
		"model_loaded":    modelLoaded,
		"storage_ready":   storageReady,
		"ready_to_serve":  ready,
	}

	if !ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service not ready", checks)
		return
	}

	rw.Success(checks)
}

// Root handles GET /.
// Mirrors the health and documentation entry points for anyone probing the
// service by hand.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]string{
		"message": "Skywarden Threat Assessment API",
		"version": serviceVersion,
		"docs":    "/swagger/index.html",
		"health":  "/api/v1/health",
	})
}
