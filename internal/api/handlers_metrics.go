// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	"net/http"

	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
)

// metricsResponse summarizes pipeline processing metrics.
//
// The headline fields cover the common dashboard questions; Metrics carries
// the full export (all counters plus per-stage latency summaries).
type metricsResponse struct {
	TotalRequests           int64          `json:"total_requests"`
	TotalErrors             int64          `json:"total_errors"`
	AverageProcessingTimeMs float64        `json:"average_processing_time_ms"`
	Metrics                 map[string]any `json:"metrics"`
}

// GetMetrics handles GET /api/v1/metrics.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tracker := h.pipeline.Tracker()

	rw.Success(metricsResponse{
		TotalRequests:           tracker.Counter(metrics.CounterFramesProcessed),
		TotalErrors:             tracker.Counter(metrics.CounterProcessingErrors),
		AverageProcessingTimeMs: tracker.Summary(metrics.MetricTotalProcessing).Mean,
		Metrics:                 tracker.Export(),
	})
}

// ResetMetrics handles POST /api/v1/metrics/reset.
//
// Clears all counters and latency series. In-flight timers started before
// the reset discard their samples instead of polluting the fresh series.
func (h *Handler) ResetMetrics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	h.pipeline.Tracker().Reset()
	logging.Info().Msg("Metrics reset")

	rw.Success(map[string]string{"message": "Metrics reset successfully"})
}
