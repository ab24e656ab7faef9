// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/skywarden/internal/metrics"
)

// PrometheusMetrics instruments a handler with API request metrics:
// an in-flight gauge plus per-request counters and latency histograms
// labeled by method, path, and status code. Route paths in Skywarden
// carry no embedded IDs, so r.URL.Path is safe as a label value.
func PrometheusMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		start := time.Now()

		// Status defaults to 200: a handler that writes the body without
		// an explicit WriteHeader gets exactly that from net/http.
		rec := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			metrics.TrackActiveRequest(false)
			metrics.RecordAPIRequest(r.Method, r.URL.Path, strconv.Itoa(rec.statusCode), time.Since(start))
		}()

		next(rec, r)
	}
}

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
