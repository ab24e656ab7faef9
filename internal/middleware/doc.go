// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

/*
Package middleware provides HTTP middleware components for the API server.

This package implements the handler-level infrastructure middleware:
request ID tracking, Prometheus instrumentation, and gzip compression.
Router-level concerns (CORS, rate limiting, security headers, panic
recovery) are wired with chi-native middleware in internal/api.

Key Components:

  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation
  - Compression: Gzip compression for clients that accept it

Each middleware follows the func(http.HandlerFunc) http.HandlerFunc
shape so handlers can be composed directly:

	http.HandleFunc("/api/v1/assessments",
	    middleware.PrometheusMetrics(
	        middleware.Compression(
	            middleware.RequestID(
	                handler,
	            ),
	        ),
	    ),
	)

The chi router in internal/api adapts these same functions into
chi-compatible middleware, so the stack behaves identically whether
handlers are mounted on a plain mux or on the chi route tree.

Usage Example - Request ID:

	handler := middleware.RequestID(func(w http.ResponseWriter, r *http.Request) {
	    id := middleware.GetRequestID(r.Context())
	    // id also appears in the X-Request-ID response header and in
	    // the zerolog context for every log line emitted below here
	})

Thread Safety:

All middleware components are safe for concurrent use:
  - Compression pools gzip writers and resets one per request
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use the client library's atomic collectors

WebSocket upgrade requests bypass compression: the hijacked connection
must remain a raw stream for the protocol handshake to succeed.

See Also:

  - internal/auth: Authentication middleware
  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
