// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

/*
Package api provides the HTTP REST API layer for Skywarden.

The package exposes image and stream threat analysis over HTTP: single-frame
analysis (multipart upload or remote URL), stream session control, assessment
history queries, the threat taxonomy, processing metrics, and a WebSocket feed
of live results. It is the boundary between operator tooling and the vision
pipeline.

Key Components:

  - Router: Chi route configuration and middleware stack integration
  - Handler: request handlers for all endpoints
  - Response formatting: standardized JSON envelope with request metadata
  - Error handling: consistent error codes with appropriate HTTP status codes
  - Authentication integration: bearer token verification via middleware
  - Rate limiting: per-IP limiters with stricter tiers for auth and inference
  - CORS: cross-origin support for browser-based dashboards

API Categories:

1. Analysis (/api/v1/analyze):
  - Multipart image upload analysis
  - Remote image fetch and analysis by URL

2. Stream Sessions (/api/v1/stream/):
  - Start and stop a capture session against an RTSP/file/device source
  - Session status with frame accounting
  - Recent results drained from the session buffer

3. Assessments (/api/v1/assessments):
  - Paginated history of persisted assessments
  - Aggregate statistics over a time window (counts by level, latency)

4. Service Introspection:
  - Health, liveness, and readiness probes (/api/v1/health)
  - Processing metrics summary and reset (/api/v1/metrics)
  - Threat level taxonomy (/api/v1/threat-levels)
  - Prometheus exposition (/metrics) and OpenAPI document

5. Real-Time Feed (/api/v1/ws):
  - WebSocket broadcast of assessments and alerts as frames complete

Usage Example:

	import (
	    "github.com/tomtom215/skywarden/internal/api"
	    "github.com/tomtom215/skywarden/internal/auth"
	)

	handler := api.NewHandler(pipe, processor, store, hub, classifier, verifier, issuer, cfg)
	authMW := auth.NewMiddleware(&cfg.Auth, verifier, issuer)
	router := api.NewRouter(handler, authMW, cfg)

	http.ListenAndServe(":8000", router.SetupChi())

Thread Safety:

All handlers are safe for concurrent requests. Shared resources (pipeline,
processor, store, WebSocket hub) carry their own synchronization.

Security:

  - Bearer token validation on protected routes
  - Per-IP rate limiting with a strict tier for token issuance
  - Security headers (nosniff, frame denial, HSTS behind TLS)
  - Request body size caps on JSON and image uploads

See Also:

  - internal/auth: API key verification and token issuance
  - internal/pipeline: frame assessment orchestration
  - internal/stream: capture session management
  - internal/store: assessment persistence
*/
package api
