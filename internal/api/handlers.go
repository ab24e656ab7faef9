// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/skywarden/internal/auth"
	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/pipeline"
	"github.com/tomtom215/skywarden/internal/store"
	"github.com/tomtom215/skywarden/internal/stream"
	"github.com/tomtom215/skywarden/internal/threat"
	ws "github.com/tomtom215/skywarden/internal/websocket"
)

// serviceVersion is reported by the health and root endpoints.
const serviceVersion = "1.0.0"

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, WebSocket origin checks (this file)
//   - handlers_helpers.go: Shared helper functions
//   - handlers_health.go: Health/monitoring endpoints + service root
//   - handlers_analyze.go: Single-image assessment endpoints
//   - handlers_stream.go: Stream lifecycle endpoints
//   - handlers_assessments.go: Stored assessment queries
//   - handlers_metrics.go: Processing metrics endpoints
//   - handlers_threat.go: Threat taxonomy endpoint
//   - handlers_auth.go: Token issuance
//   - handlers_websocket.go: Live feed upgrade
//   - handlers_openapi.go: Embedded OpenAPI document
type Handler struct {
	pipeline     *pipeline.Pipeline
	processor    *stream.Processor
	store        *store.Store // nil when persistence is disabled
	wsHub        *ws.Hub
	classifier   *threat.Classifier
	verifier     *auth.KeyVerifier
	issuer       *auth.TokenIssuer
	config       *config.Config
	secrets      *config.SecretBox // nil unless auth.jwt_secret is configured
	security     *logging.SecurityLogger
	onAssessment stream.Callback // fan-out invoked for every streamed assessment
	httpClient   *http.Client
	startTime    time.Time
}

// NewHandler creates a new API handler with all required dependencies.
//
// Dependencies:
//   - pipe: Vision pipeline for single-image assessment
//   - processor: Stream processor for continuous source assessment
//   - st: Assessment store (nil disables the /assessments endpoints)
//   - wsHub: WebSocket hub for the live feed
//   - classifier: Threat classifier for the taxonomy endpoint
//   - verifier: API key verifier for token issuance
//   - issuer: JWT issuer for viewer tokens
//   - cfg: Application configuration
//
// The stream assessment callback is registered separately via
// SetAssessmentCallback because it closes over components that are wired
// after the handler exists.
func NewHandler(pipe *pipeline.Pipeline, processor *stream.Processor, st *store.Store, wsHub *ws.Hub, classifier *threat.Classifier, verifier *auth.KeyVerifier, issuer *auth.TokenIssuer, cfg *config.Config) *Handler {
	var secrets *config.SecretBox
	if cfg.Auth.JWTSecret != "" {
		if box, err := config.NewSecretBox(cfg.Auth.JWTSecret); err == nil {
			secrets = box
		}
	}
	return &Handler{
		pipeline:   pipe,
		processor:  processor,
		store:      st,
		wsHub:      wsHub,
		classifier: classifier,
		verifier:   verifier,
		issuer:     issuer,
		config:     cfg,
		secrets:    secrets,
		security:   logging.NewSecurityLogger(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		startTime:  time.Now(),
	}
}

// SetAssessmentCallback registers the fan-out invoked for every assessment
// produced by a running stream. The callback is built during startup after
// the alert dispatcher, store, and hub are wired, so it cannot be a
// constructor argument.
//
// Thread Safety: Must be called once during startup, before the router
// accepts stream requests.
func (h *Handler) SetAssessmentCallback(cb stream.Callback) {
	h.onAssessment = cb
}

// getUpgrader creates a WebSocket upgrader with proper origin checking and
// a handshake timeout for protection against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
//
// Browser clients always send an Origin header; it is checked against the
// configured CORS origins. Non-browser clients (monitoring scripts, ground
// station tooling) omit Origin and authenticate with a bearer token instead,
// and the token is not reachable from a hostile page, so an absent Origin
// is allowed.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	// If config is nil, allow by default (fail open for tests/development)
	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Auth.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	// Origin not in allowed list - sanitize origin to prevent log injection
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
