// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	_ "embed"
	"net/http"

	"github.com/tomtom215/skywarden/internal/logging"
)

// openAPISpec is the hand-maintained API contract. Maintained by hand
// rather than generated so the document can describe the shared envelope
// and the WebSocket message types, which annotation generators cannot
// express.
//
//go:embed openapi.json
var openAPISpec []byte

// OpenAPISpec handles GET /api/v1/openapi.json.
// The Swagger UI at /swagger/ renders this document.
func (h *Handler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(openAPISpec); err != nil {
		logging.Error().Err(err).Msg("Failed to write OpenAPI document")
	}
}
