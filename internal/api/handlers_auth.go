// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/skywarden/internal/auth"
	"github.com/tomtom215/skywarden/internal/logging"
)

// tokenResponse carries a freshly minted viewer token.
type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
}

// IssueToken handles POST /api/v1/auth/token.
//
// Exchanges the operator API key for a short-lived JWT. Viewer dashboards
// hold the token instead of the key, so a leaked browser session expires on
// its own instead of burning the key.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if !h.config.Auth.Enabled || h.verifier == nil || h.issuer == nil {
		rw.ServiceUnavailable("Authentication is disabled")
		return
	}

	var req TokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest("Invalid JSON body: " + err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	if !h.verifier.Verify(req.APIKey) {
		h.security.TokenRejected(r.RemoteAddr, "operator credential mismatch")
		rw.Unauthorized("Invalid API key")
		return
	}

	token, expiresAt, err := h.issuer.Issue()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to issue viewer token")
		rw.InternalError("Failed to issue token")
		return
	}

	h.security.TokenIssued(auth.SubjectViewer, token, r.RemoteAddr)

	rw.Success(tokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		ExpiresIn: int64(h.issuer.TTL().Seconds()),
	})
}
