// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/stream"
	"github.com/tomtom215/skywarden/internal/vision"
)

// Stream results drain defaults. The processor keeps a bounded buffer, so
// the cap exists to reject absurd values, not to limit memory.
const (
	defaultResultsMax = 50
	maxResultsMax     = 1000
)

// streamResultsResponse wraps drained results with their count.
type streamResultsResponse struct {
	Results []stream.Result `json:"results"`
	Count   int             `json:"count"`
}

// StreamStart handles POST /api/v1/stream/start.
//
// Opens the requested frame source and begins continuous assessment. Only
// one session runs at a time; a second start returns 409 until the first
// session is stopped.
func (h *Handler) StreamStart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req StreamStartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest("Invalid JSON body: " + err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	// Sealed specs let automation pass camera URLs without carrying the
	// plaintext credentials.
	spec := req.Source
	if config.IsEncrypted(spec) {
		if h.secrets == nil {
			rw.BadRequest("Encrypted source spec requires auth.jwt_secret to be configured")
			return
		}
		plain, err := h.secrets.Open(spec)
		if err != nil {
			rw.BadRequest("Cannot decrypt source spec: " + err.Error())
			return
		}
		spec = plain
	}

	src, err := stream.NewSource(spec, &h.config.Stream)
	if err != nil {
		rw.BadRequest("Invalid stream source: " + err.Error())
		return
	}

	opts := stream.StartOptions{Stride: req.Stride, MaxFPS: req.MaxFPS}
	if err := h.processor.StartWithOptions(src, h.onAssessment, opts); err != nil {
		switch {
		case errors.Is(err, stream.ErrAlreadyRunning):
			rw.Conflict("A stream session is already running")
		case errors.Is(err, vision.ErrConfiguration):
			rw.BadRequest("Invalid stream source: " + err.Error())
		default:
			// Source opened by spec but failed on connect (dead RTSP link,
			// unreadable directory).
			rw.ExternalServiceError("stream source", err)
		}
		return
	}

	logging.Info().
		Str("source", sanitizeLogValue(config.MaskSource(spec))).
		Int("stride", req.Stride).
		Float64("max_fps", req.MaxFPS).
		Msg("Stream session started")

	rw.Success(h.processor.Status())
}

// StreamStop handles POST /api/v1/stream/stop.
// Returns the final session status including frame accounting.
func (h *Handler) StreamStop(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.processor.Stop(); err != nil {
		if errors.Is(err, stream.ErrNotRunning) {
			rw.Conflict("No stream session is running")
			return
		}
		rw.InternalError(err.Error())
		return
	}

	logging.Info().Msg("Stream session stopped")
	rw.Success(h.processor.Status())
}

// StreamStatus handles GET /api/v1/stream/status.
func (h *Handler) StreamStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(h.processor.Status())
}

// StreamResults handles GET /api/v1/stream/results.
//
// Drains up to max buffered assessments, oldest first. Draining is
// destructive: each result is returned once. WebSocket clients get the same
// assessments pushed live and do not need this endpoint.
func (h *Handler) StreamResults(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	max := getIntParam(r, "max", defaultResultsMax)
	if max < 1 || max > maxResultsMax {
		rw.BadRequest("max must be between 1 and 1000")
		return
	}

	results := h.processor.Results(max)
	rw.Success(streamResultsResponse{Results: results, Count: len(results)})
}
