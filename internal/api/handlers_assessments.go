// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/skywarden/internal/store"
)

// defaultStatsWindow bounds assessment statistics when the request does not
// name a window.
const defaultStatsWindow = 24 * time.Hour

// assessmentStatsResponse aggregates stored assessments over a time window.
type assessmentStatsResponse struct {
	WindowSeconds int64               `json:"window_seconds"`
	Since         time.Time           `json:"since"`
	CountsByLevel map[string]int64    `json:"counts_by_level"`
	Total         int64               `json:"total"`
	Latency       *store.LatencyStats `json:"latency"`
	DroppedSaves  uint64              `json:"dropped_saves"`
}

// requireStore writes a 503 and returns false when persistence is disabled.
func (h *Handler) requireStore(rw *ResponseWriter) bool {
	if h.store == nil {
		rw.ServiceUnavailable("Assessment storage is disabled")
		return false
	}
	return true
}

// ListAssessments handles GET /api/v1/assessments.
//
// Returns the most recent stored assessments, newest first. The limit
// defaults to the configured page size and is capped at the configured
// maximum rather than rejected.
func (h *Handler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.requireStore(rw) {
		return
	}

	limit := getIntParam(r, "limit", h.config.API.DefaultPageSize)
	if limit < 1 {
		rw.BadRequest("limit must be a positive integer")
		return
	}
	if limit > h.config.API.MaxPageSize {
		limit = h.config.API.MaxPageSize
	}

	assessments, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(assessments, &PaginationMeta{
		Count:   len(assessments),
		Limit:   limit,
		HasMore: len(assessments) == limit,
	})
}

// AssessmentStats handles GET /api/v1/assessments/stats.
//
// Aggregates stored assessments over a window (default 24h, override with
// ?window=30m style Go durations): per-level counts plus processing latency
// percentiles computed in the database.
func (h *Handler) AssessmentStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.requireStore(rw) {
		return
	}

	window := getDurationParam(r, "window", defaultStatsWindow)
	since := time.Now().UTC().Add(-window)

	counts, err := h.store.CountByLevel(r.Context(), since)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	latency, err := h.store.LatencyStats(r.Context(), since)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	rw.Success(assessmentStatsResponse{
		WindowSeconds: int64(window.Seconds()),
		Since:         since,
		CountsByLevel: counts,
		Total:         total,
		Latency:       latency,
		DroppedSaves:  h.store.Dropped(),
	})
}
