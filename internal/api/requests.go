// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

// AnalyzeURLRequest represents the validated request body for POST /analyze/url.
//
// Fields:
//   - URL: Required absolute URL of the image to fetch and assess
type AnalyzeURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// StreamStartRequest represents the validated request body for POST /stream/start.
//
// Fields:
//   - Source: Required frame source spec (directory path, video file, or RTSP URL)
//   - Stride: Process every Nth frame (1-120, 0 uses the configured default)
//   - MaxFPS: Upper bound on processed frames per second (0 disables the cap)
type StreamStartRequest struct {
	Source string  `json:"source" validate:"required,stream_source"`
	Stride int     `json:"stride" validate:"omitempty,min=1,max=120"`
	MaxFPS float64 `json:"max_fps" validate:"omitempty,gt=0,lte=60"`
}

// TokenRequest represents the validated request body for POST /auth/token.
//
// Fields:
//   - APIKey: Required operator API key exchanged for a short-lived viewer token
type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}
