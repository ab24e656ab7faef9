// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skywarden/internal/validation"
)

// maxJSONBodyBytes caps JSON request bodies. The analyze and stream
// endpoints carry short control payloads; image bytes arrive via multipart
// or URL fetch, never inside a JSON document.
const maxJSONBodyBytes = 1 << 20 // 1 MiB

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
// This includes newlines, carriage returns, tabs, and other control characters that could
// allow attackers to forge log entries or corrupt log files.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		// Replace control characters (0x00-0x1F and 0x7F) with a safe representation
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or an APIError-shaped value carrying
// the VALIDATION_ERROR code and per-field details.
//
// Example:
//
//	req := StreamStartRequest{Source: "rtsp://gate-cam/stream", Stride: 5}
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
func validateRequest(v interface{}) *validation.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}
	return validationErr.ToAPIError()
}

// decodeJSON decodes a size-capped JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer body.Close()
	return json.NewDecoder(body).Decode(dst)
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getDurationParam extracts a Go duration query parameter ("15m", "24h")
// with a default value. Invalid or non-positive values fall back to the
// default rather than erroring; the stats endpoints treat the window as a
// hint, not a contract.
func getDurationParam(r *http.Request, key string, defaultValue time.Duration) time.Duration {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}

	return d
}
