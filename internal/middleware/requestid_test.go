// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/skywarden/internal/logging"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	var capturedID string
	handler := func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}

	wrappedHandler := RequestID(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil)
	rec := httptest.NewRecorder()

	wrappedHandler(rec, req)

	responseID := rec.Header().Get("X-Request-ID")
	if responseID == "" {
		t.Error("Expected X-Request-ID header in response")
	}

	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("Response X-Request-ID is not a valid UUID: %v", err)
	}

	if capturedID == "" {
		t.Error("Expected request ID in context")
	}

	if capturedID != responseID {
		t.Errorf("Context ID (%s) doesn't match response header ID (%s)", capturedID, responseID)
	}
}

func TestRequestID_PreservesExistingID(t *testing.T) {
	var capturedID string
	handler := func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}

	wrappedHandler := RequestID(handler)

	existingID := "edge-proxy-request-42"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
	req.Header.Set("X-Request-ID", existingID)
	rec := httptest.NewRecorder()

	wrappedHandler(rec, req)

	responseID := rec.Header().Get("X-Request-ID")
	if responseID != existingID {
		t.Errorf("Expected X-Request-ID to be %s, got %s", existingID, responseID)
	}

	if capturedID != existingID {
		t.Errorf("Expected context ID to be %s, got %s", existingID, capturedID)
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stream/status", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)

		id := rec.Header().Get("X-Request-ID")
		if id == "" {
			t.Fatal("Expected X-Request-ID header on every request")
		}
		if seen[id] {
			t.Errorf("Duplicate request ID generated: %s", id)
		}
		seen[id] = true
	}

	if len(seen) != 10 {
		t.Errorf("Expected 10 unique IDs, got %d", len(seen))
	}
}

func TestRequestID_PopulatesLoggingContext(t *testing.T) {
	var loggedRequestID, correlationID string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		loggedRequestID = logging.RequestIDFromContext(r.Context())
		correlationID = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if loggedRequestID == "" {
		t.Error("Expected request ID in logging context")
	}
	if loggedRequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("Logging context ID (%s) doesn't match response header (%s)",
			loggedRequestID, rec.Header().Get("X-Request-ID"))
	}
	if correlationID == "" {
		t.Error("Expected correlation ID in logging context")
	}
}

func TestRequestID_EmptyHeaderGeneratesNew(t *testing.T) {
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/threat-levels", nil)
	req.Header.Set("X-Request-ID", "")
	rec := httptest.NewRecorder()

	handler(rec, req)

	responseID := rec.Header().Get("X-Request-ID")
	if responseID == "" {
		t.Error("Expected new request ID to be generated for empty header")
	}
	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("Generated ID is not a valid UUID: %v", err)
	}
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("Expected empty string for context without request ID, got %s", id)
	}
}

func TestGetRequestID_WrongValueType(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, 12345)
	if id := GetRequestID(ctx); id != "" {
		t.Errorf("Expected empty string for non-string context value, got %s", id)
	}
}

func TestRequestID_HandlerStatusPreserved(t *testing.T) {
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stream/stop", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 to pass through, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header even on error responses")
	}
}

func BenchmarkRequestID(b *testing.B) {
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		_ = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler(rec, req)
	}
}
