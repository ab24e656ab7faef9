// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/vision"
)

// maxImageBytes caps uploaded and fetched image size. Surveillance frames
// run well under this; anything larger is not a camera frame.
const maxImageBytes = 10 << 20 // 10 MiB

// AnalyzeImage handles POST /api/v1/analyze.
//
// Accepts a multipart form with the image in the "file" field, runs the full
// detection and scene analysis pipeline on it, and returns the resulting
// threat assessment.
func (h *Handler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		rw.BadRequest("Request must include an image in the \"file\" form field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		rw.BadRequest(fmt.Sprintf("Invalid file type: %s. Expected image.", contentType))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		rw.BadRequest("Failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		rw.BadRequest("Uploaded file is empty")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("filename", sanitizeLogValue(header.Filename)).
		Int("bytes", len(data)).
		Msg("Processing uploaded image")

	h.assess(rw, r, data, formatForImage(contentType, header.Filename), "upload")
}

// AnalyzeURL handles POST /api/v1/analyze/url.
//
// Fetches the image at the requested URL (size-capped) and runs the pipeline
// on it. The fetch happens here rather than in the inference backends so a
// dead camera link surfaces as a 502 instead of a backend timeout.
func (h *Handler) AnalyzeURL(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req AnalyzeURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest("Invalid JSON body: " + err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	logging.Ctx(r.Context()).Info().Str("url", sanitizeLogValue(req.URL)).Msg("Processing image from URL")

	data, contentType, err := h.fetchImage(r, req.URL)
	if err != nil {
		rw.ExternalServiceError("image fetch", err)
		return
	}
	if !strings.HasPrefix(contentType, "image/") && vision.FormatForPath(req.URL) == "" {
		rw.BadRequest(fmt.Sprintf("Invalid file type: %s. Expected image.", contentType))
		return
	}

	h.assess(rw, r, data, formatForImage(contentType, req.URL), req.URL)
}

// fetchImage retrieves image bytes from a URL with the handler's HTTP client.
func (h *Handler) fetchImage(r *http.Request, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d fetching image", resp.StatusCode)
	}

	// Read one byte past the cap so oversize bodies are detected instead of
	// silently truncated.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image URL returned an empty body")
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// assess runs the pipeline on one frame and writes the assessment or the
// pipeline error. Single-image requests use sequence 0; only streams carry
// meaningful sequence numbers.
func (h *Handler) assess(rw *ResponseWriter, r *http.Request, data []byte, format vision.FrameFormat, source string) {
	frame := vision.NewFrame(0, data, format, source)

	assessment, err := h.pipeline.Process(r.Context(), frame)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("source", sanitizeLogValue(source)).Msg("Assessment failed")
		rw.InternalError(err.Error())
		return
	}

	rw.Success(assessment)
}

// formatForImage resolves the frame format from the declared content type,
// falling back to the path extension, then to JPEG.
func formatForImage(contentType, name string) vision.FrameFormat {
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return vision.FormatPNG
	case strings.HasPrefix(contentType, "image/bmp"):
		return vision.FormatBMP
	case strings.HasPrefix(contentType, "image/jpeg"):
		return vision.FormatJPEG
	}
	if f := vision.FormatForPath(name); f != "" {
		return f
	}
	return vision.FormatJPEG
}
