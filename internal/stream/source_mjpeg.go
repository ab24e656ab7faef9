// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package stream

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/vision"
)

// maxFrameBytes caps a single MJPEG part. A frame larger than this is a
// corrupt or hostile stream, not a camera image.
const maxFrameBytes = 32 << 20

// MJPEGSource reads frames from an IP camera's multipart/x-mixed-replace
// HTTP stream, the wire format most MJPEG cameras and restreamers serve.
//
// The underlying request lives on the context passed to Open, so
// cancelling that context unblocks an in-flight Read.
type MJPEGSource struct {
	url    string
	name   string // url with credentials masked
	client *http.Client

	resp   *http.Response
	parts  *multipart.Reader
	seq    uint64
	closed bool
}

// NewMJPEGSource builds a source for the given stream URL. A nil client
// uses http.DefaultClient; MJPEG streams are unbounded, so the client
// must not carry a total-request timeout.
func NewMJPEGSource(url string, client *http.Client) *MJPEGSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &MJPEGSource{url: url, name: config.MaskSource(url), client: client}
}

// Name identifies the source in logs, status output, and frame tags.
// Credentials embedded in the URL are masked.
func (s *MJPEGSource) Name() string {
	return s.name
}

// Live marks camera streams for the wider capture stride and the
// capture-rate cap.
func (s *MJPEGSource) Live() bool {
	return true
}

// Open connects to the camera and validates the multipart content type.
func (s *MJPEGSource) Open(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %v", vision.ErrConfiguration, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// The transport error repeats the request URL, credentials and all.
		detail := strings.ReplaceAll(err.Error(), s.url, s.name)
		return fmt.Errorf("%w: connecting to %s: %s", vision.ErrStreamRead, s.name, detail)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("%w: HTTP %d from %s", vision.ErrStreamRead, resp.StatusCode, s.name)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		return fmt.Errorf("%w: %s is not a multipart stream (Content-Type %q)",
			vision.ErrStreamRead, s.name, resp.Header.Get("Content-Type"))
	}

	s.resp = resp
	s.parts = multipart.NewReader(resp.Body, params["boundary"])
	s.seq = 0
	s.closed = false
	return nil
}

// Read returns the next frame from the stream. The stream closing from the
// camera side is reported as end of stream, anything else as a read error.
func (s *MJPEGSource) Read(ctx context.Context) (vision.Frame, error) {
	if err := ctx.Err(); err != nil {
		return vision.Frame{}, err
	}
	if s.parts == nil {
		return vision.Frame{}, fmt.Errorf("%w: source not open", vision.ErrStreamRead)
	}

	part, err := s.parts.NextPart()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return vision.Frame{}, ctxErr
		}
		if err == io.EOF {
			return vision.Frame{}, vision.ErrStreamEnd
		}
		return vision.Frame{}, fmt.Errorf("%w: %v", vision.ErrStreamRead, err)
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, maxFrameBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return vision.Frame{}, ctxErr
		}
		return vision.Frame{}, fmt.Errorf("%w: reading part: %v", vision.ErrStreamRead, err)
	}
	if len(data) > maxFrameBytes {
		return vision.Frame{}, fmt.Errorf("%w: frame exceeds %d bytes", vision.ErrStreamRead, maxFrameBytes)
	}

	format := vision.FormatJPEG
	if ct := part.Header.Get("Content-Type"); strings.Contains(ct, "png") {
		format = vision.FormatPNG
	}

	frame := vision.NewFrame(s.seq, data, format, s.name)
	s.seq++
	return frame, nil
}

// Close tears down the HTTP response. Safe to call more than once.
func (s *MJPEGSource) Close() error {
	if s.closed || s.resp == nil {
		return nil
	}
	s.closed = true
	return s.resp.Body.Close()
}
