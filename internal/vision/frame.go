// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package vision

import (
	"path/filepath"
	"strings"
	"time"
)

// FrameFormat identifies the encoding of a frame's image bytes.
type FrameFormat string

const (
	FormatJPEG FrameFormat = "jpeg"
	FormatPNG  FrameFormat = "png"
	FormatBMP  FrameFormat = "bmp"
)

// MIMEType returns the MIME type for the format, defaulting to JPEG for
// unrecognized values.
func (f FrameFormat) MIMEType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatBMP:
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}

// FormatForPath maps a file extension to a frame format, or "" when the
// extension is not a supported image type.
func FormatForPath(path string) FrameFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".png":
		return FormatPNG
	case ".bmp":
		return FormatBMP
	default:
		return ""
	}
}

// Frame is one encoded image captured from a stream, file, or upload.
//
// Data holds the compressed image bytes exactly as captured; Skywarden never
// decodes pixels itself, it forwards the encoded image to the inference
// backends. Seq is assigned by the capture side and is strictly increasing
// per source. Source identifies where the frame came from (stream URL, file
// path, or "upload" for API submissions).
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Data      []byte
	Format    FrameFormat
	Source    string
}

// NewFrame builds a frame stamped with the current time.
func NewFrame(seq uint64, data []byte, format FrameFormat, source string) Frame {
	return Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Data:      data,
		Format:    format,
		Source:    source,
	}
}
