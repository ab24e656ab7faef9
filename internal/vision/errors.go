// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package vision

import "errors"

// Error sentinels classifying pipeline failures. Callers match them with
// errors.Is after unwrapping, which lets the stream processor distinguish
// a fatal startup problem from a per-frame error it should skip past.
var (
	// ErrConfiguration indicates invalid or missing backend configuration.
	// Fatal: surfaced at construction time, never mid-stream.
	ErrConfiguration = errors.New("invalid backend configuration")

	// ErrModelLoad indicates a backend failed its load or connectivity
	// check. Fatal: the process should not start serving without a
	// working backend, and retrying will not help until the operator
	// intervenes.
	ErrModelLoad = errors.New("model load failed")

	// ErrDetection indicates the object detector failed on one frame.
	// Recoverable: the frame is skipped and processing continues.
	ErrDetection = errors.New("detection failed")

	// ErrInference indicates the scene describer failed on one frame.
	// Recoverable: the frame is skipped and processing continues.
	ErrInference = errors.New("scene inference failed")

	// ErrStreamRead indicates a frame source read failure. Raised only by
	// the capture side; a persistent read failure ends capture without
	// tearing down processing of already-queued frames.
	ErrStreamRead = errors.New("stream read failed")

	// ErrStreamEnd signals orderly end of a finite frame source, such as
	// a video file or directory sequence reaching its last frame. Not a
	// failure.
	ErrStreamEnd = errors.New("end of stream")
)

// IsFatal reports whether err is a startup-class error that should abort
// the process rather than skip a frame.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrModelLoad)
}
