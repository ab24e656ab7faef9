// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package stream runs the assessment pipeline against continuous frame
// sources: MJPEG cameras, RTSP/video files via ffmpeg, and image
// directories.
//
// A session is two goroutines joined by a bounded channel:
//
//	source ──> capture ──[frames ch]──> processing ──[results ch]──> Results()
//	            stride        cap 30       pipeline       cap 30  └─> Callback
//
// Both channels drop on full rather than block. For a surveillance feed a
// fresh frame is worth more than a complete history, so when inference
// falls behind the session sheds load instead of building latency. Every
// drop is counted and visible in Stats and Prometheus.
//
// Capture failures are contained: a camera going away ends the capture
// goroutine but not the session, so buffered frames still get assessed and
// the operator sees the failure in status output rather than a vanished
// session. Stop waits a bounded time for each goroutine and abandons
// stragglers with a warning.
//
// ProcessFile is the synchronous counterpart for forensic runs: one video
// file, every Nth frame, all results returned at once.
package stream
