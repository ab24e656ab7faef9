// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package batch runs a directory of still images through the assessment
// pipeline with a bounded worker pool.
//
// A run scans the input directory (non-recursive) for jpg, jpeg, png, and
// bmp files, assesses each one, and writes two artifacts into the output
// directory: results.json with the per-image assessments in filename order,
// and report.md with the threat distribution, detection and latency
// statistics, and the highest-threat images. Images that fail to read or
// assess are logged and skipped; the run keeps going.
package batch
