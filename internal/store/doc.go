// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package store persists threat assessments to an embedded DuckDB
// database and answers history queries for the REST API.
//
// Persistence is best-effort by design: the pipeline hands finished
// assessments to SaveAsync, a single background writer drains the queue,
// and a full queue drops entries rather than slowing frame processing.
// A periodic sweep enforces the configured retention window.
package store
