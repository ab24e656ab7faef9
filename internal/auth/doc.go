// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package auth implements bearer authentication for the HTTP API.
//
// Two credentials are accepted on the Authorization header. The static
// operator API key, configured as plaintext or as a bcrypt hash, grants
// full access. Short-lived HS256 viewer tokens minted by TokenIssuer grant
// read-only access and exist so browser WebSocket clients, which cannot
// set request headers, can authenticate through a query parameter instead.
//
// Health probes, the swagger UI, the OpenAPI document, and the Prometheus
// scrape endpoint stay on a public allowlist so monitoring keeps working
// when authentication is enabled.
package auth
