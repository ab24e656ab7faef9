// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// checkURL parses raw and verifies the scheme is one of allowed and a host
// is present. fieldName prefixes every error so validation failures name
// the offending environment variable.
func checkURL(raw, fieldName string, allowed ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	ok := false
	for _, scheme := range allowed {
		if u.Scheme == scheme {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%s scheme must be %s, got: %s", fieldName, strings.Join(allowed, " or "), u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}

// validateHTTPURL checks a URL for an HTTP/HTTPS service endpoint. Paths
// are allowed because inference endpoints and webhooks typically include
// one (e.g. http://inference:8000/v1/detect).
func validateHTTPURL(rawURL, fieldName string) error {
	return checkURL(rawURL, fieldName, "http", "https")
}

// validateNATSURL checks the NATS server URL. Plain, TLS, and WebSocket
// transports are accepted; host may be an IP or hostname with optional port.
func validateNATSURL(rawURL string) error {
	return checkURL(rawURL, "SKYWARDEN_NATS_URL", "nats", "tls", "ws", "wss")
}
