// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

const (
	// maxUserAgentLen caps the user agent field so a hostile client
	// cannot pad the auth trail.
	maxUserAgentLen = 100

	// maxReasonLen caps failure reasons, which may wrap library errors
	// of unbounded length.
	maxReasonLen = 200
)

// credentialWords flag failure reasons that appear to quote credential
// material, which must never reach the log verbatim.
var credentialWords = []string{
	"password", "secret", "token", "key",
	"bearer", "authorization", "cookie",
}

// SecurityLogger writes authentication events in a fixed shape under
// component=auth, so the auth trail can be filtered out of the main
// log stream. Every value that might embed credential material passes
// through a sanitizer first.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger over the global logger.
func NewSecurityLogger() *SecurityLogger {
	return NewSecurityLoggerWithLogger(Logger())
}

// NewSecurityLoggerWithLogger creates a security logger over a specific
// zerolog logger. Tests use this to capture the auth trail.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// AuthSuccess records an accepted credential. Logged at debug level so
// routine traffic does not flood the log at the default level.
func (l *SecurityLogger) AuthSuccess(method, principal, remoteAddr, userAgent string) {
	l.event(l.logger.Debug(), "auth_success", remoteAddr, userAgent).
		Str("method", method).
		Str("principal", principal).
		Msg("Credential accepted")
}

// AuthFailure records a rejected credential.
func (l *SecurityLogger) AuthFailure(remoteAddr, userAgent, path, reason string) {
	e := l.event(l.logger.Warn(), "auth_failed", remoteAddr, userAgent)
	if path != "" {
		e = e.Str("path", path)
	}
	e.Str("reason", SanitizeReason(reason)).
		Msg("Credential rejected")
}

// TokenIssued records a minted viewer token. Only the masked form of
// the token is logged.
func (l *SecurityLogger) TokenIssued(principal, token, remoteAddr string) {
	l.event(l.logger.Info(), "token_issued", remoteAddr, "").
		Str("principal", principal).
		Str("token_id", SanitizeToken(token)).
		Msg("Viewer token issued")
}

// TokenRejected records a refused token request.
func (l *SecurityLogger) TokenRejected(remoteAddr, reason string) {
	l.event(l.logger.Warn(), "token_rejected", remoteAddr, "").
		Str("reason", SanitizeReason(reason)).
		Msg("Token request rejected")
}

// event stamps the fields every auth event carries.
func (l *SecurityLogger) event(e *zerolog.Event, kind, remoteAddr, userAgent string) *zerolog.Event {
	e = e.Str("event", kind)
	if remoteAddr != "" {
		e = e.Str("remote_addr", remoteAddr)
	}
	if userAgent != "" {
		e = e.Str("user_agent", truncate(userAgent, maxUserAgentLen))
	}
	return e
}

// SanitizeToken masks a token or API key down to its first and last 4
// characters. Anything short enough that the ends would reveal most of
// it is masked entirely.
//
//	"eyJhbGciOiJIUzI1NiIs...2T8q"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeReason replaces a failure reason that appears to quote
// credential material with a generic message and truncates the rest.
// Library errors sometimes echo the credential they failed to parse.
func SanitizeReason(reason string) string {
	lower := strings.ToLower(reason)
	for _, w := range credentialWords {
		if strings.Contains(lower, w) {
			return "authentication error"
		}
	}
	return truncate(reason, maxReasonLen)
}

// truncate caps s at max bytes with a marker.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
