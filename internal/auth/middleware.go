// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package auth

import (
	"context"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
)

type contextKey string

// PrincipalContextKey is the request-context key carrying the authenticated
// principal.
const PrincipalContextKey contextKey = "principal"

// Credential methods recorded on the principal.
const (
	MethodAPIKey = "api_key"
	MethodToken  = "token"
)

// Principal identifies the authenticated caller for downstream handlers.
type Principal struct {
	Subject string
	Role    string
	Method  string
}

// FromContext returns the principal attached by the middleware, or nil when
// the request was not authenticated (public path, or auth disabled).
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(PrincipalContextKey).(*Principal)
	return p
}

// Middleware enforces bearer authentication on API routes.
type Middleware struct {
	enabled        bool
	verifier       *KeyVerifier
	issuer         *TokenIssuer
	security       *logging.SecurityLogger
	publicPrefixes []string
}

// NewMiddleware creates the authentication middleware. The verifier and
// issuer may be nil when authentication is disabled.
func NewMiddleware(cfg *config.AuthConfig, verifier *KeyVerifier, issuer *TokenIssuer) *Middleware {
	return &Middleware{
		enabled:  cfg.Enabled,
		verifier: verifier,
		issuer:   issuer,
		security: logging.NewSecurityLogger(),
		publicPrefixes: []string{
			"/api/v1/health",
			"/api/v1/openapi.json",
			"/swagger/",
			"/metrics",
		},
	}
}

// Authenticate wraps next with bearer credential checks. Requests to public
// paths pass through untouched.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled || m.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cred := extractCredential(r)
		if cred == "" {
			m.security.AuthFailure(r.RemoteAddr, r.UserAgent(), r.URL.Path, "no credential presented")
			writeUnauthorized(w, "authentication required")
			return
		}

		principal, err := m.authenticate(cred)
		if err != nil {
			m.security.AuthFailure(r.RemoteAddr, r.UserAgent(), r.URL.Path, err.Error())
			writeUnauthorized(w, "invalid credentials")
			return
		}

		m.security.AuthSuccess(principal.Method, principal.Subject, r.RemoteAddr, r.UserAgent())
		ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate resolves a bearer credential to a principal. A JWT carries
// exactly two dot separators; anything else is checked against the operator
// key directly, and a JWT-shaped credential that fails validation falls
// back to the key check so keys containing dots still work.
func (m *Middleware) authenticate(cred string) (*Principal, error) {
	if m.issuer != nil && strings.Count(cred, ".") == 2 {
		if claims, err := m.issuer.Validate(cred); err == nil {
			return &Principal{
				Subject: claims.Subject,
				Role:    claims.Role,
				Method:  MethodToken,
			}, nil
		}
	}

	if m.verifier != nil && m.verifier.Verify(cred) {
		return &Principal{
			Subject: "operator",
			Role:    "admin",
			Method:  MethodAPIKey,
		}, nil
	}

	return nil, ErrInvalidCredentials
}

// isPublic reports whether the path is on the unauthenticated allowlist.
func (m *Middleware) isPublic(path string) bool {
	for _, prefix := range m.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractCredential pulls the bearer credential from the Authorization
// header, falling back to the "token" query parameter for browser WebSocket
// clients that cannot set request headers.
func extractCredential(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	return r.URL.Query().Get("token")
}

// writeUnauthorized sends a 401 with the standard response envelope.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	body := map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to write unauthorized response")
	}
}
