// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/skywarden/internal/config"
)

// bcryptCost is the cost factor used when hashing a plaintext key at startup.
const bcryptCost = 12

var (
	// ErrNoCredentials indicates the request carried no bearer credential.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the credential failed verification.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// KeyVerifier validates the static operator API key.
//
// The key may be configured as a bcrypt hash (recommended) or as plaintext.
// A plaintext key is hashed once at initialization so that every
// verification goes through bcrypt's timing-safe comparison regardless of
// how the key was supplied.
type KeyVerifier struct {
	hash []byte
}

// NewKeyVerifier builds a verifier from the configured key material.
// APIKeyHash takes precedence over APIKey when both are set.
func NewKeyVerifier(cfg *config.AuthConfig) (*KeyVerifier, error) {
	switch {
	case cfg.APIKeyHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.APIKeyHash)); err != nil {
			return nil, fmt.Errorf("invalid API key hash: %w", err)
		}
		return &KeyVerifier{hash: []byte(cfg.APIKeyHash)}, nil
	case cfg.APIKey != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.APIKey), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash API key: %w", err)
		}
		return &KeyVerifier{hash: hash}, nil
	default:
		return nil, fmt.Errorf("API key is required: set SKYWARDEN_AUTH_API_KEY_HASH or SKYWARDEN_AUTH_API_KEY")
	}
}

// Verify reports whether candidate matches the configured operator key.
func (v *KeyVerifier) Verify(candidate string) bool {
	if candidate == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.hash, []byte(candidate)) == nil
}
