// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// defaultShutdownTimeout bounds the graceful drain when the caller
// passes a non-positive timeout.
const defaultShutdownTimeout = 10 * time.Second

// HTTPServer is the slice of *http.Server lifecycle the wrapper drives.
// Tests substitute scripted implementations so no socket is bound.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService adapts net/http's blocking ListenAndServe to the
// context-driven suture.Service contract for the operator API.
//
// The listener runs in its own goroutine while Serve watches for either
// a server failure (address already bound, listener torn down) or
// supervisor shutdown. The drain is bounded by the configured timeout
// so a stop issued during a long video analysis request cannot hang
// the rest of the tree.
//
// Example usage:
//
//	server := &http.Server{Addr: ":8090", Handler: router}
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService wraps server for supervision. A non-positive
// shutdownTimeout falls back to 10 seconds.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service.
//
// Supervisor-initiated shutdown returns ctx.Err() so suture records a
// normal termination. Listen failures come back wrapped, which makes
// suture apply its restart policy. A server that stops on its own
// without error (external Shutdown call) yields nil.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	// The goroutine delivers exactly one value: the terminal
	// ListenAndServe result with the expected ErrServerClosed
	// filtered out.
	result := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		result <- err
	}()

	select {
	case err := <-result:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// The service context is already canceled, so the drain gets its
	// own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	// ListenAndServe returns once Shutdown closes the listener.
	<-result
	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (h *HTTPServerService) String() string {
	return h.name
}
