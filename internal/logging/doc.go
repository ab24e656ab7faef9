// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package logging provides zerolog-based structured logging for Skywarden.
//
// Every component of the threat assessment pipeline logs through this
// package: capture workers, the detection pipeline, the API layer, the
// supervision tree, and the alert dispatcher all write to one stream
// with one shape. Production output is JSON; development output is a
// human-readable console format.
//
// # Quick Start
//
//	import "github.com/tomtom215/skywarden/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log with structured fields
//	logging.Info().Str("source", "gate-cam").Msg("Stream started")
//	logging.Error().Err(err).Int("code", 500).Msg("Request failed")
//
// Init may be called again at any time; the config hot-reload path uses
// this to apply logging changes without a restart.
//
// # Configuration
//
//	logging.Init(logging.Config{
//	    Level:       "debug",    // trace, debug, info, warn, error, fatal, panic, disabled
//	    Format:      "console",  // json or console
//	    Caller:      true,       // annotate lines with file:line
//	    NoTimestamp: true,       // timestamps are on unless disabled
//	    Output:      os.Stderr,  // destination writer
//	})
//
// The server binaries populate this from the logging section of the
// Skywarden config file, so SKYWARDEN_LOGGING_LEVEL and friends work
// through the usual config override chain.
//
// The level is carried on the logger instance, not on zerolog's global
// level. Swapping in a logger with SetLogger therefore changes filtering
// wholesale, and nothing in this package touches state shared with other
// zerolog users.
//
// # Component Loggers
//
// Long-lived components bind their identity once instead of repeating it
// on every line:
//
//	log := logging.Logger().With().Str("component", "stream").Logger()
//	log.Info().Str("source", "gate-cam").Msg("Capture started")
//
// # Request Correlation
//
// The request ID middleware stores IDs in the request context; Ctx pulls
// them back out so handler logs match the IDs the client sees in the
// response envelope:
//
//	logging.Ctx(r.Context()).Info().Msg("Processing request")
//	// {"level":"info","request_id":"...","message":"Processing request"}
//
// # Authentication Trail
//
// Authentication events go through SecurityLogger, which pins the event
// shape and sanitizes anything that might quote credential material:
//
//	sec := logging.NewSecurityLogger()
//	sec.AuthFailure(r.RemoteAddr, r.UserAgent(), r.URL.Path, err.Error())
//	sec.TokenIssued("viewer", token, r.RemoteAddr) // logs a masked token_id
//
// # Supervision Tree
//
// Suture logs through slog, so the package bridges it back into zerolog.
// Supervision events land in the same stream as everything else:
//
//	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
//
// # Writing Good Log Lines
//
// Always terminate event chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // emitted
//	logging.Info().Str("key", "value")                 // WRONG - never emitted
//
// Prefer structured fields over formatted strings. Fields are searchable
// and keep zerolog on its allocation-free path:
//
//	logging.Info().
//	    Str("source", sourceID).
//	    Int("detections", count).
//	    Dur("elapsed", elapsed).
//	    Msg("Frame assessed")
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. Reads of the
// global logger take an RWMutex read lock; Init and SetLogger take the
// write lock.
//
// # Testing
//
// NewTestLogger builds a timestamp-free logger over any writer:
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
//
// # See Also
//
//   - github.com/rs/zerolog: underlying logging library
//   - internal/middleware: request ID middleware feeding Ctx
//   - internal/auth: authentication middleware feeding SecurityLogger
package logging
