// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

/*
Package supervisor runs Skywarden's long-lived services under a suture v4
supervision tree: crashed services restart with backoff, failures stay
inside their layer, and shutdown drains everything or reports what hung.

# Tree Shape

	skywarden (root)
	├── data-layer
	│   ├── AssessmentStoreService
	│   └── JournalGCService (if alert journaling enabled)
	├── messaging-layer
	│   ├── WebSocketHubService
	│   ├── AlertDispatcherService
	│   └── AlertRelayService (if NATS enabled, build tag: nats)
	└── api-layer
	    └── HTTPServerService

Each layer is its own supervisor with its own failure counter, so a
dispatcher crash loop backs off the messaging layer while the API keeps
serving stored assessments, and a journal GC failure never touches
WebSocket connections.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewAssessmentStoreService(store))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewAlertDispatcherService(dispatcher))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	// ... wait for a signal, cancel ctx ...
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}

Supervision events (starts, failures, backoff) are logged through the
given slog.Logger; logging.NewSlogLogger routes them into the same
zerolog stream as the rest of the process.

# Failure Handling

TreeConfig carries suture's failure parameters; zero fields take
suture's defaults (threshold 5, decay 30s, backoff 15s, shutdown
timeout 10s). Failures accumulate per supervisor and decay over
FailureDecay seconds. A single crash restarts immediately; crossing
FailureThreshold puts the layer into FailureBackoff before it tries
again.

# Writing a Service

Services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return nil for a clean permanent stop, an error to be restarted, and
return promptly once ctx is canceled. suture.ErrDoNotRestart ends a
service without treating it as a failure; the wrappers in the services
subpackage adapt Skywarden's components to these rules.

# What Is Not Supervised

The stream processor: its lifecycle belongs to the operator through the
stream start and stop API operations, and a supervised restart would
silently undo a requested stop. Decode or inference failures inside a
running session are handled per frame by the processor itself.

DuckDB: an embedded library, not a service. Its connections belong to
the store package, and a crash there needs a process restart anyway.

The vision backends: HTTP clients, not loops. Circuit breakers in the
vision package isolate their failures per call.

# Debugging Shutdown

A service that ignores its context past ShutdownTimeout shows up in
UnstoppedServiceReport, which cmd/server logs after the tree stops.
The usual causes are goroutines that never select on ctx.Done and
network reads without deadlines.

# See Also

  - internal/supervisor/services: suture.Service wrappers
  - github.com/thejerf/suture/v4: the supervision library
*/
package supervisor
