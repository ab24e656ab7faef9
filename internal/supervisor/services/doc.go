// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

/*
Package services adapts Skywarden's components to suture.Service so the
supervision tree can run them:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Each wrapper declares its own one-method interface instead of importing
the wrapped package, so the supervisor tree stays free of dependencies
on the rest of the application, and tests substitute scripted
implementations instead of binding sockets or opening databases.

# Wrappers

  - HTTPServerService: *http.Server with graceful drain on shutdown and
    a configurable drain timeout.
  - WebSocketHubService: the live assessment feed hub's RunWithContext.
  - AlertDispatcherService: the alert dispatcher's Run loop, which
    replays undelivered journal entries before consuming.
  - AssessmentStoreService: the store's async writer and retention
    pruning; the write queue flushes on shutdown.
  - JournalGCService: periodic Badger value-log GC for the alert
    journal. Badger never reclaims value-log space on its own.
  - AlertRelayService: the JetStream alert relay for viewer nodes. The
    relay type needs the nats build tag; the wrapper compiles either way.

# What Is Not Wrapped

The stream processor. Its lifecycle belongs to the operator through the
stream start and stop API operations; putting it under supervision would
turn a requested stop into a crash to repair.

# Lifecycle Translation

Run-shaped components (hub, dispatcher, store, relay) block on ctx and
return ctx.Err() on shutdown, so their wrappers are straight delegates
and the supervisor only restarts them after real failures.

The HTTP server is the awkward one: ListenAndServe has no context. Its
wrapper runs the listener in a goroutine that reports exactly one
result, with http.ErrServerClosed already filtered to nil. A listener
failure before shutdown (a taken port, usually) surfaces as the Serve
error so the supervisor can retry; on shutdown the wrapper drains with
its own deadline, collects the listener result, and returns ctx.Err().

Every wrapper implements fmt.Stringer with a fixed name (http-server,
websocket-hub, alert-dispatcher, assessment-store, journal-gc,
nats-alert-relay); suture uses it to identify services in supervision
events.

# See Also

  - internal/supervisor: the tree these services hang off
  - internal/websocket, internal/alerts, internal/store: the wrapped
    components
*/
package services
