// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Suture's own defaults, applied to any TreeConfig field left zero.
const (
	defaultFailureThreshold = 5.0
	defaultFailureDecay     = 30.0
	defaultFailureBackoff   = 15 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
)

// Layer supervisor names. They appear in supervision log events and in
// unstopped-service reports, so they are fixed rather than configurable.
const (
	rootName           = "skywarden"
	dataLayerName      = "data-layer"
	messagingLayerName = "messaging-layer"
	apiLayerName       = "api-layer"
)

// TreeConfig holds the failure-handling parameters shared by every
// supervisor in the tree.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay, in seconds.
	FailureDecay float64

	// FailureBackoff is how long a supervisor waits once the threshold
	// is exceeded.
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum wait for a service to honor its
	// context during shutdown before it is reported as unstopped.
	ShutdownTimeout time.Duration
}

// withDefaults fills zero fields with suture's defaults.
func (c TreeConfig) withDefaults() TreeConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = defaultFailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = defaultFailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return c
}

// spec translates the config into the suture spec used by every
// supervisor in the tree. The event hook is added separately, on the
// root only, because children added to a running root inherit it.
func (c TreeConfig) spec() suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// DefaultTreeConfig returns the tree configuration the server uses when
// nothing overrides it.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{}.withDefaults()
}

// SupervisorTree is the root of Skywarden's supervision hierarchy.
//
// Services hang off three layer supervisors:
//   - data: assessment store writer, alert journal GC
//   - messaging: WebSocket hub, alert dispatcher, NATS relay
//   - api: HTTP server
//
// A crash loop in one layer backs off that layer alone; the API keeps
// serving stored assessments while the messaging layer restarts, and
// vice versa.
type SupervisorTree struct {
	root      *suture.Supervisor
	data      *suture.Supervisor
	messaging *suture.Supervisor
	api       *suture.Supervisor
}

// NewSupervisorTree builds the root and layer supervisors. Supervision
// events are logged through the given slog logger via sutureslog.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	if logger == nil {
		return nil, errors.New("supervision logger is required")
	}

	config = config.withDefaults()
	spec := config.spec()

	rootSpec := spec
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &SupervisorTree{root: suture.New(rootName, rootSpec)}
	t.data = t.newLayer(dataLayerName, spec)
	t.messaging = t.newLayer(messagingLayerName, spec)
	t.api = t.newLayer(apiLayerName, spec)
	return t, nil
}

// newLayer creates a child supervisor and hangs it off the root.
func (t *SupervisorTree) newLayer(name string, spec suture.Spec) *suture.Supervisor {
	layer := suture.New(name, spec)
	t.root.Add(layer)
	return layer
}

// AddDataService adds a service to the data layer.
func (t *SupervisorTree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.data.Add(svc)
}

// AddMessagingService adds a service to the messaging layer.
func (t *SupervisorTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.messaging.Add(svc)
}

// AddAPIService adds a service to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree and blocks until ctx is canceled or the tree
// gives up.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The returned channel
// receives the Serve result when the tree stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that ignored their shutdown
// context past the configured timeout. The server logs this after
// shutdown so a wedged service is visible instead of silent.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
