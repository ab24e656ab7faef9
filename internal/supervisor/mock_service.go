// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// errSimulatedCrash is what a MockService configured to fail returns.
var errSimulatedCrash = errors.New("simulated crash")

// MockService is a controllable suture.Service for exercising the tree.
// Crash behavior is configured before the supervisor starts it; counters
// and a start signal let tests observe the supervisor driving it without
// polling.
type MockService struct {
	name string

	// started receives one token per Serve call, consumed by WaitStart.
	started chan struct{}

	mu       sync.Mutex
	err      error
	failures int

	starts atomic.Int32
	stops  atomic.Int32
}

// NewMockService creates a mock service that runs until its context is
// canceled.
func NewMockService(name string) *MockService {
	return &MockService{
		name:    name,
		started: make(chan struct{}, 64),
	}
}

// Serve implements suture.Service. Configured failures are consumed
// first, then a configured error, then it blocks on ctx.
func (m *MockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	defer m.stops.Add(1)
	select {
	case m.started <- struct{}{}:
	default:
	}

	m.mu.Lock()
	err := m.err
	crash := m.failures > 0
	if crash {
		m.failures--
	}
	m.mu.Unlock()

	if crash {
		return errSimulatedCrash
	}
	if err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// FailTimes makes the next n Serve calls crash before the service
// settles into running.
func (m *MockService) FailTimes(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

// SetError makes every Serve call return err immediately instead of
// blocking. Use suture sentinels here to test restart policy.
func (m *MockService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// WaitStart blocks until a Serve call begins that no earlier WaitStart
// consumed, or the timeout passes. Waiting n times observes the nth
// start.
func (m *MockService) WaitStart(timeout time.Duration) bool {
	select {
	case <-m.started:
		return true
	case <-time.After(timeout):
		return false
	}
}

// StartCount returns how many times the supervisor has called Serve.
func (m *MockService) StartCount() int {
	return int(m.starts.Load())
}

// StopCount returns how many of those calls have returned.
func (m *MockService) StopCount() int {
	return int(m.stops.Load())
}

// String is the name suture logs for this service.
func (m *MockService) String() string {
	return m.name
}
