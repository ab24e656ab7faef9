// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*MockService)(nil)

// tightSpec restarts quickly so failure tests finish in milliseconds.
func tightSpec() suture.Spec {
	return suture.Spec{
		FailureThreshold: 10,
		FailureDecay:     1,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	}
}

func TestMockService_RunsUntilCanceled(t *testing.T) {
	svc := NewMockService("assessment-store")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
	if svc.StartCount() != 1 || svc.StopCount() != 1 {
		t.Errorf("start/stop counts = %d/%d, want 1/1", svc.StartCount(), svc.StopCount())
	}
}

func TestMockService_ConfiguredError(t *testing.T) {
	svc := NewMockService("broken")
	svc.SetError(suture.ErrDoNotRestart)

	if err := svc.Serve(context.Background()); !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() = %v, want ErrDoNotRestart", err)
	}
}

func TestMockService_FailTimes(t *testing.T) {
	svc := NewMockService("flaky")
	svc.FailTimes(2)

	for i := 1; i <= 2; i++ {
		if err := svc.Serve(context.Background()); !errors.Is(err, errSimulatedCrash) {
			t.Fatalf("call %d: Serve() = %v, want simulated crash", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("call after failures should block until cancel, got %v", err)
	}
	if svc.StartCount() != 3 {
		t.Errorf("StartCount() = %d, want 3", svc.StartCount())
	}
}

func TestMockService_String(t *testing.T) {
	svc := NewMockService("alert-dispatcher")
	if svc.String() != "alert-dispatcher" {
		t.Errorf("String() = %q, want alert-dispatcher", svc.String())
	}
}

func TestSupervisor_StartsAndDrainsService(t *testing.T) {
	svc := NewMockService("websocket-hub")
	sup := suture.NewSimple("messaging-layer")
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	if !svc.WaitStart(time.Second) {
		t.Fatal("service never started")
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("supervisor returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}

	if svc.StopCount() != svc.StartCount() {
		t.Errorf("stops = %d, starts = %d; every start should have drained",
			svc.StopCount(), svc.StartCount())
	}
}

func TestSupervisor_RestartsCrashedService(t *testing.T) {
	svc := NewMockService("stream-worker")
	svc.FailTimes(2)

	sup := suture.New("restart-test", tightSpec())
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup.ServeBackground(ctx)

	// Two crashes and the recovery each count as a start.
	for i := 1; i <= 3; i++ {
		if !svc.WaitStart(2 * time.Second) {
			t.Fatalf("start %d never happened", i)
		}
	}
	if svc.StartCount() < 3 {
		t.Errorf("StartCount() = %d, want at least 3", svc.StartCount())
	}
}

func TestSupervisor_HonorsDoNotRestart(t *testing.T) {
	svc := NewMockService("one-shot")
	svc.SetError(suture.ErrDoNotRestart)

	sup := suture.New("no-restart-test", tightSpec())
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup.ServeBackground(ctx)

	if !svc.WaitStart(time.Second) {
		t.Fatal("service never started")
	}
	// A restart would land well within this window at a 10ms backoff.
	time.Sleep(50 * time.Millisecond)
	if svc.StartCount() != 1 {
		t.Errorf("StartCount() = %d, want exactly 1", svc.StartCount())
	}
}

func TestSupervisor_ServiceTerminatesTree(t *testing.T) {
	svc := NewMockService("fatal-service")
	svc.SetError(suture.ErrTerminateSupervisorTree)

	sup := suture.New("terminate-test", tightSpec())
	sup.Add(svc)

	err := sup.Serve(context.Background())
	if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
		t.Errorf("Serve() = %v, want ErrTerminateSupervisorTree", err)
	}
}

func TestSupervisor_NestedLayers(t *testing.T) {
	svc := NewMockService("alert-relay")
	child := suture.NewSimple("messaging-layer")
	child.Add(svc)

	root := suture.NewSimple("skywarden")
	root.Add(child)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	root.ServeBackground(ctx)

	if !svc.WaitStart(time.Second) {
		t.Fatal("service under a nested supervisor never started")
	}
}
