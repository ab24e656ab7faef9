// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestAlertRelayService_Interface(t *testing.T) {
	// Verify AlertRelayService implements suture.Service
	var _ suture.Service = (*AlertRelayService)(nil)
}

func TestNewAlertRelayService(t *testing.T) {
	runner := &mockRunner{}
	svc := NewAlertRelayService(runner)

	if svc == nil {
		t.Fatal("NewAlertRelayService returned nil")
	}
	if svc.name != "nats-alert-relay" {
		t.Errorf("expected name 'nats-alert-relay', got %q", svc.name)
	}
}

func TestAlertRelayService_Serve(t *testing.T) {
	t.Run("returns context error on cancellation", func(t *testing.T) {
		runner := &mockRunner{}
		svc := NewAlertRelayService(runner)

		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("Serve did not return after context cancellation")
		}
	})

	t.Run("propagates subscribe errors so the supervisor restarts the relay", func(t *testing.T) {
		expectedErr := errors.New("subscribe to skywarden.alerts: connection refused")
		runner := &mockRunner{runErr: expectedErr}
		svc := NewAlertRelayService(runner)

		err := svc.Serve(context.Background())
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected %v, got %v", expectedErr, err)
		}
	})
}

func TestAlertRelayService_String(t *testing.T) {
	svc := NewAlertRelayService(&mockRunner{})

	if svc.String() != "nats-alert-relay" {
		t.Errorf("expected 'nats-alert-relay', got %q", svc.String())
	}
}
