// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package services

import (
	"context"
)

// DispatcherRunner interface matches *alerts.Dispatcher's Run method.
//
// This interface allows the AlertDispatcherService to work with the
// dispatcher without importing the alerts package, avoiding circular
// dependencies.
//
// Satisfied by *alerts.Dispatcher from internal/alerts/dispatcher.go.
type DispatcherRunner interface {
	Run(ctx context.Context) error
}

// AlertDispatcherService wraps the alert dispatcher as a supervised
// service.
//
// The dispatcher's Run method already implements the suture.Service
// pattern: it replays undelivered journal entries, then drains the
// alert channel to the registered notifiers until the context is
// canceled. This wrapper delegates to it and provides a name for
// logging.
//
// Example usage:
//
//	dispatcher, _ := alerts.NewDispatcher(cfg, journal)
//	svc := services.NewAlertDispatcherService(dispatcher)
//	tree.AddMessagingService(svc)
type AlertDispatcherService struct {
	dispatcher DispatcherRunner
	name       string
}

// NewAlertDispatcherService creates a new alert dispatcher service wrapper.
func NewAlertDispatcherService(dispatcher DispatcherRunner) *AlertDispatcherService {
	return &AlertDispatcherService{
		dispatcher: dispatcher,
		name:       "alert-dispatcher",
	}
}

// Serve implements suture.Service.
// Returns ctx.Err() on normal shutdown.
func (a *AlertDispatcherService) Serve(ctx context.Context) error {
	return a.dispatcher.Run(ctx)
}

// String implements fmt.Stringer for logging.
func (a *AlertDispatcherService) String() string {
	return a.name
}
