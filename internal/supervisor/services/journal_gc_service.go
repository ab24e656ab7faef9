// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package services

import (
	"context"
	"time"
)

// JournalGC interface matches *alerts.Journal's RunGC method.
//
// This interface allows the JournalGCService to work with the journal
// without importing the alerts package, avoiding circular dependencies.
//
// Satisfied by *alerts.Journal from internal/alerts/journal.go.
type JournalGC interface {
	RunGC(ctx context.Context, interval time.Duration) error
}

// JournalGCService runs the alert journal's Badger value-log garbage
// collection as a supervised service.
//
// Badger never reclaims value-log space on its own; the application has
// to drive it. The journal's RunGC loops a GC pass on the configured
// interval until the context is canceled.
//
// Example usage:
//
//	journal, _ := alerts.OpenJournal(dir)
//	svc := services.NewJournalGCService(journal, 5*time.Minute)
//	tree.AddDataService(svc)
type JournalGCService struct {
	journal  JournalGC
	interval time.Duration
	name     string
}

// NewJournalGCService creates a new journal GC service wrapper.
// A non-positive interval falls back to the journal's default.
func NewJournalGCService(journal JournalGC, interval time.Duration) *JournalGCService {
	return &JournalGCService{
		journal:  journal,
		interval: interval,
		name:     "journal-gc",
	}
}

// Serve implements suture.Service.
// Returns ctx.Err() on normal shutdown.
func (j *JournalGCService) Serve(ctx context.Context) error {
	return j.journal.RunGC(ctx, j.interval)
}

// String implements fmt.Stringer for logging.
func (j *JournalGCService) String() string {
	return j.name
}
