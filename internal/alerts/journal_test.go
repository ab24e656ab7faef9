// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package alerts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/skywarden/internal/threat"
)

func setupTestJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatalf("OpenJournal() error: %v", err)
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return j
}

func testAlert(level threat.Level) *Alert {
	return &Alert{
		ID:             uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		Level:          level,
		Confidence:     0.9,
		SceneExcerpt:   "drone hovering over restricted area",
		DetectionCount: 1,
		Source:         "gate-cam",
		Seq:            42,
	}
}

func TestJournal_AppendAndUndelivered(t *testing.T) {
	j := setupTestJournal(t)

	first := testAlert(threat.LevelHigh)
	second := testAlert(threat.LevelCritical)
	for _, a := range []*Alert{first, second} {
		if err := j.Append(a); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	entries, err := j.Undelivered(context.Background())
	if err != nil {
		t.Fatalf("Undelivered() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Undelivered() returned %d entries, want 2", len(entries))
	}

	byID := make(map[string]*Entry, len(entries))
	for _, e := range entries {
		if e.Delivered {
			t.Errorf("entry %s marked delivered before any dispatch", e.ID)
		}
		if e.CreatedAt.IsZero() {
			t.Errorf("entry %s has zero CreatedAt", e.ID)
		}
		byID[e.ID] = e
	}

	got, ok := byID[second.ID]
	if !ok {
		t.Fatalf("entry for alert %s missing", second.ID)
	}
	if got.Alert == nil {
		t.Fatal("entry carries no alert payload")
	}
	if got.Alert.Level != threat.LevelCritical {
		t.Errorf("Level = %v, want %v", got.Alert.Level, threat.LevelCritical)
	}
	if got.Alert.SceneExcerpt != second.SceneExcerpt {
		t.Errorf("SceneExcerpt = %q, want %q", got.Alert.SceneExcerpt, second.SceneExcerpt)
	}
	if got.Alert.Seq != 42 {
		t.Errorf("Seq = %d, want 42", got.Alert.Seq)
	}
}

func TestJournal_MarkDelivered(t *testing.T) {
	j := setupTestJournal(t)

	alert := testAlert(threat.LevelHigh)
	if err := j.Append(alert); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	if err := j.MarkDelivered(alert.ID); err != nil {
		t.Fatalf("MarkDelivered() error: %v", err)
	}

	entries, err := j.Undelivered(context.Background())
	if err != nil {
		t.Fatalf("Undelivered() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Undelivered() returned %d entries after delivery, want 0", len(entries))
	}

	count, err := j.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount() error: %v", err)
	}
	if count != 0 {
		t.Errorf("PendingCount() = %d, want 0", count)
	}

	// Marking the same entry twice means it is no longer pending.
	if err := j.MarkDelivered(alert.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("second MarkDelivered() = %v, want ErrEntryNotFound", err)
	}
}

func TestJournal_MarkAttempt(t *testing.T) {
	j := setupTestJournal(t)

	alert := testAlert(threat.LevelHigh)
	if err := j.Append(alert); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	sendErr := fmt.Errorf("webhook returned status 503")
	if err := j.MarkAttempt(alert.ID, sendErr); err != nil {
		t.Fatalf("MarkAttempt() error: %v", err)
	}
	if err := j.MarkAttempt(alert.ID, sendErr); err != nil {
		t.Fatalf("second MarkAttempt() error: %v", err)
	}

	entries, err := j.Undelivered(context.Background())
	if err != nil {
		t.Fatalf("Undelivered() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Undelivered() returned %d entries, want 1", len(entries))
	}

	entry := entries[0]
	if entry.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", entry.Attempts)
	}
	if entry.LastError != sendErr.Error() {
		t.Errorf("LastError = %q, want %q", entry.LastError, sendErr.Error())
	}
	if entry.LastAttemptAt.IsZero() {
		t.Error("LastAttemptAt not recorded")
	}
}

func TestJournal_MarkUnknownEntry(t *testing.T) {
	j := setupTestJournal(t)

	if err := j.MarkDelivered("no-such-id"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("MarkDelivered() = %v, want ErrEntryNotFound", err)
	}
	if err := j.MarkAttempt("no-such-id", errors.New("boom")); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("MarkAttempt() = %v, want ErrEntryNotFound", err)
	}
}

func TestJournal_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	j, err := OpenJournal(dir)
	if err != nil {
		t.Fatalf("OpenJournal() error: %v", err)
	}
	alert := testAlert(threat.LevelCritical)
	if err := j.Append(alert); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := OpenJournal(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.Undelivered(context.Background())
	if err != nil {
		t.Fatalf("Undelivered() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Undelivered() returned %d entries after reopen, want 1", len(entries))
	}
	if entries[0].ID != alert.ID {
		t.Errorf("entry ID = %s, want %s", entries[0].ID, alert.ID)
	}
}

func TestJournal_ClosedOperationsFail(t *testing.T) {
	j, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatalf("OpenJournal() error: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if err := j.Append(testAlert(threat.LevelHigh)); !errors.Is(err, ErrJournalClosed) {
		t.Errorf("Append() after close = %v, want ErrJournalClosed", err)
	}
	if _, err := j.Undelivered(context.Background()); !errors.Is(err, ErrJournalClosed) {
		t.Errorf("Undelivered() after close = %v, want ErrJournalClosed", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("double Close() = %v, want nil", err)
	}
}

func TestJournal_RunGC(t *testing.T) {
	j := setupTestJournal(t)

	for i := 0; i < 5; i++ {
		if err := j.Append(testAlert(threat.LevelHigh)); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- j.RunGC(ctx, 10*time.Millisecond)
	}()

	// Let a few GC passes fire. A near-empty store has nothing to rewrite,
	// which must not surface as an error.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunGC() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunGC did not return after cancellation")
	}
}

func TestJournal_RunGC_ClosedJournal(t *testing.T) {
	j, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatalf("OpenJournal() error: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	// gcPass must notice the closed journal and skip the Badger call.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := j.RunGC(ctx, 10*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunGC() = %v, want context.DeadlineExceeded", err)
	}
}
