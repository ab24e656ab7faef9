// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package alerts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
	"github.com/tomtom215/skywarden/internal/threat"
)

// notifyTimeout bounds a single notifier send. A slow webhook must not
// stall delivery of the alerts behind it indefinitely.
const notifyTimeout = 10 * time.Second

// defaultQueueSize is the alert queue capacity when the config leaves it
// unset.
const defaultQueueSize = 100

// Dispatcher fans out alerts for assessments at or above the configured
// threat level. Emission is non-blocking: a full queue drops the
// in-memory alert (counted and warned), though a journaled alert is
// still replayed on the next startup.
type Dispatcher struct {
	enabled  bool
	minLevel threat.Level
	journal  *Journal // nil when journaling is disabled

	mu        sync.RWMutex
	notifiers []Notifier

	alertCh chan *Alert

	emitted atomic.Uint64
	dropped atomic.Uint64
}

// NewDispatcher builds a dispatcher from config. The journal may be nil.
func NewDispatcher(cfg *config.AlertsConfig, journal *Journal) (*Dispatcher, error) {
	minLevel := threat.LevelHigh
	if cfg.MinLevel != "" {
		var err error
		if minLevel, err = threat.ParseLevel(cfg.MinLevel); err != nil {
			return nil, fmt.Errorf("alerts min level: %w", err)
		}
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Dispatcher{
		enabled:  cfg.Enabled,
		minLevel: minLevel,
		journal:  journal,
		alertCh:  make(chan *Alert, queueSize),
	}, nil
}

// RegisterNotifier adds a notifier to the dispatcher.
func (d *Dispatcher) RegisterNotifier(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.notifiers = append(d.notifiers, n)
	logging.Info().Str("notifier", n.Name()).Msg("Registered alert notifier")
}

// MinLevel returns the emission threshold.
func (d *Dispatcher) MinLevel() threat.Level {
	return d.minLevel
}

// Emitted returns how many alerts passed the emission rule.
func (d *Dispatcher) Emitted() uint64 {
	return d.emitted.Load()
}

// Dropped returns how many alerts were discarded on a full queue.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Consider applies the emission rule to a finished assessment and queues
// an alert when it qualifies. The alert is journaled before it enters
// the queue, so a crash or overflow defers delivery instead of losing
// the alert.
func (d *Dispatcher) Consider(a *threat.Assessment) {
	if !d.enabled || a.Level < d.minLevel {
		return
	}

	alert := NewAlert(a)
	d.emitted.Add(1)

	if d.journal != nil {
		if err := d.journal.Append(alert); err != nil {
			logging.Error().Err(err).Str("alert_id", alert.ID).Msg("Failed to journal alert")
		}
	}

	select {
	case d.alertCh <- alert:
	default:
		d.dropped.Add(1)
		metrics.RecordAlertDropped()
		logging.Warn().
			Str("alert_id", alert.ID).
			Str("threat_level", alert.Level.String()).
			Uint64("dropped_total", d.dropped.Load()).
			Msg("Alert queue full, deferring to journal replay")
	}
}

// Run replays undelivered journal entries, then dispatches queued alerts
// until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	logging.Info().
		Str("min_level", d.minLevel.String()).
		Int("queue", cap(d.alertCh)).
		Bool("journal", d.journal != nil).
		Msg("Alert dispatcher started")

	d.replayPending(ctx)

	for {
		select {
		case alert := <-d.alertCh:
			d.dispatch(ctx, alert)
		case <-ctx.Done():
			logging.Info().Msg("Alert dispatcher stopped")
			return ctx.Err()
		}
	}
}

// replayPending re-dispatches alerts that were journaled but never fully
// delivered, typically after a crash or a queue overflow.
func (d *Dispatcher) replayPending(ctx context.Context) {
	if d.journal == nil {
		return
	}

	entries, err := d.journal.Undelivered(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to read undelivered alerts")
		return
	}
	if len(entries) == 0 {
		return
	}

	metrics.RecordAlertJournalReplay(len(entries))
	logging.Info().Int("count", len(entries)).Msg("Replaying undelivered alerts")

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.Alert == nil {
			continue
		}
		d.dispatch(ctx, entry.Alert)
	}
}

// dispatch sends one alert to every enabled notifier sequentially and
// settles the journal entry: delivered when all sends succeeded, an
// attempt record otherwise so the alert replays on the next startup.
func (d *Dispatcher) dispatch(ctx context.Context, alert *Alert) {
	var firstErr error
	for _, n := range d.enabledNotifiers() {
		start := time.Now()
		sendCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
		err := n.Send(sendCtx, alert)
		cancel()
		metrics.RecordAlertDispatch(n.Name(), alert.Level.String(), time.Since(start), err)
		if err != nil {
			logging.Error().
				Err(err).
				Str("notifier", n.Name()).
				Str("alert_id", alert.ID).
				Msg("Failed to send alert")
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", n.Name(), err)
			}
		}
	}

	if d.journal == nil {
		return
	}
	if firstErr == nil {
		if err := d.journal.MarkDelivered(alert.ID); err != nil && !errors.Is(err, ErrEntryNotFound) {
			logging.Error().Err(err).Str("alert_id", alert.ID).Msg("Failed to mark alert delivered")
		}
		return
	}
	if err := d.journal.MarkAttempt(alert.ID, firstErr); err != nil && !errors.Is(err, ErrEntryNotFound) {
		logging.Error().Err(err).Str("alert_id", alert.ID).Msg("Failed to record alert attempt")
	}
}

func (d *Dispatcher) enabledNotifiers() []Notifier {
	d.mu.RLock()
	defer d.mu.RUnlock()

	notifiers := make([]Notifier, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	return notifiers
}
