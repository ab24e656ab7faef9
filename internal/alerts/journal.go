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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
)

// Key prefixes for BadgerDB storage.
const (
	prefixPending   = "pending:"
	prefixDelivered = "delivered:"
)

// deliveredTTL is how long delivered entries stay around for auditing
// before Badger expires them.
const deliveredTTL = 24 * time.Hour

var (
	// ErrEntryNotFound is returned when a journal entry does not exist.
	ErrEntryNotFound = errors.New("journal entry not found")

	// ErrJournalClosed is returned for operations on a closed journal.
	ErrJournalClosed = errors.New("alert journal is closed")
)

// Entry is one journaled alert with delivery bookkeeping.
type Entry struct {
	ID            string     `json:"id"`
	Alert         *Alert     `json:"alert"`
	CreatedAt     time.Time  `json:"created_at"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt time.Time  `json:"last_attempt_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	Delivered     bool       `json:"delivered"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
}

// Journal persists alerts to BadgerDB before they are dispatched, so a
// crash between emission and delivery loses nothing. Entries move from
// pending to delivered once every notifier has accepted the alert;
// pending entries are replayed on startup.
type Journal struct {
	db *badger.DB

	mu     sync.RWMutex
	closed bool
}

func (j *Journal) isClosed() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.closed
}

// OpenJournal opens (or creates) the alert journal at dir. SyncWrites is
// on: alert volume is low and the whole point is surviving a crash.
func OpenJournal(dir string) (*Journal, error) {
	opts := badger.DefaultOptions(dir)
	opts.SyncWrites = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open alert journal: %w", err)
	}

	j := &Journal{db: db}
	if n, err := j.PendingCount(); err == nil {
		metrics.UpdateAlertJournalEntries(n)
	}

	logging.Info().Str("dir", dir).Msg("Alert journal opened")
	return j, nil
}

// Append records an alert as pending before any notifier sees it.
func (j *Journal) Append(alert *Alert) error {
	if j.isClosed() {
		return ErrJournalClosed
	}

	entry := &Entry{
		ID:        alert.ID,
		Alert:     alert,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	key := []byte(prefixPending + alert.ID)
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	j.updateGauge()
	return nil
}

// MarkDelivered moves an entry from pending to delivered. Delivered
// entries carry a TTL so Badger expires them without a compaction pass.
func (j *Journal) MarkDelivered(id string) error {
	if j.isClosed() {
		return ErrJournalClosed
	}

	pendingKey := []byte(prefixPending + id)
	deliveredKey := []byte(prefixDelivered + id)

	err := j.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(pendingKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get pending entry: %w", err)
		}

		var entry Entry
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
		if err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}

		now := time.Now().UTC()
		entry.Delivered = true
		entry.DeliveredAt = &now

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal delivered entry: %w", err)
		}

		e := badger.NewEntry(deliveredKey, data).WithTTL(deliveredTTL)
		if err := txn.SetEntry(e); err != nil {
			return fmt.Errorf("set delivered entry: %w", err)
		}
		return txn.Delete(pendingKey)
	})
	if err != nil {
		return err
	}
	j.updateGauge()
	return nil
}

// MarkAttempt records a failed delivery attempt on a pending entry so
// replay diagnostics show how often and why an alert is stuck.
func (j *Journal) MarkAttempt(id string, attemptErr error) error {
	if j.isClosed() {
		return ErrJournalClosed
	}

	key := []byte(prefixPending + id)
	return j.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get pending entry: %w", err)
		}

		var entry Entry
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
		if err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}

		entry.Attempts++
		entry.LastAttemptAt = time.Now().UTC()
		if attemptErr != nil {
			entry.LastError = attemptErr.Error()
		}

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Undelivered returns all pending entries from a consistent snapshot,
// oldest bookkeeping included. Corrupt entries are logged and skipped so
// one bad record cannot block replay.
func (j *Journal) Undelivered(ctx context.Context) ([]*Entry, error) {
	if j.isClosed() {
		return nil, ErrJournalClosed
	}

	var entries []*Entry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			var entry Entry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Skipping corrupt journal entry")
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}
	return entries, nil
}

// PendingCount returns the number of undelivered entries.
func (j *Journal) PendingCount() (int64, error) {
	if j.isClosed() {
		return 0, ErrJournalClosed
	}

	var count int64
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

func (j *Journal) updateGauge() {
	if n, err := j.PendingCount(); err == nil {
		metrics.UpdateAlertJournalEntries(n)
	}
}

// gcDiscardRatio is the value-log rewrite threshold for RunGC. A file is
// rewritten once at least half of its space is stale.
const gcDiscardRatio = 0.5

// RunGC periodically rewrites Badger value-log files whose space is mostly
// stale. Badger never runs value-log GC on its own; without this loop the
// journal directory grows for the life of the process. Blocks until the
// context is canceled and returns ctx.Err().
func (j *Journal) RunGC(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.gcPass()
		}
	}
}

// gcPass rewrites value-log files until Badger reports nothing left to do.
func (j *Journal) gcPass() {
	if j.isClosed() {
		return
	}
	for {
		err := j.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			logging.Warn().Err(err).Msg("Alert journal GC pass failed")
		}
		return
	}
}

// Close shuts down the underlying BadgerDB.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	j.mu.Unlock()
	return j.db.Close()
}
