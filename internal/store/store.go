// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
	"github.com/tomtom215/skywarden/internal/threat"
	"github.com/tomtom215/skywarden/internal/vision"
)

// saveQueueSize bounds the async persistence queue. Assessment history is
// an operational record, not evidence custody: when the writer falls
// behind, new entries are dropped and counted rather than backpressuring
// the pipeline.
const saveQueueSize = 256

// pruneInterval is how often the retention sweep runs while Run is active.
const pruneInterval = 12 * time.Hour

// Store persists assessments to DuckDB and answers history queries.
type Store struct {
	conn *sql.DB
	cfg  *config.StorageConfig

	saveCh  chan *threat.Assessment
	dropped atomic.Uint64
}

// LatencyStats summarizes assessment processing latency over a window.
type LatencyStats struct {
	Count  int64   `json:"count"`
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
	MaxMs  float64 `json:"max_ms"`
}

// New opens (or creates) the DuckDB database and initializes the schema.
func New(cfg *config.StorageConfig) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	// The parent directory must exist before DuckDB can create the file.
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dbDir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, threads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open assessment store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping assessment store: %w", err)
	}

	conn.SetMaxOpenConns(threads)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	s := &Store{
		conn:   conn,
		cfg:    cfg,
		saveCh: make(chan *threat.Assessment, saveQueueSize),
	}
	if err := s.createSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize assessment schema: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", threads).
		Str("max_memory", cfg.MaxMemory).
		Msg("Assessment store opened")
	return s, nil
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Debug().Err(err).Msg("Error closing database connection")
	}
}

func (s *Store) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS assessments (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			source TEXT NOT NULL,
			seq UBIGINT NOT NULL,
			level TEXT NOT NULL,
			confidence DOUBLE NOT NULL,
			scene_description TEXT NOT NULL DEFAULT '',
			recommended_action TEXT NOT NULL DEFAULT '',
			detection_count INTEGER NOT NULL,
			processing_ms DOUBLE NOT NULL,
			detections TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_level ON assessments(level)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_source ON assessments(source)`,
	}
	for _, query := range queries {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// ensureContext adds a 30-second timeout when the caller supplied none.
func (s *Store) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// Save persists one assessment synchronously.
func (s *Store) Save(ctx context.Context, a *threat.Assessment) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	detections, err := json.Marshal(a.Detections)
	if err != nil {
		return fmt.Errorf("failed to encode detections: %w", err)
	}

	start := time.Now()
	_, err = s.conn.ExecContext(ctx, `
	INSERT INTO assessments (
		id, created_at, source, seq, level, confidence,
		scene_description, recommended_action, detection_count,
		processing_ms, detections
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Timestamp, a.Source, a.Sequence, a.Level.String(), a.Confidence,
		a.SceneDescription, a.RecommendedAction, a.DetectionCount,
		a.ProcessingTimeMs, string(detections),
	)
	metrics.RecordDBQuery("insert", "assessments", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

// SaveAsync queues an assessment for the background writer without
// blocking. A full queue drops the entry; history persistence is
// best-effort by design.
func (s *Store) SaveAsync(a *threat.Assessment) {
	select {
	case s.saveCh <- a:
	default:
		s.dropped.Add(1)
		logging.Warn().
			Str("assessment_id", a.ID).
			Uint64("dropped_total", s.dropped.Load()).
			Msg("Assessment save queue full, dropping entry")
	}
}

// Dropped reports how many async saves were discarded on a full queue.
func (s *Store) Dropped() uint64 {
	return s.dropped.Load()
}

// Run drains the async save queue and runs periodic retention sweeps until
// ctx is cancelled. Entries still buffered at shutdown are flushed
// best-effort before returning ctx.Err().
func (s *Store) Run(ctx context.Context) error {
	logging.Info().Int("queue", saveQueueSize).Msg("Assessment writer started")

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	s.pruneNow(ctx)

	for {
		select {
		case a := <-s.saveCh:
			// The parent context only controls shutdown; each write gets
			// its own deadline so cancellation cannot poison an insert
			// already in flight.
			s.saveLogged(context.Background(), a)
		case <-ticker.C:
			s.pruneNow(context.Background())
		case <-ctx.Done():
			s.flush()
			logging.Info().Msg("Assessment writer stopped")
			return ctx.Err()
		}
	}
}

// flush drains whatever is buffered at shutdown with a fresh deadline.
func (s *Store) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case a := <-s.saveCh:
			s.saveLogged(ctx, a)
		default:
			return
		}
	}
}

func (s *Store) saveLogged(ctx context.Context, a *threat.Assessment) {
	if err := s.Save(ctx, a); err != nil {
		logging.Error().Err(err).Str("assessment_id", a.ID).Msg("Failed to persist assessment")
	}
}

func (s *Store) pruneNow(ctx context.Context) {
	if s.cfg.RetentionDays <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
	removed, err := s.PruneBefore(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Assessment retention sweep failed")
		return
	}
	if removed > 0 {
		logging.Info().
			Int64("removed", removed).
			Time("cutoff", cutoff).
			Msg("Pruned expired assessments")
	}
}

// PruneBefore deletes assessments created before the cutoff and returns
// how many were removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM assessments WHERE created_at < ?`, cutoff)
	metrics.RecordDBQuery("delete", "assessments", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to prune assessments: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned assessments: %w", err)
	}
	return removed, nil
}

// Recent returns the newest assessments, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]threat.Assessment, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, `
	SELECT id, created_at, source, seq, level, confidence,
		scene_description, recommended_action, detection_count,
		processing_ms, detections
	FROM assessments
	ORDER BY created_at DESC
	LIMIT ?`, limit)
	metrics.RecordDBQuery("select", "assessments", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	assessments := []threat.Assessment{}
	for rows.Next() {
		var (
			a          threat.Assessment
			level      string
			detections string
		)
		if err := rows.Scan(
			&a.ID, &a.Timestamp, &a.Source, &a.Sequence, &level, &a.Confidence,
			&a.SceneDescription, &a.RecommendedAction, &a.DetectionCount,
			&a.ProcessingTimeMs, &detections,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		if a.Level, err = threat.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("stored assessment %s: %w", a.ID, err)
		}
		a.Detections = []vision.Detection{}
		if err := json.Unmarshal([]byte(detections), &a.Detections); err != nil {
			return nil, fmt.Errorf("stored assessment %s detections: %w", a.ID, err)
		}
		assessments = append(assessments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assessments: %w", err)
	}
	return assessments, nil
}

// CountByLevel returns assessment counts per threat level since the given
// time. Levels with no assessments are absent from the map.
func (s *Store) CountByLevel(ctx context.Context, since time.Time) (map[string]int64, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, `
	SELECT level, COUNT(*)
	FROM assessments
	WHERE created_at >= ?
	GROUP BY level`, since)
	metrics.RecordDBQuery("select", "assessments", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to count assessments by level: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			level string
			n     int64
		)
		if err := rows.Scan(&level, &n); err != nil {
			return nil, fmt.Errorf("failed to scan level count: %w", err)
		}
		counts[level] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating level counts: %w", err)
	}
	return counts, nil
}

// LatencyStats returns processing latency quantiles since the given time.
func (s *Store) LatencyStats(ctx context.Context, since time.Time) (*LatencyStats, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := s.conn.QueryRowContext(ctx, `
	SELECT
		COUNT(*),
		COALESCE(AVG(processing_ms), 0),
		COALESCE(quantile_cont(processing_ms, 0.50), 0),
		COALESCE(quantile_cont(processing_ms, 0.95), 0),
		COALESCE(quantile_cont(processing_ms, 0.99), 0),
		COALESCE(MAX(processing_ms), 0)
	FROM assessments
	WHERE created_at >= ?`, since)

	var stats LatencyStats
	err := row.Scan(&stats.Count, &stats.MeanMs, &stats.P50Ms, &stats.P95Ms, &stats.P99Ms, &stats.MaxMs)
	metrics.RecordDBQuery("select", "assessments", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query latency stats: %w", err)
	}
	return &stats, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("assessment store connection is nil")
	}
	return s.conn.PingContext(ctx)
}

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint assessment store before close")
	}
	return s.conn.Close()
}
