// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

/*
Package metrics provides performance tracking and Prometheus export for
observability.

The package has two halves:

  - Tracker: an injectable, mutex-guarded statistics accumulator that powers
    the GET /api/v1/metrics response. It records named latency series in
    milliseconds and named counters, and summarizes them with nearest-rank
    percentiles and population standard deviation.
  - Prometheus collectors: promauto package-level instruments plus Record
    helpers, exported at /metrics for scraping.

The Tracker is the caller-facing stats API; Prometheus is the operational
export. Pipeline code records into both.

# Tracker

A Tracker is constructed explicitly and handed to whatever needs it. There is
no package-level singleton; a server process owns one Tracker per pipeline.

	tracker := metrics.NewTracker()

	stop := tracker.StartTimer(metrics.MetricDetection)
	detections, err := detector.Detect(ctx, frame)
	stop()

	tracker.Increment(metrics.CounterFramesProcessed, 1)

	stats := tracker.Summary(metrics.MetricDetection)
	// stats.Mean, stats.P95, stats.P99 in milliseconds

Timer stop functions record exactly once no matter how many times they run,
so they are safe to defer and also call early. Summary of an unrecorded name
returns a zero-value SummaryStats rather than an error.

Export() returns every summary keyed by metric name plus the counters map
under the reserved key "counters"; the API metrics handler serializes it
directly.

# Prometheus Metrics

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8090/metrics

Pipeline Metrics:
  - pipeline_stage_duration_seconds: Stage latency (histogram)
    Labels: stage (detection, scene_analysis, classification, total)
  - frames_processed_total: Completed frames (counter)
    Labels: source
  - frames_dropped_total: Frames shed by bounded queues (counter)
    Labels: source, queue (frame, result)
  - processing_errors_total: Failed frames (counter)
    Labels: source, stage
  - assessments_total: Assessments by threat level (counter)
    Labels: level (LOW, MEDIUM, HIGH, CRITICAL)

Stream Metrics:
  - stream_sessions_active: Active processing sessions (gauge)
  - stream_queue_depth: Session queue depths (gauge)
    Labels: session, queue

Inference Backend Metrics:
  - detector_request_duration_seconds: Detection backend latency (histogram)
    Labels: backend, model
  - detector_errors_total / analyzer_errors_total: Backend failures (counter)
    Labels: backend, error_type (timeout, breaker_open, decode, http, other)

Alert Metrics:
  - alerts_dispatched_total: Delivered alerts (counter)
    Labels: notifier, level
  - alerts_dropped_total: Alerts shed by a full dispatch queue (counter)
  - alert_delivery_duration_seconds: Notifier latency (histogram)
  - alert_journal_entries: Undelivered journal backlog (gauge)

API, WebSocket, circuit breaker, DuckDB, batch, and NATS metrics follow the
same conventions; see prometheus.go for the full set.

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/tomtom215/skywarden/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    http.Handle("/metrics", promhttp.Handler())

	    metrics.RecordStage("detection", 42*time.Millisecond)
	    metrics.RecordFrameProcessed("cam-01")
	    metrics.RecordAssessment("HIGH")
	}

Example PromQL queries:

	# Frame throughput per source
	rate(frames_processed_total[5m])

	# Detection p95 latency
	histogram_quantile(0.95, rate(pipeline_stage_duration_seconds_bucket{stage="detection"}[5m]))

	# Alert delivery failure rate
	sum(rate(alert_delivery_errors_total[5m])) / sum(rate(alerts_dispatched_total[5m]))

	# Queue shed rate (catches inference falling behind the feed)
	rate(frames_dropped_total[1m])

# Cardinality Management

To prevent high cardinality issues:

  - Backend error types are bucketed into fixed constants
  - Session labels come from operator-assigned source IDs, not UUIDs
  - Endpoint labels are normalized chi route patterns (no query parameters)
  - DuckDB error labels are truncated to 50 characters

# Thread Safety

All Tracker methods and metric recording functions are safe for concurrent
use from multiple goroutines.

# See Also

  - internal/middleware: HTTP middleware with metrics integration
  - internal/pipeline: stage timing instrumentation
  - internal/alerts: alert dispatch metrics recording
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
