// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - Threat assessment pipeline stages (detection, scene analysis)
// - Stream session queues and frame accounting
// - Inference backend latency and failures
// - Alert dispatch and journal replay
// - API endpoint latency and throughput
// - WebSocket connections

var (
	// Pipeline Metrics
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of threat assessment pipeline stages in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"}, // "detection", "scene_analysis", "classification", "total"
	)

	FramesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frames_processed_total",
			Help: "Total number of frames that completed the assessment pipeline",
		},
		[]string{"source"},
	)

	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frames_dropped_total",
			Help: "Total number of frames shed by bounded queues",
		},
		[]string{"source", "queue"}, // queue: "frame", "result"
	)

	ProcessingErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processing_errors_total",
			Help: "Total number of frames that failed at a pipeline stage",
		},
		[]string{"source", "stage"},
	)

	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_total",
			Help: "Total threat assessments produced by level",
		},
		[]string{"level"}, // "LOW", "MEDIUM", "HIGH", "CRITICAL"
	)

	// Stream Session Metrics
	StreamSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_sessions_active",
			Help: "Current number of active stream processing sessions",
		},
	)

	StreamQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stream_queue_depth",
			Help: "Current depth of stream session queues",
		},
		[]string{"session", "queue"}, // queue: "frame", "result"
	)

	// Inference Backend Metrics
	DetectorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "detector_request_duration_seconds",
			Help:    "Duration of object detection backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "model"},
	)

	DetectorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_errors_total",
			Help: "Total number of object detection backend failures",
		},
		[]string{"backend", "error_type"}, // "timeout", "breaker_open", "decode", "http", "other"
	)

	AnalyzerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyzer_request_duration_seconds",
			Help:    "Duration of VLM scene analysis backend requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"backend", "model"},
	)

	AnalyzerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_errors_total",
			Help: "Total number of VLM scene analysis backend failures",
		},
		[]string{"backend", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Batch Processing Metrics
	BatchJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_job_duration_seconds",
			Help:    "Duration of batch directory assessment jobs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // Large directories can take minutes
		},
	)

	BatchImagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_images_processed_total",
			Help: "Total number of images processed by batch jobs",
		},
	)

	BatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_errors_total",
			Help: "Total number of batch processing errors",
		},
		[]string{"error_type"}, // "read", "decode", "pipeline", "write"
	)

	// Storage Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Alert Dispatch Metrics
	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_dispatched_total",
			Help: "Total number of alerts delivered by notifier",
		},
		[]string{"notifier", "level"},
	)

	AlertsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_dropped_total",
			Help: "Total number of alerts shed because the dispatch queue was full",
		},
	)

	AlertDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alert_delivery_duration_seconds",
			Help:    "Duration of alert notifier deliveries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"notifier"},
	)

	AlertDeliveryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_delivery_errors_total",
			Help: "Total number of failed alert deliveries",
		},
		[]string{"notifier", "error_type"},
	)

	AlertJournalEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alert_journal_entries",
			Help: "Current number of undelivered alerts in the journal",
		},
	)

	AlertJournalReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_journal_replays_total",
			Help: "Total number of alerts replayed from the journal after restart",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// NATS Publishing Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of alert messages published to NATS",
		},
	)

	NATSPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_publish_errors_total",
			Help: "Total number of failed NATS publishes",
		},
	)

	NATSMessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_relayed_total",
			Help: "Total number of alert messages consumed from NATS by the relay",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordStage records a pipeline stage duration
func RecordStage(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordFrameProcessed records a frame completing the pipeline for a source
func RecordFrameProcessed(source string) {
	FramesProcessed.WithLabelValues(source).Inc()
}

// RecordFrameDropped records a frame shed by a bounded queue
func RecordFrameDropped(source, queue string) {
	FramesDropped.WithLabelValues(source, queue).Inc()
}

// RecordProcessingError records a frame failing at a pipeline stage
func RecordProcessingError(source, stage string) {
	ProcessingErrors.WithLabelValues(source, stage).Inc()
}

// RecordAssessment records a produced assessment by threat level
func RecordAssessment(level string) {
	AssessmentsTotal.WithLabelValues(level).Inc()
}

// TrackStreamSession tracks active stream sessions
func TrackStreamSession(inc bool) {
	if inc {
		StreamSessionsActive.Inc()
	} else {
		StreamSessionsActive.Dec()
	}
}

// UpdateStreamQueueDepth updates a session queue depth gauge
func UpdateStreamQueueDepth(session, queue string, depth int) {
	StreamQueueDepth.WithLabelValues(session, queue).Set(float64(depth))
}

// RecordDetectorRequest records an object detection backend request
func RecordDetectorRequest(backend, model string, duration time.Duration, err error) {
	DetectorRequestDuration.WithLabelValues(backend, model).Observe(duration.Seconds())
	if err != nil {
		DetectorErrors.WithLabelValues(backend, categorizeBackendError(err)).Inc()
	}
}

// RecordAnalyzerRequest records a VLM scene analysis backend request
func RecordAnalyzerRequest(backend, model string, duration time.Duration, err error) {
	AnalyzerRequestDuration.WithLabelValues(backend, model).Observe(duration.Seconds())
	if err != nil {
		AnalyzerErrors.WithLabelValues(backend, categorizeBackendError(err)).Inc()
	}
}

// categorizeBackendError maps inference failures onto a bounded label set.
func categorizeBackendError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded"), strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "circuit breaker"), strings.Contains(msg, "too many requests"):
		return "breaker_open"
	case strings.Contains(msg, "decode"), strings.Contains(msg, "unmarshal"), strings.Contains(msg, "parse"):
		return "decode"
	case strings.Contains(msg, "status"), strings.Contains(msg, "HTTP"):
		return "http"
	default:
		return "other"
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBatchJob records a batch directory assessment job
func RecordBatchJob(duration time.Duration, imagesProcessed int, errorsByType map[string]int) {
	BatchJobDuration.Observe(duration.Seconds())
	BatchImagesProcessed.Add(float64(imagesProcessed))
	for errType, count := range errorsByType {
		BatchErrors.WithLabelValues(errType).Add(float64(count))
	}
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAlertDispatch records an alert delivery attempt by a notifier
func RecordAlertDispatch(notifier, level string, duration time.Duration, err error) {
	AlertDeliveryDuration.WithLabelValues(notifier).Observe(duration.Seconds())
	if err != nil {
		AlertDeliveryErrors.WithLabelValues(notifier, categorizeBackendError(err)).Inc()
		return
	}
	AlertsDispatched.WithLabelValues(notifier, level).Inc()
}

// RecordAlertDropped records an alert shed because the dispatch queue was full
func RecordAlertDropped() {
	AlertsDropped.Inc()
}

// UpdateAlertJournalEntries updates the journal backlog gauge
func UpdateAlertJournalEntries(count int64) {
	AlertJournalEntries.Set(float64(count))
}

// RecordAlertJournalReplay records alerts replayed from the journal
func RecordAlertJournalReplay(count int) {
	AlertJournalReplays.Add(float64(count))
}

// TrackWSConnection tracks active WebSocket connections
func TrackWSConnection(inc bool) {
	if inc {
		WSConnections.Inc()
	} else {
		WSConnections.Dec()
	}
}

// RecordNATSPublish records a message being published to NATS
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSPublishError records a failed NATS publish
func RecordNATSPublishError() {
	NATSPublishErrors.Inc()
}

// RecordNATSRelayed records an alert consumed from NATS by the relay
func RecordNATSRelayed() {
	NATSMessagesRelayed.Inc()
}

// SetAppInfo publishes version and build information
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}

// UpdateUptime sets the uptime gauge from the process start time
func UpdateUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}

// RunUptimeUpdater refreshes the uptime gauge every interval until the
// context is canceled. Intended to run in its own goroutine from main.
func RunUptimeUpdater(ctx context.Context, start time.Time, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	UpdateUptime(start)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			UpdateUptime(start)
		}
	}
}
