// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables and config files.
// Provides centralized configuration management for all application components including
// inference backends (detector, analyzer), threat classification, stream processing,
// storage, alerting, server, API, and logging.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via SKYWARDEN_* variables
//
// Configuration Categories:
//
//  1. Inference:
//     - Detector: Object detection backend (HTTP inference server or static)
//     - Analyzer: Vision-language scene analysis backend
//
//  2. Assessment:
//     - Threat: Keyword tables for threat level classification
//     - Stream: Real-time capture, queue capacities, and frame strides
//     - Batch: Concurrent directory processing
//
//  3. Infrastructure:
//     - Storage: DuckDB assessment persistence (path, memory, retention)
//     - Alerts: Alert dispatch, notifier fan-out, and journaling
//     - NATS: Alert publishing with Watermill/NATS JetStream (optional)
//     - Server: HTTP server configuration (port, host, timeout)
//
//  4. API & Security:
//     - API: Pagination and response limits
//     - Auth: API key authentication, viewer tokens, rate limiting
//
//  5. Observability:
//     - Logging: Log levels and output formats
//
// Example - Load configuration from environment:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Detector.Endpoint, cfg.Storage.Path, etc. are now populated
//
// Validation:
// LoadWithKoanf() validates all fields and returns an error if:
//   - Required settings are missing (e.g. SKYWARDEN_DETECTOR_ENDPOINT for the http backend)
//   - Values are malformed (invalid URL format, out-of-range thresholds)
//   - Authentication is enabled but credentials are incomplete
//
// Thread Safety:
// Config is immutable after LoadWithKoanf() and safe for concurrent read access.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Auth     AuthConfig     `koanf:"auth"`
	Detector DetectorConfig `koanf:"detector"`
	Analyzer AnalyzerConfig `koanf:"analyzer"`
	Threat   ThreatConfig   `koanf:"threat"`
	Stream   StreamConfig   `koanf:"stream"`
	Batch    BatchConfig    `koanf:"batch"`
	Storage  StorageConfig  `koanf:"storage"`
	Alerts   AlertsConfig   `koanf:"alerts"`
	NATS     NATSConfig     `koanf:"nats"`
	API      APIConfig      `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - SKYWARDEN_SERVER_PORT: Listen port (default: 8090)
//   - SKYWARDEN_SERVER_HOST: Bind address (default: 0.0.0.0)
//   - SKYWARDEN_SERVER_TIMEOUT: Request timeout (default: 30s)
//   - SKYWARDEN_ENVIRONMENT: development or production (default: development)
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // Enables production-only security checks
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - SKYWARDEN_LOGGING_LEVEL: trace, debug, info, warn, error (default: info)
//   - SKYWARDEN_LOGGING_FORMAT: json, console (default: json)
//   - SKYWARDEN_LOGGING_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// AuthConfig holds authentication and request-limiting settings.
//
// Skywarden is a single-operator appliance: one API key authenticates the
// operator, and short-lived JWT viewer tokens grant read-only access for
// WebSocket feeds. The key may be supplied as a bcrypt hash (recommended)
// or as plaintext for development.
//
// Environment Variables:
//   - SKYWARDEN_AUTH_ENABLED: Require authentication (default: false)
//   - SKYWARDEN_AUTH_API_KEY: Plaintext operator key (development only)
//   - SKYWARDEN_AUTH_API_KEY_HASH: Bcrypt hash of the operator key
//   - SKYWARDEN_AUTH_JWT_SECRET: HMAC secret for viewer tokens (32+ chars)
//   - SKYWARDEN_AUTH_TOKEN_TTL: Viewer token lifetime (default: 1h)
//   - SKYWARDEN_AUTH_RATE_LIMIT_REQUESTS: Requests per window (default: 100)
//   - SKYWARDEN_AUTH_RATE_LIMIT_WINDOW: Rate limit window (default: 1m)
//   - SKYWARDEN_AUTH_RATE_LIMIT_DISABLED: Disable rate limiting (default: false)
//   - SKYWARDEN_AUTH_CORS_ORIGINS: Comma-separated allowed origins (default: *)
//   - SKYWARDEN_AUTH_TRUSTED_PROXIES: Comma-separated trusted proxy CIDRs
type AuthConfig struct {
	Enabled           bool          `koanf:"enabled"`
	APIKey            string        `koanf:"api_key"`      // Plaintext key; prefer APIKeyHash in production
	APIKeyHash        string        `koanf:"api_key_hash"` // Bcrypt hash, takes precedence over APIKey
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// DetectorConfig holds object detection backend settings.
//
// Backends are registered by name; "http" posts frames to an external
// inference server (YOLO-style JSON detections), "static" returns a fixed
// detection set for tests and dry runs.
//
// Environment Variables:
//   - SKYWARDEN_DETECTOR_BACKEND: Backend name (default: http)
//   - SKYWARDEN_DETECTOR_ENDPOINT: Inference server URL (required for http)
//   - SKYWARDEN_DETECTOR_MODEL: Model identifier passed to the backend (default: yolov8n)
//   - SKYWARDEN_DETECTOR_API_KEY: Bearer token for the inference server (optional)
//   - SKYWARDEN_DETECTOR_CONFIDENCE: Minimum detection confidence (default: 0.25)
//   - SKYWARDEN_DETECTOR_IOU: NMS IoU threshold (default: 0.45)
//   - SKYWARDEN_DETECTOR_CLASSES: Comma-separated class allowlist (default: all)
//   - SKYWARDEN_DETECTOR_TIMEOUT: Per-request timeout (default: 15s)
//   - SKYWARDEN_DETECTOR_BREAKER: Wrap calls in a circuit breaker (default: true)
type DetectorConfig struct {
	Backend             string        `koanf:"backend"`
	Endpoint            string        `koanf:"endpoint"`
	Model               string        `koanf:"model"`
	APIKey              string        `koanf:"api_key"`
	ConfidenceThreshold float64       `koanf:"confidence_threshold"`
	IoUThreshold        float64       `koanf:"iou_threshold"`
	Classes             []string      `koanf:"classes"`
	Timeout             time.Duration `koanf:"timeout"`
	BreakerEnabled      bool          `koanf:"breaker_enabled"`
}

// AnalyzerConfig holds vision-language scene analysis backend settings.
//
// The analyzer receives the frame plus a prompt describing the detected
// object classes and returns a short security-focused scene description.
//
// Environment Variables:
//   - SKYWARDEN_ANALYZER_ENABLED: Enable scene analysis (default: true)
//   - SKYWARDEN_ANALYZER_BACKEND: Backend name (default: http)
//   - SKYWARDEN_ANALYZER_ENDPOINT: VLM server URL (required for http)
//   - SKYWARDEN_ANALYZER_MODEL: Model identifier (default: qwen2-vl)
//   - SKYWARDEN_ANALYZER_API_KEY: Bearer token (optional)
//   - SKYWARDEN_ANALYZER_MAX_TOKENS: Completion token cap (default: 120)
//   - SKYWARDEN_ANALYZER_TEMPERATURE: Sampling temperature (default: 0.6)
//   - SKYWARDEN_ANALYZER_TIMEOUT: Per-request timeout (default: 30s)
//   - SKYWARDEN_ANALYZER_BREAKER: Wrap calls in a circuit breaker (default: true)
type AnalyzerConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Backend        string        `koanf:"backend"`
	Endpoint       string        `koanf:"endpoint"`
	Model          string        `koanf:"model"`
	APIKey         string        `koanf:"api_key"`
	MaxTokens      int           `koanf:"max_tokens"`
	Temperature    float64       `koanf:"temperature"`
	Timeout        time.Duration `koanf:"timeout"`
	BreakerEnabled bool          `koanf:"breaker_enabled"`
}

// ThreatConfig holds keyword tables for threat classification.
//
// Each list overrides the built-in defaults for its level when non-empty.
// Matching is case-insensitive substring search against the scene analysis,
// checked in severity order (critical first).
//
// Environment Variables:
//   - SKYWARDEN_THREAT_CRITICAL_KEYWORDS: Comma-separated overrides
//   - SKYWARDEN_THREAT_HIGH_KEYWORDS: Comma-separated overrides
//   - SKYWARDEN_THREAT_MEDIUM_KEYWORDS: Comma-separated overrides
//   - SKYWARDEN_THREAT_LOW_KEYWORDS: Comma-separated overrides
type ThreatConfig struct {
	CriticalKeywords []string `koanf:"critical_keywords"`
	HighKeywords     []string `koanf:"high_keywords"`
	MediumKeywords   []string `koanf:"medium_keywords"`
	LowKeywords      []string `koanf:"low_keywords"`
}

// StreamConfig holds real-time stream processing settings.
//
// Queues are bounded and drop-on-full: a slow consumer never blocks capture.
// Strides control how many frames are skipped between assessments.
//
// Environment Variables:
//   - SKYWARDEN_STREAM_FRAME_QUEUE: Frame queue capacity (default: 30)
//   - SKYWARDEN_STREAM_RESULT_QUEUE: Result queue capacity (default: 30)
//   - SKYWARDEN_STREAM_DEQUEUE_TIMEOUT: Worker dequeue timeout (default: 1s)
//   - SKYWARDEN_STREAM_JOIN_TIMEOUT: Per-goroutine stop timeout (default: 5s)
//   - SKYWARDEN_STREAM_FILE_STRIDE: Assess every Nth frame in files (default: 5)
//   - SKYWARDEN_STREAM_LIVE_STRIDE: Assess every Nth frame live (default: 10)
//   - SKYWARDEN_STREAM_CAPTURE_FPS: Capture rate cap, 0 = unlimited (default: 0)
//   - SKYWARDEN_STREAM_FFMPEG_PATH: ffmpeg binary for video decode (default: ffmpeg)
type StreamConfig struct {
	FrameQueueSize  int           `koanf:"frame_queue_size"`
	ResultQueueSize int           `koanf:"result_queue_size"`
	DequeueTimeout  time.Duration `koanf:"dequeue_timeout"`
	JoinTimeout     time.Duration `koanf:"join_timeout"`
	FileStride      int           `koanf:"file_stride"`
	LiveStride      int           `koanf:"live_stride"`
	CaptureFPS      float64       `koanf:"capture_fps"`
	FFmpegPath      string        `koanf:"ffmpeg_path"`
}

// BatchConfig holds directory batch processing settings.
//
// Environment Variables:
//   - SKYWARDEN_BATCH_WORKERS: Concurrent image workers (default: 4)
//   - SKYWARDEN_BATCH_OUTPUT_DIR: Results directory (default: results)
//   - SKYWARDEN_BATCH_REPORT: Write markdown report (default: true)
type BatchConfig struct {
	Workers   int    `koanf:"workers"`
	OutputDir string `koanf:"output_dir"`
	Report    bool   `koanf:"report"`
}

// StorageConfig holds DuckDB assessment persistence settings.
//
// Environment Variables:
//   - SKYWARDEN_STORAGE_ENABLED: Persist assessments (default: true)
//   - SKYWARDEN_STORAGE_PATH: Database path (default: /data/skywarden.duckdb)
//   - SKYWARDEN_STORAGE_MAX_MEMORY: DuckDB memory limit (default: 1GB)
//   - SKYWARDEN_STORAGE_THREADS: DuckDB threads, 0 = NumCPU (default: 0)
//   - SKYWARDEN_STORAGE_RETENTION_DAYS: Assessment retention (default: 30)
type StorageConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Path          string `koanf:"path"`
	MaxMemory     string `koanf:"max_memory"`
	Threads       int    `koanf:"threads"`
	RetentionDays int    `koanf:"retention_days"`
}

// AlertsConfig holds alert dispatch settings.
//
// Alerts fire for assessments at or above MinLevel and fan out to the
// configured notifiers. The badger journal records alerts before delivery
// so undelivered alerts replay on restart.
//
// Environment Variables:
//   - SKYWARDEN_ALERTS_ENABLED: Enable alert dispatch (default: true)
//   - SKYWARDEN_ALERTS_MIN_LEVEL: LOW, MEDIUM, HIGH, CRITICAL (default: HIGH)
//   - SKYWARDEN_ALERTS_QUEUE_SIZE: Dispatch queue capacity (default: 100)
//   - SKYWARDEN_ALERTS_NOTIFIERS: Comma-separated notifier names (default: log)
//   - SKYWARDEN_ALERTS_WEBHOOK_URL: Webhook target (required for webhook notifier)
//   - SKYWARDEN_ALERTS_WEBHOOK_SECRET: HMAC-SHA256 signing secret (optional)
//   - SKYWARDEN_ALERTS_WEBHOOK_TIMEOUT: Webhook request timeout (default: 10s)
//   - SKYWARDEN_ALERTS_JOURNAL_DIR: Badger journal directory (default: /data/alerts/journal)
type AlertsConfig struct {
	Enabled        bool          `koanf:"enabled"`
	MinLevel       string        `koanf:"min_level"`
	QueueSize      int           `koanf:"queue_size"`
	Notifiers      []string      `koanf:"notifiers"`
	WebhookURL     string        `koanf:"webhook_url"`
	WebhookSecret  string        `koanf:"webhook_secret"`
	WebhookTimeout time.Duration `koanf:"webhook_timeout"`
	JournalDir     string        `koanf:"journal_dir"`
}

// NATSConfig holds NATS JetStream alert publishing settings.
// The embedded server is only compiled in with the nats build tag.
//
// Environment Variables:
//   - SKYWARDEN_NATS_ENABLED: Publish alerts to NATS (default: false)
//   - SKYWARDEN_NATS_URL: Server URL (default: nats://127.0.0.1:4222)
//   - SKYWARDEN_NATS_EMBEDDED: Run embedded server (default: true)
//   - SKYWARDEN_NATS_STORE_DIR: JetStream store directory (default: /data/nats/jetstream)
//   - SKYWARDEN_NATS_MAX_MEMORY: JetStream memory limit in bytes (default: 1GB)
//   - SKYWARDEN_NATS_MAX_STORE: JetStream disk limit in bytes (default: 10GB)
//   - SKYWARDEN_NATS_TOPIC: Alert topic (default: skywarden.alerts)
//   - SKYWARDEN_NATS_RELAY: Consume alerts from the stream and feed the
//     local WebSocket hub (default: false). For viewer nodes that follow
//     alerts raised by other instances.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`
	Topic          string `koanf:"topic"`
	Relay          bool   `koanf:"relay"`
}

// APIConfig holds API response settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}
