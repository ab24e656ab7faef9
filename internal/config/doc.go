// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

/*
Package config provides centralized configuration management for Skywarden.

This package handles loading, validation, and parsing of configuration for
all application components. It ensures consistent configuration across the
detection pipeline, stream processors, and alert dispatcher, and provides
sensible defaults for optional settings.

# Configuration Sources

Configuration is loaded in three layers, each overriding the previous:

 1. Built-in defaults (always present)
 2. YAML config file (config.yaml, /etc/skywarden/config.yaml, or
    the path named by SKYWARDEN_CONFIG_PATH)
 3. Environment variables with the SKYWARDEN_ prefix (highest priority)

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: HTTP server settings (host, port, timeouts)
  - LoggingConfig: Log level, format, and caller reporting
  - AuthConfig: API key and viewer token security settings
  - DetectorConfig: Object detection backend and thresholds
  - AnalyzerConfig: Vision-language scene analysis backend
  - ThreatConfig: Keyword overrides for threat classification
  - StreamConfig: Live stream queue sizes, strides, and timeouts
  - BatchConfig: Batch directory processing settings
  - StorageConfig: DuckDB assessment persistence
  - AlertsConfig: Alert dispatch, notifiers, and journal
  - NATSConfig: Embedded NATS server and alert publishing
  - APIConfig: Pagination limits for query endpoints

# Environment Variables

Variables are organized by component:

HTTP Server (ServerConfig):
  - SKYWARDEN_SERVER_HOST: Bind address (default: 0.0.0.0)
  - SKYWARDEN_SERVER_PORT: Listen port (default: 8090)
  - SKYWARDEN_SERVER_TIMEOUT: Read/write timeout (default: 30s)
  - SKYWARDEN_ENVIRONMENT: Deployment environment (default: development)

Authentication (AuthConfig):
  - SKYWARDEN_AUTH_ENABLED: Require API key auth (default: false)
  - SKYWARDEN_AUTH_API_KEY: Operator API key (min 16 chars, dev only)
  - SKYWARDEN_AUTH_API_KEY_HASH: bcrypt hash of the API key (production)
  - SKYWARDEN_AUTH_JWT_SECRET: Viewer token signing secret (min 32 chars)
  - SKYWARDEN_AUTH_TOKEN_TTL: Viewer token lifetime (default: 1h)
  - SKYWARDEN_AUTH_RATE_LIMIT_REQUESTS: Requests per window (default: 100)
  - SKYWARDEN_AUTH_RATE_LIMIT_WINDOW: Rate limit window (default: 1m)
  - SKYWARDEN_AUTH_CORS_ORIGINS: Comma-separated allowed origins

Detection (DetectorConfig):
  - SKYWARDEN_DETECTOR_BACKEND: Backend name (default: http)
  - SKYWARDEN_DETECTOR_ENDPOINT: Inference server URL
  - SKYWARDEN_DETECTOR_MODEL: Model identifier (default: yolov8n)
  - SKYWARDEN_DETECTOR_CONFIDENCE: Confidence threshold (default: 0.25)
  - SKYWARDEN_DETECTOR_IOU: IoU threshold for NMS (default: 0.45)
  - SKYWARDEN_DETECTOR_CLASSES: Comma-separated class filter
  - SKYWARDEN_DETECTOR_TIMEOUT: Inference timeout (default: 15s)

Scene Analysis (AnalyzerConfig):
  - SKYWARDEN_ANALYZER_ENABLED: Enable VLM analysis (default: true)
  - SKYWARDEN_ANALYZER_ENDPOINT: VLM inference server URL
  - SKYWARDEN_ANALYZER_MODEL: Model identifier (default: qwen2-vl)
  - SKYWARDEN_ANALYZER_MAX_TOKENS: Completion budget (default: 120)
  - SKYWARDEN_ANALYZER_TEMPERATURE: Sampling temperature (default: 0.6)
  - SKYWARDEN_ANALYZER_TIMEOUT: Inference timeout (default: 30s)

Stream Processing (StreamConfig):
  - SKYWARDEN_STREAM_FRAME_QUEUE: Frame queue capacity (default: 30)
  - SKYWARDEN_STREAM_RESULT_QUEUE: Result queue capacity (default: 30)
  - SKYWARDEN_STREAM_DEQUEUE_TIMEOUT: Worker dequeue wait (default: 1s)
  - SKYWARDEN_STREAM_JOIN_TIMEOUT: Stop() join deadline (default: 5s)
  - SKYWARDEN_STREAM_FILE_STRIDE: Frame stride for files (default: 5)
  - SKYWARDEN_STREAM_LIVE_STRIDE: Frame stride for live feeds (default: 10)
  - SKYWARDEN_STREAM_CAPTURE_FPS: Live capture rate cap, 0 = off (default: 0)
  - SKYWARDEN_STREAM_FFMPEG_PATH: ffmpeg binary for video decode (default: ffmpeg)

Storage (StorageConfig):
  - SKYWARDEN_STORAGE_ENABLED: Persist assessments (default: true)
  - SKYWARDEN_STORAGE_PATH: Database path (default: /data/skywarden.duckdb)
  - SKYWARDEN_STORAGE_RETENTION_DAYS: Assessment retention (default: 30)

Alerts (AlertsConfig):
  - SKYWARDEN_ALERTS_ENABLED: Enable alert dispatch (default: true)
  - SKYWARDEN_ALERTS_MIN_LEVEL: Minimum alert level (default: HIGH)
  - SKYWARDEN_ALERTS_NOTIFIERS: Comma-separated notifiers (default: log)
  - SKYWARDEN_ALERTS_WEBHOOK_URL: Webhook destination URL
  - SKYWARDEN_ALERTS_JOURNAL_DIR: Durable journal directory

NATS (NATSConfig):
  - SKYWARDEN_NATS_ENABLED: Enable NATS publishing (default: false)
  - SKYWARDEN_NATS_URL: Server URL (default: nats://127.0.0.1:4222)
  - SKYWARDEN_NATS_EMBEDDED: Run embedded server (default: true)
  - SKYWARDEN_NATS_TOPIC: Alert topic (default: skywarden.alerts)

The full set of recognized variables is defined in envTransformFunc; only
mapped variables are consumed, so unrelated environment noise is ignored.

# Usage Example

Basic configuration loading:

	import "github.com/tomtom215/skywarden/internal/config"

	// Load configuration from defaults, file, and environment
	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}

	// Access configuration values
	fmt.Printf("Starting server on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Detector endpoint: %s\n", cfg.Detector.Endpoint)
	fmt.Printf("Alert floor: %s\n", cfg.Alerts.MinLevel)

Testing with custom configuration:

	// Override environment variables for testing
	t.Setenv("SKYWARDEN_SERVER_PORT", "8091")
	t.Setenv("SKYWARDEN_DETECTOR_ENDPOINT", "http://test-inference:8000/v1/detect")
	t.Setenv("SKYWARDEN_AUTH_JWT_SECRET", "test-secret-at-least-32-characters-long")

	cfg, err := config.LoadWithKoanf()
	// Use cfg for testing

# Validation

The package performs comprehensive validation:

  - Required fields: detector endpoint (http backend), JWT secret (if auth enabled)
  - String length: JWT secret >=32 chars, API key >=16 chars
  - Numeric ranges: port (1-65535), thresholds in [0,1], workers (1-32)
  - Duration ranges: all timeouts must be positive
  - URL formats: detector/analyzer endpoints and webhook URLs must be valid HTTP(S)
  - Placeholder detection: secrets containing "changeme" or similar are rejected
  - Cross-field checks: nats notifier requires NATS to be enabled

# Defaults

Sensible defaults are provided for all optional settings:

  - Server port: 8090
  - Detector confidence: 0.25, IoU: 0.45 (upstream YOLO defaults)
  - Analyzer max tokens: 120, temperature: 0.6 (concise tactical summaries)
  - Frame/result queues: 30 (about one second of video at 30 FPS)
  - File stride: 5, live stride: 10 (live feeds shed more load)
  - Alert floor: HIGH (MEDIUM and LOW assessments are recorded, not dispatched)

# Security Best Practices

When configuring authentication:

 1. Use bcrypt hashes in production: set SKYWARDEN_AUTH_API_KEY_HASH rather
    than the plaintext key. Generate with: skywarden hash-key

 2. Use strong JWT secrets: Minimum 32 characters, cryptographically random
    Generate with: openssl rand -base64 48

 3. Configure trusted proxies: Only allow known reverse proxy IPs
    Example: SKYWARDEN_AUTH_TRUSTED_PROXIES=127.0.0.1,10.0.0.0/8

 4. Restrict CORS origins: wildcard origins trigger a startup warning when
    SKYWARDEN_ENVIRONMENT=production

Stream source URLs may embed camera credentials. They are encrypted at rest
with AES-256-GCM using a key derived from the JWT secret; see
CredentialEncryptor.

# Docker Deployment

For Docker deployments, use environment variables or docker-compose.yml:

	services:
	  skywarden:
	    image: ghcr.io/tomtom215/skywarden:latest
	    environment:
	      SKYWARDEN_DETECTOR_ENDPOINT: http://inference:8000/v1/detect
	      SKYWARDEN_ANALYZER_ENDPOINT: http://inference:8000/v1/chat/completions
	      SKYWARDEN_AUTH_ENABLED: "true"
	      SKYWARDEN_AUTH_API_KEY_HASH: ${SKYWARDEN_AUTH_API_KEY_HASH}
	      SKYWARDEN_AUTH_JWT_SECRET: ${SKYWARDEN_AUTH_JWT_SECRET}
	    ports:
	      - "8090:8090"
	    volumes:
	      - skywarden-data:/data

# Thread Safety

The Config struct is immutable after LoadWithKoanf() returns, making it safe
for concurrent access from multiple goroutines without synchronization.

# See Also

  - config.example.yaml: Complete configuration template
  - README.md: User-facing configuration documentation
*/
package config
