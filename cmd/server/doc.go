// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

/*
Package main is the entry point for the Skywarden server application.

Skywarden is a self-hosted threat assessment platform for drone security
cameras. Captured frames pass through an object detection backend and an
optional vision-language scene analyzer; the results are classified into
threat levels (NONE through CRITICAL), persisted to DuckDB, broadcast to
WebSocket subscribers, and dispatched as alerts when they cross the
configured severity threshold.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("skywarden")
	├── DataSupervisor ("data-layer")
	│   ├── Assessment Store writer (DuckDB, optional)
	│   └── Alert Journal GC (badger, optional)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (real-time updates)
	│   ├── Alert Dispatcher (optional)
	│   └── NATS Alert Relay (optional, -tags nats)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API + WebSocket)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Vision backends: Object detector (required) and scene describer (optional)
 4. Pipeline: Detector + describer + threat classifier + metrics tracker
 5. Storage: DuckDB assessment store with retention pruning
 6. WebSocket Hub: Real-time assessment and alert broadcasts
 7. Alerts: Badger journal, dispatcher, and configured notifiers
 8. Authentication: API key + viewer tokens, or no-auth mode
 9. Supervisor Tree: Suture v4 process supervision
 10. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	SKYWARDEN_SERVER_PORT=8090       # HTTP server port
	SKYWARDEN_LOGGING_LEVEL=info     # trace, debug, info, warn, error
	SKYWARDEN_LOGGING_FORMAT=json    # json or console

	# Vision backends
	SKYWARDEN_DETECTOR_BACKEND=http
	SKYWARDEN_DETECTOR_ENDPOINT=http://inference:9001/detect
	SKYWARDEN_DETECTOR_MODEL=yolov8n
	SKYWARDEN_ANALYZER_ENABLED=true
	SKYWARDEN_ANALYZER_ENDPOINT=http://inference:9002/describe
	SKYWARDEN_ANALYZER_MODEL=qwen2-vl

	# Authentication (disabled by default)
	SKYWARDEN_AUTH_ENABLED=true
	SKYWARDEN_AUTH_API_KEY_HASH=<bcrypt hash>
	SKYWARDEN_AUTH_JWT_SECRET=<32+ chars>

	# Persistence and alerting
	SKYWARDEN_STORAGE_PATH=/data/skywarden.duckdb
	SKYWARDEN_STORAGE_RETENTION_DAYS=30
	SKYWARDEN_ALERTS_MIN_LEVEL=HIGH
	SKYWARDEN_ALERTS_NOTIFIERS=log,webhook
	SKYWARDEN_ALERTS_WEBHOOK_URL=https://hooks.example.com/skywarden

See .env.example for the complete configuration reference.

# Detector-Only Mode

Skywarden can run without a vision-language analyzer. When
SKYWARDEN_ANALYZER_ENABLED=false, assessments are classified from the
detector output alone:

	export SKYWARDEN_ANALYZER_ENABLED=false
	export SKYWARDEN_DETECTOR_ENDPOINT=http://inference:9001/detect
	./skywarden-server

The "static" detector backend needs no external services at all, which is
useful for wiring checks and CI:

	export SKYWARDEN_DETECTOR_BACKEND=static
	export SKYWARDEN_STORAGE_ENABLED=false
	./skywarden-server

# Build Tags

Optional build tags enable additional functionality:

	go build ./cmd/server                # Standard build
	go build -tags nats ./cmd/server     # Enable NATS JetStream alert publishing

Build tags affect alert fan-out composition:
  - nats: Enables the "nats" notifier and the alert relay for viewer nodes.
    Without the tag both constructors return an error directing the operator
    to rebuild.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Waits for in-flight requests (10s timeout)
 3. Stops active stream sessions and inference workers
 4. Flushes queued assessments to DuckDB
 5. Closes WebSocket clients and the alert journal
 6. Reports any services that failed to stop

# Usage Examples

Development (no auth, no external inference):

	export SKYWARDEN_DETECTOR_BACKEND=static
	export SKYWARDEN_STORAGE_ENABLED=false
	go run ./cmd/server

Production (authenticated, full pipeline):

	export SKYWARDEN_DETECTOR_ENDPOINT=http://inference:9001/detect
	export SKYWARDEN_ANALYZER_ENDPOINT=http://inference:9002/describe
	export SKYWARDEN_AUTH_ENABLED=true
	export SKYWARDEN_AUTH_API_KEY_HASH='$2a$10$...'
	export SKYWARDEN_AUTH_JWT_SECRET=$(openssl rand -base64 32)
	./skywarden-server

Docker:

	docker run -d \
	  -e SKYWARDEN_DETECTOR_ENDPOINT=http://inference:9001/detect \
	  -e SKYWARDEN_AUTH_ENABLED=false \
	  -v skywarden-data:/data \
	  -p 8090:8090 \
	  ghcr.io/tomtom215/skywarden

# API Documentation

Swagger documentation is available at /swagger/index.html when the server
is running. The API is organized into categories:

  - Core: Health checks, service metadata, threat level reference
  - Analyze: Single image assessment (upload or URL)
  - Stream: Session control for video files and live sources
  - Assessments: Stored assessment queries and aggregate statistics
  - Metrics: Pipeline latency and counter snapshots, Prometheus exposition
  - Realtime: WebSocket feed of assessments and alerts
  - Auth: Viewer token issuance

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/pipeline: Frame assessment pipeline
  - internal/alerts: Alert dispatch and journaling
  - docs/DEVELOPMENT.md: Development workflow
*/
package main
