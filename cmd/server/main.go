// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package main is the entry point for the Skywarden server application.
//
// Skywarden is a self-hosted threat assessment platform for drone security
// cameras. It runs captured frames through an object detection backend and
// an optional vision-language scene analyzer, classifies the combined result
// into threat levels, and serves assessments over a REST API with real-time
// WebSocket distribution and configurable alerting.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Vision backends: Object detector (required) and scene describer (optional)
//  3. Pipeline: Detector, describer, threat classifier, and metrics tracker
//  4. Storage: DuckDB assessment persistence with retention pruning
//  5. WebSocket Hub: Real-time assessment and alert distribution
//  6. Alerts: Badger-journaled dispatcher with log, webhook, and NATS notifiers
//  7. Authentication: Operator API key plus short-lived viewer tokens, or no-auth mode
//  8. HTTP Server: Chi router with rate limiting and Swagger documentation
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (SKYWARDEN_ prefix, see .env.example)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Minimal configuration points the detector at an inference server:
//   - SKYWARDEN_DETECTOR_ENDPOINT: YOLO-style detection server URL
//   - SKYWARDEN_ANALYZER_ENDPOINT: VLM server URL (when scene analysis is enabled)
//
// For authenticated deployments:
//   - SKYWARDEN_AUTH_ENABLED=true
//   - SKYWARDEN_AUTH_API_KEY_HASH: bcrypt hash of the operator key
//   - SKYWARDEN_AUTH_JWT_SECRET: 32+ character secret for viewer tokens
//
// # Build Tags
//
// Optional build tags enable additional functionality:
//
//	go build -tags "nats" ./cmd/server  # Enable NATS JetStream alert publishing
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Flushes queued assessments and closes the store
//   - Closes WebSocket clients and the alert journal
//
// # Example Usage
//
// Development (no auth, static detector):
//
//	export SKYWARDEN_DETECTOR_BACKEND=static
//	export SKYWARDEN_STORAGE_ENABLED=false
//	./skywarden-server
//
// Production with authentication:
//
//	export SKYWARDEN_DETECTOR_ENDPOINT=http://inference:9001/detect
//	export SKYWARDEN_ANALYZER_ENDPOINT=http://inference:9002/describe
//	export SKYWARDEN_AUTH_ENABLED=true
//	export SKYWARDEN_AUTH_API_KEY_HASH='$2a$10$...'
//	export SKYWARDEN_AUTH_JWT_SECRET=$(openssl rand -base64 32)
//	./skywarden-server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/skywarden/internal/alerts"
	"github.com/tomtom215/skywarden/internal/api"
	"github.com/tomtom215/skywarden/internal/auth"
	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
	"github.com/tomtom215/skywarden/internal/pipeline"
	"github.com/tomtom215/skywarden/internal/store"
	"github.com/tomtom215/skywarden/internal/stream"
	"github.com/tomtom215/skywarden/internal/supervisor"
	"github.com/tomtom215/skywarden/internal/supervisor/services"
	"github.com/tomtom215/skywarden/internal/threat"
	"github.com/tomtom215/skywarden/internal/vision"
	ws "github.com/tomtom215/skywarden/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "1.0.0"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Skywarden with supervisor tree")

	// Log configuration status - show analyzer status based on Enabled flag
	if cfg.Analyzer.Enabled {
		logging.Info().
			Str("detector", cfg.Detector.Backend).
			Str("analyzer", cfg.Analyzer.Backend).
			Bool("auth", cfg.Auth.Enabled).
			Msg("Configuration loaded")
	} else {
		logging.Info().
			Str("detector", cfg.Detector.Backend).
			Bool("analyzer_enabled", false).
			Bool("auth", cfg.Auth.Enabled).
			Msg("Configuration loaded (detector-only mode)")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Publish build info and keep the uptime gauge fresh for scrapes
	metrics.SetAppInfo(version, runtime.Version())
	go metrics.RunUptimeUpdater(ctx, time.Now(), 15*time.Second)

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	// Create supervisor tree
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Initialize the detection backend (required)
	detector, err := vision.NewDetector(&cfg.Detector)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize detector backend")
	}
	logging.Info().
		Str("backend", cfg.Detector.Backend).
		Str("model", cfg.Detector.Model).
		Float64("confidence", cfg.Detector.ConfidenceThreshold).
		Msg("Detector backend initialized")

	// Scene describer is optional - without it assessments carry
	// detection-derived summaries only
	var describer vision.SceneDescriber
	if cfg.Analyzer.Enabled {
		describer, err = vision.NewSceneDescriber(&cfg.Analyzer)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize scene describer")
		}
		logging.Info().
			Str("backend", cfg.Analyzer.Backend).
			Str("model", cfg.Analyzer.Model).
			Msg("Scene describer initialized")
	} else {
		logging.Info().Msg("Scene analysis disabled - running in detector-only mode")
	}

	classifier := threat.NewClassifier(&cfg.Threat)
	tracker := metrics.NewTracker()

	pipe := pipeline.New(detector, describer, classifier, tracker)
	if err := pipe.Load(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to load inference backends")
	}
	logging.Info().Msg("Assessment pipeline loaded")

	// Initialize assessment store (optional persistence)
	var st *store.Store
	if cfg.Storage.Enabled {
		st, err = store.New(&cfg.Storage)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize assessment store")
		}
		defer func() {
			if err := st.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing assessment store")
			}
		}()
		logging.Info().
			Str("path", cfg.Storage.Path).
			Int("retention_days", cfg.Storage.RetentionDays).
			Msg("Assessment store initialized")
	} else {
		logging.Info().Msg("Assessment persistence disabled (SKYWARDEN_STORAGE_ENABLED=false)")
	}

	// Create WebSocket hub for real-time updates (before alert wiring)
	// This must be created early so the alert dispatcher can broadcast to it
	wsHub := ws.NewHub()

	// Initialize alert dispatch (journal, dispatcher, notifiers)
	dispatcher, journal, err := initAlerts(cfg, wsHub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize alert dispatch")
	}
	if journal != nil {
		defer func() {
			if err := journal.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing alert journal")
			}
		}()
	}

	// Create stream processor (sessions are started via the API, not here)
	processor := stream.NewProcessor(pipe, cfg.Stream)

	var verifier *auth.KeyVerifier
	var issuer *auth.TokenIssuer

	if cfg.Auth.Enabled {
		verifier, err = auth.NewKeyVerifier(&cfg.Auth)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize API key verifier")
		}
		issuer, err = auth.NewTokenIssuer(&cfg.Auth)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize viewer token issuer")
		}
		logging.Info().Msg("API key authentication enabled")
	} else {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (SKYWARDEN_AUTH_ENABLED=false)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  All endpoints are publicly accessible without authentication!")
		logging.Warn().Msg("  This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - Completely isolated private networks")
		logging.Warn().Msg("    - CI/CD testing environments")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER run an unauthenticated instance on a public network!")
		logging.Warn().Msg("============================================================")
	}

	middleware := auth.NewMiddleware(&cfg.Auth, verifier, issuer)

	if cfg.Auth.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (SKYWARDEN_AUTH_RATE_LIMIT_DISABLED=true)")
		logging.Warn().Msg("This should only be used for load testing!")
	}

	// Warn about wildcard CORS when authentication is enabled
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: CORS is configured with wildcard origin (SKYWARDEN_AUTH_CORS_ORIGINS=*)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  This allows ANY website to make cross-origin requests to your API.")
		logging.Warn().Msg("  With authentication enabled, this creates a security vulnerability:")
		logging.Warn().Msg("  attackers can steal credentials via malicious websites.")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  RECOMMENDED: Set specific origins in production:")
		logging.Warn().Msg("    SKYWARDEN_AUTH_CORS_ORIGINS=https://ops.example.com")
		logging.Warn().Msg("============================================================")
	}

	handler := api.NewHandler(pipe, processor, st, wsHub, classifier, verifier, issuer, cfg)

	// Fan out every stream assessment to persistence, alerting, and
	// connected WebSocket clients
	handler.SetAssessmentCallback(func(_ uint64, _ vision.Frame, assessment *threat.Assessment) {
		if st != nil {
			st.SaveAsync(assessment)
		}
		if dispatcher != nil {
			dispatcher.Consider(assessment)
		}
		wsHub.BroadcastAssessment(assessment)
	})

	router := api.NewRouter(handler, middleware, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Data layer services
	if st != nil {
		tree.AddDataService(services.NewAssessmentStoreService(st))
		logging.Info().Msg("Assessment store added to supervisor tree")
	}
	if journal != nil {
		tree.AddDataService(services.NewJournalGCService(journal, 0))
		logging.Info().Msg("Alert journal GC added to supervisor tree")
	}

	// Messaging layer services
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	logging.Info().Msg("WebSocket hub added to supervisor tree")
	if dispatcher != nil {
		tree.AddMessagingService(services.NewAlertDispatcherService(dispatcher))
		logging.Info().Msg("Alert dispatcher added to supervisor tree")
	}

	// The relay follows alerts published by other instances (viewer nodes)
	if cfg.NATS.Relay {
		relay, err := alerts.NewAlertRelay(&cfg.NATS, func(a *alerts.Alert) {
			wsHub.BroadcastAlert(a)
		})
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize NATS alert relay")
		}
		tree.AddMessagingService(services.NewAlertRelayService(relay))
		logging.Info().
			Str("url", cfg.NATS.URL).
			Str("topic", cfg.NATS.Topic).
			Msg("NATS alert relay added to supervisor tree")
	}

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// initAlerts builds the alert dispatch stack: the badger-backed journal, the
// dispatcher, and the configured notifiers. The WebSocket notifier is always
// registered so connected operators see alerts regardless of the notifier
// list. Notifier names were validated during config load.
//
// Returns a nil dispatcher and journal when alerting is disabled.
func initAlerts(cfg *config.Config, hub *ws.Hub) (*alerts.Dispatcher, *alerts.Journal, error) {
	if !cfg.Alerts.Enabled {
		logging.Info().Msg("Alert dispatch disabled (SKYWARDEN_ALERTS_ENABLED=false)")
		return nil, nil, nil
	}

	var journal *alerts.Journal
	if cfg.Alerts.JournalDir != "" {
		j, err := alerts.OpenJournal(cfg.Alerts.JournalDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening alert journal: %w", err)
		}
		journal = j
		logging.Info().Str("dir", cfg.Alerts.JournalDir).Msg("Alert journal opened")
	}

	// Close the journal on any later failure so badger releases its lock
	// before the fatal exit
	dispatcher, err := alerts.NewDispatcher(&cfg.Alerts, journal)
	if err != nil {
		closeJournal(journal)
		return nil, nil, err
	}

	for _, name := range cfg.Alerts.Notifiers {
		switch name {
		case "log":
			dispatcher.RegisterNotifier(alerts.NewLogNotifier())
		case "webhook":
			dispatcher.RegisterNotifier(alerts.NewWebhookNotifier(&cfg.Alerts))
		case "nats":
			notifier, err := alerts.NewNATSNotifier(&cfg.NATS)
			if err != nil {
				closeJournal(journal)
				return nil, nil, fmt.Errorf("nats notifier: %w", err)
			}
			dispatcher.RegisterNotifier(notifier)
		}
		logging.Info().Str("notifier", name).Msg("Alert notifier registered")
	}

	dispatcher.RegisterNotifier(ws.NewAlertNotifier(hub))

	logging.Info().
		Str("min_level", cfg.Alerts.MinLevel).
		Strs("notifiers", cfg.Alerts.Notifiers).
		Msg("Alert dispatcher initialized")

	return dispatcher, journal, nil
}

func closeJournal(journal *alerts.Journal) {
	if journal == nil {
		return
	}
	if err := journal.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing alert journal")
	}
}
