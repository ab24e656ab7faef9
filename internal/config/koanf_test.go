// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	// Server defaults
	if cfg.Server.Port != 8090 {
		t.Errorf("Server.Port = %d, want 8090", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Server.Timeout = %v, want 30s", cfg.Server.Timeout)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("Server.Environment = %q, want development", cfg.Server.Environment)
	}

	// Auth defaults (disabled)
	if cfg.Auth.Enabled != false {
		t.Errorf("Auth.Enabled should be false by default")
	}
	if cfg.Auth.TokenTTL != 1*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 1h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.RateLimitReqs != 100 {
		t.Errorf("Auth.RateLimitReqs = %d, want 100", cfg.Auth.RateLimitReqs)
	}
	if len(cfg.Auth.CORSOrigins) != 1 || cfg.Auth.CORSOrigins[0] != "*" {
		t.Errorf("Auth.CORSOrigins = %v, want [*]", cfg.Auth.CORSOrigins)
	}

	// Detector defaults (endpoint empty - required field)
	if cfg.Detector.Backend != "http" {
		t.Errorf("Detector.Backend = %q, want http", cfg.Detector.Backend)
	}
	if cfg.Detector.Endpoint != "" {
		t.Errorf("Detector.Endpoint should be empty by default, got %q", cfg.Detector.Endpoint)
	}
	if cfg.Detector.Model != "yolov8n" {
		t.Errorf("Detector.Model = %q, want yolov8n", cfg.Detector.Model)
	}
	if cfg.Detector.ConfidenceThreshold != 0.25 {
		t.Errorf("Detector.ConfidenceThreshold = %v, want 0.25", cfg.Detector.ConfidenceThreshold)
	}
	if cfg.Detector.IoUThreshold != 0.45 {
		t.Errorf("Detector.IoUThreshold = %v, want 0.45", cfg.Detector.IoUThreshold)
	}
	if cfg.Detector.Timeout != 15*time.Second {
		t.Errorf("Detector.Timeout = %v, want 15s", cfg.Detector.Timeout)
	}

	// Analyzer defaults (enabled)
	if cfg.Analyzer.Enabled != true {
		t.Errorf("Analyzer.Enabled should be true by default")
	}
	if cfg.Analyzer.Model != "qwen2-vl" {
		t.Errorf("Analyzer.Model = %q, want qwen2-vl", cfg.Analyzer.Model)
	}
	if cfg.Analyzer.MaxTokens != 120 {
		t.Errorf("Analyzer.MaxTokens = %d, want 120", cfg.Analyzer.MaxTokens)
	}
	if cfg.Analyzer.Temperature != 0.6 {
		t.Errorf("Analyzer.Temperature = %v, want 0.6", cfg.Analyzer.Temperature)
	}

	// Stream defaults
	if cfg.Stream.FrameQueueSize != 30 {
		t.Errorf("Stream.FrameQueueSize = %d, want 30", cfg.Stream.FrameQueueSize)
	}
	if cfg.Stream.ResultQueueSize != 30 {
		t.Errorf("Stream.ResultQueueSize = %d, want 30", cfg.Stream.ResultQueueSize)
	}
	if cfg.Stream.DequeueTimeout != 1*time.Second {
		t.Errorf("Stream.DequeueTimeout = %v, want 1s", cfg.Stream.DequeueTimeout)
	}
	if cfg.Stream.JoinTimeout != 5*time.Second {
		t.Errorf("Stream.JoinTimeout = %v, want 5s", cfg.Stream.JoinTimeout)
	}
	if cfg.Stream.FileStride != 5 {
		t.Errorf("Stream.FileStride = %d, want 5", cfg.Stream.FileStride)
	}
	if cfg.Stream.LiveStride != 10 {
		t.Errorf("Stream.LiveStride = %d, want 10", cfg.Stream.LiveStride)
	}

	// Batch defaults
	if cfg.Batch.Workers != 4 {
		t.Errorf("Batch.Workers = %d, want 4", cfg.Batch.Workers)
	}
	if cfg.Batch.OutputDir != "results" {
		t.Errorf("Batch.OutputDir = %q, want results", cfg.Batch.OutputDir)
	}

	// Storage defaults
	if cfg.Storage.Enabled != true {
		t.Errorf("Storage.Enabled should be true by default")
	}
	if cfg.Storage.Path != "/data/skywarden.duckdb" {
		t.Errorf("Storage.Path = %q, want /data/skywarden.duckdb", cfg.Storage.Path)
	}
	if cfg.Storage.MaxMemory != "1GB" {
		t.Errorf("Storage.MaxMemory = %q, want 1GB", cfg.Storage.MaxMemory)
	}
	if cfg.Storage.RetentionDays != 30 {
		t.Errorf("Storage.RetentionDays = %d, want 30", cfg.Storage.RetentionDays)
	}

	// Alerts defaults
	if cfg.Alerts.Enabled != true {
		t.Errorf("Alerts.Enabled should be true by default")
	}
	if cfg.Alerts.MinLevel != "HIGH" {
		t.Errorf("Alerts.MinLevel = %q, want HIGH", cfg.Alerts.MinLevel)
	}
	if cfg.Alerts.QueueSize != 100 {
		t.Errorf("Alerts.QueueSize = %d, want 100", cfg.Alerts.QueueSize)
	}
	if len(cfg.Alerts.Notifiers) != 1 || cfg.Alerts.Notifiers[0] != "log" {
		t.Errorf("Alerts.Notifiers = %v, want [log]", cfg.Alerts.Notifiers)
	}

	// NATS defaults (disabled)
	if cfg.NATS.Enabled != false {
		t.Errorf("NATS.Enabled should be false by default")
	}
	if cfg.NATS.URL != "nats://127.0.0.1:4222" {
		t.Errorf("NATS.URL = %q, want nats://127.0.0.1:4222", cfg.NATS.URL)
	}
	if cfg.NATS.MaxMemory != 1<<30 {
		t.Errorf("NATS.MaxMemory = %d, want 1GB", cfg.NATS.MaxMemory)
	}
	if cfg.NATS.MaxStore != 10<<30 {
		t.Errorf("NATS.MaxStore = %d, want 10GB", cfg.NATS.MaxStore)
	}
	if cfg.NATS.Topic != "skywarden.alerts" {
		t.Errorf("NATS.Topic = %q, want skywarden.alerts", cfg.NATS.Topic)
	}

	// API defaults
	if cfg.API.DefaultPageSize != 20 {
		t.Errorf("API.DefaultPageSize = %d, want 20", cfg.API.DefaultPageSize)
	}
	if cfg.API.MaxPageSize != 100 {
		t.Errorf("API.MaxPageSize = %d, want 100", cfg.API.MaxPageSize)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Server
		{"SKYWARDEN_SERVER_PORT", "server.port"},
		{"SKYWARDEN_SERVER_HOST", "server.host"},
		{"SKYWARDEN_ENVIRONMENT", "server.environment"},

		// Auth
		{"SKYWARDEN_AUTH_ENABLED", "auth.enabled"},
		{"SKYWARDEN_AUTH_API_KEY", "auth.api_key"},
		{"SKYWARDEN_AUTH_API_KEY_HASH", "auth.api_key_hash"},
		{"SKYWARDEN_AUTH_JWT_SECRET", "auth.jwt_secret"},
		{"SKYWARDEN_AUTH_RATE_LIMIT_REQUESTS", "auth.rate_limit_requests"},
		{"SKYWARDEN_AUTH_CORS_ORIGINS", "auth.cors_origins"},

		// Detector
		{"SKYWARDEN_DETECTOR_BACKEND", "detector.backend"},
		{"SKYWARDEN_DETECTOR_ENDPOINT", "detector.endpoint"},
		{"SKYWARDEN_DETECTOR_CONFIDENCE", "detector.confidence_threshold"},
		{"SKYWARDEN_DETECTOR_IOU", "detector.iou_threshold"},
		{"SKYWARDEN_DETECTOR_CLASSES", "detector.classes"},

		// Analyzer
		{"SKYWARDEN_ANALYZER_ENABLED", "analyzer.enabled"},
		{"SKYWARDEN_ANALYZER_MAX_TOKENS", "analyzer.max_tokens"},
		{"SKYWARDEN_ANALYZER_TEMPERATURE", "analyzer.temperature"},

		// Threat
		{"SKYWARDEN_THREAT_CRITICAL_KEYWORDS", "threat.critical_keywords"},
		{"SKYWARDEN_THREAT_LOW_KEYWORDS", "threat.low_keywords"},

		// Stream
		{"SKYWARDEN_STREAM_FRAME_QUEUE", "stream.frame_queue_size"},
		{"SKYWARDEN_STREAM_DEQUEUE_TIMEOUT", "stream.dequeue_timeout"},
		{"SKYWARDEN_STREAM_FILE_STRIDE", "stream.file_stride"},
		{"SKYWARDEN_STREAM_LIVE_STRIDE", "stream.live_stride"},

		// Storage
		{"SKYWARDEN_STORAGE_PATH", "storage.path"},
		{"SKYWARDEN_STORAGE_RETENTION_DAYS", "storage.retention_days"},

		// Alerts
		{"SKYWARDEN_ALERTS_MIN_LEVEL", "alerts.min_level"},
		{"SKYWARDEN_ALERTS_NOTIFIERS", "alerts.notifiers"},
		{"SKYWARDEN_ALERTS_WEBHOOK_URL", "alerts.webhook_url"},

		// NATS
		{"SKYWARDEN_NATS_ENABLED", "nats.enabled"},
		{"SKYWARDEN_NATS_EMBEDDED", "nats.embedded_server"},
		{"SKYWARDEN_NATS_TOPIC", "nats.topic"},

		// Logging
		{"SKYWARDEN_LOGGING_LEVEL", "logging.level"},

		// Unknown (should return empty)
		{"SKYWARDEN_RANDOM_VAR", ""},
		{"SKYWARDEN_PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := envTransformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	// Create a temporary directory for test files
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Save original working directory
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	}()

	// Change to temp directory
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Run("no config file exists", func(t *testing.T) {
		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("test: true"), 0644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("SKYWARDEN_CONFIG_PATH takes precedence", func(t *testing.T) {
		// Create a custom config file
		customPath := filepath.Join(tmpDir, "custom_config.yaml")
		if err := os.WriteFile(customPath, []byte("test: true"), 0644); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		defer os.Remove(customPath)

		os.Setenv(ConfigPathEnvVar, customPath)
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		if result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("SKYWARDEN_CONFIG_PATH with non-existent file", func(t *testing.T) {
		os.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		// Should fall back to default paths (which don't exist in temp dir)
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadWithKoanfEnvVars tests loading configuration from environment variables
func TestLoadWithKoanfEnvVars(t *testing.T) {
	// Clear all environment variables
	os.Clearenv()

	// Set required variables
	os.Setenv("SKYWARDEN_DETECTOR_ENDPOINT", "http://inference.local:8000/v1/detect")
	os.Setenv("SKYWARDEN_ANALYZER_ENDPOINT", "http://inference.local:8000/v1/chat/completions")

	// Set some custom values to override defaults
	os.Setenv("SKYWARDEN_SERVER_PORT", "9000")
	os.Setenv("SKYWARDEN_LOGGING_LEVEL", "debug")
	os.Setenv("SKYWARDEN_DETECTOR_CONFIDENCE", "0.5")
	os.Setenv("SKYWARDEN_STREAM_LIVE_STRIDE", "15")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	// Verify required values
	if cfg.Detector.Endpoint != "http://inference.local:8000/v1/detect" {
		t.Errorf("Detector.Endpoint = %q, want http://inference.local:8000/v1/detect", cfg.Detector.Endpoint)
	}

	// Verify custom overrides
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Detector.ConfidenceThreshold != 0.5 {
		t.Errorf("Detector.ConfidenceThreshold = %v, want 0.5", cfg.Detector.ConfidenceThreshold)
	}
	if cfg.Stream.LiveStride != 15 {
		t.Errorf("Stream.LiveStride = %d, want 15", cfg.Stream.LiveStride)
	}

	// Verify defaults are still applied for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Analyzer.MaxTokens != 120 {
		t.Errorf("Analyzer.MaxTokens = %d, want 120 (default)", cfg.Analyzer.MaxTokens)
	}
	if cfg.Stream.FileStride != 5 {
		t.Errorf("Stream.FileStride = %d, want 5 (default)", cfg.Stream.FileStride)
	}
}

// TestLoadWithKoanfSliceFields tests comma-separated env values become slices
func TestLoadWithKoanfSliceFields(t *testing.T) {
	os.Clearenv()

	os.Setenv("SKYWARDEN_DETECTOR_BACKEND", "static")
	os.Setenv("SKYWARDEN_ANALYZER_ENABLED", "false")
	os.Setenv("SKYWARDEN_DETECTOR_CLASSES", "person, car,drone")
	os.Setenv("SKYWARDEN_ALERTS_NOTIFIERS", "log,webhook")
	os.Setenv("SKYWARDEN_ALERTS_WEBHOOK_URL", "https://hooks.local/skywarden")
	os.Setenv("SKYWARDEN_THREAT_CRITICAL_KEYWORDS", "weapon,knife, gun")
	os.Setenv("SKYWARDEN_AUTH_CORS_ORIGINS", "https://ops.local, https://c2.local")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	wantClasses := []string{"person", "car", "drone"}
	if len(cfg.Detector.Classes) != len(wantClasses) {
		t.Fatalf("Detector.Classes = %v, want %v", cfg.Detector.Classes, wantClasses)
	}
	for i, c := range wantClasses {
		if cfg.Detector.Classes[i] != c {
			t.Errorf("Detector.Classes[%d] = %q, want %q", i, cfg.Detector.Classes[i], c)
		}
	}

	if len(cfg.Alerts.Notifiers) != 2 || cfg.Alerts.Notifiers[0] != "log" || cfg.Alerts.Notifiers[1] != "webhook" {
		t.Errorf("Alerts.Notifiers = %v, want [log webhook]", cfg.Alerts.Notifiers)
	}

	wantKeywords := []string{"weapon", "knife", "gun"}
	if len(cfg.Threat.CriticalKeywords) != len(wantKeywords) {
		t.Fatalf("Threat.CriticalKeywords = %v, want %v", cfg.Threat.CriticalKeywords, wantKeywords)
	}
	for i, kw := range wantKeywords {
		if cfg.Threat.CriticalKeywords[i] != kw {
			t.Errorf("Threat.CriticalKeywords[%d] = %q, want %q", i, cfg.Threat.CriticalKeywords[i], kw)
		}
	}

	if len(cfg.Auth.CORSOrigins) != 2 || cfg.Auth.CORSOrigins[0] != "https://ops.local" {
		t.Errorf("Auth.CORSOrigins = %v, want [https://ops.local https://c2.local]", cfg.Auth.CORSOrigins)
	}
}

// TestLoadWithKoanfConfigFile tests loading configuration from a YAML file
func TestLoadWithKoanfConfigFile(t *testing.T) {
	// Create a temporary directory
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Create a test config file
	configContent := `
detector:
  endpoint: "http://config-file.local:8000/v1/detect"
  confidence_threshold: 0.35

analyzer:
  enabled: false

server:
  port: 8888
  host: "127.0.0.1"

logging:
  level: "warn"
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	// Clear environment and set config path
	os.Clearenv()
	os.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	// Verify values from config file
	if cfg.Detector.Endpoint != "http://config-file.local:8000/v1/detect" {
		t.Errorf("Detector.Endpoint = %q, want http://config-file.local:8000/v1/detect", cfg.Detector.Endpoint)
	}
	if cfg.Detector.ConfidenceThreshold != 0.35 {
		t.Errorf("Detector.ConfidenceThreshold = %v, want 0.35", cfg.Detector.ConfidenceThreshold)
	}
	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}

	// Verify defaults are still applied for unset values
	if cfg.Storage.Path != "/data/skywarden.duckdb" {
		t.Errorf("Storage.Path = %q, want /data/skywarden.duckdb (default)", cfg.Storage.Path)
	}
}

// TestLoadWithKoanfEnvOverridesFile tests that env vars override config file
func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	// Create a temporary directory
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Create a test config file with some values
	configContent := `
detector:
  endpoint: "http://config-file.local:8000/v1/detect"

analyzer:
  enabled: false

server:
  port: 8888

logging:
  level: "warn"
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	// Clear environment and set config path + override values
	os.Clearenv()
	os.Setenv(ConfigPathEnvVar, configPath)
	os.Setenv("SKYWARDEN_SERVER_PORT", "9999")                   // Override port from config file
	os.Setenv("SKYWARDEN_LOGGING_LEVEL", "error")                // Override log level from config file
	os.Setenv("SKYWARDEN_STORAGE_PATH", "/custom/threat.duckdb") // Override a default value

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	// Verify values from config file (not overridden by env)
	if cfg.Detector.Endpoint != "http://config-file.local:8000/v1/detect" {
		t.Errorf("Detector.Endpoint = %q, want http://config-file.local:8000/v1/detect (from file)", cfg.Detector.Endpoint)
	}

	// Verify env vars override config file
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env override)", cfg.Logging.Level)
	}

	// Verify env vars override defaults
	if cfg.Storage.Path != "/custom/threat.duckdb" {
		t.Errorf("Storage.Path = %q, want /custom/threat.duckdb (env override)", cfg.Storage.Path)
	}
}

// TestLoadWithKoanfValidation tests that validation still works
func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "missing detector endpoint with http backend",
			envVars: map[string]string{},
			wantErr: true,
			errMsg:  "SKYWARDEN_DETECTOR_ENDPOINT is required when SKYWARDEN_DETECTOR_BACKEND=http",
		},
		{
			name: "static backend - no endpoint required",
			envVars: map[string]string{
				"SKYWARDEN_DETECTOR_BACKEND": "static",
				"SKYWARDEN_ANALYZER_ENABLED": "false",
			},
			wantErr: false,
		},
		{
			name: "auth enabled requires key material",
			envVars: map[string]string{
				"SKYWARDEN_DETECTOR_BACKEND": "static",
				"SKYWARDEN_ANALYZER_ENABLED": "false",
				"SKYWARDEN_AUTH_ENABLED":     "true",
			},
			wantErr: true,
			errMsg:  "SKYWARDEN_AUTH_API_KEY or SKYWARDEN_AUTH_API_KEY_HASH is required",
		},
		{
			name: "auth enabled requires JWT secret",
			envVars: map[string]string{
				"SKYWARDEN_DETECTOR_BACKEND": "static",
				"SKYWARDEN_ANALYZER_ENABLED": "false",
				"SKYWARDEN_AUTH_ENABLED":     "true",
				"SKYWARDEN_AUTH_API_KEY":     "operator-key-0123456789",
			},
			wantErr: true,
			errMsg:  "SKYWARDEN_AUTH_JWT_SECRET is required",
		},
		{
			name: "confidence out of range",
			envVars: map[string]string{
				"SKYWARDEN_DETECTOR_BACKEND":    "static",
				"SKYWARDEN_ANALYZER_ENABLED":    "false",
				"SKYWARDEN_DETECTOR_CONFIDENCE": "1.5",
			},
			wantErr: true,
			errMsg:  "SKYWARDEN_DETECTOR_CONFIDENCE must be between 0 and 1",
		},
		{
			name: "nats notifier without NATS enabled",
			envVars: map[string]string{
				"SKYWARDEN_DETECTOR_BACKEND": "static",
				"SKYWARDEN_ANALYZER_ENABLED": "false",
				"SKYWARDEN_ALERTS_NOTIFIERS": "log,nats",
			},
			wantErr: true,
			errMsg:  "SKYWARDEN_NATS_ENABLED=true is required",
		},
		{
			name: "valid configuration",
			envVars: map[string]string{
				"SKYWARDEN_DETECTOR_ENDPOINT": "http://localhost:8000/v1/detect",
				"SKYWARDEN_ANALYZER_ENDPOINT": "http://localhost:8000/v1/chat/completions",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			_, err := LoadWithKoanf()

			if tt.wantErr {
				if err == nil {
					t.Errorf("LoadWithKoanf() expected error containing %q, got nil", tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("LoadWithKoanf() unexpected error = %v", err)
				}
			}
		})
	}
}

// TestGetKoanfInstance verifies we can get a Koanf instance for custom use
func TestGetKoanfInstance(t *testing.T) {
	k := GetKoanfInstance()
	if k == nil {
		t.Error("GetKoanfInstance() returned nil")
	}
}
