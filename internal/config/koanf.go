// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/skywarden/config.yaml",
	"/etc/skywarden/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "SKYWARDEN_CONFIG_PATH"

// envPrefix is the prefix for all Skywarden environment variables.
const envPrefix = "SKYWARDEN_"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8090,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development", // Set SKYWARDEN_ENVIRONMENT=production for production checks
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Auth: AuthConfig{
			Enabled:           false, // Open by default for LAN appliance deployments
			APIKey:            "",
			APIKeyHash:        "",
			JWTSecret:         "",
			TokenTTL:          1 * time.Hour,
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			TrustedProxies:    []string{},
		},
		Detector: DetectorConfig{
			Backend:             "http",
			Endpoint:            "",
			Model:               "yolov8n",
			APIKey:              "",
			ConfidenceThreshold: 0.25,
			IoUThreshold:        0.45,
			Classes:             []string{}, // Empty = all classes
			Timeout:             15 * time.Second,
			BreakerEnabled:      true,
		},
		Analyzer: AnalyzerConfig{
			Enabled:        true,
			Backend:        "http",
			Endpoint:       "",
			Model:          "qwen2-vl",
			APIKey:         "",
			MaxTokens:      120,
			Temperature:    0.6,
			Timeout:        30 * time.Second,
			BreakerEnabled: true,
		},
		Threat: ThreatConfig{
			// Empty lists fall back to the built-in keyword tables in internal/threat
			CriticalKeywords: []string{},
			HighKeywords:     []string{},
			MediumKeywords:   []string{},
			LowKeywords:      []string{},
		},
		Stream: StreamConfig{
			FrameQueueSize:  30,
			ResultQueueSize: 30,
			DequeueTimeout:  1 * time.Second,
			JoinTimeout:     5 * time.Second,
			FileStride:      5,
			LiveStride:      10,
			CaptureFPS:      0, // Unlimited
			FFmpegPath:      "ffmpeg",
		},
		Batch: BatchConfig{
			Workers:   4,
			OutputDir: "results",
			Report:    true,
		},
		Storage: StorageConfig{
			Enabled:       true,
			Path:          "/data/skywarden.duckdb",
			MaxMemory:     "1GB",
			Threads:       0, // 0 = use runtime.NumCPU()
			RetentionDays: 30,
		},
		Alerts: AlertsConfig{
			Enabled:        true,
			MinLevel:       "HIGH",
			QueueSize:      100,
			Notifiers:      []string{"log"},
			WebhookURL:     "",
			WebhookSecret:  "",
			WebhookTimeout: 10 * time.Second,
			JournalDir:     "/data/alerts/journal",
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,  // 1GB
			MaxStore:       10 << 30, // 10GB
			Topic:          "skywarden.alerts",
			Relay:          false,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// SKYWARDEN_SERVER_PORT -> server.port
	// SKYWARDEN_DETECTOR_CONFIDENCE -> detector.confidence_threshold
	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Decrypt sealed "enc:" values so validation sees the plaintext form
	if err := resolveSecrets(cfg); err != nil {
		return nil, fmt.Errorf("failed to resolve encrypted values: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"auth.cors_origins",
	"auth.trusted_proxies",
	"detector.classes",
	"alerts.notifiers",
	"threat.critical_keywords",
	"threat.high_keywords",
	"threat.medium_keywords",
	"threat.low_keywords",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Only known variables are mapped; everything else is dropped so unrelated
// environment variables never pollute the configuration.
//
// Examples:
//   - SKYWARDEN_SERVER_PORT -> server.port
//   - SKYWARDEN_DETECTOR_ENDPOINT -> detector.endpoint
//   - SKYWARDEN_ALERTS_MIN_LEVEL -> alerts.min_level
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	envMappings := map[string]string{
		// Server mappings
		"server_port":    "server.port",
		"server_host":    "server.host",
		"server_timeout": "server.timeout",
		"environment":    "server.environment",

		// Logging mappings
		"logging_level":  "logging.level",
		"logging_format": "logging.format",
		"logging_caller": "logging.caller",

		// Auth mappings
		"auth_enabled":             "auth.enabled",
		"auth_api_key":             "auth.api_key",
		"auth_api_key_hash":        "auth.api_key_hash",
		"auth_jwt_secret":          "auth.jwt_secret",
		"auth_token_ttl":           "auth.token_ttl",
		"auth_rate_limit_requests": "auth.rate_limit_requests",
		"auth_rate_limit_window":   "auth.rate_limit_window",
		"auth_rate_limit_disabled": "auth.rate_limit_disabled",
		"auth_cors_origins":        "auth.cors_origins",
		"auth_trusted_proxies":     "auth.trusted_proxies",

		// Detector mappings
		"detector_backend":    "detector.backend",
		"detector_endpoint":   "detector.endpoint",
		"detector_model":      "detector.model",
		"detector_api_key":    "detector.api_key",
		"detector_confidence": "detector.confidence_threshold",
		"detector_iou":        "detector.iou_threshold",
		"detector_classes":    "detector.classes",
		"detector_timeout":    "detector.timeout",
		"detector_breaker":    "detector.breaker_enabled",

		// Analyzer mappings
		"analyzer_enabled":     "analyzer.enabled",
		"analyzer_backend":     "analyzer.backend",
		"analyzer_endpoint":    "analyzer.endpoint",
		"analyzer_model":       "analyzer.model",
		"analyzer_api_key":     "analyzer.api_key",
		"analyzer_max_tokens":  "analyzer.max_tokens",
		"analyzer_temperature": "analyzer.temperature",
		"analyzer_timeout":     "analyzer.timeout",
		"analyzer_breaker":     "analyzer.breaker_enabled",

		// Threat mappings
		"threat_critical_keywords": "threat.critical_keywords",
		"threat_high_keywords":     "threat.high_keywords",
		"threat_medium_keywords":   "threat.medium_keywords",
		"threat_low_keywords":      "threat.low_keywords",

		// Stream mappings
		"stream_frame_queue":     "stream.frame_queue_size",
		"stream_result_queue":    "stream.result_queue_size",
		"stream_dequeue_timeout": "stream.dequeue_timeout",
		"stream_join_timeout":    "stream.join_timeout",
		"stream_file_stride":     "stream.file_stride",
		"stream_live_stride":     "stream.live_stride",
		"stream_capture_fps":     "stream.capture_fps",
		"stream_ffmpeg_path":     "stream.ffmpeg_path",

		// Batch mappings
		"batch_workers":    "batch.workers",
		"batch_output_dir": "batch.output_dir",
		"batch_report":     "batch.report",

		// Storage mappings
		"storage_enabled":        "storage.enabled",
		"storage_path":           "storage.path",
		"storage_max_memory":     "storage.max_memory",
		"storage_threads":        "storage.threads",
		"storage_retention_days": "storage.retention_days",

		// Alerts mappings
		"alerts_enabled":         "alerts.enabled",
		"alerts_min_level":       "alerts.min_level",
		"alerts_queue_size":      "alerts.queue_size",
		"alerts_notifiers":       "alerts.notifiers",
		"alerts_webhook_url":     "alerts.webhook_url",
		"alerts_webhook_secret":  "alerts.webhook_secret",
		"alerts_webhook_timeout": "alerts.webhook_timeout",
		"alerts_journal_dir":     "alerts.journal_dir",

		// NATS mappings
		"nats_enabled":    "nats.enabled",
		"nats_url":        "nats.url",
		"nats_embedded":   "nats.embedded_server",
		"nats_store_dir":  "nats.store_dir",
		"nats_max_memory": "nats.max_memory",
		"nats_max_store":  "nats.max_store",
		"nats_topic":      "nats.topic",
		"nats_relay":      "nats.relay",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage.
// This is useful for:
//   - Hot-reload scenarios (with proper mutex protection)
//   - Custom configuration sources
//   - Testing with mock configurations
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
//
// Example usage:
//
//	var cfgMu sync.RWMutex
//	var cfg *Config
//
//	err := WatchConfigFile(configPath, func() {
//	    cfgMu.Lock()
//	    defer cfgMu.Unlock()
//	    newCfg, err := LoadWithKoanf()
//	    if err != nil {
//	        log.Printf("Config reload failed: %v", err)
//	        return
//	    }
//	    cfg = newCfg
//	})
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	// Start watching the file for changes
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
