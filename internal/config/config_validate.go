// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	if err := c.validateDetector(); err != nil {
		return err
	}

	if err := c.validateAnalyzer(); err != nil {
		return err
	}

	if err := c.validateStream(); err != nil {
		return err
	}

	if err := c.validateBatch(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateAlerts(); err != nil {
		return err
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SKYWARDEN_SERVER_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SKYWARDEN_SERVER_TIMEOUT must be positive")
	}
	return nil
}

// validateAuth validates authentication configuration (only if enabled)
func (c *Config) validateAuth() error {
	if err := c.validateRateLimits(); err != nil {
		return err
	}

	if !c.Auth.Enabled {
		return nil // Authentication is optional for LAN appliance deployments
	}

	if err := c.validateAPIKeyConfig(); err != nil {
		return err
	}
	if err := c.validateJWTSecret(); err != nil {
		return err
	}
	return c.validateCORS()
}

// validateAPIKeyConfig validates the operator API key settings
func (c *Config) validateAPIKeyConfig() error {
	if c.Auth.APIKey == "" && c.Auth.APIKeyHash == "" {
		return fmt.Errorf("SKYWARDEN_AUTH_API_KEY or SKYWARDEN_AUTH_API_KEY_HASH is required when SKYWARDEN_AUTH_ENABLED=true")
	}
	if c.Auth.APIKey != "" && len(c.Auth.APIKey) < 16 {
		return fmt.Errorf("SKYWARDEN_AUTH_API_KEY must be at least 16 characters")
	}
	if c.Auth.APIKey != "" && containsPlaceholder(c.Auth.APIKey) {
		return fmt.Errorf("SKYWARDEN_AUTH_API_KEY appears to contain a placeholder value")
	}
	if c.IsProduction() && c.Auth.APIKeyHash == "" {
		return fmt.Errorf("SKYWARDEN_AUTH_API_KEY_HASH (bcrypt) is required in production; plaintext keys are rejected")
	}
	return nil
}

// validateJWTSecret validates the viewer token signing secret
func (c *Config) validateJWTSecret() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("SKYWARDEN_AUTH_JWT_SECRET is required when SKYWARDEN_AUTH_ENABLED=true")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("SKYWARDEN_AUTH_JWT_SECRET must be at least 32 characters")
	}
	if containsPlaceholder(c.Auth.JWTSecret) {
		return fmt.Errorf("SKYWARDEN_AUTH_JWT_SECRET appears to contain a placeholder value")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("SKYWARDEN_AUTH_TOKEN_TTL must be positive")
	}
	return nil
}

// validateCORS validates CORS origin configuration
func (c *Config) validateCORS() error {
	for _, origin := range c.Auth.CORSOrigins {
		if origin == "" {
			return fmt.Errorf("SKYWARDEN_AUTH_CORS_ORIGINS contains an empty origin")
		}
	}
	return nil
}

// hasWildcardCORS reports whether any CORS origin is the wildcard.
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Auth.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true when wildcard CORS is configured alongside
// authentication in production. This combination is allowed but logged loudly.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.IsProduction() && c.Auth.Enabled && c.hasWildcardCORS()
}

// validateRateLimits validates rate limiting configuration
func (c *Config) validateRateLimits() error {
	if c.Auth.RateLimitDisabled {
		return nil
	}
	if c.Auth.RateLimitReqs < 1 {
		return fmt.Errorf("SKYWARDEN_AUTH_RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Auth.RateLimitWindow <= 0 {
		return fmt.Errorf("SKYWARDEN_AUTH_RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// validateDetector validates object detection backend configuration
func (c *Config) validateDetector() error {
	if c.Detector.Backend == "" {
		return fmt.Errorf("SKYWARDEN_DETECTOR_BACKEND must not be empty")
	}
	if c.Detector.Backend == "http" {
		if c.Detector.Endpoint == "" {
			return fmt.Errorf("SKYWARDEN_DETECTOR_ENDPOINT is required when SKYWARDEN_DETECTOR_BACKEND=http")
		}
		if err := validateHTTPURL(c.Detector.Endpoint, "SKYWARDEN_DETECTOR_ENDPOINT"); err != nil {
			return err
		}
	}
	if err := validateUnitInterval(c.Detector.ConfidenceThreshold, "SKYWARDEN_DETECTOR_CONFIDENCE"); err != nil {
		return err
	}
	if err := validateUnitInterval(c.Detector.IoUThreshold, "SKYWARDEN_DETECTOR_IOU"); err != nil {
		return err
	}
	if c.Detector.Timeout <= 0 {
		return fmt.Errorf("SKYWARDEN_DETECTOR_TIMEOUT must be positive")
	}
	return nil
}

// validateAnalyzer validates scene analysis backend configuration (only if enabled)
func (c *Config) validateAnalyzer() error {
	if !c.Analyzer.Enabled {
		return nil
	}
	if c.Analyzer.Backend == "" {
		return fmt.Errorf("SKYWARDEN_ANALYZER_BACKEND must not be empty")
	}
	if c.Analyzer.Backend == "http" {
		if c.Analyzer.Endpoint == "" {
			return fmt.Errorf("SKYWARDEN_ANALYZER_ENDPOINT is required when SKYWARDEN_ANALYZER_BACKEND=http")
		}
		if err := validateHTTPURL(c.Analyzer.Endpoint, "SKYWARDEN_ANALYZER_ENDPOINT"); err != nil {
			return err
		}
	}
	if c.Analyzer.MaxTokens < 1 || c.Analyzer.MaxTokens > 4096 {
		return fmt.Errorf("SKYWARDEN_ANALYZER_MAX_TOKENS must be between 1 and 4096")
	}
	if c.Analyzer.Temperature < 0 || c.Analyzer.Temperature > 2 {
		return fmt.Errorf("SKYWARDEN_ANALYZER_TEMPERATURE must be between 0 and 2")
	}
	if c.Analyzer.Timeout <= 0 {
		return fmt.Errorf("SKYWARDEN_ANALYZER_TIMEOUT must be positive")
	}
	return nil
}

// validateStream validates stream processing configuration
func (c *Config) validateStream() error {
	if c.Stream.FrameQueueSize < 1 {
		return fmt.Errorf("SKYWARDEN_STREAM_FRAME_QUEUE must be at least 1")
	}
	if c.Stream.ResultQueueSize < 1 {
		return fmt.Errorf("SKYWARDEN_STREAM_RESULT_QUEUE must be at least 1")
	}
	if c.Stream.DequeueTimeout <= 0 {
		return fmt.Errorf("SKYWARDEN_STREAM_DEQUEUE_TIMEOUT must be positive")
	}
	if c.Stream.JoinTimeout <= 0 {
		return fmt.Errorf("SKYWARDEN_STREAM_JOIN_TIMEOUT must be positive")
	}
	if c.Stream.FileStride < 1 {
		return fmt.Errorf("SKYWARDEN_STREAM_FILE_STRIDE must be at least 1")
	}
	if c.Stream.LiveStride < 1 {
		return fmt.Errorf("SKYWARDEN_STREAM_LIVE_STRIDE must be at least 1")
	}
	if c.Stream.CaptureFPS < 0 {
		return fmt.Errorf("SKYWARDEN_STREAM_CAPTURE_FPS must not be negative")
	}
	return nil
}

// validateBatch validates batch processing configuration
func (c *Config) validateBatch() error {
	if c.Batch.Workers < 1 || c.Batch.Workers > 32 {
		return fmt.Errorf("SKYWARDEN_BATCH_WORKERS must be between 1 and 32")
	}
	return nil
}

// validateStorage validates DuckDB persistence configuration (only if enabled)
func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("SKYWARDEN_STORAGE_PATH is required when SKYWARDEN_STORAGE_ENABLED=true")
	}
	if c.Storage.Threads < 0 {
		return fmt.Errorf("SKYWARDEN_STORAGE_THREADS must not be negative")
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("SKYWARDEN_STORAGE_RETENTION_DAYS must not be negative")
	}
	return nil
}

// validAlertLevels are the accepted values for SKYWARDEN_ALERTS_MIN_LEVEL.
var validAlertLevels = map[string]bool{
	"LOW":      true,
	"MEDIUM":   true,
	"HIGH":     true,
	"CRITICAL": true,
}

// validNotifiers are the registered notifier names.
var validNotifiers = map[string]bool{
	"log":     true,
	"webhook": true,
	"nats":    true,
}

// validateAlerts validates alert dispatch configuration (only if enabled)
func (c *Config) validateAlerts() error {
	if !c.Alerts.Enabled {
		return nil
	}
	if !validAlertLevels[strings.ToUpper(c.Alerts.MinLevel)] {
		return fmt.Errorf("SKYWARDEN_ALERTS_MIN_LEVEL must be one of LOW, MEDIUM, HIGH, CRITICAL")
	}
	if c.Alerts.QueueSize < 1 {
		return fmt.Errorf("SKYWARDEN_ALERTS_QUEUE_SIZE must be at least 1")
	}
	for _, name := range c.Alerts.Notifiers {
		if !validNotifiers[name] {
			return fmt.Errorf("SKYWARDEN_ALERTS_NOTIFIERS contains unknown notifier %q", name)
		}
	}
	if c.hasNotifier("webhook") {
		if c.Alerts.WebhookURL == "" {
			return fmt.Errorf("SKYWARDEN_ALERTS_WEBHOOK_URL is required when the webhook notifier is enabled")
		}
		if err := validateHTTPURL(c.Alerts.WebhookURL, "SKYWARDEN_ALERTS_WEBHOOK_URL"); err != nil {
			return err
		}
		if c.Alerts.WebhookTimeout <= 0 {
			return fmt.Errorf("SKYWARDEN_ALERTS_WEBHOOK_TIMEOUT must be positive")
		}
	}
	if c.hasNotifier("nats") && !c.NATS.Enabled {
		return fmt.Errorf("SKYWARDEN_NATS_ENABLED=true is required when the nats notifier is enabled")
	}
	return nil
}

// hasNotifier reports whether the named notifier is configured.
func (c *Config) hasNotifier(name string) bool {
	for _, n := range c.Alerts.Notifiers {
		if n == name {
			return true
		}
	}
	return false
}

// validateNATS validates NATS configuration (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		if c.NATS.Relay {
			return fmt.Errorf("SKYWARDEN_NATS_ENABLED=true is required when SKYWARDEN_NATS_RELAY=true")
		}
		return nil
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return err
	}
	if c.NATS.Topic == "" {
		return fmt.Errorf("SKYWARDEN_NATS_TOPIC must not be empty")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("SKYWARDEN_NATS_STORE_DIR is required when SKYWARDEN_NATS_EMBEDDED=true")
	}
	if c.NATS.MaxMemory < 0 {
		return fmt.Errorf("SKYWARDEN_NATS_MAX_MEMORY must not be negative")
	}
	if c.NATS.MaxStore < 0 {
		return fmt.Errorf("SKYWARDEN_NATS_MAX_STORE must not be negative")
	}
	return nil
}

// validateAPI validates API response configuration
func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("SKYWARDEN_API_DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("SKYWARDEN_API_MAX_PAGE_SIZE must not be below SKYWARDEN_API_DEFAULT_PAGE_SIZE")
	}
	return nil
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// IsDevelopment returns true when running in development mode.
func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

// validLogLevels are the accepted logging levels.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

// validateLogLevel validates the log level setting
func (c *Config) validateLogLevel() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("SKYWARDEN_LOGGING_LEVEL must be one of trace, debug, info, warn, error, fatal")
	}
	return nil
}

// validateLogFormat validates the log format setting
func (c *Config) validateLogFormat() error {
	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "console" {
		return fmt.Errorf("SKYWARDEN_LOGGING_FORMAT must be json or console")
	}
	return nil
}

// validateUnitInterval checks that a value lies in [0, 1].
func validateUnitInterval(v float64, fieldName string) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1", fieldName)
	}
	return nil
}

// containsPlaceholder detects obviously unfinished secret values.
func containsPlaceholder(value string) bool {
	placeholders := []string{
		"changeme",
		"change-me",
		"your-secret",
		"your_secret",
		"example",
		"placeholder",
		"xxx",
	}
	return containsAnyPattern(strings.ToLower(value), placeholders)
}

// containsAnyPattern reports whether s contains any of the given substrings.
func containsAnyPattern(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
