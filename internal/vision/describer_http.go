// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
)

func init() {
	RegisterSceneDescriber("http", func(cfg *config.AnalyzerConfig) (SceneDescriber, error) {
		return newHTTPDescriber(cfg)
	})
}

// Chat completion wire types, OpenAI-compatible. Any VLM served by vLLM,
// llama.cpp, or LM Studio accepts this shape with an image content part.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// httpDescriber is the production scene describer backend. It sends the
// frame as a data URL plus the assessment prompt to an OpenAI-compatible
// vision-language server (POST {endpoint}/v1/chat/completions).
type httpDescriber struct {
	cfg     *config.AnalyzerConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	loaded  atomic.Bool
}

func newHTTPDescriber(cfg *config.AnalyzerConfig) (*httpDescriber, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: http scene describer requires an endpoint", ErrConfiguration)
	}

	d := &httpDescriber{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.BreakerEnabled {
		d.breaker = newBreaker[string]("analyzer-" + cfg.Model)
	}
	return d, nil
}

// Load verifies the VLM server is reachable, mirroring the detector's
// load-time check.
func (d *httpDescriber) Load(ctx context.Context) error {
	var models modelListResponse
	if err := getJSON(ctx, d.client, d.cfg.Endpoint+"/v1/models", d.cfg.APIKey, &models); err != nil {
		return fmt.Errorf("%w: scene analysis server at %s: %v", ErrModelLoad, d.cfg.Endpoint, err)
	}

	available := make([]string, 0, len(models.Data))
	found := false
	for _, m := range models.Data {
		available = append(available, m.ID)
		if m.ID == d.cfg.Model {
			found = true
		}
	}
	if len(available) > 0 && !found {
		logging.Warn().
			Str("model", d.cfg.Model).
			Strs("available", available).
			Msg("Configured analyzer model not in server model list")
	}

	d.loaded.Store(true)
	logging.Info().
		Str("endpoint", d.cfg.Endpoint).
		Str("model", d.cfg.Model).
		Bool("breaker", d.cfg.BreakerEnabled).
		Msg("Scene analysis backend loaded")
	return nil
}

// Describe runs scene analysis on one frame. Failures are wrapped in
// ErrInference so the caller can skip the frame and continue.
func (d *httpDescriber) Describe(ctx context.Context, frame Frame, prompt string) (string, error) {
	if !d.loaded.Load() {
		return "", fmt.Errorf("%w: scene describer not loaded, call Load first", ErrInference)
	}

	start := time.Now()
	text, err := d.describe(ctx, frame, prompt)
	metrics.RecordAnalyzerRequest("http", d.cfg.Model, time.Since(start), err)

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInference, err)
	}
	return text, nil
}

func (d *httpDescriber) describe(ctx context.Context, frame Frame, prompt string) (string, error) {
	if d.breaker == nil {
		return d.doDescribe(ctx, frame, prompt)
	}

	text, err := d.breaker.Execute(func() (string, error) {
		return d.doDescribe(ctx, frame, prompt)
	})
	recordBreakerResult(d.breaker.Name(), err)
	return text, err
}

func (d *httpDescriber) doDescribe(ctx context.Context, frame Frame, prompt string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s",
		frame.Format.MIMEType(), base64.StdEncoding.EncodeToString(frame.Data))

	req := chatRequest{
		Model:       d.cfg.Model,
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
					{Type: "text", Text: prompt},
				},
			},
		},
	}

	var resp chatResponse
	if err := postJSON(ctx, d.client, d.cfg.Endpoint+"/v1/chat/completions", d.cfg.APIKey, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion from %s", d.cfg.Endpoint)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (d *httpDescriber) Info() BackendInfo {
	return BackendInfo{
		Name:     "http",
		Model:    d.cfg.Model,
		Endpoint: d.cfg.Endpoint,
		Loaded:   d.loaded.Load(),
	}
}
