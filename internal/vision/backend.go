// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package vision

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tomtom215/skywarden/internal/config"
)

// BackendInfo describes a constructed backend for health reporting and logs.
type BackendInfo struct {
	// Name is the registry key the backend was constructed under.
	Name string `json:"name"`

	// Model is the model identifier the backend serves, as configured.
	Model string `json:"model"`

	// Endpoint is the upstream URL for remote backends, empty otherwise.
	Endpoint string `json:"endpoint,omitempty"`

	// Loaded reports whether Load completed successfully.
	Loaded bool `json:"loaded"`
}

// Detector locates objects in a frame.
//
// Load must be called once before Detect; it verifies the backend is usable
// (for HTTP backends, that the inference server is reachable and serving the
// configured model). Implementations must be safe for concurrent Detect
// calls after Load returns.
type Detector interface {
	Load(ctx context.Context) error
	Detect(ctx context.Context, frame Frame) ([]Detection, error)
	Info() BackendInfo
}

// SceneDescriber produces a free-text security assessment of a frame.
//
// The prompt carries the detected object classes so the language model can
// ground its description; see internal/pipeline for prompt construction.
// Implementations must be safe for concurrent Describe calls after Load
// returns.
type SceneDescriber interface {
	Load(ctx context.Context) error
	Describe(ctx context.Context, frame Frame, prompt string) (string, error)
	Info() BackendInfo
}

// FrameSource yields sequential frames from a camera stream, video file, or
// image directory. Read blocks until a frame is available, the context is
// cancelled, or the source ends; a finite source returns ErrStreamEnd after
// its last frame. Sources are single-consumer: Open, Read, and Close are
// called from one goroutine.
type FrameSource interface {
	Open(ctx context.Context) error
	Read(ctx context.Context) (Frame, error)
	Close() error
}

// DetectorFactory constructs a detector from configuration.
type DetectorFactory func(cfg *config.DetectorConfig) (Detector, error)

// SceneDescriberFactory constructs a scene describer from configuration.
type SceneDescriberFactory func(cfg *config.AnalyzerConfig) (SceneDescriber, error)

var (
	registryMu         sync.RWMutex
	detectorFactories  = make(map[string]DetectorFactory)
	describerFactories = make(map[string]SceneDescriberFactory)
)

// RegisterDetector adds a detector backend under name, replacing any
// previous registration. Built-in backends register from init; additional
// backends may register before configuration is loaded.
func RegisterDetector(name string, factory DetectorFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	detectorFactories[name] = factory
}

// RegisterSceneDescriber adds a scene describer backend under name,
// replacing any previous registration.
func RegisterSceneDescriber(name string, factory SceneDescriberFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	describerFactories[name] = factory
}

// NewDetector constructs the detector backend registered under cfg.Backend.
// An unregistered name yields an error listing the available backends.
func NewDetector(cfg *config.DetectorConfig) (Detector, error) {
	registryMu.RLock()
	factory, ok := detectorFactories[cfg.Backend]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: unknown detector backend %q (available: %s)",
			ErrConfiguration, cfg.Backend, strings.Join(RegisteredDetectors(), ", "))
	}
	return factory(cfg)
}

// NewSceneDescriber constructs the scene describer backend registered under
// cfg.Backend. An unregistered name yields an error listing the available
// backends.
func NewSceneDescriber(cfg *config.AnalyzerConfig) (SceneDescriber, error) {
	registryMu.RLock()
	factory, ok := describerFactories[cfg.Backend]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: unknown scene describer backend %q (available: %s)",
			ErrConfiguration, cfg.Backend, strings.Join(RegisteredSceneDescribers(), ", "))
	}
	return factory(cfg)
}

// RegisteredDetectors returns the registered detector backend names, sorted.
func RegisteredDetectors() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(detectorFactories))
	for name := range detectorFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisteredSceneDescribers returns the registered scene describer backend
// names, sorted.
func RegisteredSceneDescribers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(describerFactories))
	for name := range describerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
