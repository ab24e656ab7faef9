// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package stream

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/vision"
)

// SourceFactory builds a frame source from a source spec. The spec is the
// full string the operator supplied, scheme included.
type SourceFactory func(spec string, cfg *config.StreamConfig) (vision.FrameSource, error)

var (
	sourceMu        sync.RWMutex
	sourceFactories = make(map[string]SourceFactory)
)

// RegisterSource installs a factory for a URL scheme (for example "rtsp").
// Later registrations replace earlier ones.
func RegisterSource(scheme string, factory SourceFactory) {
	sourceMu.Lock()
	defer sourceMu.Unlock()
	sourceFactories[scheme] = factory
}

// RegisteredSchemes returns the known source schemes, sorted.
func RegisteredSchemes() []string {
	sourceMu.RLock()
	defer sourceMu.RUnlock()
	schemes := make([]string, 0, len(sourceFactories))
	for scheme := range sourceFactories {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

func init() {
	mjpeg := func(spec string, _ *config.StreamConfig) (vision.FrameSource, error) {
		return NewMJPEGSource(spec, nil), nil
	}
	ffmpeg := func(spec string, cfg *config.StreamConfig) (vision.FrameSource, error) {
		return NewFFmpegSource(spec, cfg.FFmpegPath), nil
	}
	dir := func(spec string, _ *config.StreamConfig) (vision.FrameSource, error) {
		return NewDirSource(strings.TrimPrefix(spec, "dir://")), nil
	}

	RegisterSource("http", mjpeg)
	RegisterSource("https", mjpeg)
	RegisterSource("rtsp", ffmpeg)
	RegisterSource("rtmp", ffmpeg)
	RegisterSource("udp", ffmpeg)
	RegisterSource("srt", ffmpeg)
	RegisterSource("dir", dir)
}

// NewSource resolves a source spec to a frame source:
//
//	http(s)://host/stream   MJPEG camera stream
//	rtsp://host/stream      ffmpeg decode (also rtmp, udp, srt)
//	dir:///path/to/frames   image directory replay
//	/path/to/dir            image directory replay
//	/path/to/video.mp4      ffmpeg decode
//
// Bare paths are resolved by stat: directories replay images, regular
// files go through ffmpeg. The source is not opened; Open happens when a
// session starts.
func NewSource(spec string, cfg *config.StreamConfig) (vision.FrameSource, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: empty stream source", vision.ErrConfiguration)
	}

	if i := strings.Index(spec, "://"); i > 0 {
		scheme := strings.ToLower(spec[:i])
		sourceMu.RLock()
		factory, ok := sourceFactories[scheme]
		sourceMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: unknown source scheme %q (available: %s)",
				vision.ErrConfiguration, scheme, strings.Join(RegisteredSchemes(), ", "))
		}
		return factory(spec, cfg)
	}

	info, err := os.Stat(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: source %q: %v", vision.ErrConfiguration, spec, err)
	}
	if info.IsDir() {
		return NewDirSource(spec), nil
	}
	return NewFFmpegSource(spec, cfg.FFmpegPath), nil
}
