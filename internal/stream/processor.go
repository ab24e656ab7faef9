// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
	"github.com/tomtom215/skywarden/internal/pipeline"
	"github.com/tomtom215/skywarden/internal/threat"
	"github.com/tomtom215/skywarden/internal/vision"
)

var (
	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("stream processor already running")

	// ErrNotRunning is returned by Stop without an active session.
	ErrNotRunning = errors.New("stream processor not running")
)

// Callback receives every successful assessment in processing order.
// Callbacks run on the processing goroutine: keep them fast or hand off.
type Callback func(seq uint64, frame vision.Frame, assessment *threat.Assessment)

// Result pairs a frame sequence number with its assessment.
type Result struct {
	Seq        uint64             `json:"seq"`
	Assessment *threat.Assessment `json:"assessment"`
}

// Stats is a point-in-time snapshot of session frame accounting.
type Stats struct {
	FramesRead      uint64 `json:"frames_read"`
	FramesEnqueued  uint64 `json:"frames_enqueued"`
	FramesDropped   uint64 `json:"frames_dropped"`
	FramesProcessed uint64 `json:"frames_processed"`
	FramesFailed    uint64 `json:"frames_failed"`
	ResultsDropped  uint64 `json:"results_dropped"`
}

// Status describes the processor for the stream status endpoint.
type Status struct {
	Running   bool       `json:"running"`
	Source    string     `json:"source,omitempty"`
	Stride    int        `json:"stride,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Stats     Stats      `json:"stats"`
}

// LiveSource marks frame sources whose frames go stale (cameras, network
// streams). Live sources default to the wider capture stride.
type LiveSource interface {
	Live() bool
}

// Processor runs one capture goroutine and one processing goroutine joined
// by a bounded frame channel. Backpressure policy is freshness over
// completeness: when the pipeline cannot keep up, new frames are silently
// dropped and counted rather than queued without bound or blocking capture.
//
// Lifecycle is STOPPED -> RUNNING -> STOPPED; Start on a running processor
// fails rather than stacking sessions. The channels and the run flag are
// the only state shared between the two roles.
type Processor struct {
	pipeline *pipeline.Pipeline
	cfg      config.StreamConfig

	running atomic.Bool

	mu            sync.Mutex
	frames        chan vision.Frame
	results       chan Result
	captureDone   chan struct{}
	processDone   chan struct{}
	cancelCapture context.CancelFunc
	source        string
	stride        int
	startedAt     time.Time

	framesRead      atomic.Uint64
	framesEnqueued  atomic.Uint64
	framesDropped   atomic.Uint64
	framesProcessed atomic.Uint64
	framesFailed    atomic.Uint64
	resultsDropped  atomic.Uint64
}

// NewProcessor builds a stopped processor around a loaded pipeline.
func NewProcessor(p *pipeline.Pipeline, cfg config.StreamConfig) *Processor {
	return &Processor{
		pipeline: p,
		cfg:      cfg,
	}
}

// StartOptions carries per-session overrides for Start. Zero values fall
// back to the configured defaults.
type StartOptions struct {
	// Stride assesses every Nth frame; 0 picks the default by source
	// kind (file stride, or live stride for LiveSource implementations).
	Stride int
	// MaxFPS caps the capture read rate for live sources; 0 uses the
	// configured cap, negative disables the cap for this session.
	MaxFPS float64
}

// Start begins a session, spawning the capture and processing goroutines.
// Frames whose sequence number is not a stride multiple are read and
// discarded.
func (p *Processor) Start(src vision.FrameSource, cb Callback) error {
	return p.StartWithOptions(src, cb, StartOptions{})
}

// StartWithOptions is Start with per-session stride and capture-rate
// overrides.
func (p *Processor) StartWithOptions(src vision.FrameSource, cb Callback, opts StartOptions) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	live := false
	if ls, ok := src.(LiveSource); ok && ls.Live() {
		live = true
	}

	stride := opts.Stride
	if stride <= 0 {
		stride = p.cfg.FileStride
		if live {
			stride = p.cfg.LiveStride
		}
	}
	if stride <= 0 {
		stride = 1
	}

	// Live sources get a read-rate cap so a fast camera cannot saturate
	// the decode path; file sources run as fast as the pipeline drains.
	maxFPS := p.cfg.CaptureFPS
	if opts.MaxFPS != 0 {
		maxFPS = opts.MaxFPS
	}
	var limiter *rate.Limiter
	if live && maxFPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(maxFPS), 1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := src.Open(ctx); err != nil {
		cancel()
		p.running.Store(false)
		return err
	}

	p.mu.Lock()
	p.frames = make(chan vision.Frame, p.cfg.FrameQueueSize)
	p.results = make(chan Result, p.cfg.ResultQueueSize)
	p.captureDone = make(chan struct{})
	p.processDone = make(chan struct{})
	p.cancelCapture = cancel
	p.source = sourceName(src)
	p.stride = stride
	p.startedAt = time.Now()
	frames, results := p.frames, p.results
	captureDone, processDone := p.captureDone, p.processDone
	source := p.source
	p.mu.Unlock()

	p.framesRead.Store(0)
	p.framesEnqueued.Store(0)
	p.framesDropped.Store(0)
	p.framesProcessed.Store(0)
	p.framesFailed.Store(0)
	p.resultsDropped.Store(0)

	metrics.TrackStreamSession(true)
	logging.Info().
		Str("source", source).
		Int("stride", stride).
		Int("frame_queue", p.cfg.FrameQueueSize).
		Msg("Stream session started")

	go p.capture(ctx, src, frames, captureDone, source, stride, limiter)
	go p.process(frames, results, processDone, cb, source)

	return nil
}

// capture reads frames until the session stops, the source ends, or a read
// fails. A read failure ends only this role: queued frames still get
// processed and the processor stays RUNNING until Stop.
func (p *Processor) capture(
	ctx context.Context,
	src vision.FrameSource,
	frames chan<- vision.Frame,
	done chan<- struct{},
	source string,
	stride int,
	limiter *rate.Limiter,
) {
	defer close(done)
	defer func() {
		if err := src.Close(); err != nil {
			logging.Warn().Err(err).Str("source", source).Msg("Frame source close failed")
		}
	}()

	for p.running.Load() {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		frame, err := src.Read(ctx)
		if err != nil {
			switch {
			case errors.Is(err, vision.ErrStreamEnd):
				logging.Info().
					Str("source", source).
					Uint64("frames_read", p.framesRead.Load()).
					Msg("Frame source ended")
			case ctx.Err() != nil:
				// Stop cancelled a blocking read.
			default:
				logging.Error().Err(err).Str("source", source).Msg("Frame read failed, capture ending")
			}
			return
		}

		p.framesRead.Add(1)
		if frame.Seq%uint64(stride) != 0 {
			continue
		}

		select {
		case frames <- frame:
			p.framesEnqueued.Add(1)
			metrics.UpdateStreamQueueDepth(source, "frame", len(frames))
		default:
			// Queue full: freshness over completeness.
			p.framesDropped.Add(1)
			metrics.RecordFrameDropped(source, "frame")
		}
	}

	logging.Info().Str("source", source).Msg("Frame capture stopped")
}

// process dequeues frames and runs the pipeline. The dequeue timeout is the
// only cancellation point: an in-flight pipeline call always finishes its
// stage sequence.
func (p *Processor) process(
	frames <-chan vision.Frame,
	results chan<- Result,
	done chan<- struct{},
	cb Callback,
	source string,
) {
	defer close(done)

	timeout := p.cfg.DequeueTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	idle := time.NewTimer(timeout)
	defer idle.Stop()

	for p.running.Load() {
		// Reset discards a pending tick under the Go 1.23 timer semantics,
		// so no drain is needed here.
		idle.Reset(timeout)
		select {
		case frame := <-frames:
			metrics.UpdateStreamQueueDepth(source, "frame", len(frames))

			assessment, err := p.pipeline.Process(context.Background(), frame)
			if err != nil {
				// Already logged and counted by the pipeline; one bad
				// frame never stops the stream.
				p.framesFailed.Add(1)
				continue
			}
			p.framesProcessed.Add(1)

			select {
			case results <- Result{Seq: frame.Seq, Assessment: assessment}:
				metrics.UpdateStreamQueueDepth(source, "result", len(results))
			default:
				p.resultsDropped.Add(1)
				metrics.RecordFrameDropped(source, "result")
			}

			logging.Info().
				Str("source", source).
				Uint64("seq", frame.Seq).
				Str("level", assessment.Level.String()).
				Float64("confidence", assessment.Confidence).
				Msg("Frame processed")

			if cb != nil {
				cb(frame.Seq, frame, assessment)
			}

		case <-idle.C:
			// Re-check the run flag.
		}
	}

	logging.Info().Str("source", source).Msg("Frame processing stopped")
}

// Stop ends the session and waits up to the join timeout for each role.
// A role that does not finish in time is abandoned with a warning; shutdown
// is best-effort by design.
func (p *Processor) Stop() error {
	if !p.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}

	p.mu.Lock()
	cancel := p.cancelCapture
	captureDone, processDone := p.captureDone, p.processDone
	source := p.source
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	joinTimeout := p.cfg.JoinTimeout
	if joinTimeout <= 0 {
		joinTimeout = 5 * time.Second
	}

	p.join(captureDone, "capture", joinTimeout, source)
	p.join(processDone, "processing", joinTimeout, source)

	metrics.TrackStreamSession(false)
	logging.Info().Str("source", source).Msg("Stream session stopped")
	return nil
}

func (p *Processor) join(done <-chan struct{}, role string, timeout time.Duration, source string) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(timeout):
		logging.Warn().
			Str("source", source).
			Str("role", role).
			Dur("timeout", timeout).
			Msg("Stream role did not stop in time, abandoning")
	}
}

// Running reports whether a session is active.
func (p *Processor) Running() bool {
	return p.running.Load()
}

// Results drains up to max buffered results without blocking, oldest first.
// Remaining results stay queued for the next call.
func (p *Processor) Results(max int) []Result {
	p.mu.Lock()
	results := p.results
	p.mu.Unlock()

	if results == nil || max <= 0 {
		return []Result{}
	}

	out := make([]Result, 0, max)
	for len(out) < max {
		select {
		case r := <-results:
			out = append(out, r)
		default:
			return out
		}
	}
	return out
}

// Stats returns a snapshot of the session counters.
func (p *Processor) Stats() Stats {
	return Stats{
		FramesRead:      p.framesRead.Load(),
		FramesEnqueued:  p.framesEnqueued.Load(),
		FramesDropped:   p.framesDropped.Load(),
		FramesProcessed: p.framesProcessed.Load(),
		FramesFailed:    p.framesFailed.Load(),
		ResultsDropped:  p.resultsDropped.Load(),
	}
}

// Status returns the processor state for the stream status endpoint.
func (p *Processor) Status() Status {
	p.mu.Lock()
	source, stride, startedAt := p.source, p.stride, p.startedAt
	p.mu.Unlock()

	status := Status{
		Running: p.running.Load(),
		Stats:   p.Stats(),
	}
	if status.Running {
		status.Source = source
		status.Stride = stride
		status.StartedAt = &startedAt
	}
	return status
}

// sourceName extracts a human-readable identifier from a source.
func sourceName(src vision.FrameSource) string {
	if named, ok := src.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "stream"
}
