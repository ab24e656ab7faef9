// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/skywarden/internal/metrics"
	"github.com/tomtom215/skywarden/internal/pipeline"
	"github.com/tomtom215/skywarden/internal/threat"
	"github.com/tomtom215/skywarden/internal/vision"
)

func TestProcessSequential_AssessesEveryNthFrame(t *testing.T) {
	p := newTestProcessor(t, &stubDetector{}, testStreamConfig())
	src := &staticSource{frameCount: 12}

	report, err := p.processSequential(context.Background(), src, "clip.mp4")
	if err != nil {
		t.Fatalf("processSequential: %v", err)
	}

	// Stride 5 over frames 0..11 assesses 0, 5, 10.
	if report.FramesRead != 12 {
		t.Errorf("FramesRead = %d, want 12", report.FramesRead)
	}
	if report.FramesAssessed != 3 {
		t.Errorf("FramesAssessed = %d, want 3", report.FramesAssessed)
	}
	if report.Errors != 0 {
		t.Errorf("Errors = %d, want 0", report.Errors)
	}
	if report.Path != "clip.mp4" {
		t.Errorf("Path = %q, want clip.mp4", report.Path)
	}
	if report.ElapsedMs < 0 {
		t.Errorf("ElapsedMs = %f, want non-negative", report.ElapsedMs)
	}

	wantSeqs := []uint64{0, 5, 10}
	if len(report.Results) != len(wantSeqs) {
		t.Fatalf("Results has %d entries, want %d", len(report.Results), len(wantSeqs))
	}
	for i, r := range report.Results {
		if r.Seq != wantSeqs[i] {
			t.Errorf("Results[%d].Seq = %d, want %d", i, r.Seq, wantSeqs[i])
		}
	}

	// No detections and no scene text classifies every frame LOW.
	if got := report.Levels["LOW"]; got != 3 {
		t.Errorf(`Levels["LOW"] = %d, want 3`, got)
	}
}

func TestProcessSequential_CountsFrameErrorsAndContinues(t *testing.T) {
	// Every frame fails at the detection stage.
	p := newTestProcessor(t, &stubDetector{err: vision.ErrDetection}, testStreamConfig())
	src := &staticSource{frameCount: 11}

	report, err := p.processSequential(context.Background(), src, "clip.mp4")
	if err != nil {
		t.Fatalf("processSequential: %v", err)
	}
	if report.Errors != 3 {
		t.Errorf("Errors = %d, want 3 (frames 0, 5, 10)", report.Errors)
	}
	if report.FramesAssessed != 0 {
		t.Errorf("FramesAssessed = %d, want 0", report.FramesAssessed)
	}
	if len(report.Results) != 0 {
		t.Errorf("Results has %d entries, want 0", len(report.Results))
	}
}

func TestProcessSequential_ReadFailureEndsRun(t *testing.T) {
	p := newTestProcessor(t, &stubDetector{}, testStreamConfig())
	src := &staticSource{
		frameCount: 100,
		failAfter:  7,
		readErr:    vision.ErrStreamRead,
	}

	report, err := p.processSequential(context.Background(), src, "clip.mp4")
	if err != nil {
		t.Fatalf("processSequential: %v", err)
	}
	// Frames 0..6 were read before the failure; 0 and 5 were assessed.
	if report.FramesRead != 7 {
		t.Errorf("FramesRead = %d, want 7", report.FramesRead)
	}
	if report.FramesAssessed != 2 {
		t.Errorf("FramesAssessed = %d, want 2", report.FramesAssessed)
	}
}

func TestProcessSequential_CancelledContext(t *testing.T) {
	p := newTestProcessor(t, &stubDetector{}, testStreamConfig())
	src := &staticSource{frameCount: 100}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.processSequential(ctx, src, "clip.mp4"); !errors.Is(err, context.Canceled) {
		t.Errorf("processSequential with cancelled context = %v, want context.Canceled", err)
	}
}

func TestProcessSequential_RecordsVideoTiming(t *testing.T) {
	tracker := metrics.NewTracker()
	pl := pipeline.New(&stubDetector{}, nil, threat.NewClassifier(nil), tracker)
	p := NewProcessor(pl, testStreamConfig())

	if _, err := p.processSequential(context.Background(), &staticSource{frameCount: 6}, "clip.mp4"); err != nil {
		t.Fatalf("processSequential: %v", err)
	}

	if summary := tracker.Summary(metrics.MetricVideoProcessing); summary.Count != 1 {
		t.Errorf("video_processing samples = %d, want 1", summary.Count)
	}
}
