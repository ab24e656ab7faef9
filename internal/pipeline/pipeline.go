// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package pipeline runs the synchronous single-frame assessment sequence:
// object detection, scene description, threat classification, action
// recommendation. Every consumer of assessments (stream processor, batch
// runner, API analyze endpoints, CLI) funnels through Pipeline.Process, so
// stage timing and frame accounting live here and nowhere else.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
	"github.com/tomtom215/skywarden/internal/threat"
	"github.com/tomtom215/skywarden/internal/vision"
)

// Scene analysis prompt templates. The object list is the sorted distinct
// class names, so identical scenes always produce identical prompts.
const (
	promptObjectsPresent = `Security Scene Analysis

Detected objects: %s

Provide a concise assessment:
1. What threats are visible?
2. Environmental conditions?
3. Risk level assessment?

Be brief and specific.`

	promptNoObjects = `Security Scene Analysis

No objects detected by the detector.

Describe:
1. What do you see in the scene?
2. Any potential threats or unusual activity?
3. Overall safety assessment?

Be concise.`
)

// Pipeline combines the vision backends and the threat classifier into one
// frame assessor. Safe for concurrent Process calls once Load has returned.
type Pipeline struct {
	detector   vision.Detector
	describer  vision.SceneDescriber
	classifier *threat.Classifier
	tracker    *metrics.Tracker
}

// New builds a pipeline. A nil describer disables scene analysis: stage two
// is skipped and classification falls back to the detection-count ladder.
func New(
	detector vision.Detector,
	describer vision.SceneDescriber,
	classifier *threat.Classifier,
	tracker *metrics.Tracker,
) *Pipeline {
	return &Pipeline{
		detector:   detector,
		describer:  describer,
		classifier: classifier,
		tracker:    tracker,
	}
}

// Load readies both backends. A failure is fatal: the caller should not
// start serving.
func (p *Pipeline) Load(ctx context.Context) error {
	if err := p.detector.Load(ctx); err != nil {
		return fmt.Errorf("loading detector: %w", err)
	}
	if p.describer != nil {
		if err := p.describer.Load(ctx); err != nil {
			return fmt.Errorf("loading scene describer: %w", err)
		}
	}
	return nil
}

// Process assesses one frame. The stages run in strict order and each is
// timed into the tracker; stage failures abort the frame with no partial
// assessment, leaving the error matchable against vision.ErrDetection or
// vision.ErrInference.
func (p *Pipeline) Process(ctx context.Context, frame vision.Frame) (*threat.Assessment, error) {
	start := time.Now()
	stopTotal := p.tracker.StartTimer(metrics.MetricTotalProcessing)
	defer stopTotal()

	dets, err := p.detect(ctx, frame)
	if err != nil {
		p.recordFailure(frame, metrics.MetricDetection, err)
		return nil, err
	}

	scene, err := p.describeScene(ctx, frame, dets)
	if err != nil {
		p.recordFailure(frame, metrics.MetricSceneAnalysis, err)
		return nil, err
	}

	level, confidence := p.classifier.Classify(dets, scene)
	action := p.classifier.RecommendAction(level, dets)

	processingMs := float64(time.Since(start).Microseconds()) / 1000.0
	assessment := threat.NewAssessment(
		level, confidence, dets, scene, action, processingMs, frame.Source, frame.Seq)

	p.tracker.Increment(metrics.CounterFramesProcessed, 1)
	metrics.RecordFrameProcessed(frame.Source)
	metrics.RecordAssessment(level.String())

	logging.Debug().
		Str("source", frame.Source).
		Uint64("seq", frame.Seq).
		Str("level", level.String()).
		Float64("confidence", confidence).
		Int("detections", len(dets)).
		Float64("ms", processingMs).
		Msg("Frame assessed")

	return &assessment, nil
}

func (p *Pipeline) detect(ctx context.Context, frame vision.Frame) ([]vision.Detection, error) {
	stop := p.tracker.StartTimer(metrics.MetricDetection)
	defer stop()

	stageStart := time.Now()
	dets, err := p.detector.Detect(ctx, frame)
	metrics.RecordStage(metrics.MetricDetection, time.Since(stageStart))

	if err != nil {
		return nil, fmt.Errorf("frame %d from %s: %w", frame.Seq, frame.Source, err)
	}
	return dets, nil
}

func (p *Pipeline) describeScene(ctx context.Context, frame vision.Frame, dets []vision.Detection) (string, error) {
	if p.describer == nil {
		return "", nil
	}

	stop := p.tracker.StartTimer(metrics.MetricSceneAnalysis)
	defer stop()

	stageStart := time.Now()
	scene, err := p.describer.Describe(ctx, frame, buildScenePrompt(dets))
	metrics.RecordStage(metrics.MetricSceneAnalysis, time.Since(stageStart))

	if err != nil {
		return "", fmt.Errorf("frame %d from %s: %w", frame.Seq, frame.Source, err)
	}
	return scene, nil
}

func (p *Pipeline) recordFailure(frame vision.Frame, stage string, err error) {
	p.tracker.Increment(metrics.CounterProcessingErrors, 1)
	metrics.RecordProcessingError(frame.Source, stage)

	logging.Error().
		Err(err).
		Str("source", frame.Source).
		Uint64("seq", frame.Seq).
		Str("stage", stage).
		Msg("Frame processing failed")
}

// buildScenePrompt renders the analysis prompt for the detected classes.
func buildScenePrompt(dets []vision.Detection) string {
	names := vision.ClassNames(dets)
	if len(names) == 0 {
		return promptNoObjects
	}
	return fmt.Sprintf(promptObjectsPresent, strings.Join(names, ", "))
}

// DetectorInfo exposes detector backend state for health reporting.
func (p *Pipeline) DetectorInfo() vision.BackendInfo {
	return p.detector.Info()
}

// DescriberInfo exposes scene describer backend state for health reporting.
// The zero value means scene analysis is disabled.
func (p *Pipeline) DescriberInfo() vision.BackendInfo {
	if p.describer == nil {
		return vision.BackendInfo{}
	}
	return p.describer.Info()
}

// Tracker returns the stats tracker the pipeline records into.
func (p *Pipeline) Tracker() *metrics.Tracker {
	return p.tracker
}
