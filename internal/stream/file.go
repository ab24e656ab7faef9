// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package stream

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
	"github.com/tomtom215/skywarden/internal/vision"
)

// FileReport summarizes a synchronous video file run.
type FileReport struct {
	Path           string         `json:"path"`
	FramesRead     uint64         `json:"frames_read"`
	FramesAssessed int            `json:"frames_assessed"`
	Errors         int            `json:"errors"`
	ElapsedMs      float64        `json:"elapsed_ms"`
	Levels         map[string]int `json:"levels"`
	Results        []Result       `json:"results"`
}

// ProcessFile runs a video file through the pipeline sequentially, one
// frame at a time at the file stride, and returns every assessment. A
// frame that fails assessment is counted and skipped; the run continues.
// Unlike Start, this blocks until the file is exhausted or ctx is
// cancelled, and it does not touch the live session state.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*FileReport, error) {
	src := NewFFmpegSource(path, p.cfg.FFmpegPath)
	if err := src.Open(ctx); err != nil {
		return nil, err
	}
	defer src.Close()
	return p.processSequential(ctx, src, path)
}

func (p *Processor) processSequential(ctx context.Context, src vision.FrameSource, path string) (*FileReport, error) {
	stride := uint64(p.cfg.FileStride)
	if stride == 0 {
		stride = 5
	}

	start := time.Now()
	report := &FileReport{
		Path:    path,
		Levels:  make(map[string]int),
		Results: []Result{},
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := src.Read(ctx)
		if err != nil {
			if errors.Is(err, vision.ErrStreamEnd) {
				break
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Decode errors end the file the same way a truncated
			// recording would.
			logging.Warn().Err(err).Str("path", path).Msg("Video read failed, stopping")
			break
		}

		report.FramesRead++
		if frame.Seq%stride != 0 {
			continue
		}

		assessment, err := p.pipeline.Process(ctx, frame)
		if err != nil {
			report.Errors++
			continue
		}

		report.Results = append(report.Results, Result{Seq: frame.Seq, Assessment: assessment})
		report.Levels[assessment.Level.String()]++
		logging.Info().
			Str("path", path).
			Uint64("frame", frame.Seq).
			Str("level", assessment.Level.String()).
			Float64("confidence", assessment.Confidence).
			Msg("Video frame assessed")
	}

	report.FramesAssessed = len(report.Results)
	report.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000.0
	p.pipeline.Tracker().Record(metrics.MetricVideoProcessing, report.ElapsedMs)

	logging.Info().
		Str("path", path).
		Uint64("frames_read", report.FramesRead).
		Int("assessed", report.FramesAssessed).
		Int("errors", report.Errors).
		Float64("elapsed_ms", report.ElapsedMs).
		Msg("Video file processed")
	return report, nil
}
