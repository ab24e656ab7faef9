// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
	"github.com/tomtom215/skywarden/internal/pipeline"
	"github.com/tomtom215/skywarden/internal/vision"
)

// Artifacts written into the batch output directory.
const (
	resultsFile = "results.json"
	reportFile  = "report.md"
)

// ImageResult is one processed image, serialized into results.json.
type ImageResult struct {
	Filename         string             `json:"filename"`
	ThreatLevel      string             `json:"threat_level"`
	Confidence       float64            `json:"confidence"`
	NumDetections    int                `json:"num_detections"`
	Detections       []vision.Detection `json:"detections"`
	SceneDescription string             `json:"scene_description"`
	ProcessingTimeMs float64            `json:"processing_time_ms"`
}

// Summary reports what a batch run did.
type Summary struct {
	InputDir    string         `json:"input_dir"`
	OutputDir   string         `json:"output_dir"`
	Found       int            `json:"found"`
	Processed   int            `json:"processed"`
	Failed      int            `json:"failed"`
	Levels      map[string]int `json:"levels"`
	ElapsedMs   float64        `json:"elapsed_ms"`
	ResultsPath string         `json:"results_path"`
	ReportPath  string         `json:"report_path,omitempty"`
}

// Runner walks an image directory through the assessment pipeline.
type Runner struct {
	pipeline *pipeline.Pipeline
	cfg      *config.BatchConfig
}

// NewRunner creates a batch runner over an already loaded pipeline.
func NewRunner(p *pipeline.Pipeline, cfg *config.BatchConfig) *Runner {
	return &Runner{pipeline: p, cfg: cfg}
}

// Run assesses every supported image in inputDir and writes the result
// artifacts. Per-image failures are counted and skipped; Run itself fails
// only when the directory cannot be scanned, an artifact cannot be
// written, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, inputDir string) (*Summary, error) {
	start := time.Now()

	files, err := findImages(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", inputDir)
	}

	outputDir := r.cfg.OutputDir
	if outputDir == "" {
		outputDir = "results"
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}

	logging.Info().
		Str("input_dir", inputDir).
		Int("images", len(files)).
		Int("workers", workers).
		Msg("Starting batch run")

	// Workers write disjoint indexes, so the slice itself needs no lock;
	// failed images simply stay nil and are compacted out afterwards.
	results := make([]*ImageResult, len(files))
	errorsByType := make(map[string]int)

	var wg sync.WaitGroup
	var mu sync.Mutex
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					return
				}
				res, err := r.processOne(ctx, files[idx], uint64(idx))
				if err != nil {
					logging.Warn().
						Err(err).
						Str("file", files[idx]).
						Msg("Skipping failed image")
					mu.Lock()
					errorsByType[errorType(err)]++
					mu.Unlock()
					continue
				}
				results[idx] = res
			}
		}()
	}

feed:
	for idx := range files {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := make([]ImageResult, 0, len(files))
	levels := make(map[string]int)
	for _, res := range results {
		if res == nil {
			continue
		}
		ordered = append(ordered, *res)
		levels[res.ThreatLevel]++
	}

	resultsPath := filepath.Join(outputDir, resultsFile)
	if err := writeResults(resultsPath, ordered); err != nil {
		return nil, err
	}

	summary := &Summary{
		InputDir:    inputDir,
		OutputDir:   outputDir,
		Found:       len(files),
		Processed:   len(ordered),
		Failed:      len(files) - len(ordered),
		Levels:      levels,
		ElapsedMs:   float64(time.Since(start).Microseconds()) / 1000.0,
		ResultsPath: resultsPath,
	}

	if r.cfg.Report {
		reportPath := filepath.Join(outputDir, reportFile)
		if err := writeReport(reportPath, ordered); err != nil {
			return nil, err
		}
		summary.ReportPath = reportPath
	}

	metrics.RecordBatchJob(time.Since(start), summary.Processed, errorsByType)

	logging.Info().
		Int("processed", summary.Processed).
		Int("failed", summary.Failed).
		Float64("elapsed_ms", summary.ElapsedMs).
		Str("results", summary.ResultsPath).
		Msg("Batch run complete")

	return summary, nil
}

// processOne reads and assesses a single image file.
func (r *Runner) processOne(ctx context.Context, path string, seq uint64) (*ImageResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	frame := vision.NewFrame(seq, data, vision.FormatForPath(path), path)
	assessment, err := r.pipeline.Process(ctx, frame)
	if err != nil {
		return nil, err
	}

	dets := assessment.Detections
	if dets == nil {
		dets = []vision.Detection{}
	}

	return &ImageResult{
		Filename:         filepath.Base(path),
		ThreatLevel:      assessment.Level.String(),
		Confidence:       assessment.Confidence,
		NumDetections:    len(dets),
		Detections:       dets,
		SceneDescription: assessment.SceneDescription,
		ProcessingTimeMs: assessment.ProcessingTimeMs,
	}, nil
}

// findImages returns the supported image files directly inside dir. The
// scan is non-recursive, and os.ReadDir already sorts entries by name so
// results.json order is deterministic.
func findImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if vision.FormatForPath(entry.Name()) == "" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// writeResults serializes the per-image assessments, always as an array.
func writeResults(path string, results []ImageResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// errorType buckets a per-image failure for the batch error counter.
func errorType(err error) string {
	switch {
	case errors.Is(err, vision.ErrDetection):
		return "detection"
	case errors.Is(err, vision.ErrInference):
		return "inference"
	default:
		return "read"
	}
}
