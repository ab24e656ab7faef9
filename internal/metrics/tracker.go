// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Well-known metric and counter names recorded by the pipeline.
// Consumers reading Export() output key on these names.
const (
	// MetricDetection is the per-frame object detection latency in milliseconds.
	MetricDetection = "detection"

	// MetricSceneAnalysis is the per-frame VLM scene analysis latency in milliseconds.
	MetricSceneAnalysis = "scene_analysis"

	// MetricTotalProcessing is the end-to-end frame assessment latency in milliseconds.
	MetricTotalProcessing = "total_processing"

	// MetricVideoProcessing is the wall-clock time to process a whole video
	// file in milliseconds.
	MetricVideoProcessing = "video_processing"

	// CounterFramesProcessed counts frames that completed the pipeline.
	CounterFramesProcessed = "frames_processed"

	// CounterProcessingErrors counts frames that failed at any stage.
	CounterProcessingErrors = "processing_errors"
)

// SummaryStats holds descriptive statistics for a recorded metric series.
//
// Percentiles use the nearest-rank method on the ascending-sorted series:
// the index is count*p/100 with integer truncation, clamped to the last
// element. StdDev is the population standard deviation and reports 0 for
// series with fewer than two samples.
type SummaryStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// Tracker accumulates named sample series and counters for pipeline
// performance reporting. It is the caller-facing stats API; the Prometheus
// collectors in this package are the operational export.
//
// A Tracker is constructed explicitly and injected where needed. All methods
// are safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	samples  map[string][]float64
	counters map[string]int64

	// generation invalidates timers started before the last Reset so a
	// stop func held across Reset cannot write stale samples.
	generation uint64
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		samples:  make(map[string][]float64),
		counters: make(map[string]int64),
	}
}

// Record appends a sample to the named series, creating it on first use.
func (t *Tracker) Record(name string, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples[name] = append(t.samples[name], value)
}

// Increment adds delta to the named counter, creating it at zero on first use.
func (t *Tracker) Increment(name string, delta int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[name] += delta
}

// Counter returns the current value of the named counter (0 if unknown).
func (t *Tracker) Counter(name string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters[name]
}

// StartTimer begins timing the named metric and returns a stop func that
// records the elapsed wall clock time in milliseconds. The stop func records
// exactly once regardless of how many times it is called, so it is safe to
// both defer it and call it early:
//
//	stop := tracker.StartTimer(metrics.MetricDetection)
//	defer stop()
//
// A stop func outlives Reset harmlessly: if Reset ran after StartTimer, the
// sample is discarded instead of polluting the fresh series.
func (t *Tracker) StartTimer(name string) func() {
	t.mu.Lock()
	gen := t.generation
	t.mu.Unlock()

	start := time.Now()
	var once sync.Once
	return func() {
		once.Do(func() {
			elapsedMs := time.Since(start).Seconds() * 1000

			t.mu.Lock()
			defer t.mu.Unlock()
			if t.generation != gen {
				return
			}
			t.samples[name] = append(t.samples[name], elapsedMs)
		})
	}
}

// Summary computes descriptive statistics for the named series. An unknown
// or empty series yields a zero-value SummaryStats with Count 0; it is never
// an error to ask for a metric that has not been recorded yet.
func (t *Tracker) Summary(name string) SummaryStats {
	t.mu.Lock()
	series := append([]float64(nil), t.samples[name]...)
	t.mu.Unlock()

	return summarize(series)
}

// SummaryAll returns statistics for every recorded series keyed by name.
func (t *Tracker) SummaryAll() map[string]SummaryStats {
	t.mu.Lock()
	copies := make(map[string][]float64, len(t.samples))
	for name, series := range t.samples {
		copies[name] = append([]float64(nil), series...)
	}
	t.mu.Unlock()

	out := make(map[string]SummaryStats, len(copies))
	for name, series := range copies {
		out[name] = summarize(series)
	}
	return out
}

// Export returns every metric summary keyed by name plus the counters map
// under the reserved key "counters". The layout is stable and feeds the
// GET /api/v1/metrics response directly.
func (t *Tracker) Export() map[string]any {
	summaries := t.SummaryAll()

	t.mu.Lock()
	counters := make(map[string]int64, len(t.counters))
	for name, v := range t.counters {
		counters[name] = v
	}
	t.mu.Unlock()

	out := make(map[string]any, len(summaries)+1)
	for name, stats := range summaries {
		out[name] = stats
	}
	out["counters"] = counters
	return out
}

// Latest returns the last n samples of the named series, oldest first.
// It returns fewer than n when the series is shorter, and nil for an
// unknown series or non-positive n.
func (t *Tracker) Latest(name string, n int) []float64 {
	if n <= 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	series := t.samples[name]
	if len(series) == 0 {
		return nil
	}
	if n > len(series) {
		n = len(series)
	}
	return append([]float64(nil), series[len(series)-n:]...)
}

// Reset clears all series, counters, and in-flight timer starts atomically.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = make(map[string][]float64)
	t.counters = make(map[string]int64)
	t.generation++
}

// ResetMetric clears the sample series for a single metric. Counters and
// other series are unaffected. Unknown names are a no-op.
func (t *Tracker) ResetMetric(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.samples, name)
}

// summarize computes SummaryStats over a private copy of a series.
func summarize(series []float64) SummaryStats {
	n := len(series)
	if n == 0 {
		return SummaryStats{}
	}

	sorted := append([]float64(nil), series...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	return SummaryStats{
		Count:  n,
		Mean:   mean,
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[n-1],
		StdDev: populationStdDev(sorted, mean),
		P95:    nearestRank(sorted, 95),
		P99:    nearestRank(sorted, 99),
	}
}

// median returns the middle sample of a sorted series, averaging the two
// middle samples for even counts.
func median(sorted []float64) float64 {
	n := len(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// populationStdDev returns the population standard deviation, 0 for series
// with fewer than two samples.
func populationStdDev(sorted []float64, mean float64) float64 {
	n := len(sorted)
	if n < 2 {
		return 0
	}
	var sumSq float64
	for _, v := range sorted {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n))
}

// nearestRank returns the p-th percentile of a sorted series using the
// nearest-rank index count*p/100 (integer truncation, clamped to the end).
func nearestRank(sorted []float64, p int) float64 {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
