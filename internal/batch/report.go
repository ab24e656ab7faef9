// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package batch

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tomtom215/skywarden/internal/threat"
)

// highThreatLimit caps the high-threat table at the highest-confidence rows.
const highThreatLimit = 10

// writeReport renders the markdown summary for a finished batch run.
func writeReport(path string, results []ImageResult) error {
	var b strings.Builder

	b.WriteString("# Skywarden Batch Processing Report\n\n")
	fmt.Fprintf(&b, "**Total Images**: %d\n\n", len(results))

	writeDistribution(&b, results)
	writeDetectionStats(&b, results)
	writePerformanceStats(&b, results)
	writeHighThreatTable(&b, results)

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeDistribution(b *strings.Builder, results []ImageResult) {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.ThreatLevel]++
	}

	b.WriteString("## Threat Level Distribution\n\n")
	b.WriteString("| Threat Level | Count | Percentage |\n")
	b.WriteString("|--------------|-------|------------|\n")
	for _, level := range threat.Levels() {
		count := counts[level.String()]
		pct := 0.0
		if len(results) > 0 {
			pct = float64(count) / float64(len(results)) * 100
		}
		fmt.Fprintf(b, "| %s | %d | %.1f%% |\n", level, count, pct)
	}
	b.WriteString("\n")
}

func writeDetectionStats(b *strings.Builder, results []ImageResult) {
	total := 0
	for _, r := range results {
		total += r.NumDetections
	}
	avg := 0.0
	if len(results) > 0 {
		avg = float64(total) / float64(len(results))
	}

	b.WriteString("## Detection Statistics\n\n")
	fmt.Fprintf(b, "- **Total Detections**: %d\n", total)
	fmt.Fprintf(b, "- **Average per Image**: %.2f\n\n", avg)
}

func writePerformanceStats(b *strings.Builder, results []ImageResult) {
	var sum, minMs, maxMs float64
	for i, r := range results {
		sum += r.ProcessingTimeMs
		if i == 0 || r.ProcessingTimeMs < minMs {
			minMs = r.ProcessingTimeMs
		}
		if r.ProcessingTimeMs > maxMs {
			maxMs = r.ProcessingTimeMs
		}
	}
	avg := 0.0
	if len(results) > 0 {
		avg = sum / float64(len(results))
	}

	b.WriteString("## Performance Statistics\n\n")
	fmt.Fprintf(b, "- **Average Processing Time**: %.2f ms\n", avg)
	fmt.Fprintf(b, "- **Min Processing Time**: %.2f ms\n", minMs)
	fmt.Fprintf(b, "- **Max Processing Time**: %.2f ms\n\n", maxMs)
}

// writeHighThreatTable lists HIGH and CRITICAL images by descending
// confidence. The section is omitted entirely when nothing ranked that
// high.
func writeHighThreatTable(b *strings.Builder, results []ImageResult) {
	var high []ImageResult
	for _, r := range results {
		if level, err := threat.ParseLevel(r.ThreatLevel); err == nil && level >= threat.LevelHigh {
			high = append(high, r)
		}
	}
	if len(high) == 0 {
		return
	}

	sort.SliceStable(high, func(i, j int) bool {
		return high[i].Confidence > high[j].Confidence
	})
	if len(high) > highThreatLimit {
		high = high[:highThreatLimit]
	}

	b.WriteString("## High Threat Images\n\n")
	b.WriteString("| Image | Threat Level | Confidence | Detections |\n")
	b.WriteString("|-------|--------------|------------|------------|\n")
	for _, r := range high {
		fmt.Fprintf(b, "| %s | %s | %.2f | %d |\n", r.Filename, r.ThreatLevel, r.Confidence, r.NumDetections)
	}
}
