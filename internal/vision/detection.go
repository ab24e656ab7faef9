// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package vision

import (
	"fmt"
	"sort"
)

// DefaultIoUThreshold is the NMS overlap threshold applied when a caller
// passes a non-positive threshold.
const DefaultIoUThreshold = 0.45

// Detection is one detected object in a frame.
//
// The bounding box uses pixel coordinates with the origin at the top-left
// corner: (X1,Y1) is the upper-left corner, (X2,Y2) the lower-right, so
// X1 < X2 and Y1 < Y2 for any well-formed box. Confidence is the detector's
// score in [0,1]. ClassID is the numeric class index of the model's label
// set (COCO ordering for the YOLO family); ClassName is its human-readable
// label.
//
// Detections are immutable values: derived computations never modify the
// receiver, and package functions return new slices rather than filtering
// in place.
type Detection struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	ClassName  string  `json:"class_name"`
	ClassID    int     `json:"class_id"`
}

// Area returns the bounding box area in square pixels.
func (d Detection) Area() float64 {
	return (d.X2 - d.X1) * (d.Y2 - d.Y1)
}

// IoU returns the intersection-over-union of the receiver's bounding box and
// other's. Disjoint boxes yield 0, identical boxes yield 1. The union is
// computed from the raw box areas without clipping to any canvas, so boxes
// extending past the frame edge still compare correctly.
func (d Detection) IoU(other Detection) float64 {
	ix1 := max(d.X1, other.X1)
	iy1 := max(d.Y1, other.Y1)
	ix2 := min(d.X2, other.X2)
	iy2 := min(d.Y2, other.Y2)

	if ix2 < ix1 || iy2 < iy1 {
		return 0
	}

	intersection := (ix2 - ix1) * (iy2 - iy1)
	union := d.Area() + other.Area() - intersection
	if union <= 0 {
		return 0
	}

	return intersection / union
}

// String implements fmt.Stringer for log output.
func (d Detection) String() string {
	return fmt.Sprintf("%s(%.2f)[%.0f,%.0f,%.0f,%.0f]",
		d.ClassName, d.Confidence, d.X1, d.Y1, d.X2, d.Y2)
}

// FilterByConfidence returns the detections whose confidence is at least min.
// The input slice is not modified.
func FilterByConfidence(dets []Detection, min float64) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= min {
			out = append(out, d)
		}
	}
	return out
}

// FilterByClasses returns the detections whose class name appears in classes.
// An empty class list disables filtering and returns a copy of the input.
func FilterByClasses(dets []Detection, classes []string) []Detection {
	if len(classes) == 0 {
		out := make([]Detection, len(dets))
		copy(out, dets)
		return out
	}

	allowed := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		allowed[c] = struct{}{}
	}

	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if _, ok := allowed[d.ClassName]; ok {
			out = append(out, d)
		}
	}
	return out
}

// NMS applies greedy non-maximum suppression: detections are visited in
// descending confidence order, and a candidate survives only when its IoU
// with every already-kept detection of the same class is below iouThreshold.
// Detections of different classes never suppress each other.
//
// The output is always a subset of the input, and the highest-confidence
// detection of any overlapping same-class cluster is always retained. A
// non-positive threshold falls back to DefaultIoUThreshold.
func NMS(dets []Detection, iouThreshold float64) []Detection {
	if len(dets) == 0 {
		return []Detection{}
	}
	if iouThreshold <= 0 {
		iouThreshold = DefaultIoUThreshold
	}

	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	keep := make([]Detection, 0, len(sorted))
	for _, candidate := range sorted {
		suppressed := false
		for _, kept := range keep {
			if kept.ClassID == candidate.ClassID && kept.IoU(candidate) >= iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			keep = append(keep, candidate)
		}
	}

	return keep
}

// ClassNames returns the distinct class names across dets, sorted
// alphabetically. Used to build scene analysis prompts.
func ClassNames(dets []Detection) []string {
	seen := make(map[string]struct{}, len(dets))
	names := make([]string, 0, len(dets))
	for _, d := range dets {
		if _, ok := seen[d.ClassName]; ok {
			continue
		}
		seen[d.ClassName] = struct{}{}
		names = append(names, d.ClassName)
	}
	sort.Strings(names)
	return names
}

// MaxConfidence returns the highest confidence across dets, or 0 for an
// empty slice.
func MaxConfidence(dets []Detection) float64 {
	var highest float64
	for _, d := range dets {
		if d.Confidence > highest {
			highest = d.Confidence
		}
	}
	return highest
}
