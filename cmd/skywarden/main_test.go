// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package main

// These tests run sequentially: the end-to-end cases mutate the process
// environment through t.Setenv, which is incompatible with t.Parallel.

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestRunDispatch(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "no arguments prints usage",
			args:       nil,
			wantCode:   2,
			wantStderr: "Commands:",
		},
		{
			name:       "unknown command",
			args:       []string{"frobnicate"},
			wantCode:   2,
			wantStderr: `unknown command "frobnicate"`,
		},
		{
			name:       "help",
			args:       []string{"help"},
			wantCode:   0,
			wantStdout: "Commands:",
		},
		{
			name:       "version",
			args:       []string{"version"},
			wantCode:   0,
			wantStdout: "skywarden 1.0.0",
		},
		{
			name:       "version long flag",
			args:       []string{"--version"},
			wantCode:   0,
			wantStdout: "skywarden 1.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Errorf("run(%v) = %d, want %d (stderr: %s)", tt.args, code, tt.wantCode, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want substring %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want substring %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunAnalyzeArgumentErrors(t *testing.T) {
	t.Run("missing argument", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if code := runAnalyze(nil, &stdout, &stderr); code != 2 {
			t.Errorf("runAnalyze() = %d, want 2", code)
		}
		if !strings.Contains(stderr.String(), "Usage: skywarden analyze") {
			t.Errorf("stderr = %q, want usage line", stderr.String())
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		if err := os.WriteFile(path, []byte("text"), 0o600); err != nil {
			t.Fatalf("writing test file: %v", err)
		}
		var stdout, stderr bytes.Buffer
		if code := runAnalyze([]string{path}, &stdout, &stderr); code != 1 {
			t.Errorf("runAnalyze(%q) = %d, want 1", path, code)
		}
		if !strings.Contains(stderr.String(), "unsupported image type") {
			t.Errorf("stderr = %q, want unsupported image type error", stderr.String())
		}
	})

	t.Run("nonexistent image", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.jpg")
		var stdout, stderr bytes.Buffer
		if code := runAnalyze([]string{path}, &stdout, &stderr); code != 1 {
			t.Errorf("runAnalyze(%q) = %d, want 1", path, code)
		}
	})
}

func TestRunVideoArgumentErrors(t *testing.T) {
	t.Run("missing argument", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if code := runVideo(nil, &stdout, &stderr); code != 2 {
			t.Errorf("runVideo() = %d, want 2", code)
		}
		if !strings.Contains(stderr.String(), "Usage: skywarden video") {
			t.Errorf("stderr = %q, want usage line", stderr.String())
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.mp4")
		var stdout, stderr bytes.Buffer
		if code := runVideo([]string{path}, &stdout, &stderr); code != 1 {
			t.Errorf("runVideo(%q) = %d, want 1", path, code)
		}
	})
}

func TestRunBatchArgumentErrors(t *testing.T) {
	t.Run("missing argument", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if code := runBatch(nil, &stdout, &stderr); code != 2 {
			t.Errorf("runBatch() = %d, want 2", code)
		}
		if !strings.Contains(stderr.String(), "Usage: skywarden batch") {
			t.Errorf("stderr = %q, want usage line", stderr.String())
		}
	})

	t.Run("path is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "frame.jpg")
		if err := os.WriteFile(path, []byte("img"), 0o600); err != nil {
			t.Fatalf("writing test file: %v", err)
		}
		var stdout, stderr bytes.Buffer
		if code := runBatch([]string{path}, &stdout, &stderr); code != 1 {
			t.Errorf("runBatch(%q) = %d, want 1", path, code)
		}
		if !strings.Contains(stderr.String(), "is not a directory") {
			t.Errorf("stderr = %q, want not-a-directory error", stderr.String())
		}
	})

	t.Run("nonexistent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nowhere")
		var stdout, stderr bytes.Buffer
		if code := runBatch([]string{path}, &stdout, &stderr); code != 1 {
			t.Errorf("runBatch(%q) = %d, want 1", path, code)
		}
	})
}

func TestRunLevelsText(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := runLevels(nil, &stdout, &stderr); code != 0 {
		t.Fatalf("runLevels() = %d, want 0 (stderr: %s)", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"severity order", "CRITICAL", "HIGH", "MEDIUM", "LOW", "drone", "Action:"} {
		if !strings.Contains(out, want) {
			t.Errorf("levels output missing %q:\n%s", want, out)
		}
	}
}

func TestRunLevelsJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := runLevels([]string{"-json"}, &stdout, &stderr); code != 0 {
		t.Fatalf("runLevels(-json) = %d, want 0 (stderr: %s)", code, stderr.String())
	}

	var entries []levelEntry
	if err := json.Unmarshal(stdout.Bytes(), &entries); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, stdout.String())
	}
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, want 4", len(entries))
	}
	if entries[0].Level != "CRITICAL" {
		t.Errorf("entries[0].Level = %q, want CRITICAL", entries[0].Level)
	}
	found := false
	for _, kw := range entries[0].Keywords {
		if kw == "drone" {
			found = true
		}
	}
	if !found {
		t.Errorf("CRITICAL keywords = %v, want to include drone", entries[0].Keywords)
	}
	for _, entry := range entries {
		if entry.RecommendedAction == "" {
			t.Errorf("entry %s has empty recommended_action", entry.Level)
		}
	}
}

// TestRunAnalyzeStaticBackends drives the full analyze path against the
// offline static backends. The image bytes are never decoded, so a fake
// file is enough to exercise the pipeline end to end.
func TestRunAnalyzeStaticBackends(t *testing.T) {
	t.Setenv("SKYWARDEN_DETECTOR_BACKEND", "static")
	t.Setenv("SKYWARDEN_ANALYZER_BACKEND", "static")

	imgPath := filepath.Join(t.TempDir(), "gate-cam.jpg")
	if err := os.WriteFile(imgPath, []byte("not a real jpeg"), 0o600); err != nil {
		t.Fatalf("writing test image: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if code := runAnalyze([]string{imgPath}, &stdout, &stderr); code != 0 {
		t.Fatalf("runAnalyze(%q) = %d, want 0 (stderr: %s)", imgPath, code, stderr.String())
	}

	var assessment struct {
		ThreatLevel      string `json:"threat_level"`
		Source           string `json:"source"`
		SceneDescription string `json:"scene_description"`
		NumDetections    int    `json:"num_detections"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &assessment); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, stdout.String())
	}
	if assessment.ThreatLevel != "LOW" {
		t.Errorf("threat_level = %q, want LOW", assessment.ThreatLevel)
	}
	if assessment.Source != imgPath {
		t.Errorf("source = %q, want %q", assessment.Source, imgPath)
	}
	if assessment.NumDetections != 0 {
		t.Errorf("num_detections = %d, want 0", assessment.NumDetections)
	}
	if assessment.SceneDescription == "" {
		t.Error("scene_description is empty, want static backend text")
	}
}
