// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package main implements the skywarden operator CLI.
//
// The CLI shares the server's configuration, logging, and vision backend
// registry, so an image assessed on the command line goes through exactly
// the same pipeline the server runs. Commands:
//
//	skywarden analyze <image>   Assess a single image file
//	skywarden batch <dir>       Assess every image in a directory
//	skywarden video <file>      Assess a video file frame by frame
//	skywarden levels            Print the threat level reference
//
// Results are written to stdout as JSON; logs go to stderr. Exit codes:
// 0 success, 1 runtime failure, 2 usage error.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/logging"
	"github.com/tomtom215/skywarden/internal/metrics"
	"github.com/tomtom215/skywarden/internal/pipeline"
	"github.com/tomtom215/skywarden/internal/threat"
	"github.com/tomtom215/skywarden/internal/vision"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches to the subcommands. It exists separately from main so
// tests can drive the CLI with captured output.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	switch args[0] {
	case "analyze":
		return runAnalyze(args[1:], stdout, stderr)
	case "batch":
		return runBatch(args[1:], stdout, stderr)
	case "video":
		return runVideo(args[1:], stdout, stderr)
	case "levels":
		return runLevels(args[1:], stdout, stderr)
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "skywarden %s\n", version)
		return 0
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "skywarden: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: skywarden <command> [flags] [args]

Commands:
  analyze <image>   Assess a single image file
  batch <dir>       Assess every image in a directory, writing result artifacts
  video <file>      Assess a video file frame by frame
  levels            Print the threat level reference
  version           Print the CLI version

Configuration comes from SKYWARDEN_* environment variables and config.yaml,
the same sources the server reads. Results are JSON on stdout; logs are on
stderr.

Examples:
  SKYWARDEN_DETECTOR_ENDPOINT=http://inference:9001/detect skywarden analyze gate.jpg
  skywarden batch ./captures
  skywarden video patrol.mp4
  skywarden levels -json
`)
}

// loadCLIConfig loads the layered configuration and initializes logging,
// exactly as the server does at boot.
func loadCLIConfig(stderr io.Writer) (*config.Config, int) {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(stderr, "skywarden: %v\n", err)
		return nil, 1
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return cfg, 0
}

// buildPipeline constructs and loads the assessment pipeline from the
// configured vision backends.
func buildPipeline(ctx context.Context, cfg *config.Config, stderr io.Writer) (*pipeline.Pipeline, int) {
	detector, err := vision.NewDetector(&cfg.Detector)
	if err != nil {
		fmt.Fprintf(stderr, "skywarden: detector: %v\n", err)
		return nil, 1
	}

	var describer vision.SceneDescriber
	if cfg.Analyzer.Enabled {
		describer, err = vision.NewSceneDescriber(&cfg.Analyzer)
		if err != nil {
			fmt.Fprintf(stderr, "skywarden: scene describer: %v\n", err)
			return nil, 1
		}
	}

	pipe := pipeline.New(detector, describer, threat.NewClassifier(&cfg.Threat), metrics.NewTracker())
	if err := pipe.Load(ctx); err != nil {
		fmt.Fprintf(stderr, "skywarden: loading inference backends: %v\n", err)
		return nil, 1
	}
	return pipe, 0
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// printJSON writes v to stdout as JSON, indented unless compact is set.
func printJSON(stdout, stderr io.Writer, v interface{}, compact bool) int {
	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(stderr, "skywarden: encoding output: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}
