// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/skywarden/internal/stream"
)

// runVideo implements `skywarden video <file>`: the file is decoded by
// ffmpeg and assessed sequentially at the configured stride. The default
// output is the run summary; -results includes every per-frame assessment.
func runVideo(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("video", flag.ContinueOnError)
	fs.SetOutput(stderr)
	withResults := fs.Bool("results", false, "Include per-frame assessments in the output")
	compact := fs.Bool("compact", false, "Emit compact JSON instead of indented")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Usage: skywarden video [flags] <file>")
		fs.PrintDefaults()
		return 2
	}
	path := fs.Arg(0)

	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(stderr, "skywarden: %v\n", err)
		return 1
	}

	cfg, code := loadCLIConfig(stderr)
	if code != 0 {
		return code
	}

	ctx, cancel := signalContext()
	defer cancel()

	pipe, code := buildPipeline(ctx, cfg, stderr)
	if code != 0 {
		return code
	}

	report, err := stream.NewProcessor(pipe, cfg.Stream).ProcessFile(ctx, path)
	if err != nil {
		fmt.Fprintf(stderr, "skywarden: video run failed: %v\n", err)
		return 1
	}
	if !*withResults {
		report.Results = []stream.Result{}
	}
	return printJSON(stdout, stderr, report, *compact)
}
