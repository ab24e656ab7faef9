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
	"path/filepath"

	"github.com/tomtom215/skywarden/internal/vision"
)

// runAnalyze implements `skywarden analyze <image>`: one frame through the
// full pipeline, assessment JSON on stdout.
func runAnalyze(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	compact := fs.Bool("compact", false, "Emit compact JSON instead of indented")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Usage: skywarden analyze [flags] <image>")
		fs.PrintDefaults()
		return 2
	}
	path := fs.Arg(0)

	format := vision.FormatForPath(path)
	if format == "" {
		fmt.Fprintf(stderr, "skywarden: unsupported image type %q (want .jpg, .jpeg, .png, or .bmp)\n", filepath.Ext(path))
		return 1
	}

	data, err := os.ReadFile(path)
	if err != nil {
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

	assessment, err := pipe.Process(ctx, vision.NewFrame(1, data, format, path))
	if err != nil {
		fmt.Fprintf(stderr, "skywarden: assessment failed: %v\n", err)
		return 1
	}
	return printJSON(stdout, stderr, assessment, *compact)
}
