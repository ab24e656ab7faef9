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

	"github.com/tomtom215/skywarden/internal/batch"
)

// runBatch implements `skywarden batch <dir>`: every supported image in the
// directory through the pipeline, artifacts into the output directory,
// summary JSON on stdout.
func runBatch(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("output", "", "Output directory for result artifacts (default: configured batch output dir)")
	workers := fs.Int("workers", 0, "Concurrent image workers (default: configured batch workers)")
	noReport := fs.Bool("no-report", false, "Skip the markdown report")
	compact := fs.Bool("compact", false, "Emit compact JSON instead of indented")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Usage: skywarden batch [flags] <dir>")
		fs.PrintDefaults()
		return 2
	}
	dir := fs.Arg(0)

	info, err := os.Stat(dir)
	if err != nil {
		fmt.Fprintf(stderr, "skywarden: %v\n", err)
		return 1
	}
	if !info.IsDir() {
		fmt.Fprintf(stderr, "skywarden: %s is not a directory\n", dir)
		return 1
	}

	cfg, code := loadCLIConfig(stderr)
	if code != 0 {
		return code
	}
	if *output != "" {
		cfg.Batch.OutputDir = *output
	}
	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if *noReport {
		cfg.Batch.Report = false
	}

	ctx, cancel := signalContext()
	defer cancel()

	pipe, code := buildPipeline(ctx, cfg, stderr)
	if code != 0 {
		return code
	}

	summary, err := batch.NewRunner(pipe, &cfg.Batch).Run(ctx, dir)
	if err != nil {
		fmt.Fprintf(stderr, "skywarden: batch run failed: %v\n", err)
		return 1
	}
	return printJSON(stdout, stderr, summary, *compact)
}
