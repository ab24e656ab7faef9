// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/threat"
)

// levelEntry is one row of the machine-readable level reference.
type levelEntry struct {
	Level             string   `json:"level"`
	Keywords          []string `json:"keywords"`
	RecommendedAction string   `json:"recommended_action"`
}

// runLevels implements `skywarden levels`.
//
// Keyword overrides come from the same configuration the server reads; when
// no valid configuration is present the built-in tables are shown, so the
// reference works on any machine.
func runLevels(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("levels", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "Emit the reference as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	threatCfg := config.ThreatConfig{}
	if cfg, err := config.LoadWithKoanf(); err == nil {
		threatCfg = cfg.Threat
	}
	classifier := threat.NewClassifier(&threatCfg)
	rules := classifier.Rules()

	if *asJSON {
		entries := make([]levelEntry, 0, len(rules))
		for _, rule := range rules {
			entries = append(entries, levelEntry{
				Level:             rule.Level.String(),
				Keywords:          rule.Keywords,
				RecommendedAction: classifier.RecommendAction(rule.Level, nil),
			})
		}
		return printJSON(stdout, stderr, entries, false)
	}

	fmt.Fprintln(stdout, "Threat level reference (severity order, first match wins):")
	for _, rule := range rules {
		fmt.Fprintf(stdout, "\n%s\n", rule.Level)
		fmt.Fprintf(stdout, "  Keywords: %s\n", strings.Join(rule.Keywords, ", "))
		fmt.Fprintf(stdout, "  Action:   %s\n", classifier.RecommendAction(rule.Level, nil))
	}
	return 0
}
