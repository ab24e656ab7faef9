// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package alerts turns high-threat assessments into notifications.
//
// The Dispatcher applies the emission rule (threat level at or above the
// configured minimum, HIGH by default) and fans qualifying alerts out to
// registered notifiers: the structured log, a webhook endpoint, and
// optionally NATS JetStream when built with -tags=nats.
//
// Delivery survives crashes through a BadgerDB journal: every alert is
// appended before any notifier runs, marked delivered only after all of
// them succeed, and replayed on the next startup otherwise. The
// in-memory queue is bounded and non-blocking; an overflow defers a
// journaled alert to replay rather than losing it.
package alerts
