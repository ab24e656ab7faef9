// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package services

import (
	"context"
)

// StoreRunner interface matches *store.Store's Run method.
//
// This interface allows the AssessmentStoreService to work with the
// store without importing the store package, avoiding circular
// dependencies.
//
// Satisfied by *store.Store from internal/store/store.go.
type StoreRunner interface {
	Run(ctx context.Context) error
}

// AssessmentStoreService wraps the assessment store's async writer as a
// supervised service.
//
// The store's Run method drains queued assessments into DuckDB and runs
// periodic retention pruning until the context is canceled, flushing the
// queue on shutdown. A crash here is isolated to the data layer: the API
// keeps serving whatever is already persisted.
//
// Example usage:
//
//	st, _ := store.New(cfg)
//	svc := services.NewAssessmentStoreService(st)
//	tree.AddDataService(svc)
type AssessmentStoreService struct {
	store StoreRunner
	name  string
}

// NewAssessmentStoreService creates a new assessment store service wrapper.
func NewAssessmentStoreService(store StoreRunner) *AssessmentStoreService {
	return &AssessmentStoreService{
		store: store,
		name:  "assessment-store",
	}
}

// Serve implements suture.Service.
// Returns ctx.Err() on normal shutdown.
func (s *AssessmentStoreService) Serve(ctx context.Context) error {
	return s.store.Run(ctx)
}

// String implements fmt.Stringer for logging.
func (s *AssessmentStoreService) String() string {
	return s.name
}
