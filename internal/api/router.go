// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/skywarden/internal/auth"
	"github.com/tomtom215/skywarden/internal/config"
	"github.com/tomtom215/skywarden/internal/middleware"
)

// Router assembles the HTTP routing tree for the API server.
//
// Routing is handled by Chi with middleware groups per route family:
// health probes run nearly unthrottled, token issuance is tightly rate
// limited, inference endpoints carry their own limiter on top of the
// general API limit, and WebSocket upgrades skip response compression.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for the given handler set. The auth
// middleware decides per-request authentication; cfg supplies CORS and
// rate limit settings for the Chi middleware chain.
func NewRouter(handler *Handler, authMW *auth.Middleware, cfg *config.Config) *Router {
	return &Router{
		handler:       handler,
		middleware:    authMW,
		chiMiddleware: NewChiMiddlewareFromAuth(&cfg.Auth),
	}
}

// chiMiddleware adapts a http.HandlerFunc-based middleware to the
// http.Handler-based signature Chi expects.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi builds the complete routing tree.
//
// Route families and their middleware:
//
//	/api/v1/health/*   health limiter, no auth
//	/api/v1/auth/*     strict limiter, no auth (the endpoint verifies keys)
//	/api/v1/analyze/*  inference limiter, auth
//	/api/v1/*          general limiter, compression, auth
//	/metrics           Prometheus scrape endpoint, no envelope
//	/swagger/*         interactive API documentation
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Unmatched routes still answer with the standard envelope.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusNotFound, ErrCodeNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	// Health endpoints sit outside authentication so orchestrators can
	// probe without credentials.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Token issuance. Not behind Authenticate: the endpoint itself
	// verifies the API key carried in the request body.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(APISecurityHeaders())
		r.Post("/token", router.handler.IssueToken)
	})

	// Inference endpoints get a dedicated limiter because a single
	// request can occupy a detector worker for hundreds of ms.
	r.Route("/api/v1/analyze", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitInference())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.middleware.Authenticate)
		r.Post("/", router.handler.AnalyzeImage)
		r.Post("/url", router.handler.AnalyzeURL)
	})

	// Core API group.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(router.middleware.Authenticate)

		r.Get("/metrics", router.handler.GetMetrics)
		r.Post("/metrics/reset", router.handler.ResetMetrics)

		r.Get("/threat-levels", router.handler.GetThreatLevels)

		r.Get("/assessments", router.handler.ListAssessments)
		r.Get("/assessments/stats", router.handler.AssessmentStats)

		r.Route("/stream", func(r chi.Router) {
			r.Post("/start", router.handler.StreamStart)
			r.Post("/stop", router.handler.StreamStop)
			r.Get("/status", router.handler.StreamStatus)
			r.Get("/results", router.handler.StreamResults)
		})

		// Raw machine-readable spec; the auth middleware treats this
		// path as public.
		r.Get("/openapi.json", router.handler.OpenAPISpec)

		r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/ws", router.handler.WebSocket)
	})

	// Prometheus scrape endpoint. Plain exposition format, no envelope.
	r.Handle("/metrics", promhttp.Handler())

	// Interactive documentation backed by the embedded OpenAPI spec.
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/api/v1/openapi.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Get("/", router.handler.Root)

	return r
}
