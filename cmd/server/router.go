package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brunobiangulo/sociograph"
)

// newRouter wires the routes behind the middleware chain:
// recovery -> cors -> auth -> request id -> logging -> routes.
func newRouter(h *handler, apiKey, corsOrigins string) http.Handler {
	r := chi.NewRouter()

	r.Use(recoveryMiddleware)
	if corsOrigins != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: splitOrigins(corsOrigins),
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         86400,
		}))
	}
	r.Use(authMiddleware(apiKey))
	r.Use(chimiddleware.RequestID)
	r.Use(logMiddleware)

	r.Post("/visualize", h.handleVisualize)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", h.handleListRuns)
		r.Get("/{runID}", h.handleGetRun)
		r.Delete("/{runID}", h.handleDeleteRun)
		r.Get("/{runID}/similar/{actor}", h.handleSimilar)
	})
	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(sociograph.MetricsRegistry(), promhttp.HandlerOpts{}))

	return r
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
