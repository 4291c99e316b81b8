// Package http wires the REST API: the blueprint library, substructure
// search, health probes and the metrics endpoint.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MetaTree-Curator/internal/interfaces/http/handlers"
	"github.com/turtacn/MetaTree-Curator/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.
type RouterConfig struct {
	BlueprintHandler *handlers.BlueprintHandler
	HealthHandler    *handlers.HealthHandler

	LoggingMiddleware *middleware.LoggingMiddleware

	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Handler)
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerBlueprintRoutes(api, cfg.BlueprintHandler)
	})

	return r
}

func registerBlueprintRoutes(r chi.Router, h *handlers.BlueprintHandler) {
	if h == nil {
		return
	}
	r.Route("/blueprints", func(br chi.Router) {
		br.Get("/", h.List)
		br.Post("/", h.Upload)
		br.Post("/search", h.Search)

		br.Route("/{uid}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)
		})
	})
}
