/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     zerolog request log + Prometheus request counter
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/cycles/*     Cycle records and the live stream
  /api/periods/*    Period logging and the start/end toggle
  /api/summary      Home summary
  /api/stats        History statistics
  /api/backup       Export
  /api/restore      Import
  /metrics          Prometheus scrape endpoint
  /healthz          Liveness / storage check

SECURITY NOTE:
  No authentication middleware. The service is meant to run on the
  owner's machine or behind an authenticating proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Request logging
  - cmd/lunarlog/commands/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lunarlog/cycle-engine/metrics"
)

// DefaultCORSOrigins are used when RouterOptions.CORSOrigins is empty.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	CORSOrigins []string
	Metrics     *metrics.Metrics
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = DefaultCORSOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/cycles", func(r chi.Router) {
			r.Get("/", h.ListCycles)
			r.Post("/", h.CreateCycle)
			r.Get("/stream", h.StreamCycles)
			r.Get("/by-date/{date}", h.GetCycleForDate)
			r.Put("/{id}", h.UpdateCycle)
		})

		r.Route("/periods", func(r chi.Router) {
			r.Post("/", h.LogPeriod)
			r.Post("/toggle", h.TogglePeriod)
		})

		r.Get("/summary", h.GetSummary)
		r.Get("/stats", h.GetStats)
		r.Get("/backup", h.ExportBackup)
		r.Post("/restore", h.RestoreBackup)
	})

	r.Method("GET", "/metrics", opts.Metrics.Handler())
	r.Get("/healthz", h.Healthz)

	return r
}
