/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For behind a proxy
  3. Logger:     zap request log (middleware.go)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for browser front ends
  6. RateLimit:  Per-client token bucket on /api (optional)

ROUTE GROUPS:
  /api/tables/*        Table registry
  /api/evaluate        Bracket evaluation
  /api/calculators/*   Jurisdiction calculators
  /api/calculations/*  Saved calculations
  /api/scenarios/*     Demo data
  /healthz             Liveness

SECURITY NOTE:
  No authentication middleware. POST /api/tables changes what every
  client computes; expose it only behind a trusted proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type RouterOptions struct {
	AllowedOrigins []string
	// Limiter is applied to /api when set.
	Limiter *RateLimiter
	Logger  *zap.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = h.Logger
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders: []string{"X-Cache", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(RateLimit(opts.Limiter))
		}

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", h.ListTables)
			r.Post("/", h.CreateTable)
			r.Get("/{id}", h.GetTable)
		})

		r.Post("/evaluate", h.Evaluate)

		r.Route("/calculators", func(r chi.Router) {
			r.Post("/italy", h.Italy)
			r.Post("/italy/compare", h.ItalyCompare)
			r.Post("/italy/enpam", h.ItalyQuotaB)
			r.Post("/spain", h.Spain)
			r.Post("/spain/savings", h.SpainSavings)
			r.Post("/uk/income", h.UKIncome)
			r.Post("/uk/vat", h.UKVAT)
			r.Post("/loan", h.Loan)
		})

		r.Route("/calculations", func(r chi.Router) {
			r.Get("/", h.ListCalculations)
			r.Post("/", h.SaveCalculation)
			r.Get("/{id}", h.GetCalculation)
		})

		r.Get("/scenarios", h.ListScenarios)
		r.Post("/scenarios/load", h.LoadScenario)
	})

	return r
}
