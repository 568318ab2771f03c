/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack and the route table.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. Logger:     Structured request log (slog)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Metrics:    Latency histogram, when a Recorder is set
  6. CORS:       Cross-origin requests

ROUTE GROUPS:
  public:  /catalog/, /healthz, /metrics
  keyed:   everything else, behind the access_token header when an API key
           is configured

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Logger and API key middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/potion-shop/metrics"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// APIKey is the expected access_token header. Empty disables the check.
	APIKey string

	// CORSOrigins defaults to "*".
	CORSOrigins []string

	Metrics *metrics.Recorder
	Log     *slog.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	log := opts.Log
	if log == nil {
		log = h.Log
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", APIKeyHeader},
		ExposedHeaders: []string{replayedHeader},
		MaxAge:         300,
	}))

	// Public routes
	r.Get("/catalog/", h.GetCatalog)
	r.Get("/healthz", h.Health)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	// Keyed routes
	r.Group(func(r chi.Router) {
		r.Use(RequireAPIKey(opts.APIKey))

		r.Route("/barrels", func(r chi.Router) {
			r.Post("/plan", h.PlanBarrels)
			r.Post("/deliver/{order_id}", h.DeliverBarrels)
		})

		r.Route("/bottler", func(r chi.Router) {
			r.Post("/plan", h.PlanBottles)
			r.Post("/deliver/{order_id}", h.DeliverBottles)
		})

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", h.CreateCart)
			r.Post("/{cart_id}/items", h.AddCartItems)
			r.Post("/{cart_id}/items/{sku}", h.AddCartItem)
			r.Post("/{cart_id}/checkout", h.Checkout)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/audit", h.GetAudit)
			r.Get("/ledger", h.GetLedger)
			r.Post("/plan", h.PlanCapacity)
			r.Post("/deliver/{order_id}", h.DeliverCapacity)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/reset", h.Reset)
		})
	})

	return r
}
