package listing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Marketplace/internal/auth"
	"Marketplace/pkg/kit"
)

// HTTPDeps carries the ambient dependencies of the listing HTTP surface. JWT
// verifies bearer tokens; Registry enables request metrics.
type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry
	JWT      *auth.TokenMaker

	MetricsEnabled bool
	MetricsToken   string
}

// NewHandler wires middleware, metrics and routes around svc.
func NewHandler(svc *Service, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	s := &Server{Svc: svc, Log: deps.Log}

	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)
	setupRoutes(r, s, deps)

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func setupRoutes(r *chi.Mux, s *Server, deps HTTPDeps) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.handleReady)
	r.Get("/categories", s.handleCategories)

	r.Group(func(pub chi.Router) {
		pub.Use(auth.OptionalJWT(deps.JWT))
		pub.Get("/listings", s.handleList)
		pub.Get("/listings/{id}", s.handleGet)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireJWT(deps.JWT))
		pr.Post("/listings", s.handleCreate)
		pr.Delete("/listings/{id}", s.handleDelete)
		pr.Post("/listings/{id}/save", s.handleSave)
		pr.Delete("/listings/{id}/save", s.handleUnsave)
		pr.Get("/me/saved", s.handleSaved)
	})
}
