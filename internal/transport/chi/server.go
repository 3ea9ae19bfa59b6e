// Package chi serves the cone-search HTTP API on a chi router.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/query"
	healthuc "github.com/kailas-cloud/conesearch/internal/usecase/health"
)

// Server holds the HTTP handlers.
type Server struct {
	cone          ConeSearcher
	catalogs      CatalogLister
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(cone ConeSearcher, catalogs CatalogLister, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cone:          cone,
		catalogs:      catalogs,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes returns the API router. Mount it under the route prefix.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/catalogs", s.ListCatalogs)
	r.Get("/catalogs/", s.ListCatalogs)
	r.Route("/cone_search", func(r chi.Router) {
		r.Post("/any", s.Any)
		r.Post("/nearest", s.Nearest)
		r.Post("/all", s.All)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// ListCatalogs handles GET /catalogs. The optional use parameter restricts the listing to one kind.
func (s *Server) ListCatalogs(w http.ResponseWriter, r *http.Request) {
	var kind catalog.Kind
	if use := r.URL.Query().Get("use"); use != "" {
		k, err := catalog.ParseKind(use)
		if err != nil {
			s.handleDomainError(w, r, domain.InvalidParameterf("use: %v", err))
			return
		}
		kind = k
	}

	descriptors, err := s.catalogs.List(r.Context(), kind)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	out := make([]CatalogDescriptor, len(descriptors))
	for i, d := range descriptors {
		out[i] = descriptorToDTO(d)
	}
	writeJSON(w, http.StatusOK, out)
}

// Any handles POST /cone_search/any.
func (s *Server) Any(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	out, err := s.cone.Any(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Nearest handles POST /cone_search/nearest.
func (s *Server) Nearest(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	out, err := s.cone.Nearest(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// All handles POST /cone_search/all.
func (s *Server) All(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	out, err := s.cone.All(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (query.Request, bool) {
	req, err := decodeRequest(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return query.Request{}, false
	}
	return req, true
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
