package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/showroomdex/internal/domain"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/request"
	discoveryuc "github.com/kailas-cloud/showroomdex/internal/usecase/discovery"
	healthuc "github.com/kailas-cloud/showroomdex/internal/usecase/health"
)

// Caller identity headers set by the upstream gateway.
const (
	HeaderCallerUID  = "X-Caller-Uid"
	HeaderCallerRole = "X-Caller-Role"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the discovery HTTP API.
type Server struct {
	discovery     *discoveryuc.Service
	parser        *request.Parser
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	discovery *discoveryuc.Service,
	parser *request.Parser,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		discovery: discovery,
		parser:    parser,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		indexNotReadyHandler,
		validationHandler(domain.ErrCursorInvalid, ErrorCodeCursorInvalid),
		validationHandler(domain.ErrQueryInvalid, ErrorCodeQueryInvalid),
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1/showrooms", func(r chi.Router) {
		r.Use(CallerMiddleware)
		r.Get("/", s.ListShowrooms)
		r.Get("/count", s.CountShowrooms)
		r.Get("/suggestions", s.SuggestShowrooms)
	})
}

// ListShowrooms handles GET /api/v1/showrooms.
func (s *Server) ListShowrooms(w http.ResponseWriter, r *http.Request) {
	req, err := s.parser.Parse(request.OpList, r.URL.Query())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	page, err := s.discovery.List(r.Context(), req, CallerFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// CountShowrooms handles GET /api/v1/showrooms/count.
func (s *Server) CountShowrooms(w http.ResponseWriter, r *http.Request) {
	req, err := s.parser.Parse(request.OpCount, r.URL.Query())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	c, err := s.discovery.Count(r.Context(), req, CallerFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CountResponse{
		Total: c.Total,
		Meta:  CountMeta{Mode: c.Mode, PrefixesCount: c.PrefixesCount},
	})
}

// SuggestShowrooms handles GET /api/v1/showrooms/suggestions.
func (s *Server) SuggestShowrooms(w http.ResponseWriter, r *http.Request) {
	req, err := s.parser.Parse(request.OpSuggest, r.URL.Query())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items, err := s.discovery.Suggest(r.Context(), req, CallerFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuggestResponse{
		Suggestions: items,
		Meta:        SuggestMeta{Limit: req.Limit(), Q: req.RawText()},
	})
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrQueryInvalid,
		domain.ErrCursorInvalid,
		domain.ErrIndexNotReady,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// validationHandler matches a client-correctable sentinel. Parser messages
// carry no internals and are returned verbatim.
func validationHandler(sentinel error, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, _ string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return true
	}
}

// indexNotReadyHandler reports a missing or building index with the affected collection.
func indexNotReadyHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrIndexNotReady) {
		return false
	}
	resp := ErrorResponse{Code: ErrorCodeIndexNotReady, Message: msg}
	var nre *domain.IndexNotReadyError
	if errors.As(err, &nre) {
		resp.Collection = nre.Collection
	}
	writeJSON(w, http.StatusServiceUnavailable, resp)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}
