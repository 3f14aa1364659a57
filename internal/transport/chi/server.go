// Package chi implements the HTTP API: report intake, item lookup, and
// discovery queries.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/foundry-app/foundry/internal/domain"
	logpkg "github.com/foundry-app/foundry/internal/logger"
	discoveruc "github.com/foundry-app/foundry/internal/usecase/discover"
	healthuc "github.com/foundry-app/foundry/internal/usecase/health"
	reportuc "github.com/foundry-app/foundry/internal/usecase/report"
)

// errorCode is the machine-readable error identifier in API responses.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeUnauthorized      errorCode = "unauthorized"
	codeValidationFailed  errorCode = "validation_failed"
	codeItemNotFound      errorCode = "item_not_found"
	codeStatusRegression  errorCode = "status_regression"
	codeAlreadyRegistered errorCode = "already_registered"
	codeUpstreamError     errorCode = "upstream_error"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
	Fields  []string  `json:"fields,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	reports       *reportuc.Service
	discovery     *discoveruc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	reports *reportuc.Service,
	discovery *discoveruc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		reports:   reports,
		discovery: discovery,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeItemNotFound),
		sentinelHandler(domain.ErrStatusRegression, http.StatusConflict, codeStatusRegression),
		sentinelHandler(domain.ErrAlreadyRegistered, http.StatusConflict, codeAlreadyRegistered),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, codeUpstreamError),
	}
	return s
}

// Routes mounts the API handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/items/lost", s.createLostItem)
	r.Post("/items/found", s.createFoundItem)
	r.Get("/items/discover", s.discoverItems)
	r.Get("/items/{id}", s.getItem)
	r.Delete("/items/{id}", s.deleteItem)
	r.Get("/health", s.healthCheck)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrStatusRegression,
		domain.ErrAlreadyRegistered,
		domain.ErrUpstream,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler handles ErrValidation with the offending field list.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	resp := errorResponse{Code: codeValidationFailed, Message: msg}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
		resp.Message = verr.Error()
	}
	writeJSON(w, http.StatusBadRequest, resp)
	return true
}

// handleDomainError logs with the request-scoped logger when the
// middleware put one on the context, falling back to the server logger.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContextOr(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
