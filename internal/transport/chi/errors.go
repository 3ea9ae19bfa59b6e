package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/logger"
)

// Error codes carried in the "code" field of error bodies.
const (
	CodeValidationFailed   = "validation_failed"
	CodeBackendUnavailable = "backend_unavailable"
	CodeRadiusTooLarge     = "radius_too_large"
	CodeBackendTimeout     = "backend_timeout"
	CodeInternalError      = "internal_error"
	CodeUnauthorized       = "unauthorized"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// defaultErrorHandlers is checked in order; the first match writes the response.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		detailHandler(domain.ErrUnknownCatalog, http.StatusUnprocessableEntity, CodeValidationFailed),
		detailHandler(domain.ErrInvalidParameter, http.StatusUnprocessableEntity, CodeValidationFailed),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusServiceUnavailable, CodeBackendUnavailable),
		sentinelHandler(domain.ErrRangeTruncated, http.StatusUnprocessableEntity, CodeRadiusTooLarge),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeBackendTimeout),
	}
}

// sentinelHandler matches a single sentinel error and answers with its message only.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// detailHandler matches a client-input sentinel. Those messages are built from
// the request itself, so the full chain is returned to the caller.
func detailHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.Or(r.Context(), s.logger)
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		log.Debug("client went away", zap.Error(err))
		return
	}
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
