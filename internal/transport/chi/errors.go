package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/qdex/internal/domain"
	logpkg "github.com/kailas-cloud/qdex/internal/logger"
)

// Code is the machine-readable outcome carried in every response envelope.
type Code string

// Response codes.
const (
	CodeOK                      Code = "ok"
	CodeIndexCreated            Code = "index_created"
	CodeIndexAlreadyExists      Code = "index_already_exists"
	CodeIndexDeleted            Code = "index_deleted"
	CodeIndexNotFound           Code = "index_not_found"
	CodeQuestionCreated         Code = "question_created"
	CodeAnswerUpdated           Code = "answer_updated"
	CodeQuestionNotFound        Code = "question_not_found"
	CodeValidationFailed        Code = "validation_failed"
	CodeBadRequest              Code = "bad_request"
	CodeUnauthorized            Code = "unauthorized"
	CodeWritesDisabled          Code = "writes_disabled"
	CodeSearchEngineUnavailable Code = "search_engine_unavailable"
	CodeEmbeddingProviderError  Code = "embedding_provider_error"
	CodeNotFound                Code = "not_found"
	CodeMethodNotAllowed        Code = "method_not_allowed"
	CodeInternalError           Code = "internal_error"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the body of every API response except /health and /metrics.
type Envelope struct {
	Status  string `json:"status"`
	Code    Code   `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, code Code, message string, data any) {
	writeJSON(w, status, Envelope{Status: StatusSuccess, Code: code, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, code Code, message string) {
	writeJSON(w, status, Envelope{Status: StatusError, Code: code, Message: message})
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code Code) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// readErrorHandlers map failures of read-only endpoints.
func readErrorHandlers() []errorHandler {
	return append([]errorHandler{
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
	}, commonErrorHandlers()...)
}

// writeErrorHandlers map failures of mutating endpoints. A missing target
// index is a conflict there, not a missing resource.
func writeErrorHandlers() []errorHandler {
	return append([]errorHandler{
		sentinelHandler(domain.ErrIndexNotFound, http.StatusConflict, CodeIndexNotFound),
	}, commonErrorHandlers()...)
}

func commonErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrQuestionNotFound, http.StatusNotFound, CodeQuestionNotFound),
		sentinelHandler(domain.ErrIndexAlreadyExists, http.StatusConflict, CodeIndexAlreadyExists),
		sentinelHandler(domain.ErrSearchEngineUnavailable,
			http.StatusServiceUnavailable, CodeSearchEngineUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
}

// safeDomainMessage returns a client message without exposing internals.
// Validation messages describe the client's own input and pass through.
func safeDomainMessage(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrIndexNotFound,
		domain.ErrIndexAlreadyExists,
		domain.ErrQuestionNotFound,
		domain.ErrSearchEngineUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func handleDomainError(w http.ResponseWriter, r *http.Request, handlers []errorHandler, err error) {
	log := logpkg.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range handlers {
		if h(w, err, msg) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
