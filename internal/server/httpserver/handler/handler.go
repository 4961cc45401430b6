package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/core/service"
	"github.com/yndnr/gatecam/internal/storage/audit"
	"github.com/yndnr/gatecam/internal/telemetry/logger"
	"github.com/yndnr/gatecam/internal/transport"
)

// CaptureService is the part of service.CaptureService the handlers use.
type CaptureService interface {
	Capture(ctx context.Context, req service.CaptureRequest) (domain.Outcome, error)
	State() service.CaptureState
}

// Deps are the collaborators of Handler. Nil members disable what uses them.
type Deps struct {
	Capture   CaptureService
	Audit     audit.Reader
	Transport transport.Status
	Logger    *slog.Logger
}

// Handler serves the gatecam endpoints.
type Handler struct {
	capture   CaptureService
	audit     audit.Reader
	transport transport.Status
	logger    *slog.Logger
}

// New creates a Handler.
func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		capture:   d.Capture,
		audit:     d.Audit,
		transport: d.Transport,
		logger:    d.Logger,
	}
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.write(w, r, status, NewResponse(logger.RequestIDFromContext(r.Context()), data))
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("X-Error-Code", code)
	h.write(w, r, status, NewErrorResponse(logger.RequestIDFromContext(r.Context()), code, message, nil))
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if code := domain.GetErrorCode(err); code != "" {
		h.writeError(w, r, errorCodeToHTTPStatus(code), code, err.Error())
		return
	}

	h.logger.ErrorContext(r.Context(), "internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "GC-SYS-5000", "internal server error")
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasPrefix(code, "GC-ARG-"), strings.HasSuffix(code, "-4000"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5020"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
