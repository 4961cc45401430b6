package handler

import (
	"net/http"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/core/service"
)

// TriggerCapture handles POST /v1/captures. The capture carries no
// subject, so it is not audited. The request waits for the outcome;
// failures inside the protocol are reported in the body with a matching
// status.
func (h *Handler) TriggerCapture(w http.ResponseWriter, r *http.Request) {
	out, err := h.capture.Capture(r.Context(), service.CaptureRequest{})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, captureStatus(out), NewCaptureResponse(out))
}

func captureStatus(out domain.Outcome) int {
	switch {
	case out.Kind == domain.OutcomeTimeout && out.TransportErr != nil:
		return http.StatusBadGateway
	case out.Kind == domain.OutcomeTimeout:
		return http.StatusGatewayTimeout
	case out.Kind == domain.OutcomeEmptyPayload:
		return http.StatusBadGateway
	case out.Path == "":
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
