package handler

import (
	"net/http"
	"time"
)

// Health handles GET /healthz. It answers 503 while the broker is
// disconnected.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:          "ok",
		BrokerConnected: true,
		Time:            time.Now().UTC().Format(time.RFC3339),
	}
	if h.transport != nil {
		resp.BrokerConnected = h.transport.Connected()
	}
	if h.capture != nil {
		resp.CaptureState = h.capture.State().String()
	}

	status := http.StatusOK
	if !resp.BrokerConnected {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, r, status, resp)
}
