package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yndnr/gatecam/internal/server/httpserver/handler"
	"github.com/yndnr/gatecam/internal/storage/audit"
	"github.com/yndnr/gatecam/internal/telemetry/metric"
	"github.com/yndnr/gatecam/internal/transport"
)

// RouterConfig holds the collaborators of the HTTP routes.
type RouterConfig struct {
	Capture   handler.CaptureService
	Audit     audit.Reader
	Transport transport.Status
	Metrics   *metric.Registry
	Logger    *slog.Logger

	// CaptureAllowList restricts POST /v1/captures to these IPs/CIDRs.
	CaptureAllowList []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	h := handler.New(handler.Deps{
		Capture:   cfg.Capture,
		Audit:     cfg.Audit,
		Transport: cfg.Transport,
		Logger:    log,
	})

	r := chi.NewRouter()
	r.Use(Recover(log), RequestID(), AccessLog(log))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "GC-HTTP-4040", "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "GC-HTTP-4050", "method not allowed")
	})

	r.Get("/healthz", h.Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		if cfg.Audit != nil {
			r.Get("/audit", h.ListAudit)
		}
		if cfg.Capture != nil {
			r.With(NetworkACL(cfg.CaptureAllowList, log)).Post("/captures", h.TriggerCapture)
		}
	})

	return r
}
