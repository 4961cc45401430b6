package connection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/gatecam/internal/server/httpserver/handler"
)

func envelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(handler.NewResponse("req-1", data))
}

func TestNewHTTPClient_BaseURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"http://gate.local:8080/", "http://gate.local:8080"},
		{"https://gate.local", "https://gate.local"},
	}
	for _, tt := range tests {
		if got := NewHTTPClient(tt.in, 0).BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTTPClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" || !strings.HasPrefix(r.UserAgent(), "gatecam/") {
			t.Errorf("path = %q, user agent = %q", r.URL.Path, r.UserAgent())
		}
		envelope(w, http.StatusServiceUnavailable, handler.HealthResponse{Status: "degraded"})
	}))
	defer srv.Close()

	h, err := NewHTTPClient(srv.URL, 0).Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.Status != "degraded" || h.BrokerConnected {
		t.Errorf("Health() = %+v", h)
	}
}

func TestHTTPClient_Audit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		envelope(w, http.StatusOK, handler.AuditList{
			Records: []handler.AuditRecord{{UID: "04A1", Authorized: true, Photo: "/p/x.jpg"}},
			Count:   1,
		})
	}))
	defer srv.Close()

	list, err := NewHTTPClient(srv.URL, 0).Audit(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if list.Count != 1 || list.Records[0].UID != "04A1" {
		t.Errorf("Audit() = %+v", list)
	}
}

func TestHTTPClient_CaptureTimeoutOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		envelope(w, http.StatusGatewayTimeout, handler.CaptureResponse{Outcome: "timeout", CorrelationID: "20260301_100000_000"})
	}))
	defer srv.Close()

	out, err := NewHTTPClient(srv.URL, 0).Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if out.Outcome != "timeout" {
		t.Errorf("Outcome = %q", out.Outcome)
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/captures":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"code":"GC-HTTP-4031","message":"client not in allowlist"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 0)
	_, err := c.Capture(context.Background())
	if !IsAPIError(err, "GC-HTTP-4031") {
		t.Errorf("Capture() error = %v, want GC-HTTP-4031", err)
	}

	_, err = c.Audit(context.Background(), 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Errorf("Audit() error = %v, want HTTP 502", err)
	}
}
