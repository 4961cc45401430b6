package handler

import (
	"time"

	"github.com/yndnr/gatecam/internal/core/domain"
)

// Response is the standard API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status          string `json:"status"`
	BrokerConnected bool   `json:"broker_connected"`
	CaptureState    string `json:"capture_state,omitempty"`
	Time            string `json:"time"`
}

// AuditRecord is one entry of GET /v1/audit.
type AuditRecord struct {
	ID            string `json:"id" table:"wide"`
	Timestamp     string `json:"timestamp"`
	UID           string `json:"uid"`
	Authorized    bool   `json:"authorized"`
	Photo         string `json:"photo"`
	CorrelationID string `json:"correlation_id,omitempty" table:"wide"`
}

// AuditList is the body of GET /v1/audit.
type AuditList struct {
	Records []AuditRecord `json:"records"`
	Count   int           `json:"count"`
}

// NewAuditRecord converts a stored record to its API form.
func NewAuditRecord(rec domain.AuditRecord) AuditRecord {
	return AuditRecord{
		ID:            rec.ID,
		Timestamp:     rec.FormattedTimestamp(),
		UID:           rec.SubjectID,
		Authorized:    rec.Authorized,
		Photo:         rec.Outcome,
		CorrelationID: rec.CorrelationID.String(),
	}
}

// CaptureResponse is the body of POST /v1/captures.
type CaptureResponse struct {
	CorrelationID string   `json:"correlation_id"`
	Outcome       string   `json:"outcome"`
	Path          string   `json:"path,omitempty"`
	Expected      int      `json:"expected"`
	Got           int      `json:"got"`
	Chunks        int      `json:"chunks"`
	ElapsedMS     int64    `json:"elapsed_ms"`
	DecodeErrors  []string `json:"decode_errors,omitempty"`
	PersistError  string   `json:"persist_error,omitempty"`
	TransportErr  string   `json:"transport_error,omitempty"`
}

// NewCaptureResponse converts a capture outcome to its API form.
func NewCaptureResponse(out domain.Outcome) CaptureResponse {
	resp := CaptureResponse{
		CorrelationID: out.CorrelationID.String(),
		Outcome:       out.Kind.String(),
		Path:          out.Path,
		Expected:      out.Expected,
		Got:           out.Got,
		Chunks:        out.Chunks,
		ElapsedMS:     out.Elapsed.Milliseconds(),
	}
	for _, err := range out.DecodeErrors {
		resp.DecodeErrors = append(resp.DecodeErrors, err.Error())
	}
	if out.PersistErr != nil {
		resp.PersistError = out.PersistErr.Error()
	}
	if out.TransportErr != nil {
		resp.TransportErr = out.TransportErr.Error()
	}
	return resp
}
