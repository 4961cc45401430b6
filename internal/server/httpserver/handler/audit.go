package handler

import (
	"net/http"
	"strconv"
)

// ListAudit handles GET /v1/audit?limit=N.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, r, http.StatusBadRequest, "GC-ARG-1001", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	list := AuditList{Records: make([]AuditRecord, 0, len(records)), Count: len(records)}
	for _, rec := range records {
		list.Records = append(list.Records, NewAuditRecord(rec))
	}
	h.writeJSON(w, r, http.StatusOK, list)
}
