package api

import (
	"net/http"

	"github.com/davidahmann/provenant/pkg/types"
)

func (h *Handler) RequestAudit(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		RequestedBy string `json:"requested_by"`
		Reason      string `json:"reason"`
		Framework   string `json:"framework"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := h.Audits.Request(r.PathValue("id"), req.RequestedBy, req.Reason, req.Framework)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) BeginAudit(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		Auditor string `json:"auditor"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := h.Audits.Begin(r.PathValue("id"), r.PathValue("auditID"), req.Auditor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) CompleteAudit(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		Findings []types.AuditFinding `json:"findings"`
		Report   string               `json:"report"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := h.Audits.Complete(r.PathValue("id"), r.PathValue("auditID"), req.Findings, req.Report)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) FailAudit(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := h.Audits.Fail(r.PathValue("id"), r.PathValue("auditID"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
