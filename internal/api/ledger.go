package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/davidahmann/provenant/internal/ledger"
	"github.com/davidahmann/provenant/pkg/types"
)

func (h *Handler) AppendEntry(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		EventType            types.EventType        `json:"event_type"`
		DecisionID           string                 `json:"decision_id"`
		Title                string                 `json:"title"`
		Description          string                 `json:"description"`
		Data                 map[string]any         `json:"data"`
		OrganizationID       string                 `json:"organization_id"`
		UserID               *string                `json:"user_id"`
		AgentID              *string                `json:"agent_id"`
		ComplianceFrameworks []string               `json:"compliance_frameworks"`
		RetentionPeriodDays  int                    `json:"retention_period_days"`
		Sensitivity          types.SensitivityLevel `json:"sensitivity_level"`
		PIIInvolved          bool                   `json:"pii_involved"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	entry, err := h.Store.Append(ledger.AppendInput{
		EventType:   req.EventType,
		DecisionID:  req.DecisionID,
		Title:       req.Title,
		Description: req.Description,
		Data:        req.Data,
		Options: ledger.EntryOptions{
			OrganizationID:       req.OrganizationID,
			UserID:               req.UserID,
			AgentID:              req.AgentID,
			ComplianceFrameworks: req.ComplianceFrameworks,
			RetentionPeriodDays:  req.RetentionPeriodDays,
			Sensitivity:          req.Sensitivity,
			PIIInvolved:          req.PIIInvolved,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) SearchEntries(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	q := r.URL.Query()

	f := ledger.Filter{
		From:      q.Get("from"),
		To:        q.Get("to"),
		AgentID:   q.Get("agent_id"),
		Framework: q.Get("framework"),
	}
	if raw := q.Get("event_types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.EventTypes = append(f.EventTypes, types.EventType(part))
			}
		}
	}
	if raw := q.Get("pii_only"); raw != "" {
		piiOnly, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pii_only"})
			return
		}
		f.PIIOnly = piiOnly
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": h.Store.Search(f)})
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	entry, ok := h.Store.Entry(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "entry not found"})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	result, err := h.Store.VerifyChain(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) VerifyEntry(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		VerifiedBy string `json:"verified_by"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	valid, err := h.Store.VerifyEntry(r.PathValue("id"), req.VerifiedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entry_id": r.PathValue("id"),
		"valid":    valid,
	})
}
