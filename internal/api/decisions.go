package api

import (
	"net/http"

	"github.com/davidahmann/provenant/internal/decision"
	"github.com/davidahmann/provenant/internal/pack"
	"github.com/davidahmann/provenant/pkg/types"
)

func (h *Handler) CreateDecision(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		Title          string   `json:"title"`
		Description    string   `json:"description"`
		ProposedBy     string   `json:"proposed_by"`
		Agents         []string `json:"agents"`
		OrganizationID string   `json:"organization_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := h.Decisions.Create(decision.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		ProposedBy:     req.ProposedBy,
		Agents:         req.Agents,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": h.Store.Decisions()})
}

func (h *Handler) GetDecision(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	rec, ok := h.Store.Decision(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "decision not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) RecordDeliberation(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		AgentID    string `json:"agent_id"`
		Text       string `json:"text"`
		Confidence int    `json:"confidence"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	entry, err := h.Decisions.RecordDeliberation(r.PathValue("id"), req.AgentID, req.Text, req.Confidence)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) RecordVote(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		AgentID    string     `json:"agent_id"`
		Vote       types.Vote `json:"vote"`
		Confidence int        `json:"confidence"`
		Reasoning  string     `json:"reasoning"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	entry, err := h.Decisions.RecordVote(r.PathValue("id"), req.AgentID, req.Vote, req.Confidence, req.Reasoning)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) FinalizeDecision(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		Status          types.DecisionStatus `json:"status"`
		FinalConfidence int                  `json:"final_confidence"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := h.Decisions.Finalize(r.PathValue("id"), req.Status, req.FinalConfidence)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) ExecuteDecision(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		ExecutedBy string `json:"executed_by"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := h.Decisions.Execute(r.PathValue("id"), req.ExecutedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		Outcome string         `json:"outcome"`
		Metrics map[string]any `json:"metrics"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := h.Decisions.RecordOutcome(r.PathValue("id"), req.Outcome, req.Metrics)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) DecisionEntries(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	id := r.PathValue("id")
	if _, ok := h.Store.Decision(id); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "decision not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": h.Store.EntriesForDecision(id)})
}

func (h *Handler) ExportDecision(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	report, err := h.Store.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) PackDecision(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	report, err := h.Store.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	policyBytes := h.PolicyBytes
	if len(policyBytes) == 0 {
		policyBytes = []byte("policies: []\n")
	}
	baseURL := h.BaseURL
	if baseURL == "" && r.Host != "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		baseURL = scheme + "://" + r.Host
	}

	zipBytes, err := pack.BuildZip(pack.Input{Report: report, Policy: policyBytes}, baseURL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=provenant-pack.zip")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(zipBytes)
}
