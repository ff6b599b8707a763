package api

import (
	"net/http"

	"github.com/davidahmann/provenant/internal/veto"
	"github.com/davidahmann/provenant/pkg/types"
)

func (h *Handler) SubmitProposal(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Amount      *int64 `json:"amount"`
		RiskScore   *int   `json:"risk_score"`
		SubmittedBy string `json:"submitted_by"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	d, err := h.Veto.SubmitProposal(r.Context(), veto.SubmitInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		RiskScore:   req.RiskScore,
		SubmittedBy: req.SubmittedBy,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) ListProposals(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		writeJSON(w, http.StatusOK, map[string]any{"proposals": h.Veto.ByStatus(types.VetoStatus(raw))})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposals": h.Veto.Proposals()})
}

func (h *Handler) GetProposal(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	d, ok := h.Veto.Proposal(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "proposal not found"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) ResolveProposal(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		DecidedBy string `json:"decided_by"`
		Approve   bool   `json:"approve"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	d, err := h.Veto.Resolve(r.PathValue("id"), req.DecidedBy, req.Approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) RequestOverride(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		RequestedBy string `json:"requested_by"`
		Reason      string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	d, err := h.Veto.RequestOverride(r.PathValue("id"), req.RequestedBy, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) ApproveOverride(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		ApprovedBy string `json:"approved_by"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	d, err := h.Veto.ApproveOverride(r.PathValue("id"), req.ApprovedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) DenyOverride(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		DeniedBy string `json:"denied_by"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	d, err := h.Veto.DenyOverride(r.PathValue("id"), req.DeniedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": h.Veto.Roles()})
}

func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"policies": h.Policies.Policies()})
}

func (h *Handler) AddPolicy(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req types.VetoPolicy
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	added, err := h.Policies.Add(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *Handler) TogglePolicy(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	toggled, err := h.Policies.Toggle(r.PathValue("id"), req.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toggled)
}
