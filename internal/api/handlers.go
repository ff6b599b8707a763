package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/davidahmann/provenant/internal/audit"
	"github.com/davidahmann/provenant/internal/auth"
	"github.com/davidahmann/provenant/internal/decision"
	"github.com/davidahmann/provenant/internal/ledger"
	"github.com/davidahmann/provenant/internal/policy"
	"github.com/davidahmann/provenant/internal/veto"
)

type Handler struct {
	Auth      auth.Authenticator
	Store     *ledger.Store
	Decisions *decision.Service
	Audits    *audit.Service
	Policies  *policy.Registry
	Veto      *veto.Engine

	// PolicyBytes is the raw policy YAML served inside evidence packs.
	PolicyBytes []byte
	BaseURL     string
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sequence": h.Store.Sequence(),
	})
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) bool {
	if h.Auth == nil {
		return true
	}
	if _, err := h.Auth.Authenticate(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

// decodeJSON decodes with UseNumber so numeric values in free-form data
// maps survive a canonicalize round trip without becoming floats.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, policy.ErrValidation),
		errors.Is(err, veto.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrDecisionNotFound),
		errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, audit.ErrAuditNotFound),
		errors.Is(err, policy.ErrPolicyNotFound),
		errors.Is(err, veto.ErrProposalNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrDecisionExists),
		errors.Is(err, decision.ErrInvalidStatus),
		errors.Is(err, decision.ErrInvalidTransition),
		errors.Is(err, decision.ErrNotFinalized),
		errors.Is(err, audit.ErrInvalidTransition),
		errors.Is(err, veto.ErrInvalidTransition):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
