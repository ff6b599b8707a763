package api

import "net/http"

// NewRouter wires every endpoint onto a ServeMux. Method-qualified
// patterns keep the dispatch declarative.
func NewRouter(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)

	mux.HandleFunc("POST /v1/decisions", h.CreateDecision)
	mux.HandleFunc("GET /v1/decisions", h.ListDecisions)
	mux.HandleFunc("GET /v1/decisions/{id}", h.GetDecision)
	mux.HandleFunc("POST /v1/decisions/{id}/deliberations", h.RecordDeliberation)
	mux.HandleFunc("POST /v1/decisions/{id}/votes", h.RecordVote)
	mux.HandleFunc("POST /v1/decisions/{id}/finalize", h.FinalizeDecision)
	mux.HandleFunc("POST /v1/decisions/{id}/execute", h.ExecuteDecision)
	mux.HandleFunc("POST /v1/decisions/{id}/outcome", h.RecordOutcome)
	mux.HandleFunc("GET /v1/decisions/{id}/entries", h.DecisionEntries)
	mux.HandleFunc("GET /v1/decisions/{id}/export", h.ExportDecision)
	mux.HandleFunc("GET /v1/decisions/{id}/pack", h.PackDecision)

	mux.HandleFunc("POST /v1/decisions/{id}/audits", h.RequestAudit)
	mux.HandleFunc("POST /v1/decisions/{id}/audits/{auditID}/begin", h.BeginAudit)
	mux.HandleFunc("POST /v1/decisions/{id}/audits/{auditID}/complete", h.CompleteAudit)
	mux.HandleFunc("POST /v1/decisions/{id}/audits/{auditID}/fail", h.FailAudit)

	mux.HandleFunc("POST /v1/ledger/entries", h.AppendEntry)
	mux.HandleFunc("GET /v1/ledger/entries", h.SearchEntries)
	mux.HandleFunc("GET /v1/ledger/entries/{id}", h.GetEntry)
	mux.HandleFunc("POST /v1/ledger/entries/{id}/verify", h.VerifyEntry)
	mux.HandleFunc("GET /v1/ledger/verify", h.VerifyChain)

	mux.HandleFunc("POST /v1/proposals", h.SubmitProposal)
	mux.HandleFunc("GET /v1/proposals", h.ListProposals)
	mux.HandleFunc("GET /v1/proposals/{id}", h.GetProposal)
	mux.HandleFunc("POST /v1/proposals/{id}/resolve", h.ResolveProposal)
	mux.HandleFunc("POST /v1/proposals/{id}/override", h.RequestOverride)
	mux.HandleFunc("POST /v1/proposals/{id}/override/approve", h.ApproveOverride)
	mux.HandleFunc("POST /v1/proposals/{id}/override/deny", h.DenyOverride)
	mux.HandleFunc("GET /v1/agents", h.ListAgents)

	mux.HandleFunc("GET /v1/policies", h.ListPolicies)
	mux.HandleFunc("POST /v1/policies", h.AddPolicy)
	mux.HandleFunc("POST /v1/policies/{id}/toggle", h.TogglePolicy)

	return mux
}
