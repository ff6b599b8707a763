package ledger

import (
	"context"
	"time"

	"github.com/davidahmann/provenant/internal/crypto"
	"github.com/davidahmann/provenant/pkg/types"
)

const ExportSchema = "provenant.export.v1"

// Export builds the audit export for one decision: the chain verification
// result, the decision snapshot, its entries in order, and the hash-chain
// list an external party needs to re-derive the sub-chain. When an attestor
// is configured the report carries an Ed25519 attestation over the
// canonical export view.
func (s *Store) Export(ctx context.Context, decisionID string) (types.ExportReport, error) {
	verification, err := s.VerifyChain(ctx)
	if err != nil {
		return types.ExportReport{}, err
	}

	s.mu.Lock()
	d, ok := s.decisions[decisionID]
	if !ok {
		s.mu.Unlock()
		return types.ExportReport{}, ErrDecisionNotFound
	}
	decision := copyDecision(d)
	entries := s.entriesForDecisionLocked(decisionID)
	generatedAt := s.now().UTC().Format(time.RFC3339)
	s.mu.Unlock()

	hashChain := make([]types.HashLink, len(entries))
	for i, e := range entries {
		hashChain[i] = types.HashLink{Sequence: e.Sequence, Hash: e.Hash}
	}

	report := types.ExportReport{
		Schema:       ExportSchema,
		GeneratedAt:  generatedAt,
		Verification: verification,
		Decision:     decision,
		Entries:      entries,
		HashChain:    hashChain,
	}

	if s.attestor != nil {
		canonical, err := crypto.Canonicalize(exportView(report))
		if err != nil {
			return types.ExportReport{}, err
		}
		digest, sig, err := s.attestor.Attest(canonical)
		if err != nil {
			return types.ExportReport{}, err
		}
		report.Attestation = &types.Attestation{KeyID: s.attestor.KeyID(), Digest: digest, Sig: sig}
	}

	return report, nil
}

// exportView is the canonical, attestation-covered projection of a report.
// It binds the decision, the verification verdict, and the full hash chain;
// re-derivable by any holder of the exported JSON.
func exportView(report types.ExportReport) map[string]any {
	links := make([]map[string]any, len(report.HashChain))
	for i, link := range report.HashChain {
		links[i] = map[string]any{"sequence": link.Sequence, "hash": link.Hash}
	}
	return map[string]any{
		"schema":       report.Schema,
		"generated_at": report.GeneratedAt,
		"decision_id":  report.Decision.DecisionID,
		"valid":        report.Verification.Valid,
		"hash_chain":   links,
	}
}

// ExportView exposes the attested projection for external verifiers.
func ExportView(report types.ExportReport) map[string]any {
	return exportView(report)
}
