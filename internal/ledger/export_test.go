package ledger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/davidahmann/provenant/internal/crypto"
	"github.com/davidahmann/provenant/pkg/types"
)

func TestExportRoundTrip(t *testing.T) {
	s := newTestStore(nil)
	if err := s.CreateDecision(types.DecisionRecord{DecisionID: "d1", Title: "Budget", Status: types.DecisionProposed}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Append(AppendInput{EventType: types.EventProposalCreated, DecisionID: "d1", Title: "Proposed"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Append(AppendInput{EventType: types.EventVoteCast, DecisionID: "d1", Title: "Voted"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Unrelated noise between the decision's entries must not leak into the
	// export.
	if _, err := s.Append(AppendInput{EventType: types.EventVoteCast, DecisionID: "other", Title: "Noise"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	report, err := s.Export(t.Context(), "d1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !report.Verification.Valid {
		t.Fatalf("verification invalid: %+v", report.Verification)
	}
	if len(report.Entries) != 2 || len(report.HashChain) != 2 {
		t.Fatalf("entries=%d hash_chain=%d, want 2/2", len(report.Entries), len(report.HashChain))
	}

	// Re-derive every hash from the exported entries; it must match the
	// exported hash chain exactly.
	for i, e := range report.Entries {
		recomputed, err := entryHash(e)
		if err != nil {
			t.Fatalf("recompute: %v", err)
		}
		if recomputed != report.HashChain[i].Hash || e.Sequence != report.HashChain[i].Sequence {
			t.Fatalf("hash chain mismatch at %d", i)
		}
	}
}

func TestExportUnknownDecision(t *testing.T) {
	s := newTestStore(nil)
	if _, err := s.Export(t.Context(), "ghost"); !errors.Is(err, ErrDecisionNotFound) {
		t.Fatalf("expected ErrDecisionNotFound, got %v", err)
	}
}

func TestExportAttestation(t *testing.T) {
	priv, pub, err := crypto.KeyPairFromSeed(bytes.Repeat([]byte{9}, 32))
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}

	s := newTestStore(nil)
	s.attestor = crypto.NewAttestor("export-key", priv)

	if err := s.CreateDecision(types.DecisionRecord{DecisionID: "d1", Status: types.DecisionProposed}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Append(AppendInput{EventType: types.EventProposalCreated, DecisionID: "d1", Title: "Proposed"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	report, err := s.Export(t.Context(), "d1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if report.Attestation == nil || report.Attestation.KeyID != "export-key" {
		t.Fatalf("attestation missing: %+v", report.Attestation)
	}

	canonical, err := crypto.Canonicalize(ExportView(report))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	ok, err := crypto.VerifyAttestation(pub, canonical, report.Attestation.Sig)
	if err != nil || !ok {
		t.Fatalf("attestation did not verify: ok=%v err=%v", ok, err)
	}
}
