package grade

import (
	"testing"

	"github.com/davidahmann/provenant/pkg/types"
)

func fullReport() types.ExportReport {
	return types.ExportReport{
		Verification: types.ChainVerificationResult{Valid: true, EntriesChecked: 3},
		Decision: types.DecisionRecord{
			DecisionID: "d1",
			Status:     types.DecisionApproved,
			AuditHistory: []types.AuditRecord{
				{AuditID: "a1", Status: types.AuditCompleted},
			},
		},
		Entries: []types.LedgerEntry{
			{EntryID: "e1", ComplianceFrameworks: []string{"SOC2"}},
		},
		Attestation: &types.Attestation{KeyID: "k1", Digest: "sha256:x", Sig: "y"},
	}
}

func TestFullReportGradesA(t *testing.T) {
	got := Evaluate(fullReport())
	if got.Grade != "A" || len(got.Reasons) != 0 {
		t.Fatalf("got %+v, want clean A", got)
	}
}

func TestInvalidChainGradesF(t *testing.T) {
	r := fullReport()
	r.Verification.Valid = false
	got := Evaluate(r)
	if got.Grade != "F" || got.Reasons[0] != "chain_invalid" {
		t.Fatalf("got %+v", got)
	}
}

func TestEmptyExportGradesF(t *testing.T) {
	r := fullReport()
	r.Entries = nil
	if got := Evaluate(r); got.Grade != "F" {
		t.Fatalf("got %+v", got)
	}
}

func TestUnfinalizedDecisionGradesD(t *testing.T) {
	r := fullReport()
	r.Decision.Status = types.DecisionVoting
	got := Evaluate(r)
	if got.Grade != "D" {
		t.Fatalf("got %+v", got)
	}
}

func TestMissingAttestationAndAuditGradesC(t *testing.T) {
	r := fullReport()
	r.Attestation = nil
	r.Decision.AuditHistory = nil
	got := Evaluate(r)
	if got.Grade != "C" || len(got.Reasons) != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestSingleGapGradesB(t *testing.T) {
	r := fullReport()
	r.Attestation = nil
	if got := Evaluate(r); got.Grade != "B" {
		t.Fatalf("got %+v", got)
	}

	r = fullReport()
	r.Entries[0].ComplianceFrameworks = nil
	if got := Evaluate(r); got.Grade != "B" {
		t.Fatalf("got %+v", got)
	}
}
