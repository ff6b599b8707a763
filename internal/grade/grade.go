package grade

import (
	"sort"

	"github.com/davidahmann/provenant/pkg/types"
)

type Result struct {
	Grade   string
	Reasons []string
}

// Evaluate scores an export report's evidentiary completeness. The grade is
// a heuristic for auditors triaging exports, not a compliance verdict.
func Evaluate(report types.ExportReport) Result {
	if !report.Verification.Valid {
		return Result{Grade: "F", Reasons: []string{"chain_invalid"}}
	}
	if len(report.Entries) == 0 {
		return Result{Grade: "F", Reasons: []string{"no_entries"}}
	}

	missing := map[string]bool{}

	if report.Attestation == nil {
		missing["attestation"] = true
	}

	switch report.Decision.Status {
	case types.DecisionApproved, types.DecisionRejected, types.DecisionVetoed, types.DecisionExecuted:
	default:
		missing["finalized_status"] = true
	}

	audited := false
	for _, a := range report.Decision.AuditHistory {
		if a.Status == types.AuditCompleted {
			audited = true
			break
		}
	}
	if !audited {
		missing["completed_audit"] = true
	}

	frameworks := false
	for _, e := range report.Entries {
		if len(e.ComplianceFrameworks) > 0 {
			frameworks = true
			break
		}
	}
	if !frameworks {
		missing["compliance_frameworks"] = true
	}

	// Heuristic grading.
	grade := "A"
	switch {
	case missing["finalized_status"]:
		grade = "D"
	case missing["attestation"] && missing["completed_audit"]:
		grade = "C"
	case missing["attestation"] || missing["completed_audit"] || missing["compliance_frameworks"]:
		grade = "B"
	}

	reasons := []string{}
	for k, v := range missing {
		if v {
			reasons = append(reasons, "missing_"+k)
		}
	}
	sort.Strings(reasons)

	return Result{Grade: grade, Reasons: reasons}
}
