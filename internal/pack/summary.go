package pack

import (
	"bytes"
	"fmt"

	"github.com/davidahmann/provenant/internal/grade"
)

// BuildSummary renders the human-facing SUMMARY.md for an evidence pack.
// Links are only included when a base URL is configured.
func BuildSummary(in Input, baseURL string) ([]byte, error) {
	r := in.Report
	g := grade.Evaluate(r)

	var b bytes.Buffer
	fmt.Fprintf(&b, "# Decision Evidence Pack\n\n")
	fmt.Fprintf(&b, "- Decision: %s (%s)\n", r.Decision.Title, r.Decision.DecisionID)
	fmt.Fprintf(&b, "- Status: %s\n", r.Decision.Status)
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt)
	fmt.Fprintf(&b, "- Grade: %s\n", g.Grade)
	if len(g.Reasons) > 0 {
		fmt.Fprintf(&b, "- Gaps: %v\n", g.Reasons)
	}
	fmt.Fprintf(&b, "\n## Chain verification\n\n")
	if r.Verification.Valid {
		fmt.Fprintf(&b, "Valid. %d entries checked.\n", r.Verification.EntriesChecked)
	} else {
		fmt.Fprintf(&b, "INVALID: %s\n", r.Verification.Message)
	}

	fmt.Fprintf(&b, "\n## Entries\n\n")
	fmt.Fprintf(&b, "| Seq | Event | Timestamp | Hash |\n")
	fmt.Fprintf(&b, "|-----|-------|-----------|------|\n")
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "| %d | %s | %s | `%s` |\n", e.Sequence, e.EventType, e.Timestamp, shortHash(e.Hash))
	}

	if r.Attestation != nil {
		fmt.Fprintf(&b, "\n## Attestation\n\n")
		fmt.Fprintf(&b, "Signed by key `%s` over digest `%s`.\n", r.Attestation.KeyID, r.Attestation.Digest)
	}

	if baseURL != "" {
		fmt.Fprintf(&b, "\n## Links\n\n")
		fmt.Fprintf(&b, "- Verify: %s/v1/ledger/verify\n", baseURL)
		fmt.Fprintf(&b, "- Export: %s/v1/decisions/%s/export\n", baseURL, r.Decision.DecisionID)
	}

	return b.Bytes(), nil
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
