package veto

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/davidahmann/provenant/internal/policy"
	"github.com/davidahmann/provenant/pkg/types"
)

// concernRule is one weighted keyword inside a jurisdiction tag.
type concernRule struct {
	keyword     string
	weight      int
	category    string
	severity    types.FindingSeverity
	description string
	mitigation  string
}

// Rules are grouped by jurisdiction tag; a reviewer only accumulates risk
// for concerns inside its own jurisdiction.
var jurisdictionRules = map[string][]concernRule{
	"privacy": {
		{"pii", 40, "privacy", types.SeverityCritical, "proposal touches personally identifiable information", "document lawful basis and minimization"},
		{"personal data", 35, "privacy", types.SeverityHigh, "personal data processing involved", "run a data protection impact assessment"},
		{"gdpr", 30, "privacy", types.SeverityHigh, "GDPR obligations in scope", "confirm supervisory requirements"},
		{"consent", 20, "privacy", types.SeverityMedium, "consent handling affected", "verify consent records"},
	},
	"data_handling": {
		{"delete", 25, "data_handling", types.SeverityHigh, "irreversible data deletion", "verify backups and retention holds"},
		{"export", 20, "data_handling", types.SeverityMedium, "data leaves the controlled boundary", "restrict export destinations"},
		{"retention", 15, "data_handling", types.SeverityMedium, "retention schedule change", "check legal hold obligations"},
	},
	"regulatory": {
		{"sox", 30, "regulatory", types.SeverityHigh, "SOX controls affected", "coordinate with internal audit"},
		{"hipaa", 35, "regulatory", types.SeverityHigh, "HIPAA-covered data in scope", "confirm BAA coverage"},
	},
	"operational": {
		{"shutdown", 30, "operational", types.SeverityHigh, "service shutdown proposed", "stage a rollback plan"},
		{"outage", 30, "operational", types.SeverityHigh, "customer-facing outage risk", "schedule a maintenance window"},
		{"migration", 20, "operational", types.SeverityMedium, "migration carries cutover risk", "rehearse the cutover"},
		{"deprecat", 15, "operational", types.SeverityLow, "deprecation affects dependents", "announce a sunset timeline"},
	},
	"strategic": {
		{"acquisition", 30, "strategic", types.SeverityHigh, "acquisition-level commitment", "board visibility required"},
		{"restructur", 25, "strategic", types.SeverityMedium, "organizational restructuring", "sequence communications"},
	},
	"contractual": {
		{"indemn", 35, "contractual", types.SeverityHigh, "indemnification terms involved", "cap liability exposure"},
		{"contract", 25, "contractual", types.SeverityMedium, "contractual commitment", "route through counsel review"},
		{"terms", 15, "contractual", types.SeverityLow, "terms change", "track versioned terms"},
	},
	"liability": {
		{"lawsuit", 40, "liability", types.SeverityCritical, "active litigation exposure", "hold all related records"},
		{"breach", 30, "liability", types.SeverityHigh, "breach exposure", "prepare notification obligations"},
	},
	"budget": {
		{"overrun", 30, "budget", types.SeverityHigh, "budget overrun risk", "re-baseline the budget"},
		{"budget", 15, "budget", types.SeverityLow, "budget line affected", "confirm approval chain"},
	},
	"spend": {
		{"vendor", 15, "spend", types.SeverityLow, "new vendor spend", "check procurement terms"},
		{"purchase", 10, "spend", types.SeverityLow, "purchase commitment", "verify purchase order"},
	},
	"infrastructure": {
		{"credentials", 35, "infrastructure", types.SeverityHigh, "credential material in scope", "rotate and scope credentials"},
		{"production", 20, "infrastructure", types.SeverityMedium, "production systems affected", "gate behind change control"},
		{"database", 20, "infrastructure", types.SeverityMedium, "database change", "take a pre-change snapshot"},
	},
	"access": {
		{"root", 30, "access", types.SeverityHigh, "root-level access requested", "use break-glass procedure"},
		{"admin", 25, "access", types.SeverityHigh, "admin privileges involved", "time-box the grant"},
		{"permission", 20, "access", types.SeverityMedium, "permission change", "review against least privilege"},
	},
}

// largeAmountThreshold adds spend risk for any reviewer whose jurisdiction
// includes budget or spend.
const largeAmountThreshold = 25000

// KeywordReviewer is the deterministic fallback strategy: keyword-weighted
// risk accumulation restricted to the reviewer's jurisdiction. It always
// completes, so a review round can never stall on a missing capability.
type KeywordReviewer struct {
	Now func() time.Time
}

func (r *KeywordReviewer) Review(_ context.Context, agent types.VetoAgent, p policy.Proposal) (types.VetoReview, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	text := strings.ToLower(p.Title + " " + p.Description)

	risk := 0
	concerns := []types.ReviewConcern{}
	for _, tag := range agent.Jurisdiction {
		for _, rule := range jurisdictionRules[tag] {
			if !strings.Contains(text, rule.keyword) {
				continue
			}
			risk += rule.weight
			concerns = append(concerns, types.ReviewConcern{
				Category:    rule.category,
				Severity:    rule.severity,
				Description: rule.description,
				Mitigation:  rule.mitigation,
			})
		}
		if (tag == "budget" || tag == "spend") && p.Amount != nil && *p.Amount > largeAmountThreshold {
			risk += 25
			concerns = append(concerns, types.ReviewConcern{
				Category:    "spend",
				Severity:    types.SeverityMedium,
				Description: fmt.Sprintf("amount %d exceeds review threshold", *p.Amount),
				Mitigation:  "obtain senior budget sign-off",
			})
		}
	}
	if risk > 100 {
		risk = 100
	}

	confidence := 60 + 5*len(concerns)
	if confidence > 95 {
		confidence = 95
	}

	blocking := agent.CanBlockAutomatic && risk >= agent.VetoThreshold

	status := types.ReviewApproved
	reasoning := fmt.Sprintf("deterministic review: %d jurisdiction concerns, risk %d/100", len(concerns), risk)
	var conditions []string
	switch {
	case risk >= agent.VetoThreshold:
		status = types.ReviewVetoed
		reasoning += fmt.Sprintf("; at or above veto threshold %d", agent.VetoThreshold)
	case risk >= agent.VetoThreshold/2:
		status = types.ReviewConditional
		for _, c := range concerns {
			if c.Mitigation != "" {
				conditions = append(conditions, c.Mitigation)
			}
		}
		reasoning += "; conditional on listed mitigations"
	}

	return types.VetoReview{
		AgentID:    "agent-" + string(agent.Role),
		AgentRole:  agent.Role,
		Status:     status,
		RiskScore:  risk,
		Confidence: confidence,
		Reasoning:  reasoning,
		Concerns:   concerns,
		Conditions: conditions,
		ReviewedAt: now().UTC().Format(time.RFC3339),
		IsBlocking: blocking,
	}, nil
}
