package policy

import (
	"strings"

	"github.com/davidahmann/provenant/pkg/types"
)

type Proposal struct {
	Title       string
	Description string
	Category    string
	Amount      *int64
	RiskScore   *int // caller-provided prior estimate, used by risk_score triggers
}

// RequiredReviewers evaluates every active policy's triggers against the
// proposal. Each matching trigger contributes its agent. When nothing
// matches, the risk role is the floor: no proposal is ever reviewer-less.
func (r *Registry) RequiredReviewers(p Proposal) []types.AgentRole {
	text := strings.ToLower(p.Title + " " + p.Description)

	seen := map[types.AgentRole]bool{}
	required := []types.AgentRole{}
	for _, pol := range r.Policies() {
		if !pol.IsActive {
			continue
		}
		for _, cond := range pol.TriggerConditions {
			if !matchTrigger(cond, p, text) {
				continue
			}
			if !seen[cond.AgentToNotify] {
				seen[cond.AgentToNotify] = true
				required = append(required, cond.AgentToNotify)
			}
		}
		for _, role := range pol.RequiredAgents {
			if matchedAny(pol, p, text) && !seen[role] {
				seen[role] = true
				required = append(required, role)
			}
		}
	}

	if len(required) == 0 {
		required = append(required, types.RoleRisk)
	}
	return required
}

// Matched returns every active policy with at least one trigger hit, in
// registration order. Callers use it for auto-veto thresholds and
// escalation paths.
func (r *Registry) Matched(p Proposal) []types.VetoPolicy {
	text := strings.ToLower(p.Title + " " + p.Description)
	out := []types.VetoPolicy{}
	for _, pol := range r.Policies() {
		if pol.IsActive && matchedAny(pol, p, text) {
			out = append(out, pol)
		}
	}
	return out
}

func matchedAny(pol types.VetoPolicy, p Proposal, text string) bool {
	for _, cond := range pol.TriggerConditions {
		if matchTrigger(cond, p, text) {
			return true
		}
	}
	return false
}

func matchTrigger(cond types.TriggerCondition, p Proposal, text string) bool {
	switch cond.Type {
	case types.TriggerKeyword:
		for _, kw := range cond.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return true
			}
		}
		return false
	case types.TriggerCategory:
		for _, c := range cond.Categories {
			if strings.EqualFold(c, p.Category) {
				return true
			}
		}
		return false
	case types.TriggerAmount:
		if p.Amount == nil {
			return false
		}
		return compare(*p.Amount, cond.Operator, cond.Threshold)
	case types.TriggerRiskScore:
		if p.RiskScore == nil {
			return false
		}
		return compare(int64(*p.RiskScore), cond.Operator, cond.Threshold)
	default:
		return false
	}
}

func compare(value int64, operator string, threshold int64) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	default:
		return false
	}
}
