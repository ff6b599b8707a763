// Package policy decides which reviewer roles must weigh in on a proposal.
// Policies are configuration: trigger conditions matched against the
// proposal's text and metadata, each contributing one required role.
package policy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/davidahmann/provenant/pkg/types"
)

var (
	ErrPolicyNotFound = errors.New("policy not found")
	ErrValidation     = errors.New("invalid policy")
)

var knownRoles = map[types.AgentRole]bool{
	types.RoleRisk:       true,
	types.RoleCompliance: true,
	types.RoleLegal:      true,
	types.RoleFinance:    true,
	types.RoleSecurity:   true,
}

type Registry struct {
	mu       sync.Mutex
	policies map[string]*types.VetoPolicy
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]*types.VetoPolicy)}
}

// Add validates and registers a policy. A missing id is minted.
func (r *Registry) Add(p types.VetoPolicy) (types.VetoPolicy, error) {
	if p.Name == "" {
		return types.VetoPolicy{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(p.TriggerConditions) == 0 {
		return types.VetoPolicy{}, fmt.Errorf("%w: at least one trigger condition is required", ErrValidation)
	}
	for i, cond := range p.TriggerConditions {
		if err := validateTrigger(cond); err != nil {
			return types.VetoPolicy{}, fmt.Errorf("trigger %d: %w", i, err)
		}
	}
	if p.PolicyID == "" {
		p.PolicyID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.policies[p.PolicyID]; !ok {
		r.order = append(r.order, p.PolicyID)
	}
	copied := p
	r.policies[p.PolicyID] = &copied
	return p, nil
}

func validateTrigger(cond types.TriggerCondition) error {
	if !knownRoles[cond.AgentToNotify] {
		return fmt.Errorf("%w: unknown agent role %q", ErrValidation, cond.AgentToNotify)
	}
	switch cond.Type {
	case types.TriggerKeyword:
		if len(cond.Keywords) == 0 {
			return fmt.Errorf("%w: keyword trigger needs keywords", ErrValidation)
		}
	case types.TriggerCategory:
		if len(cond.Categories) == 0 {
			return fmt.Errorf("%w: category trigger needs categories", ErrValidation)
		}
	case types.TriggerAmount, types.TriggerRiskScore:
		if cond.Operator != ">" && cond.Operator != "<" {
			return fmt.Errorf("%w: %s trigger needs operator > or <", ErrValidation, cond.Type)
		}
	default:
		return fmt.Errorf("%w: unknown trigger type %q", ErrValidation, cond.Type)
	}
	return nil
}

// Toggle flips a policy's active flag.
func (r *Registry) Toggle(policyID string, active bool) (types.VetoPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[policyID]
	if !ok {
		return types.VetoPolicy{}, ErrPolicyNotFound
	}
	p.IsActive = active
	return *p, nil
}

// Policy returns one policy by id.
func (r *Registry) Policy(policyID string) (types.VetoPolicy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[policyID]
	if !ok {
		return types.VetoPolicy{}, false
	}
	return *p, true
}

// Policies returns all policies in registration order.
func (r *Registry) Policies() []types.VetoPolicy {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.VetoPolicy, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.policies[id])
	}
	return out
}
