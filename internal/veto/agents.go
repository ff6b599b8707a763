package veto

import "github.com/davidahmann/provenant/pkg/types"

// DefaultAgents is the static reviewer registry. Roles are code, not
// persisted configuration: a role's threshold and blocking power change by
// deploy, not by API call.
func DefaultAgents() map[types.AgentRole]types.VetoAgent {
	return map[types.AgentRole]types.VetoAgent{
		types.RoleRisk: {
			Role:              types.RoleRisk,
			Jurisdiction:      []string{"operational", "strategic"},
			VetoThreshold:     70,
			CanBlockAutomatic: true,
		},
		types.RoleCompliance: {
			Role:                  types.RoleCompliance,
			Jurisdiction:          []string{"privacy", "regulatory", "data_handling"},
			VetoThreshold:         60,
			CanBlockAutomatic:     true,
			RequiresHumanOverride: true,
		},
		types.RoleLegal: {
			Role:              types.RoleLegal,
			Jurisdiction:      []string{"contractual", "liability"},
			VetoThreshold:     65,
			CanBlockAutomatic: true,
		},
		types.RoleFinance: {
			Role:          types.RoleFinance,
			Jurisdiction:  []string{"budget", "spend"},
			VetoThreshold: 75,
		},
		types.RoleSecurity: {
			Role:              types.RoleSecurity,
			Jurisdiction:      []string{"infrastructure", "access"},
			VetoThreshold:     70,
			CanBlockAutomatic: true,
		},
	}
}
