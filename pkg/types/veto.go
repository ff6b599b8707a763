package types

type VetoStatus string

const (
	VetoPending           VetoStatus = "pending"
	VetoApproved          VetoStatus = "approved"
	VetoVetoed            VetoStatus = "vetoed"
	VetoOverrideRequested VetoStatus = "override_requested"
)

type ReviewStatus string

const (
	ReviewApproved    ReviewStatus = "approved"
	ReviewVetoed      ReviewStatus = "vetoed"
	ReviewConditional ReviewStatus = "conditional"
)

type AgentRole string

const (
	RoleRisk       AgentRole = "risk"
	RoleCompliance AgentRole = "compliance"
	RoleLegal      AgentRole = "legal"
	RoleFinance    AgentRole = "finance"
	RoleSecurity   AgentRole = "security"
)

// VetoDecision is a proposal under governance review. It is conceptually
// parallel to DecisionRecord but lives in the veto engine.
type VetoDecision struct {
	ProposalID  string `json:"proposal_id"`
	Title       string `json:"proposal_title"`
	Description string `json:"proposal_description,omitempty"`
	Category    string `json:"category,omitempty"`
	Amount      *int64 `json:"amount,omitempty"`
	SubmittedBy string `json:"submitted_by"`
	SubmittedAt string `json:"submitted_at"`

	Status  VetoStatus   `json:"status"`
	Reviews []VetoReview `json:"reviews,omitempty"`

	FinalDecision string `json:"final_decision,omitempty"`
	DecidedAt     string `json:"decided_at,omitempty"`
	DecidedBy     string `json:"decided_by,omitempty"`

	OverrideRequested   bool   `json:"override_requested"`
	OverrideRequestedBy string `json:"override_requested_by,omitempty"`
	OverrideReason      string `json:"override_reason,omitempty"`
	OverrideApproved    bool   `json:"override_approved"`
	OverrideApprovedBy  string `json:"override_approved_by,omitempty"`
}

// VetoReview is one reviewer role's verdict on a proposal.
type VetoReview struct {
	AgentID    string          `json:"agent_id"`
	AgentRole  AgentRole       `json:"agent_role"`
	Status     ReviewStatus    `json:"status"`
	RiskScore  int             `json:"risk_score"`
	Confidence int             `json:"confidence"`
	Reasoning  string          `json:"reasoning,omitempty"`
	Concerns   []ReviewConcern `json:"concerns,omitempty"`
	Conditions []string        `json:"conditions,omitempty"`
	ReviewedAt string          `json:"reviewed_at"`
	IsBlocking bool            `json:"is_blocking"`
}

type ReviewConcern struct {
	Category    string          `json:"category"`
	Severity    FindingSeverity `json:"severity"`
	Description string          `json:"description"`
	Mitigation  string          `json:"mitigation,omitempty"`
}

type TriggerType string

const (
	TriggerKeyword   TriggerType = "keyword"
	TriggerAmount    TriggerType = "amount"
	TriggerCategory  TriggerType = "category"
	TriggerRiskScore TriggerType = "risk_score"
)

type TriggerCondition struct {
	Type          TriggerType `json:"type" yaml:"type"`
	Operator      string      `json:"operator,omitempty" yaml:"operator,omitempty"`
	Keywords      []string    `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Categories    []string    `json:"categories,omitempty" yaml:"categories,omitempty"`
	Threshold     int64       `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	AgentToNotify AgentRole   `json:"agent_to_notify" yaml:"agent_to_notify"`
}

// VetoPolicy is a configured rule determining which reviewer roles must
// evaluate a proposal.
type VetoPolicy struct {
	PolicyID          string             `json:"policy_id" yaml:"policy_id"`
	Name              string             `json:"name" yaml:"name"`
	Description       string             `json:"description,omitempty" yaml:"description,omitempty"`
	TriggerConditions []TriggerCondition `json:"trigger_conditions" yaml:"trigger_conditions"`
	RequiredAgents    []AgentRole        `json:"required_agents,omitempty" yaml:"required_agents,omitempty"`
	AutoVetoThreshold int                `json:"auto_veto_threshold,omitempty" yaml:"auto_veto_threshold,omitempty"`
	EscalationPath    string             `json:"escalation_path,omitempty" yaml:"escalation_path,omitempty"`
	IsActive          bool               `json:"is_active" yaml:"is_active"`
}

// VetoAgent is a static reviewer role definition. The registry is code, not
// persisted state.
type VetoAgent struct {
	Role                  AgentRole `json:"role"`
	Jurisdiction          []string  `json:"jurisdiction"`
	VetoThreshold         int       `json:"veto_threshold"`
	CanBlockAutomatic     bool      `json:"can_block_automatic"`
	RequiresHumanOverride bool      `json:"requires_human_override"`
}
