package types

type EventType string

const (
	EventProposalCreated   EventType = "decision.proposed"
	EventContribution      EventType = "agent.contributed"
	EventVoteCast          EventType = "agent.voted"
	EventVetoCast          EventType = "agent.vetoed"
	EventApproval          EventType = "decision.approved"
	EventRejection         EventType = "decision.rejected"
	EventVeto              EventType = "decision.vetoed"
	EventExecution         EventType = "decision.executed"
	EventOutcomeRecorded   EventType = "decision.outcome_recorded"
	EventAuditRequested    EventType = "audit.requested"
	EventAuditCompleted    EventType = "audit.completed"
	EventAuditFailed       EventType = "audit.failed"
	EventProposalSubmitted EventType = "proposal.submitted"
	EventProposalReviewed  EventType = "proposal.reviewed"
	EventOverrideRequested EventType = "override.requested"
	EventOverrideApproved  EventType = "override.approved"
	EventOverrideDenied    EventType = "override.denied"
)

type Vote string

const (
	VoteApprove Vote = "approve"
	VoteReject  Vote = "reject"
	VoteAbstain Vote = "abstain"
	VoteVeto    Vote = "veto"
)

type SensitivityLevel string

const (
	SensitivityPublic       SensitivityLevel = "public"
	SensitivityInternal     SensitivityLevel = "internal"
	SensitivityConfidential SensitivityLevel = "confidential"
	SensitivityRestricted   SensitivityLevel = "restricted"
)

// LedgerEntry is one immutable fact in the hash-linked chain. Only the
// verification fields may change after append.
type LedgerEntry struct {
	EntryID        string    `json:"entry_id"`
	Sequence       int64     `json:"sequence"`
	Timestamp      string    `json:"timestamp"`
	EventType      EventType `json:"event_type"`
	DecisionID     string    `json:"decision_id,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	UserID         *string   `json:"user_id,omitempty"`
	AgentID        *string   `json:"agent_id,omitempty"`

	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Data        map[string]any `json:"data,omitempty"`

	ConfidenceScore *int  `json:"confidence_score,omitempty"`
	Vote            *Vote `json:"vote,omitempty"`
	VoteWeight      *int  `json:"vote_weight,omitempty"`

	PreviousHash string `json:"previous_hash"`
	Hash         string `json:"hash"`

	ComplianceFrameworks []string         `json:"compliance_frameworks,omitempty"`
	RetentionPeriodDays  int              `json:"retention_period_days,omitempty"`
	Sensitivity          SensitivityLevel `json:"sensitivity_level,omitempty"`
	PIIInvolved          bool             `json:"pii_involved"`

	Verified   bool    `json:"verified"`
	VerifiedAt *string `json:"verified_at,omitempty"`
	VerifiedBy *string `json:"verified_by,omitempty"`
}

type ChainVerificationResult struct {
	Valid          bool   `json:"valid"`
	EntriesChecked int    `json:"entries_checked"`
	BrokenAt       *int64 `json:"broken_at,omitempty"`
	BrokenEntryID  string `json:"broken_entry_id,omitempty"`
	Message        string `json:"message"`
}

type HashLink struct {
	Sequence int64  `json:"sequence"`
	Hash     string `json:"hash"`
}

// ExportReport carries everything an external party needs to re-derive and
// check a decision's sub-chain.
type ExportReport struct {
	Schema       string                  `json:"schema"`
	GeneratedAt  string                  `json:"generated_at"`
	Verification ChainVerificationResult `json:"verification"`
	Decision     DecisionRecord          `json:"decision"`
	Entries      []LedgerEntry           `json:"entries"`
	HashChain    []HashLink              `json:"hash_chain"`
	Attestation  *Attestation            `json:"attestation,omitempty"`
}

// Attestation is an Ed25519 signature over the report digest, produced by
// the optional external signing capability.
type Attestation struct {
	KeyID  string `json:"key_id"`
	Digest string `json:"digest"`
	Sig    string `json:"sig"`
}
