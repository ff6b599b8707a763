package types

type DecisionStatus string

const (
	DecisionProposed     DecisionStatus = "proposed"
	DecisionDeliberating DecisionStatus = "deliberating"
	DecisionVoting       DecisionStatus = "voting"
	DecisionApproved     DecisionStatus = "approved"
	DecisionRejected     DecisionStatus = "rejected"
	DecisionVetoed       DecisionStatus = "vetoed"
	DecisionExecuted     DecisionStatus = "executed"
)

type ComplianceStatus string

const (
	CompliancePending      ComplianceStatus = "pending"
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceReviewNeeded ComplianceStatus = "review_needed"
	ComplianceViolation    ComplianceStatus = "violation"
)

// DecisionRecord is the evolving subject that ledger entries narrate. It is
// owned by the ledger store; other packages mutate it only through store
// operations.
type DecisionRecord struct {
	DecisionID  string `json:"decision_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ProposedBy  string `json:"proposed_by"`
	ProposedAt  string `json:"proposed_at"`

	Status DecisionStatus `json:"status"`

	Agents []string     `json:"agents,omitempty"`
	Voters []VoterEntry `json:"voters,omitempty"`

	FinalConfidence   *int   `json:"final_confidence,omitempty"`
	Outcome           string `json:"outcome,omitempty"`
	OutcomeRecordedAt string `json:"outcome_recorded_at,omitempty"`

	LedgerEntries   []string `json:"ledger_entries,omitempty"`
	FirstEntryHash  string   `json:"first_entry_hash,omitempty"`
	LatestEntryHash string   `json:"latest_entry_hash,omitempty"`

	Compliance   ComplianceStatus `json:"compliance_status"`
	AuditHistory []AuditRecord    `json:"audit_history,omitempty"`
}

type VoterEntry struct {
	AgentID    string `json:"agent_id"`
	Vote       Vote   `json:"vote"`
	Confidence int    `json:"confidence"`
	Timestamp  string `json:"timestamp"`
}

type AuditStatus string

const (
	AuditPending    AuditStatus = "pending"
	AuditInProgress AuditStatus = "in_progress"
	AuditCompleted  AuditStatus = "completed"
	AuditFailed     AuditStatus = "failed"
)

type FindingSeverity string

const (
	SeverityCritical FindingSeverity = "critical"
	SeverityHigh     FindingSeverity = "high"
	SeverityMedium   FindingSeverity = "medium"
	SeverityLow      FindingSeverity = "low"
)

type AuditRecord struct {
	AuditID     string         `json:"audit_id"`
	RequestedAt string         `json:"requested_at"`
	RequestedBy string         `json:"requested_by"`
	Reason      string         `json:"reason"`
	Framework   string         `json:"framework"`
	Status      AuditStatus    `json:"status"`
	Auditor     string         `json:"auditor,omitempty"`
	Findings    []AuditFinding `json:"findings,omitempty"`
	CompletedAt string         `json:"completed_at,omitempty"`
	Report      string         `json:"report,omitempty"`
	FailReason  string         `json:"fail_reason,omitempty"`
}

type AuditFinding struct {
	Severity    FindingSeverity `json:"severity"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Remediation string          `json:"remediation,omitempty"`
	Resolved    bool            `json:"resolved"`
}
