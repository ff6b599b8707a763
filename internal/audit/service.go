// Package audit runs compliance audits against decisions. Audit records
// live on the decision's audit history; requesting, completing, and
// failing an audit each append a ledger entry tagged with the relevant
// framework.
package audit

import (
	"errors"
	"fmt"
	"sync"

	"github.com/davidahmann/provenant/internal/ledger"
	"github.com/davidahmann/provenant/pkg/types"
)

var (
	ErrAuditNotFound     = errors.New("audit not found")
	ErrInvalidTransition = errors.New("invalid audit transition")
)

type Service struct {
	mu    sync.Mutex
	store *ledger.Store
}

func NewService(store *ledger.Store) *Service {
	return &Service{store: store}
}

// Request opens a pending audit against a decision.
func (s *Service) Request(decisionID, requestedBy, reason, framework string) (types.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.store.Decision(decisionID)
	if !ok {
		return types.AuditRecord{}, ledger.ErrDecisionNotFound
	}

	auditRecord := types.AuditRecord{
		AuditID:     s.store.NewID(),
		RequestedAt: s.store.Now(),
		RequestedBy: requestedBy,
		Reason:      reason,
		Framework:   framework,
		Status:      types.AuditPending,
	}
	record.AuditHistory = append(record.AuditHistory, auditRecord)
	if err := s.store.PutDecision(record); err != nil {
		return types.AuditRecord{}, err
	}

	if _, err := s.store.Append(ledger.AppendInput{
		EventType:   types.EventAuditRequested,
		DecisionID:  decisionID,
		Title:       "Audit requested: " + framework,
		Description: reason,
		Data:        map[string]any{"audit_id": auditRecord.AuditID, "requested_by": requestedBy},
		Options:     ledger.EntryOptions{ComplianceFrameworks: []string{framework}},
	}); err != nil {
		return types.AuditRecord{}, err
	}
	return auditRecord, nil
}

// Begin moves a pending audit to in_progress and names the auditor.
func (s *Service) Begin(decisionID, auditID, auditor string) (types.AuditRecord, error) {
	return s.transition(decisionID, auditID, func(a *types.AuditRecord) error {
		if a.Status != types.AuditPending {
			return fmt.Errorf("%w: begin from %q", ErrInvalidTransition, a.Status)
		}
		a.Status = types.AuditInProgress
		a.Auditor = auditor
		return nil
	}, nil)
}

// Complete closes an audit with findings and derives the decision's
// compliance status: review_needed when any finding is critical or high,
// compliant otherwise.
func (s *Service) Complete(decisionID, auditID string, findings []types.AuditFinding, report string) (types.AuditRecord, error) {
	completedAt := ""
	return s.transition(decisionID, auditID, func(a *types.AuditRecord) error {
		if a.Status != types.AuditPending && a.Status != types.AuditInProgress {
			return fmt.Errorf("%w: complete from %q", ErrInvalidTransition, a.Status)
		}
		completedAt = s.store.Now()
		a.Status = types.AuditCompleted
		a.CompletedAt = completedAt
		a.Findings = findings
		a.Report = report
		return nil
	}, func(d *types.DecisionRecord, a types.AuditRecord) ledger.AppendInput {
		severe := 0
		counts := map[string]any{}
		for _, f := range findings {
			key := string(f.Severity)
			n, _ := counts[key].(int)
			counts[key] = n + 1
			if f.Severity == types.SeverityCritical || f.Severity == types.SeverityHigh {
				severe++
			}
		}
		if severe > 0 {
			d.Compliance = types.ComplianceReviewNeeded
		} else {
			d.Compliance = types.ComplianceCompliant
		}
		return ledger.AppendInput{
			EventType:  types.EventAuditCompleted,
			DecisionID: decisionID,
			Title:      "Audit completed: " + a.Framework,
			Data: map[string]any{
				"audit_id":       auditID,
				"finding_counts": counts,
				"total_findings": len(findings),
			},
			Options: ledger.EntryOptions{ComplianceFrameworks: []string{a.Framework}},
		}
	})
}

// Fail abandons an audit. The decision drops to review_needed since the
// requested assurance was never produced.
func (s *Service) Fail(decisionID, auditID, reason string) (types.AuditRecord, error) {
	return s.transition(decisionID, auditID, func(a *types.AuditRecord) error {
		if a.Status != types.AuditPending && a.Status != types.AuditInProgress {
			return fmt.Errorf("%w: fail from %q", ErrInvalidTransition, a.Status)
		}
		a.Status = types.AuditFailed
		a.FailReason = reason
		return nil
	}, func(d *types.DecisionRecord, a types.AuditRecord) ledger.AppendInput {
		d.Compliance = types.ComplianceReviewNeeded
		return ledger.AppendInput{
			EventType:   types.EventAuditFailed,
			DecisionID:  decisionID,
			Title:       "Audit failed: " + a.Framework,
			Description: reason,
			Data:        map[string]any{"audit_id": auditID},
			Options:     ledger.EntryOptions{ComplianceFrameworks: []string{a.Framework}},
		}
	})
}

// transition applies mutate to one audit record and, when entry is
// non-nil, lets it adjust the decision and describe the ledger entry to
// append. Nothing is stored if mutate fails.
func (s *Service) transition(
	decisionID, auditID string,
	mutate func(*types.AuditRecord) error,
	entry func(*types.DecisionRecord, types.AuditRecord) ledger.AppendInput,
) (types.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.store.Decision(decisionID)
	if !ok {
		return types.AuditRecord{}, ledger.ErrDecisionNotFound
	}

	idx := -1
	for i := range record.AuditHistory {
		if record.AuditHistory[i].AuditID == auditID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return types.AuditRecord{}, ErrAuditNotFound
	}

	if err := mutate(&record.AuditHistory[idx]); err != nil {
		return types.AuditRecord{}, err
	}

	var appendInput *ledger.AppendInput
	if entry != nil {
		in := entry(&record, record.AuditHistory[idx])
		appendInput = &in
	}

	if err := s.store.PutDecision(record); err != nil {
		return types.AuditRecord{}, err
	}
	if appendInput != nil {
		if _, err := s.store.Append(*appendInput); err != nil {
			return types.AuditRecord{}, err
		}
	}
	return record.AuditHistory[idx], nil
}
