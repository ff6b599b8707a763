package audit

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/davidahmann/provenant/internal/ledger"
	"github.com/davidahmann/provenant/pkg/types"
)

func newTestService(t *testing.T) (*Service, *ledger.Store, string) {
	t.Helper()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	store := ledger.New(ledger.Options{
		Logger: zap.NewNop(),
		Now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	})
	if err := store.CreateDecision(types.DecisionRecord{
		DecisionID: "d1",
		Title:      "Retention change",
		Status:     types.DecisionApproved,
		Compliance: types.CompliancePending,
	}); err != nil {
		t.Fatalf("create decision: %v", err)
	}
	return NewService(store), store, "d1"
}

func TestRequestAudit(t *testing.T) {
	svc, store, decisionID := newTestService(t)

	auditRecord, err := svc.Request(decisionID, "dpo", "annual review", "GDPR")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if auditRecord.Status != types.AuditPending || auditRecord.Framework != "GDPR" {
		t.Fatalf("audit record: %+v", auditRecord)
	}

	d, _ := store.Decision(decisionID)
	if len(d.AuditHistory) != 1 || d.AuditHistory[0].AuditID != auditRecord.AuditID {
		t.Fatalf("audit history: %+v", d.AuditHistory)
	}

	entries := store.Search(ledger.Filter{Framework: "GDPR"})
	if len(entries) != 1 || entries[0].EventType != types.EventAuditRequested {
		t.Fatalf("ledger entries: %+v", entries)
	}
}

func TestRequestUnknownDecision(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Request("ghost", "dpo", "r", "GDPR"); !errors.Is(err, ledger.ErrDecisionNotFound) {
		t.Fatalf("expected ErrDecisionNotFound, got %v", err)
	}
}

func TestBeginThenComplete(t *testing.T) {
	svc, store, decisionID := newTestService(t)
	requested, _ := svc.Request(decisionID, "dpo", "annual review", "GDPR")

	begun, err := svc.Begin(decisionID, requested.AuditID, "auditor-9")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if begun.Status != types.AuditInProgress || begun.Auditor != "auditor-9" {
		t.Fatalf("begun: %+v", begun)
	}

	findings := []types.AuditFinding{
		{Severity: types.SeverityLow, Category: "documentation", Description: "missing runbook link"},
	}
	completed, err := svc.Complete(decisionID, requested.AuditID, findings, "all clear")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != types.AuditCompleted || completed.CompletedAt == "" || completed.Report != "all clear" {
		t.Fatalf("completed: %+v", completed)
	}

	d, _ := store.Decision(decisionID)
	if d.Compliance != types.ComplianceCompliant {
		t.Fatalf("compliance = %s, want compliant", d.Compliance)
	}
}

func TestSevereFindingsNeedReview(t *testing.T) {
	svc, store, decisionID := newTestService(t)
	requested, _ := svc.Request(decisionID, "dpo", "incident follow-up", "SOX")

	findings := []types.AuditFinding{
		{Severity: types.SeverityHigh, Category: "access", Description: "stale credentials"},
		{Severity: types.SeverityLow, Category: "docs", Description: "typo"},
	}
	if _, err := svc.Complete(decisionID, requested.AuditID, findings, "issues found"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	d, _ := store.Decision(decisionID)
	if d.Compliance != types.ComplianceReviewNeeded {
		t.Fatalf("compliance = %s, want review_needed", d.Compliance)
	}

	entries := store.Search(ledger.Filter{EventTypes: []types.EventType{types.EventAuditCompleted}})
	if len(entries) != 1 {
		t.Fatalf("completed entries = %d", len(entries))
	}
	if got, ok := entries[0].Data["total_findings"].(int); !ok || got != 2 {
		t.Fatalf("total_findings = %v", entries[0].Data["total_findings"])
	}
}

func TestFailAudit(t *testing.T) {
	svc, store, decisionID := newTestService(t)
	requested, _ := svc.Request(decisionID, "dpo", "review", "GDPR")

	failed, err := svc.Fail(decisionID, requested.AuditID, "auditor unavailable")
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if failed.Status != types.AuditFailed || failed.FailReason != "auditor unavailable" {
		t.Fatalf("failed: %+v", failed)
	}

	d, _ := store.Decision(decisionID)
	if d.Compliance != types.ComplianceReviewNeeded {
		t.Fatalf("compliance = %s", d.Compliance)
	}
}

func TestInvalidAuditTransitions(t *testing.T) {
	svc, _, decisionID := newTestService(t)
	requested, _ := svc.Request(decisionID, "dpo", "review", "GDPR")
	if _, err := svc.Complete(decisionID, requested.AuditID, nil, "done"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := svc.Begin(decisionID, requested.AuditID, "x"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("begin after complete: %v", err)
	}
	if _, err := svc.Complete(decisionID, requested.AuditID, nil, "again"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double complete: %v", err)
	}
	if _, err := svc.Fail(decisionID, requested.AuditID, "nope"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("fail after complete: %v", err)
	}
	if _, err := svc.Begin(decisionID, "ghost", "x"); !errors.Is(err, ErrAuditNotFound) {
		t.Fatalf("unknown audit: %v", err)
	}
}
