package decision

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/davidahmann/provenant/internal/checksum"
	"github.com/davidahmann/provenant/internal/ledger"
	"github.com/davidahmann/provenant/pkg/types"
)

func newTestService() (*Service, *ledger.Store) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	store := ledger.New(ledger.Options{
		Logger: zap.NewNop(),
		Now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	})
	return NewService(store), store
}

func TestQ1BudgetScenario(t *testing.T) {
	svc, store := newTestService()

	created, err := svc.Create(CreateInput{Title: "Q1 Budget", ProposedBy: "cfo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != types.DecisionProposed {
		t.Fatalf("status = %s, want proposed", created.Status)
	}
	if created.FirstEntryHash == "" || created.FirstEntryHash != created.LatestEntryHash {
		t.Fatalf("first/latest hash mismatch: %s vs %s", created.FirstEntryHash, created.LatestEntryHash)
	}

	if _, err := svc.RecordVote(created.DecisionID, "agent-1", types.VoteApprove, 80, "numbers look right"); err != nil {
		t.Fatalf("vote: %v", err)
	}

	final, err := svc.Finalize(created.DecisionID, types.DecisionApproved, 85)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final.Status != types.DecisionApproved {
		t.Fatalf("status = %s, want approved", final.Status)
	}
	if final.FinalConfidence == nil || *final.FinalConfidence != 85 {
		t.Fatalf("final confidence = %v, want 85", final.FinalConfidence)
	}
	if len(final.Voters) != 1 || final.Voters[0].Vote != types.VoteApprove || final.Voters[0].Confidence != 80 {
		t.Fatalf("voters = %+v", final.Voters)
	}

	entries := store.EntriesForDecision(created.DecisionID)
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	wantTypes := []types.EventType{types.EventProposalCreated, types.EventVoteCast, types.EventApproval}
	previous := checksum.Genesis
	for i, e := range entries {
		if e.EventType != wantTypes[i] {
			t.Fatalf("entry %d type = %s, want %s", i, e.EventType, wantTypes[i])
		}
		if e.PreviousHash != previous {
			t.Fatalf("entry %d previous_hash = %s, want %s", i, e.PreviousHash, previous)
		}
		previous = e.Hash
	}

	result, err := store.VerifyChain(t.Context())
	if err != nil || !result.Valid {
		t.Fatalf("chain invalid: %+v err=%v", result, err)
	}
}

func TestMutationsRequireExistingDecision(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.RecordDeliberation("ghost", "a", "text", 50); !errors.Is(err, ledger.ErrDecisionNotFound) {
		t.Fatalf("deliberation: %v", err)
	}
	if _, err := svc.RecordVote("ghost", "a", types.VoteApprove, 50, ""); !errors.Is(err, ledger.ErrDecisionNotFound) {
		t.Fatalf("vote: %v", err)
	}
	if _, err := svc.Finalize("ghost", types.DecisionApproved, 50); !errors.Is(err, ledger.ErrDecisionNotFound) {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := svc.RecordOutcome("ghost", "done", nil); !errors.Is(err, ledger.ErrDecisionNotFound) {
		t.Fatalf("outcome: %v", err)
	}
	if _, err := svc.Execute("ghost", "ops"); !errors.Is(err, ledger.ErrDecisionNotFound) {
		t.Fatalf("execute: %v", err)
	}
}

func TestDeliberationMovesToDeliberating(t *testing.T) {
	svc, store := newTestService()
	created, _ := svc.Create(CreateInput{Title: "Hiring plan", ProposedBy: "cto"})

	entry, err := svc.RecordDeliberation(created.DecisionID, "agent-2", "needs headcount detail", 60)
	if err != nil {
		t.Fatalf("deliberation: %v", err)
	}
	if entry.EventType != types.EventContribution {
		t.Fatalf("event type = %s", entry.EventType)
	}
	if entry.ConfidenceScore == nil || *entry.ConfidenceScore != 60 {
		t.Fatalf("confidence = %v", entry.ConfidenceScore)
	}

	d, _ := store.Decision(created.DecisionID)
	if d.Status != types.DecisionDeliberating {
		t.Fatalf("status = %s, want deliberating", d.Status)
	}
}

func TestLateContributionDoesNotRegress(t *testing.T) {
	svc, store := newTestService()
	created, _ := svc.Create(CreateInput{Title: "Vendor switch", ProposedBy: "ops"})
	if _, err := svc.Finalize(created.DecisionID, types.DecisionRejected, 40); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if _, err := svc.RecordDeliberation(created.DecisionID, "agent-3", "for the record", 10); err != nil {
		t.Fatalf("late deliberation: %v", err)
	}

	d, _ := store.Decision(created.DecisionID)
	if d.Status != types.DecisionRejected {
		t.Fatalf("late contribution regressed status to %s", d.Status)
	}
	if got := len(store.EntriesForDecision(created.DecisionID)); got != 3 {
		t.Fatalf("entries = %d, want 3", got)
	}
}

func TestVetoVoteGetsVetoEvent(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Create(CreateInput{Title: "Risky launch", ProposedBy: "pm"})

	entry, err := svc.RecordVote(created.DecisionID, "agent-4", types.VoteVeto, 95, "unacceptable exposure")
	if err != nil {
		t.Fatalf("veto vote: %v", err)
	}
	if entry.EventType != types.EventVetoCast {
		t.Fatalf("event type = %s, want %s", entry.EventType, types.EventVetoCast)
	}
	if entry.Vote == nil || *entry.Vote != types.VoteVeto {
		t.Fatalf("vote field = %v", entry.Vote)
	}
}

func TestRecordVoteRejectsUnknownVote(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Create(CreateInput{Title: "X", ProposedBy: "y"})
	if _, err := svc.RecordVote(created.DecisionID, "a", types.Vote("maybe"), 10, ""); !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOutcomeRequiresFinalization(t *testing.T) {
	svc, store := newTestService()
	created, _ := svc.Create(CreateInput{Title: "Data center move", ProposedBy: "ops"})

	if _, err := svc.RecordOutcome(created.DecisionID, "went fine", nil); !errors.Is(err, ErrNotFinalized) {
		t.Fatalf("expected ErrNotFinalized, got %v", err)
	}

	if _, err := svc.Finalize(created.DecisionID, types.DecisionApproved, 75); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	got, err := svc.RecordOutcome(created.DecisionID, "completed under budget", map[string]any{"savings": 12000})
	if err != nil {
		t.Fatalf("outcome: %v", err)
	}
	if got.Outcome != "completed under budget" || got.OutcomeRecordedAt == "" {
		t.Fatalf("outcome fields: %+v", got)
	}

	entries := store.EntriesForDecision(created.DecisionID)
	last := entries[len(entries)-1]
	if last.EventType != types.EventOutcomeRecorded {
		t.Fatalf("last event = %s", last.EventType)
	}
}

func TestExecuteOnlyFromApproved(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Create(CreateInput{Title: "Rollout", ProposedBy: "ops"})

	if _, err := svc.Execute(created.DecisionID, "ops"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := svc.Finalize(created.DecisionID, types.DecisionApproved, 90); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	got, err := svc.Execute(created.DecisionID, "ops")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got.Status != types.DecisionExecuted {
		t.Fatalf("status = %s, want executed", got.Status)
	}
}

func TestFinalizeRejectsNonTerminalStatus(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Create(CreateInput{Title: "X", ProposedBy: "y"})
	if _, err := svc.Finalize(created.DecisionID, types.DecisionVoting, 10); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
