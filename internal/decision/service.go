// Package decision is the lifecycle layer over the ledger store: proposing,
// deliberating, voting, finalizing, executing, and recording outcomes for a
// decision record. Every state transition appends at least one ledger
// entry. Authorization is a caller concern; nothing here checks who is
// allowed to act on a decision.
package decision

import (
	"errors"
	"fmt"
	"sync"

	"github.com/davidahmann/provenant/internal/ledger"
	"github.com/davidahmann/provenant/pkg/types"
)

var (
	ErrNotFinalized      = errors.New("decision is not finalized")
	ErrInvalidStatus     = errors.New("invalid terminal status")
	ErrInvalidTransition = errors.New("invalid decision transition")
)

type Service struct {
	mu    sync.Mutex
	store *ledger.Store
}

func NewService(store *ledger.Store) *Service {
	return &Service{store: store}
}

type CreateInput struct {
	Title          string
	Description    string
	ProposedBy     string
	Agents         []string
	OrganizationID string
}

// Create registers a decision in status proposed and appends its
// decision.proposed entry, which becomes both the first and latest entry
// hash of the record.
func (s *Service) Create(in CreateInput) (types.DecisionRecord, error) {
	if in.Title == "" {
		return types.DecisionRecord{}, fmt.Errorf("%w: title is required", ledger.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := types.DecisionRecord{
		DecisionID:  s.store.NewID(),
		Title:       in.Title,
		Description: in.Description,
		ProposedBy:  in.ProposedBy,
		ProposedAt:  s.store.Now(),
		Status:      types.DecisionProposed,
		Agents:      in.Agents,
		Compliance:  types.CompliancePending,
	}
	if err := s.store.CreateDecision(record); err != nil {
		return types.DecisionRecord{}, err
	}

	data := map[string]any{"proposed_by": in.ProposedBy}
	if len(in.Agents) > 0 {
		data["agents"] = in.Agents
	}
	if _, err := s.store.Append(ledger.AppendInput{
		EventType:   types.EventProposalCreated,
		DecisionID:  record.DecisionID,
		Title:       "Decision proposed: " + in.Title,
		Description: in.Description,
		Data:        data,
		Options:     ledger.EntryOptions{OrganizationID: in.OrganizationID},
	}); err != nil {
		return types.DecisionRecord{}, err
	}

	got, _ := s.store.Decision(record.DecisionID)
	return got, nil
}

// RecordDeliberation appends an agent contribution. The decision moves to
// deliberating from proposed; later states are left alone so late
// contributions never regress the lifecycle.
func (s *Service) RecordDeliberation(decisionID, agentID, text string, confidence int) (types.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.store.Decision(decisionID)
	if !ok {
		return types.LedgerEntry{}, ledger.ErrDecisionNotFound
	}

	if record.Status == types.DecisionProposed {
		record.Status = types.DecisionDeliberating
		if err := s.store.PutDecision(record); err != nil {
			return types.LedgerEntry{}, err
		}
	}

	return s.store.Append(ledger.AppendInput{
		EventType:   types.EventContribution,
		DecisionID:  decisionID,
		Title:       "Deliberation contribution",
		Description: text,
		Options: ledger.EntryOptions{
			AgentID:         &agentID,
			ConfidenceScore: &confidence,
		},
	})
}

// RecordVote appends a vote to the decision's voter list and the ledger.
// A veto vote is recorded as its own event type.
func (s *Service) RecordVote(decisionID, agentID string, vote types.Vote, confidence int, reasoning string) (types.LedgerEntry, error) {
	switch vote {
	case types.VoteApprove, types.VoteReject, types.VoteAbstain, types.VoteVeto:
	default:
		return types.LedgerEntry{}, fmt.Errorf("%w: unknown vote %q", ledger.ErrValidation, vote)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.store.Decision(decisionID)
	if !ok {
		return types.LedgerEntry{}, ledger.ErrDecisionNotFound
	}

	timestamp := s.store.Now()
	if record.Status == types.DecisionProposed || record.Status == types.DecisionDeliberating {
		record.Status = types.DecisionVoting
	}
	record.Voters = append(record.Voters, types.VoterEntry{
		AgentID:    agentID,
		Vote:       vote,
		Confidence: confidence,
		Timestamp:  timestamp,
	})
	if err := s.store.PutDecision(record); err != nil {
		return types.LedgerEntry{}, err
	}

	eventType := types.EventVoteCast
	title := "Vote cast: " + string(vote)
	if vote == types.VoteVeto {
		eventType = types.EventVetoCast
		title = "Veto cast"
	}

	voteCopy := vote
	return s.store.Append(ledger.AppendInput{
		EventType:   eventType,
		DecisionID:  decisionID,
		Title:       title,
		Description: reasoning,
		Options: ledger.EntryOptions{
			AgentID:         &agentID,
			Vote:            &voteCopy,
			ConfidenceScore: &confidence,
		},
	})
}

// Finalize settles the decision into one of the three terminal statuses and
// appends the matching terminal entry.
func (s *Service) Finalize(decisionID string, status types.DecisionStatus, finalConfidence int) (types.DecisionRecord, error) {
	var eventType types.EventType
	switch status {
	case types.DecisionApproved:
		eventType = types.EventApproval
	case types.DecisionRejected:
		eventType = types.EventRejection
	case types.DecisionVetoed:
		eventType = types.EventVeto
	default:
		return types.DecisionRecord{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.store.Decision(decisionID)
	if !ok {
		return types.DecisionRecord{}, ledger.ErrDecisionNotFound
	}

	switch record.Status {
	case types.DecisionProposed, types.DecisionDeliberating, types.DecisionVoting:
	default:
		return types.DecisionRecord{}, fmt.Errorf("%w: already %q", ErrInvalidTransition, record.Status)
	}

	record.Status = status
	record.FinalConfidence = &finalConfidence
	if err := s.store.PutDecision(record); err != nil {
		return types.DecisionRecord{}, err
	}

	if _, err := s.store.Append(ledger.AppendInput{
		EventType:  eventType,
		DecisionID: decisionID,
		Title:      "Decision finalized: " + string(status),
		Options:    ledger.EntryOptions{ConfidenceScore: &finalConfidence},
	}); err != nil {
		return types.DecisionRecord{}, err
	}

	got, _ := s.store.Decision(decisionID)
	return got, nil
}

// RecordOutcome captures what actually happened after finalization.
func (s *Service) RecordOutcome(decisionID, outcome string, metrics map[string]any) (types.DecisionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.store.Decision(decisionID)
	if !ok {
		return types.DecisionRecord{}, ledger.ErrDecisionNotFound
	}

	switch record.Status {
	case types.DecisionApproved, types.DecisionRejected, types.DecisionVetoed, types.DecisionExecuted:
	default:
		return types.DecisionRecord{}, fmt.Errorf("%w: status %q", ErrNotFinalized, record.Status)
	}

	record.Outcome = outcome
	record.OutcomeRecordedAt = s.store.Now()
	if err := s.store.PutDecision(record); err != nil {
		return types.DecisionRecord{}, err
	}

	if _, err := s.store.Append(ledger.AppendInput{
		EventType:   types.EventOutcomeRecorded,
		DecisionID:  decisionID,
		Title:       "Outcome recorded",
		Description: outcome,
		Data:        metrics,
	}); err != nil {
		return types.DecisionRecord{}, err
	}

	got, _ := s.store.Decision(decisionID)
	return got, nil
}

// Execute marks an approved decision as carried out. Only approved
// decisions can execute.
func (s *Service) Execute(decisionID, executedBy string) (types.DecisionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.store.Decision(decisionID)
	if !ok {
		return types.DecisionRecord{}, ledger.ErrDecisionNotFound
	}
	if record.Status != types.DecisionApproved {
		return types.DecisionRecord{}, fmt.Errorf("%w: cannot execute from %q", ErrInvalidTransition, record.Status)
	}

	record.Status = types.DecisionExecuted
	if err := s.store.PutDecision(record); err != nil {
		return types.DecisionRecord{}, err
	}

	if _, err := s.store.Append(ledger.AppendInput{
		EventType:  types.EventExecution,
		DecisionID: decisionID,
		Title:      "Decision executed",
		Options:    ledger.EntryOptions{UserID: &executedBy},
	}); err != nil {
		return types.DecisionRecord{}, err
	}

	got, _ := s.store.Decision(decisionID)
	return got, nil
}
