package veto

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davidahmann/provenant/internal/ledger"
	"github.com/davidahmann/provenant/internal/policy"
	"github.com/davidahmann/provenant/pkg/types"
)

// Escalator receives proposals the engine could not decide on its own.
// Delivery is fire-and-forget from the engine's point of view.
type Escalator interface {
	Escalate(proposalID, path, reason string)
}

// Options configures an Engine. Store and Policies are required.
type Options struct {
	Store     *ledger.Store
	Policies  *policy.Registry
	Agents    map[types.AgentRole]types.VetoAgent
	Reviewer  Reviewer
	Escalator Escalator
	Logger    *zap.Logger
	Now       func() time.Time
}

// Engine runs the multi-reviewer veto workflow: policy evaluation selects
// the roles, each role reviews independently, and the aggregate verdict is
// a hard gate. Every step is recorded in the ledger.
type Engine struct {
	mu        sync.Mutex
	store     *ledger.Store
	policies  *policy.Registry
	agents    map[types.AgentRole]types.VetoAgent
	reviewer  Reviewer
	escalator Escalator
	log       *zap.Logger
	now       func() time.Time

	proposals map[string]*types.VetoDecision
	order     []string
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		store:     opts.Store,
		policies:  opts.Policies,
		agents:    opts.Agents,
		reviewer:  opts.Reviewer,
		escalator: opts.Escalator,
		log:       opts.Logger,
		now:       opts.Now,
		proposals: make(map[string]*types.VetoDecision),
	}
	if e.agents == nil {
		e.agents = DefaultAgents()
	}
	if e.reviewer == nil {
		e.reviewer = &AnalysisReviewer{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

type SubmitInput struct {
	Title       string
	Description string
	Category    string
	Amount      *int64
	RiskScore   *int
	SubmittedBy string
}

// SubmitProposal runs the full review round synchronously and returns the
// decided proposal. Reviews run in parallel; the aggregate is a hard gate,
// one blocking veto decides the whole proposal.
func (e *Engine) SubmitProposal(ctx context.Context, in SubmitInput) (types.VetoDecision, error) {
	if in.Title == "" {
		return types.VetoDecision{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.SubmittedBy == "" {
		return types.VetoDecision{}, fmt.Errorf("%w: submitted_by is required", ErrValidation)
	}

	prop := policy.Proposal{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Amount:      in.Amount,
		RiskScore:   in.RiskScore,
	}
	roles := e.policies.RequiredReviewers(prop)
	matched := e.policies.Matched(prop)

	d := &types.VetoDecision{
		ProposalID:  e.store.NewID(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Amount:      in.Amount,
		SubmittedBy: in.SubmittedBy,
		SubmittedAt: e.now().UTC().Format(time.RFC3339),
		Status:      types.VetoPending,
	}

	roleNames := make([]any, 0, len(roles))
	for _, r := range roles {
		roleNames = append(roleNames, string(r))
	}
	submitter := in.SubmittedBy
	if _, err := e.store.Append(ledger.AppendInput{
		EventType:   types.EventProposalSubmitted,
		DecisionID:  d.ProposalID,
		Title:       in.Title,
		Description: in.Description,
		Data: map[string]any{
			"category":           in.Category,
			"required_reviewers": roleNames,
		},
		Options: ledger.EntryOptions{UserID: &submitter},
	}); err != nil {
		return types.VetoDecision{}, err
	}

	reviews := e.runReviews(ctx, roles, prop)
	d.Reviews = reviews

	for i := range reviews {
		rv := reviews[i]
		agentID := rv.AgentID
		if _, err := e.store.Append(ledger.AppendInput{
			EventType:  types.EventProposalReviewed,
			DecisionID: d.ProposalID,
			Title:      fmt.Sprintf("%s review: %s", rv.AgentRole, rv.Status),
			Data: map[string]any{
				"risk_score":  rv.RiskScore,
				"is_blocking": rv.IsBlocking,
				"status":      string(rv.Status),
			},
			Options: ledger.EntryOptions{AgentID: &agentID, ConfidenceScore: &reviews[i].Confidence},
		}); err != nil {
			e.log.Error("review entry append failed", zap.String("proposal_id", d.ProposalID), zap.Error(err))
		}
	}

	e.aggregate(d, matched)

	e.mu.Lock()
	e.proposals[d.ProposalID] = d
	e.order = append(e.order, d.ProposalID)
	out := *d
	e.mu.Unlock()

	e.recordVerdict(&out)
	switch {
	case out.Status == types.VetoPending:
		e.escalate(&out, matched, "mixed review outcome requires a human decision")
	case out.Status == types.VetoVetoed && e.vetoNeedsHumanOverride(&out):
		e.escalate(&out, matched, "veto can only be lifted by human override review")
	}
	return out, nil
}

// vetoNeedsHumanOverride reports whether the veto came from an agent whose
// block only a human can lift.
func (e *Engine) vetoNeedsHumanOverride(d *types.VetoDecision) bool {
	for _, rv := range d.Reviews {
		if !rv.IsBlocking || rv.Status != types.ReviewVetoed {
			continue
		}
		if agent, ok := e.agents[rv.AgentRole]; ok && agent.RequiresHumanOverride {
			return true
		}
	}
	return false
}

// runReviews fans out one review per role and joins on all of them. A role
// missing from the registry is skipped with a log line rather than failing
// the round.
func (e *Engine) runReviews(ctx context.Context, roles []types.AgentRole, p policy.Proposal) []types.VetoReview {
	type slot struct {
		review types.VetoReview
		ok     bool
	}
	slots := make([]slot, len(roles))

	var wg sync.WaitGroup
	for i, role := range roles {
		agent, ok := e.agents[role]
		if !ok {
			e.log.Warn("no registered agent for role", zap.String("role", string(role)))
			continue
		}
		wg.Add(1)
		go func(i int, agent types.VetoAgent) {
			defer wg.Done()
			review, err := e.reviewer.Review(ctx, agent, p)
			if err != nil {
				e.log.Error("review failed", zap.String("role", string(agent.Role)), zap.Error(err))
				return
			}
			slots[i] = slot{review: review, ok: true}
		}(i, agent)
	}
	wg.Wait()

	reviews := make([]types.VetoReview, 0, len(roles))
	for _, s := range slots {
		if s.ok {
			reviews = append(reviews, s.review)
		}
	}
	return reviews
}

// aggregate applies the hard gate. One blocking veto decides the proposal;
// unanimous unqualified approval approves it; anything in between,
// including a blocking review that did not veto, stays pending for a human
// to resolve.
func (e *Engine) aggregate(d *types.VetoDecision, matched []types.VetoPolicy) {
	autoVeto := 0
	for _, pol := range matched {
		if pol.AutoVetoThreshold > 0 && (autoVeto == 0 || pol.AutoVetoThreshold < autoVeto) {
			autoVeto = pol.AutoVetoThreshold
		}
	}

	allApproved := len(d.Reviews) > 0
	for _, rv := range d.Reviews {
		if rv.IsBlocking && rv.Status == types.ReviewVetoed {
			d.Status = types.VetoVetoed
			d.FinalDecision = fmt.Sprintf("vetoed by %s reviewer (risk %d)", rv.AgentRole, rv.RiskScore)
			d.DecidedAt = e.now().UTC().Format(time.RFC3339)
			d.DecidedBy = rv.AgentID
			return
		}
		if autoVeto > 0 && rv.RiskScore >= autoVeto {
			d.Status = types.VetoVetoed
			d.FinalDecision = fmt.Sprintf("auto-vetoed: %s risk %d at or above policy threshold %d", rv.AgentRole, rv.RiskScore, autoVeto)
			d.DecidedAt = e.now().UTC().Format(time.RFC3339)
			d.DecidedBy = rv.AgentID
			return
		}
		if rv.IsBlocking || rv.Status != types.ReviewApproved {
			allApproved = false
		}
	}

	if allApproved {
		d.Status = types.VetoApproved
		d.FinalDecision = "approved by all required reviewers"
		d.DecidedAt = e.now().UTC().Format(time.RFC3339)
		d.DecidedBy = "veto-engine"
	}
}

func (e *Engine) recordVerdict(d *types.VetoDecision) {
	var event types.EventType
	switch d.Status {
	case types.VetoApproved:
		event = types.EventApproval
	case types.VetoVetoed:
		event = types.EventVeto
	default:
		return
	}
	if _, err := e.store.Append(ledger.AppendInput{
		EventType:  event,
		DecisionID: d.ProposalID,
		Title:      d.Title,
		Data:       map[string]any{"final_decision": d.FinalDecision},
	}); err != nil {
		e.log.Error("verdict entry append failed", zap.String("proposal_id", d.ProposalID), zap.Error(err))
	}
}

func (e *Engine) escalate(d *types.VetoDecision, matched []types.VetoPolicy, reason string) {
	if e.escalator == nil {
		return
	}
	path := "governance-review"
	for _, pol := range matched {
		if pol.EscalationPath != "" {
			path = pol.EscalationPath
			break
		}
	}
	e.escalator.Escalate(d.ProposalID, path, reason)
}

// Resolve closes a pending proposal with a human verdict. Only mixed
// outcomes left pending by the aggregate can be resolved.
func (e *Engine) Resolve(proposalID, decidedBy string, approve bool) (types.VetoDecision, error) {
	e.mu.Lock()
	d, ok := e.proposals[proposalID]
	if !ok {
		e.mu.Unlock()
		return types.VetoDecision{}, ErrProposalNotFound
	}
	if d.Status != types.VetoPending {
		e.mu.Unlock()
		return types.VetoDecision{}, fmt.Errorf("%w: cannot resolve from %s", ErrInvalidTransition, d.Status)
	}
	if approve {
		d.Status = types.VetoApproved
		d.FinalDecision = "approved on escalated human review"
	} else {
		d.Status = types.VetoVetoed
		d.FinalDecision = "vetoed on escalated human review"
	}
	d.DecidedAt = e.now().UTC().Format(time.RFC3339)
	d.DecidedBy = decidedBy
	out := *d
	e.mu.Unlock()

	e.recordVerdict(&out)
	return out, nil
}

// RequestOverride opens the override workflow on a vetoed proposal. The
// proposal holds in override_requested until a human approves or denies.
func (e *Engine) RequestOverride(proposalID, requestedBy, reason string) (types.VetoDecision, error) {
	e.mu.Lock()
	d, ok := e.proposals[proposalID]
	if !ok {
		e.mu.Unlock()
		return types.VetoDecision{}, ErrProposalNotFound
	}
	if d.Status != types.VetoVetoed {
		e.mu.Unlock()
		return types.VetoDecision{}, fmt.Errorf("%w: override requires a vetoed proposal, have %s", ErrInvalidTransition, d.Status)
	}
	d.Status = types.VetoOverrideRequested
	d.OverrideRequested = true
	d.OverrideRequestedBy = requestedBy
	d.OverrideReason = reason
	out := *d
	e.mu.Unlock()

	requester := requestedBy
	if _, err := e.store.Append(ledger.AppendInput{
		EventType:  types.EventOverrideRequested,
		DecisionID: proposalID,
		Title:      out.Title,
		Data:       map[string]any{"reason": reason},
		Options:    ledger.EntryOptions{UserID: &requester},
	}); err != nil {
		e.log.Error("override entry append failed", zap.String("proposal_id", proposalID), zap.Error(err))
	}
	return out, nil
}

// ApproveOverride lifts a veto. The reviewing human carries accountability
// for overriding the blocking review.
func (e *Engine) ApproveOverride(proposalID, approvedBy string) (types.VetoDecision, error) {
	return e.closeOverride(proposalID, approvedBy, true)
}

// DenyOverride returns a proposal to its vetoed state.
func (e *Engine) DenyOverride(proposalID, deniedBy string) (types.VetoDecision, error) {
	return e.closeOverride(proposalID, deniedBy, false)
}

func (e *Engine) closeOverride(proposalID, by string, approve bool) (types.VetoDecision, error) {
	e.mu.Lock()
	d, ok := e.proposals[proposalID]
	if !ok {
		e.mu.Unlock()
		return types.VetoDecision{}, ErrProposalNotFound
	}
	if d.Status != types.VetoOverrideRequested {
		e.mu.Unlock()
		return types.VetoDecision{}, fmt.Errorf("%w: no override pending, have %s", ErrInvalidTransition, d.Status)
	}
	event := types.EventOverrideDenied
	if approve {
		d.Status = types.VetoApproved
		d.OverrideApproved = true
		d.OverrideApprovedBy = by
		d.FinalDecision = "veto overridden by human review"
		event = types.EventOverrideApproved
	} else {
		d.Status = types.VetoVetoed
		d.OverrideApproved = false
	}
	d.DecidedAt = e.now().UTC().Format(time.RFC3339)
	d.DecidedBy = by
	out := *d
	e.mu.Unlock()

	actor := by
	if _, err := e.store.Append(ledger.AppendInput{
		EventType:  event,
		DecisionID: proposalID,
		Title:      out.Title,
		Options:    ledger.EntryOptions{UserID: &actor},
	}); err != nil {
		e.log.Error("override entry append failed", zap.String("proposal_id", proposalID), zap.Error(err))
	}
	return out, nil
}

// Proposal returns a copy of one proposal.
func (e *Engine) Proposal(proposalID string) (types.VetoDecision, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.proposals[proposalID]
	if !ok {
		return types.VetoDecision{}, false
	}
	return *d, true
}

// Proposals returns every proposal in submission order.
func (e *Engine) Proposals() []types.VetoDecision {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.VetoDecision, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.proposals[id])
	}
	return out
}

// ByStatus returns proposals with the given status, submission order.
func (e *Engine) ByStatus(status types.VetoStatus) []types.VetoDecision {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := []types.VetoDecision{}
	for _, id := range e.order {
		if e.proposals[id].Status == status {
			out = append(out, *e.proposals[id])
		}
	}
	return out
}

// Roles lists the registered reviewer roles in stable order.
func (e *Engine) Roles() []types.VetoAgent {
	out := make([]types.VetoAgent, 0, len(e.agents))
	for _, a := range e.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}
