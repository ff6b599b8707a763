package veto

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davidahmann/provenant/internal/policy"
	"github.com/davidahmann/provenant/pkg/types"
)

// Reviewer produces one role's verdict on a proposal. Implementations must
// always complete: a reviewer that cannot analyze falls back, it does not
// fail the review round.
type Reviewer interface {
	Review(ctx context.Context, agent types.VetoAgent, p policy.Proposal) (types.VetoReview, error)
}

// Analyzer is the optional rich-analysis capability (an external reasoning
// service). Availability is probed per call; the deterministic fallback
// covers every gap.
type Analyzer interface {
	Available(ctx context.Context) bool
	Analyze(ctx context.Context, agent types.VetoAgent, p policy.Proposal) (types.VetoReview, error)
}

// AnalysisReviewer selects between the rich analyzer and the deterministic
// fallback with a capability probe, never with error-driven control flow in
// the caller.
type AnalysisReviewer struct {
	Analyzer Analyzer
	Fallback Reviewer
	Timeout  time.Duration
	Log      *zap.Logger
}

func (r *AnalysisReviewer) Review(ctx context.Context, agent types.VetoAgent, p policy.Proposal) (types.VetoReview, error) {
	fallback := r.Fallback
	if fallback == nil {
		fallback = &KeywordReviewer{Now: time.Now}
	}
	if r.Analyzer == nil {
		return fallback.Review(ctx, agent, p)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	analysisCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !r.Analyzer.Available(analysisCtx) {
		return fallback.Review(ctx, agent, p)
	}

	review, err := r.Analyzer.Analyze(analysisCtx, agent, p)
	if err != nil {
		if r.Log != nil {
			r.Log.Warn("analyzer failed, using deterministic review",
				zap.String("role", string(agent.Role)), zap.Error(err))
		}
		return fallback.Review(ctx, agent, p)
	}
	return review, nil
}
