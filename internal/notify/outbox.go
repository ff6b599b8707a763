package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Poster delivers one escalation to the configured channel (chat webhook,
// pager, ticket queue). Errors are retried with backoff.
type Poster interface {
	PostEscalation(path string, e Escalation) error
}

const (
	StatusPending = "pending"
	StatusSent    = "sent"
)

// Escalation is one undecided proposal handed to humans.
type Escalation struct {
	ID            string  `json:"id"`
	ProposalID    string  `json:"proposal_id"`
	Path          string  `json:"path"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	AttemptCount  int     `json:"attempt_count"`
	NextAttemptAt string  `json:"next_attempt_at"`
	CreatedAt     string  `json:"created_at"`
	SentAt        *string `json:"sent_at,omitempty"`
	LastError     *string `json:"last_error,omitempty"`
}

// Outbox queues escalations for at-least-once delivery. Enqueue never
// blocks on the poster; a worker drains due records with exponential
// backoff on failure.
type Outbox struct {
	mu      sync.Mutex
	records []Escalation
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

type OutboxOptions struct {
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

func NewOutbox(opts OutboxOptions) *Outbox {
	o := &Outbox{
		log:   opts.Logger,
		now:   opts.Now,
		newID: opts.NewID,
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	return o
}

// Escalate enqueues a pending record. It satisfies the veto engine's
// escalator hook.
func (o *Outbox) Escalate(proposalID, path, reason string) {
	now := o.now().UTC().Format(time.RFC3339)
	rec := Escalation{
		ID:            o.newID(),
		ProposalID:    proposalID,
		Path:          path,
		Reason:        reason,
		Status:        StatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	o.mu.Lock()
	o.records = append(o.records, rec)
	o.mu.Unlock()
	o.log.Info("escalation queued",
		zap.String("proposal_id", proposalID), zap.String("path", path))
}

// Records returns a copy of every escalation, oldest first.
func (o *Outbox) Records() []Escalation {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Escalation, len(o.records))
	copy(out, o.records)
	return out
}

// ProcessDue posts due pending records and applies exponential backoff on
// failure. Returns the number of records touched.
func (o *Outbox) ProcessDue(ctx context.Context, poster Poster, now time.Time, limit int) (int, error) {
	if poster == nil {
		return 0, nil
	}
	if limit <= 0 {
		limit = 50
	}
	cutoff := now.UTC().Format(time.RFC3339)

	o.mu.Lock()
	due := make([]int, 0, limit)
	for i, rec := range o.records {
		if rec.Status == StatusPending && rec.NextAttemptAt <= cutoff {
			due = append(due, i)
			if len(due) == limit {
				break
			}
		}
	}
	snapshot := make([]Escalation, len(due))
	for j, i := range due {
		snapshot[j] = o.records[i]
	}
	o.mu.Unlock()

	processed := 0
	for j, rec := range snapshot {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		err := poster.PostEscalation(rec.Path, rec)
		o.mu.Lock()
		stored := &o.records[due[j]]
		if err != nil {
			delay := nextAttempt(stored.AttemptCount)
			stored.AttemptCount++
			stored.NextAttemptAt = now.UTC().Add(delay).Format(time.RFC3339)
			msg := err.Error()
			stored.LastError = &msg
			o.mu.Unlock()
			o.log.Warn("escalation post failed",
				zap.String("proposal_id", rec.ProposalID), zap.Error(err))
			processed++
			continue
		}
		stored.Status = StatusSent
		sentAt := now.UTC().Format(time.RFC3339)
		stored.SentAt = &sentAt
		stored.LastError = nil
		o.mu.Unlock()
		processed++
	}
	return processed, nil
}

func nextAttempt(attemptCount int) time.Duration {
	// 5s, 10s, 20s, 40s, 80s, 160s, ... capped at 5m.
	base := 5 * time.Second
	max := 5 * time.Minute
	if attemptCount <= 0 {
		return base
	}
	// A shift past the cap would overflow the duration on long-failing
	// records; the cap is reached by attempt 7 anyway.
	if attemptCount >= 7 {
		return max
	}
	d := base << attemptCount
	if d > max {
		return max
	}
	return d
}

// RunWorker polls and posts due escalations until ctx is cancelled.
func (o *Outbox) RunWorker(ctx context.Context, poster Poster, pollInterval time.Duration) {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			_, _ = o.ProcessDue(ctx, poster, now, 25)
		}
	}
}
