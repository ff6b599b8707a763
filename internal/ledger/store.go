// Package ledger owns the append-only, hash-linked sequence of entries and
// the decision index narrated by those entries. One store is one chain:
// appends are serialized behind a single mutex so no two entries can claim
// the same previous hash.
package ledger

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidahmann/provenant/internal/checksum"
	"github.com/davidahmann/provenant/internal/crypto"
	"github.com/davidahmann/provenant/pkg/types"
)

const DefaultSnapshotKey = "provenant.ledger.v1"

// Attestor signs export reports. Satisfied by crypto.Attestor; optional.
type Attestor interface {
	KeyID() string
	Attest(canonical []byte) (digest string, sig string, err error)
}

type Options struct {
	Snapshots   SnapshotStore
	SnapshotKey string
	Attestor    Attestor
	Logger      *zap.Logger
	Now         func() time.Time
	NewID       func() string
}

type Store struct {
	mu sync.Mutex

	log         *zap.Logger
	snapshots   SnapshotStore
	snapshotKey string
	attestor    Attestor
	now         func() time.Time
	newID       func() string

	seq       int64
	entries   []types.LedgerEntry
	index     map[string]int
	decisions map[string]*types.DecisionRecord
}

// New builds a store and loads its snapshot. A failed load is logged and
// the store starts empty rather than refusing to serve.
func New(opts Options) *Store {
	s := &Store{
		log:         opts.Logger,
		snapshots:   opts.Snapshots,
		snapshotKey: opts.SnapshotKey,
		attestor:    opts.Attestor,
		now:         opts.Now,
		newID:       opts.NewID,
		index:       make(map[string]int),
		decisions:   make(map[string]*types.DecisionRecord),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.snapshotKey == "" {
		s.snapshotKey = DefaultSnapshotKey
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.snapshots == nil {
		return
	}
	body, ok, err := s.snapshots.Load(s.snapshotKey)
	if err != nil {
		s.log.Warn("snapshot load failed, starting empty", zap.String("key", s.snapshotKey), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	snap, err := decodeSnapshot(body)
	if err != nil {
		s.log.Warn("snapshot decode failed, starting empty", zap.String("key", s.snapshotKey), zap.Error(err))
		return
	}

	s.seq = snap.Sequence
	s.entries = snap.Entries
	for i, e := range s.entries {
		s.index[e.EntryID] = i
	}
	for i := range snap.Decisions {
		d := snap.Decisions[i]
		s.decisions[d.DecisionID] = &d
	}
}

// saveLocked persists the current state best-effort. Failures are logged,
// never surfaced to the mutating caller.
func (s *Store) saveLocked() {
	if s.snapshots == nil {
		return
	}
	decisions := make([]types.DecisionRecord, 0, len(s.decisions))
	for _, d := range s.decisions {
		decisions = append(decisions, *d)
	}
	slices.SortFunc(decisions, func(a, b types.DecisionRecord) int {
		if a.ProposedAt != b.ProposedAt {
			if a.ProposedAt < b.ProposedAt {
				return -1
			}
			return 1
		}
		if a.DecisionID < b.DecisionID {
			return -1
		}
		if a.DecisionID > b.DecisionID {
			return 1
		}
		return 0
	})

	body, err := encodeSnapshot(snapshot{Sequence: s.seq, Entries: s.entries, Decisions: decisions})
	if err != nil {
		s.log.Error("snapshot encode failed", zap.Error(err))
		return
	}
	if err := s.snapshots.Save(s.snapshotKey, body); err != nil {
		s.log.Error("snapshot save failed", zap.String("key", s.snapshotKey), zap.Error(err))
	}
}

type EntryOptions struct {
	OrganizationID       string
	UserID               *string
	AgentID              *string
	ConfidenceScore      *int
	Vote                 *types.Vote
	VoteWeight           *int
	ComplianceFrameworks []string
	RetentionPeriodDays  int
	Sensitivity          types.SensitivityLevel
	PIIInvolved          bool
}

type AppendInput struct {
	EventType   types.EventType
	DecisionID  string
	Title       string
	Description string
	Data        map[string]any
	Options     EntryOptions
}

// Append creates the next chain entry. The entry links to the current tail
// (or genesis) and is stored atomically: a payload that cannot be
// canonicalized leaves the chain untouched.
//
// An unknown DecisionID is accepted and produces an orphan entry; decision
// linkage is best-effort.
func (s *Store) Append(in AppendInput) (types.LedgerEntry, error) {
	if in.EventType == "" {
		return types.LedgerEntry{}, fmt.Errorf("%w: event type is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previousHash := checksum.Genesis
	if len(s.entries) > 0 {
		previousHash = s.entries[len(s.entries)-1].Hash
	}

	// An empty payload is stored as nil so the entry hashes the same way
	// after a snapshot reload, where omitempty has dropped the map.
	data := in.Data
	if len(data) == 0 {
		data = nil
	}

	entry := types.LedgerEntry{
		EntryID:              s.newID(),
		Sequence:             s.seq + 1,
		Timestamp:            s.now().UTC().Format(time.RFC3339),
		EventType:            in.EventType,
		DecisionID:           in.DecisionID,
		OrganizationID:       in.Options.OrganizationID,
		UserID:               in.Options.UserID,
		AgentID:              in.Options.AgentID,
		Title:                in.Title,
		Description:          in.Description,
		Data:                 data,
		ConfidenceScore:      in.Options.ConfidenceScore,
		Vote:                 in.Options.Vote,
		VoteWeight:           in.Options.VoteWeight,
		PreviousHash:         previousHash,
		ComplianceFrameworks: in.Options.ComplianceFrameworks,
		RetentionPeriodDays:  in.Options.RetentionPeriodDays,
		Sensitivity:          in.Options.Sensitivity,
		PIIInvolved:          in.Options.PIIInvolved,
	}

	hash, err := entryHash(entry)
	if err != nil {
		return types.LedgerEntry{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	entry.Hash = hash

	s.seq++
	s.entries = append(s.entries, entry)
	s.index[entry.EntryID] = len(s.entries) - 1

	if d, ok := s.decisions[in.DecisionID]; ok {
		d.LedgerEntries = append(d.LedgerEntries, entry.EntryID)
		if d.FirstEntryHash == "" {
			d.FirstEntryHash = entry.Hash
		}
		d.LatestEntryHash = entry.Hash
	}

	s.saveLocked()
	return entry, nil
}

// entryHash digests the canonical serialization of the entry's immutable
// identity fields. Hash itself and the volatile verification fields are
// excluded.
func entryHash(e types.LedgerEntry) (string, error) {
	view := map[string]any{
		"id":            e.EntryID,
		"sequence":      e.Sequence,
		"timestamp":     e.Timestamp,
		"event_type":    string(e.EventType),
		"decision_id":   e.DecisionID,
		"previous_hash": e.PreviousHash,
		"data":          e.Data,
	}
	canonical, err := crypto.Canonicalize(view)
	if err != nil {
		return "", err
	}
	return checksum.Sum(canonical), nil
}

// Entry returns one entry by id.
func (s *Store) Entry(id string) (types.LedgerEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return types.LedgerEntry{}, false
	}
	return s.entries[i], true
}

// Entries returns all entries, newest first.
func (s *Store) Entries() []types.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.LedgerEntry, len(s.entries))
	for i, e := range s.entries {
		out[len(s.entries)-1-i] = e
	}
	return out
}

// EntriesForDecision returns a decision's entries in chronological order,
// including orphan entries appended before the decision existed.
func (s *Store) EntriesForDecision(decisionID string) []types.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesForDecisionLocked(decisionID)
}

func (s *Store) entriesForDecisionLocked(decisionID string) []types.LedgerEntry {
	out := []types.LedgerEntry{}
	for _, e := range s.entries {
		if e.DecisionID == decisionID {
			out = append(out, e)
		}
	}
	return out
}

type Filter struct {
	EventTypes []types.EventType
	From       string // inclusive RFC 3339 lower bound
	To         string // inclusive RFC 3339 upper bound
	AgentID    string
	Framework  string
	PIIOnly    bool
}

// Search returns matching entries in chronological order.
func (s *Store) Search(f Filter) []types.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []types.LedgerEntry{}
	for _, e := range s.entries {
		if len(f.EventTypes) > 0 && !slices.Contains(f.EventTypes, e.EventType) {
			continue
		}
		if f.From != "" && e.Timestamp < f.From {
			continue
		}
		if f.To != "" && e.Timestamp > f.To {
			continue
		}
		if f.AgentID != "" && (e.AgentID == nil || *e.AgentID != f.AgentID) {
			continue
		}
		if f.Framework != "" && !slices.Contains(e.ComplianceFrameworks, f.Framework) {
			continue
		}
		if f.PIIOnly && !e.PIIInvolved {
			continue
		}
		out = append(out, e)
	}
	return out
}

// CreateDecision registers a new decision record.
func (s *Store) CreateDecision(record types.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.DecisionID == "" {
		return fmt.Errorf("%w: decision id is required", ErrValidation)
	}
	if _, ok := s.decisions[record.DecisionID]; ok {
		return ErrDecisionExists
	}
	copied := copyDecision(&record)
	s.decisions[record.DecisionID] = &copied
	s.saveLocked()
	return nil
}

// PutDecision replaces an existing decision record. Ledger linkage fields
// are preserved from the stored copy; they belong to Append.
func (s *Store) PutDecision(record types.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.decisions[record.DecisionID]
	if !ok {
		return ErrDecisionNotFound
	}
	record.LedgerEntries = current.LedgerEntries
	record.FirstEntryHash = current.FirstEntryHash
	record.LatestEntryHash = current.LatestEntryHash
	copied := copyDecision(&record)
	s.decisions[record.DecisionID] = &copied
	s.saveLocked()
	return nil
}

// Decision returns a copy of one decision record.
func (s *Store) Decision(decisionID string) (types.DecisionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.decisions[decisionID]
	if !ok {
		return types.DecisionRecord{}, false
	}
	return copyDecision(d), true
}

// Decisions returns all decision records, newest first by proposal time.
func (s *Store) Decisions() []types.DecisionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.DecisionRecord, 0, len(s.decisions))
	for _, d := range s.decisions {
		out = append(out, copyDecision(d))
	}
	slices.SortFunc(out, func(a, b types.DecisionRecord) int {
		if a.ProposedAt != b.ProposedAt {
			if a.ProposedAt > b.ProposedAt {
				return -1
			}
			return 1
		}
		if a.DecisionID < b.DecisionID {
			return -1
		}
		if a.DecisionID > b.DecisionID {
			return 1
		}
		return 0
	})
	return out
}

func copyDecision(d *types.DecisionRecord) types.DecisionRecord {
	copied := *d
	copied.Agents = slices.Clone(d.Agents)
	copied.Voters = slices.Clone(d.Voters)
	copied.LedgerEntries = slices.Clone(d.LedgerEntries)
	copied.AuditHistory = make([]types.AuditRecord, len(d.AuditHistory))
	for i, a := range d.AuditHistory {
		copied.AuditHistory[i] = a
		copied.AuditHistory[i].Findings = slices.Clone(a.Findings)
	}
	return copied
}

// Sequence returns the current tail sequence number.
func (s *Store) Sequence() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// NewID exposes the store's id generator so collaborating services mint
// identifiers the same way entries do.
func (s *Store) NewID() string {
	return s.newID()
}

// Now returns the store's clock reading in UTC RFC 3339 form.
func (s *Store) Now() string {
	return s.now().UTC().Format(time.RFC3339)
}
