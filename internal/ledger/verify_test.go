package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/davidahmann/provenant/pkg/types"
)

func TestVerifyChainEmptyIsValid(t *testing.T) {
	s := newTestStore(nil)
	result, err := s.VerifyChain(t.Context())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Valid || result.EntriesChecked != 0 {
		t.Fatalf("empty chain should be vacuously valid: %+v", result)
	}
}

func TestVerifyChainDetectsTamperedData(t *testing.T) {
	s := newTestStore(nil)
	for i := 0; i < 3; i++ {
		if _, err := s.Append(AppendInput{EventType: types.EventVoteCast, Title: "e", Data: map[string]any{"i": i}}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// Corrupt the middle entry's payload behind the store's back.
	s.mu.Lock()
	s.entries[1].Data["i"] = 99
	tamperedID := s.entries[1].EntryID
	s.mu.Unlock()

	result, err := s.VerifyChain(t.Context())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Valid {
		t.Fatalf("tampered chain reported valid")
	}
	if result.BrokenAt == nil || *result.BrokenAt != 2 || result.BrokenEntryID != tamperedID {
		t.Fatalf("divergence not pinned to sequence 2: %+v", result)
	}
	if result.EntriesChecked != 1 {
		t.Fatalf("entries checked = %d, want 1", result.EntriesChecked)
	}
}

func TestVerifyChainDetectsBrokenLinkage(t *testing.T) {
	s := newTestStore(nil)
	for i := 0; i < 2; i++ {
		if _, err := s.Append(AppendInput{EventType: types.EventVoteCast, Title: "e"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	s.mu.Lock()
	s.entries[1].PreviousHash = "f00d"
	s.mu.Unlock()

	result, err := s.VerifyChain(t.Context())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Valid || result.BrokenAt == nil || *result.BrokenAt != 2 {
		t.Fatalf("broken linkage not reported: %+v", result)
	}
}

func TestVerifyChainCancellable(t *testing.T) {
	s := newTestStore(nil)
	if _, err := s.Append(AppendInput{EventType: types.EventVoteCast, Title: "e"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.VerifyChain(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestVerifyEntryFlipsVerified(t *testing.T) {
	s := newTestStore(nil)
	entry, err := s.Append(AppendInput{EventType: types.EventVoteCast, Title: "e"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	ok, err := s.VerifyEntry(entry.EntryID, "auditor-1")
	if err != nil || !ok {
		t.Fatalf("verify entry: ok=%v err=%v", ok, err)
	}

	got, _ := s.Entry(entry.EntryID)
	if !got.Verified || got.VerifiedAt == nil || got.VerifiedBy == nil || *got.VerifiedBy != "auditor-1" {
		t.Fatalf("verified flags not set: %+v", got)
	}
}

func TestVerifyEntryUnknown(t *testing.T) {
	s := newTestStore(nil)
	if _, err := s.VerifyEntry("ghost", ""); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}
