package pack

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/davidahmann/provenant/pkg/types"
)

func sampleInput() Input {
	return Input{
		Report: types.ExportReport{
			Schema:       "provenant.export.v1",
			GeneratedAt:  "2026-03-01T09:00:00Z",
			Verification: types.ChainVerificationResult{Valid: true, EntriesChecked: 2},
			Decision: types.DecisionRecord{
				DecisionID: "d1",
				Title:      "Q1 Budget",
				Status:     types.DecisionApproved,
			},
			Entries: []types.LedgerEntry{
				{EntryID: "e1", Sequence: 1, EventType: types.EventProposalCreated, Hash: strings.Repeat("a", 32)},
				{EntryID: "e2", Sequence: 2, EventType: types.EventApproval, Hash: strings.Repeat("b", 32)},
			},
			HashChain: []types.HashLink{
				{Sequence: 1, Hash: strings.Repeat("a", 32)},
				{Sequence: 2, Hash: strings.Repeat("b", 32)},
			},
		},
		Policy: []byte("policies: []\n"),
	}
}

func TestBuildZipIncludesArtifacts(t *testing.T) {
	zipBytes, err := BuildZip(sampleInput(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("build zip: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		t.Fatalf("zip reader: %v", err)
	}

	expected := map[string]bool{
		"export.json":       false,
		"entries.jsonl":     false,
		"verification.json": false,
		"policies.yaml":     false,
		"SUMMARY.md":        false,
		"manifest.json":     false,
		"sha256sums.txt":    false,
	}

	for _, file := range reader.File {
		if _, ok := expected[file.Name]; ok {
			expected[file.Name] = true
		}
	}

	for name, seen := range expected {
		if !seen {
			t.Fatalf("missing %s", name)
		}
	}
}

func TestManifestDigestsMatch(t *testing.T) {
	files, err := BuildFiles(sampleInput(), "")
	if err != nil {
		t.Fatalf("build files: %v", err)
	}

	var m struct {
		Schema string `json:"schema"`
		Files  []struct {
			Name   string `json:"name"`
			SHA256 string `json:"sha256"`
		} `json:"files"`
	}
	if err := json.Unmarshal(files["manifest.json"], &m); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if m.Schema != "provenant.pack.v1" {
		t.Fatalf("schema = %s", m.Schema)
	}

	for _, f := range m.Files {
		sum := sha256.Sum256(files[f.Name])
		if hex.EncodeToString(sum[:]) != f.SHA256 {
			t.Fatalf("digest mismatch for %s", f.Name)
		}
	}
}

func TestBuildFilesRequiresPolicy(t *testing.T) {
	in := sampleInput()
	in.Policy = nil
	if _, err := BuildFiles(in, ""); err == nil {
		t.Fatalf("expected error for missing policy")
	}
}

func TestSummaryLinksFollowBaseURL(t *testing.T) {
	withLinks, err := BuildSummary(sampleInput(), "https://prov.example.com")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(string(withLinks), "https://prov.example.com/v1/decisions/d1/export") {
		t.Fatalf("expected export link, got:\n%s", withLinks)
	}

	noLinks, err := BuildSummary(sampleInput(), "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if strings.Contains(string(noLinks), "## Links") {
		t.Fatalf("expected no links section")
	}
}

func TestWriteZip(t *testing.T) {
	files := map[string][]byte{
		"a.txt": []byte("alpha"),
		"b.txt": []byte("bravo"),
	}
	buf := bytes.NewBuffer(nil)
	if err := WriteZip(buf, files); err != nil {
		t.Fatalf("write zip: %v", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip reader: %v", err)
	}
	if len(reader.File) != 2 {
		t.Fatalf("expected 2 files, got %d", len(reader.File))
	}
}
