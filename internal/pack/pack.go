package pack

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/davidahmann/provenant/pkg/types"
)

// Input is everything that goes into an evidence pack for one decision.
type Input struct {
	Report types.ExportReport
	Policy []byte // active policy set, raw YAML
}

// BuildFiles renders the pack contents. The manifest and checksum file are
// computed over every other artifact so a recipient can verify the pack
// offline.
func BuildFiles(in Input, baseURL string) (map[string][]byte, error) {
	if len(in.Policy) == 0 {
		return nil, fmt.Errorf("missing policy bytes")
	}
	if in.Report.Decision.DecisionID == "" {
		return nil, fmt.Errorf("missing decision in report")
	}

	files := map[string][]byte{}

	exportJSON, err := json.MarshalIndent(in.Report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	files["export.json"] = exportJSON

	var entriesBuf bytes.Buffer
	enc := json.NewEncoder(&entriesBuf)
	for _, entry := range in.Report.Entries {
		if err := enc.Encode(entry); err != nil {
			return nil, fmt.Errorf("encode entry %s: %w", entry.EntryID, err)
		}
	}
	files["entries.jsonl"] = entriesBuf.Bytes()

	verificationJSON, err := json.MarshalIndent(in.Report.Verification, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal verification: %w", err)
	}
	files["verification.json"] = verificationJSON

	files["policies.yaml"] = in.Policy

	summaryMD, err := BuildSummary(in, baseURL)
	if err != nil {
		return nil, fmt.Errorf("build summary: %w", err)
	}
	files["SUMMARY.md"] = summaryMD

	manifest, sums, err := buildManifest(in.Report.Decision.DecisionID, files)
	if err != nil {
		return nil, err
	}
	files["manifest.json"] = manifest
	files["sha256sums.txt"] = sums

	return files, nil
}

type manifestEntry struct {
	Name   string `json:"name"`
	Bytes  int    `json:"bytes"`
	SHA256 string `json:"sha256"`
}

type manifest struct {
	Schema     string          `json:"schema"`
	DecisionID string          `json:"decision_id,omitempty"`
	Files      []manifestEntry `json:"files"`
}

func buildManifest(decisionID string, files map[string][]byte) ([]byte, []byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	m := manifest{Schema: "provenant.pack.v1", DecisionID: decisionID}
	var sums bytes.Buffer
	for _, name := range names {
		sum := sha256.Sum256(files[name])
		digest := hex.EncodeToString(sum[:])
		m.Files = append(m.Files, manifestEntry{Name: name, Bytes: len(files[name]), SHA256: digest})
		fmt.Fprintf(&sums, "%s  %s\n", digest, name)
	}

	manifestJSON, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return manifestJSON, sums.Bytes(), nil
}

// WriteZip writes the files in name order for a byte-stable archive.
func WriteZip(w io.Writer, files map[string][]byte) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		f, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := f.Write(files[name]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return zw.Close()
}

// BuildZip renders the full evidence pack as a zip archive.
func BuildZip(in Input, baseURL string) ([]byte, error) {
	files, err := BuildFiles(in, baseURL)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteZip(&buf, files); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
