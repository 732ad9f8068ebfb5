package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperifyio/docscrape/internal/record"
	"github.com/hyperifyio/docscrape/internal/scraper"
)

// ManifestName is the run manifest written next to the records.
const ManifestName = "manifest.json"

// manifestEntry is a compact record of what happened to one URL.
type manifestEntry struct {
	URL       string `json:"url"`
	Profile   string `json:"profile"`
	Status    string `json:"status"`
	Path      string `json:"path,omitempty"`
	SHA256    string `json:"sha256,omitempty"`
	Blocks    int    `json:"blocks"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// manifestMeta captures run details that aid reproducibility.
type manifestMeta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Version     string    `json:"version"`
	Backend     string    `json:"backend"`
	Model       string    `json:"model,omitempty"`
	Total       int       `json:"total"`
	Saved       int       `json:"saved"`
	Failed      int       `json:"failed"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of b.
func computeSHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// buildManifestEntries pairs outcomes with the digests of the files written.
func buildManifestEntries(outcomes []scraper.Outcome, digests map[string]string) []manifestEntry {
	out := make([]manifestEntry, 0, len(outcomes))
	for _, o := range outcomes {
		e := manifestEntry{
			URL:       o.URL,
			Profile:   string(o.Profile),
			Status:    string(o.Status),
			Path:      o.Path,
			SHA256:    digests[o.Path],
			Blocks:    o.Blocks,
			ErrorKind: o.ErrorKind,
		}
		if o.Err != nil {
			e.Error = o.Err.Error()
		}
		out = append(out, e)
	}
	return out
}

// marshalManifestJSON encodes the machine-readable manifest.
func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta    manifestMeta    `json:"meta"`
		Records []manifestEntry `json:"records"`
	}{Meta: meta, Records: entries}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// writeManifest writes the manifest under dir and returns its path.
func writeManifest(dir string, meta manifestMeta, entries []manifestEntry) (string, error) {
	path := filepath.Join(dir, ManifestName)
	b, err := marshalManifestJSON(meta, entries)
	if err != nil {
		return path, &record.IOError{Op: "encode", Path: path, Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return path, &record.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return path, &record.IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}
