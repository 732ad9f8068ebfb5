package record

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// IOError reports that a record could not be written or read. Callers should
// treat it as fatal: dropping a successfully extracted document silently is
// worse than stopping.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// Marshal encodes rec as indented UTF-8 JSON with non-ASCII and HTML
// characters left literal.
func Marshal(rec DocumentRecord) ([]byte, error) {
	if rec.Content == nil {
		rec.Content = []ContentBlock{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes rec to path, creating missing parent directories. An existing
// file is overwritten in place.
func Save(rec DocumentRecord, path string) error {
	data, err := Marshal(rec)
	if err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	return WriteFile(path, data)
}

// WriteFile writes bytes produced by Marshal to path, creating missing
// parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Load reads a record previously written by Save.
func Load(path string) (DocumentRecord, error) {
	var rec DocumentRecord
	b, err := os.ReadFile(path)
	if err != nil {
		return rec, &IOError{Op: "read", Path: path, Err: err}
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, &IOError{Op: "decode", Path: path, Err: err}
	}
	if rec.Content == nil {
		rec.Content = []ContentBlock{}
	}
	return rec, nil
}

// OutputPath returns <dir>/<slug>-<hash>.json for a scrape of rawURL at now.
// The slug is derived from host and path for readability; the hash covers the
// URL and the nanosecond timestamp so repeated runs never collide in practice.
func OutputPath(dir string, rawURL string, now time.Time) string {
	h := sha256.Sum256([]byte(rawURL + "\n" + strconv.FormatInt(now.UnixNano(), 10)))
	short := hex.EncodeToString(h[:])[:16]
	return filepath.Join(dir, urlSlug(rawURL)+"-"+short+".json")
}

// SiblingPath swaps the extension of a record path, e.g. for .md or .pdf renderings.
func SiblingPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func urlSlug(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return slugify(rawURL)
	}
	return slugify(u.Host + " " + u.Path)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

const maxSlugLen = 64

func slugify(s string) string {
	// Fold accented letters to ASCII so filenames stay portable.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	if s == "" {
		s = "doc"
	}
	return s
}
