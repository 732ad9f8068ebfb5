package record

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func sampleRecord() DocumentRecord {
	return DocumentRecord{
		Title:     "datetime",
		URL:       "https://docs.python.org/3/library/datetime.html",
		Timestamp: "2024-05-01T10:00:00.000000Z",
		Content: []ContentBlock{
			Description("Basic date and time types."),
			Section("Available Types", "..."),
			Parameter("tzinfo", "Zeitzone für <aware> Objekte"),
			Endpoint("GET", "/v1/models?limit=1&order=asc", ""),
			Text("if a < b && b > c {"),
		},
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "doc.json")
	want := sampleRecord()
	if err := Save(want, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_LiteralUnicodeAndIndent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := Save(sampleRecord(), path); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(b)
	for _, want := range []string{
		"Zeitzone für <aware> Objekte",
		`"path": "/v1/models?limit=1&order=asc"`,
		`"text": "if a < b && b > c {"`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected literal %q, got:\n%s", want, s)
		}
	}
	if strings.Contains(s, `\u00`) {
		t.Fatalf("unexpected escape sequence in:\n%s", s)
	}
	if !strings.HasPrefix(s, "{\n  \"title\": \"datetime\",\n  \"url\": ") {
		t.Fatalf("unexpected layout:\n%s", s)
	}
	if !strings.HasSuffix(s, "}\n") {
		t.Fatalf("expected trailing newline")
	}
}

func TestSave_EmptyContentIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := Save(DocumentRecord{URL: "https://example.com"}, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), `"content": []`) {
		t.Fatalf("expected empty array, got:\n%s", b)
	}
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte("old contents that are longer than the new ones will be"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec := DocumentRecord{Title: "new", Content: []ContentBlock{}}
	if err := Save(rec, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Title != "new" {
		t.Fatalf("expected overwritten record, got %+v", got)
	}
}

func TestSave_UnwritableParentIsIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := Save(sampleRecord(), filepath.Join(blocker, "doc.json"))
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %T %v", err, err)
	}
	if ioErr.Op != "mkdir" {
		t.Fatalf("expected mkdir op, got %q", ioErr.Op)
	}
}

func TestOutputPath_SlugAndUniqueness(t *testing.T) {
	u := "https://docs.python.org/3/library/datetime.html"
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	a := OutputPath("data/docs", u, now)
	b := OutputPath("data/docs", u, now.Add(time.Nanosecond))
	if a == b {
		t.Fatalf("expected distinct names for distinct timestamps: %s", a)
	}
	if filepath.Dir(a) != filepath.Join("data", "docs") {
		t.Fatalf("unexpected dir: %s", a)
	}
	base := filepath.Base(a)
	if !strings.HasPrefix(base, "docs-python-org-3-library-datetime-html-") || !strings.HasSuffix(base, ".json") {
		t.Fatalf("unexpected name: %s", base)
	}
	if a != OutputPath("data/docs", u, now) {
		t.Fatalf("expected deterministic name for same inputs")
	}
}

func TestSlugify_FoldsAccents(t *testing.T) {
	if got := slugify("Café Übersicht"); got != "cafe-ubersicht" {
		t.Fatalf("slugify = %q", got)
	}
	if got := slugify("///"); got != "doc" {
		t.Fatalf("empty slug fallback = %q", got)
	}
}

func TestSiblingPath(t *testing.T) {
	if got := SiblingPath(filepath.Join("out", "x.json"), ".md"); got != filepath.Join("out", "x.md") {
		t.Fatalf("SiblingPath = %q", got)
	}
}

func TestWriteFile_WritesMarshalledBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x", "doc.json")
	data, err := Marshal(sampleRecord())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := WriteFile(path, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("file differs from marshalled bytes")
	}
}
