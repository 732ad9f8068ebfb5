package profile

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperifyio/docscrape/internal/record"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

func mustProfile(t *testing.T, n Name) Profile {
	t.Helper()
	p, err := Lookup(n)
	if err != nil {
		t.Fatalf("lookup %s: %v", n, err)
	}
	return p
}

func TestNormalize_APIReferenceOrderAndCount(t *testing.T) {
	payload := json.RawMessage(`{
		"title": "OpenAI API",
		"headings": ["Introduction", "Authentication"],
		"content": ["Use bearer tokens.", "curl https://api.openai.com/v1/models", "Errors are JSON."],
		"endpoints": [
			{"method": "GET", "path": "/v1/models", "description": "List models"},
			{"method": "POST", "path": "/v1/chat/completions"}
		]
	}`)
	rec, err := Normalizer{Now: fixedNow}.Normalize(payload, mustProfile(t, APIReference), "https://platform.openai.com/docs/api-reference")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := record.DocumentRecord{
		Title:     "OpenAI API",
		URL:       "https://platform.openai.com/docs/api-reference",
		Timestamp: "2024-05-01T10:00:00.000000Z",
		Content: []record.ContentBlock{
			record.Heading("Introduction"),
			record.Heading("Authentication"),
			record.Text("Use bearer tokens."),
			record.Text("curl https://api.openai.com/v1/models"),
			record.Text("Errors are JSON."),
			record.Endpoint("GET", "/v1/models", "List models"),
			record.Endpoint("POST", "/v1/chat/completions", ""),
		},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_EndpointMissingDescriptionIsEmptyString(t *testing.T) {
	payload := json.RawMessage(`{"endpoints":[{"method":"DELETE","path":"/v1/files/{id}","description":null}]}`)
	rec, err := Normalizer{Now: fixedNow}.Normalize(payload, mustProfile(t, APIReference), "u")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	b, err := json.Marshal(rec.Content[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"type":"endpoint","method":"DELETE","path":"/v1/files/{id}","description":""}` {
		t.Fatalf("unexpected endpoint JSON: %s", b)
	}
}

func TestNormalize_EmptyAPIReferencePayload(t *testing.T) {
	rec, err := Normalizer{Now: fixedNow}.Normalize(json.RawMessage(`{}`), mustProfile(t, APIReference), "u")
	if err != nil {
		t.Fatalf("empty payload should not fail: %v", err)
	}
	if rec.Content == nil || len(rec.Content) != 0 {
		t.Fatalf("expected empty non-nil content, got %#v", rec.Content)
	}
	if rec.Title != "" {
		t.Fatalf("expected empty title, got %q", rec.Title)
	}
}

func TestNormalize_NarrativeSectionsScenario(t *testing.T) {
	payload := json.RawMessage(`{
		"module_name": "datetime",
		"module_description": "Basic date and time types.",
		"sections": [{"title": "Available Types", "content": "..."}]
	}`)
	rec, err := Normalizer{Now: fixedNow}.Normalize(payload, mustProfile(t, Narrative), "https://docs.python.org/3/library/datetime.html")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	got, err := json.Marshal(rec.Content)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"type":"description","text":"Basic date and time types."},{"type":"section","title":"Available Types","text":"..."}]`
	if string(got) != want {
		t.Fatalf("content:\n got %s\nwant %s", got, want)
	}
	if rec.Title != "datetime" {
		t.Fatalf("title = %q", rec.Title)
	}
}

func TestNormalize_NarrativeSectionsWinOverFunctions(t *testing.T) {
	payload := json.RawMessage(`{
		"title": "Page title",
		"heading": "ignored",
		"sections": [{"title": "A"}, {"content": "b"}],
		"functions": [{"signature": "f()"}]
	}`)
	rec, err := Normalizer{Now: fixedNow}.Normalize(payload, mustProfile(t, Narrative), "u")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []record.ContentBlock{record.Section("A", ""), record.Section("", "b")}
	if diff := cmp.Diff(want, rec.Content); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
	if rec.Title != "Page title" {
		t.Fatalf("title fallback = %q", rec.Title)
	}
}

func TestNormalize_NarrativeFunctions(t *testing.T) {
	payload := json.RawMessage(`{
		"title": "datetime — Basic date and time types",
		"heading": "datetime",
		"description": "The datetime module supplies classes.",
		"functions": [
			{
				"signature": "class datetime.date(year, month, day)",
				"description": "All arguments are required.",
				"parameters": [{"name": "year", "description": "MINYEAR <= year <= MAXYEAR"}, {"name": "month"}]
			},
			{"signature": "date.today()", "description": ""}
		]
	}`)
	rec, err := Normalizer{Now: fixedNow}.Normalize(payload, mustProfile(t, Narrative), "u")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []record.ContentBlock{
		record.Description("The datetime module supplies classes."),
		record.Heading("datetime"),
		record.FunctionSignature("class datetime.date(year, month, day)"),
		record.FunctionDescription("All arguments are required."),
		record.Parameter("year", "MINYEAR <= year <= MAXYEAR"),
		record.Parameter("month", ""),
		record.FunctionSignature("date.today()"),
	}
	if diff := cmp.Diff(want, rec.Content); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
	if rec.Title != "datetime — Basic date and time types" {
		t.Fatalf("title = %q", rec.Title)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	payload := json.RawMessage(`{"headings":["a","b"],"content":["c"],"endpoints":[{"method":"GET"}]}`)
	p := mustProfile(t, APIReference)
	n := Normalizer{Now: fixedNow}
	a, err := n.Normalize(payload, p, "u")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := n.Normalize(payload, p, "u")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	ab, _ := json.Marshal(a.Content)
	bb, _ := json.Marshal(b.Content)
	if string(ab) != string(bb) {
		t.Fatalf("content differs:\n%s\n%s", ab, bb)
	}
}

func TestNormalize_RejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		profile Name
		payload string
	}{
		{"array", APIReference, `[{"title":"x"}]`},
		{"string", Narrative, `"hello"`},
		{"null", Narrative, `null`},
		{"empty", APIReference, ``},
		{"wrong field type", APIReference, `{"headings":"Intro"}`},
		{"wrong nested type", Narrative, `{"sections":[{"title":1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalizer{Now: fixedNow}.Normalize(json.RawMessage(tc.payload), mustProfile(t, tc.profile), "u")
			var nerr *NormalizationError
			if !errors.As(err, &nerr) {
				t.Fatalf("expected *NormalizationError, got %T %v", err, err)
			}
			if nerr.Profile != tc.profile {
				t.Fatalf("profile = %s", nerr.Profile)
			}
		})
	}
}

func TestNormalize_NotObjectSentinel(t *testing.T) {
	_, err := Normalizer{}.Normalize(json.RawMessage(`[]`), mustProfile(t, Narrative), "u")
	if !errors.Is(err, ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
}

func TestNormalize_ZeroProfileFails(t *testing.T) {
	_, err := Normalizer{}.Normalize(json.RawMessage(`{}`), Profile{Name: "custom"}, "u")
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *NormalizationError, got %v", err)
	}
}
