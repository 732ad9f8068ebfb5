package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPayloadCache_SaveGet(t *testing.T) {
	c := &PayloadCache{Dir: t.TempDir()}
	key := KeyFrom("firecrawl", "", "narrative", "https://docs.python.org/3/library/datetime.html")
	data := []byte(`{"module_name":"datetime"}`)
	if err := c.Save(context.Background(), key, data); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if string(got) != string(data) {
		t.Fatalf("mismatch: %s", got)
	}
	if _, ok, _ := c.Get(context.Background(), KeyFrom("other")); ok {
		t.Fatalf("unexpected hit for unknown key")
	}
}

func TestKeyFrom_OrderMatters(t *testing.T) {
	if KeyFrom("a", "b") == KeyFrom("b", "a") {
		t.Fatalf("expected distinct keys")
	}
	if KeyFrom("a", "b") != KeyFrom("a", "b") {
		t.Fatalf("expected stable keys")
	}
}

func TestPageCache_SaveLoad(t *testing.T) {
	c := &PageCache{Dir: t.TempDir()}
	url := "https://example.com/docs"
	if err := c.Save(context.Background(), url, "text/html", `"v1"`, "", []byte("<html></html>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	m, err := c.LoadMeta(context.Background(), url)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if m.ETag != `"v1"` || m.URL != url {
		t.Fatalf("unexpected meta: %+v", m)
	}
	b, err := c.LoadBody(context.Background(), url)
	if err != nil || string(b) != "<html></html>" {
		t.Fatalf("body: %q %v", b, err)
	}
}

func TestStrictPerms(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "payloads")
	c := &PayloadCache{Dir: dir, StrictPerms: true}
	key := KeyFrom("k")
	if err := c.Save(context.Background(), key, []byte(`{}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	finfo, err := os.Stat(filepath.Join(dir, key+payloadSuffix))
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if got := finfo.Mode() & 0o777; got != 0o600 {
		t.Fatalf("file mode = %o, want 0600", got)
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	pages := &PageCache{Dir: filepath.Join(dir, "pages")}
	payloads := &PayloadCache{Dir: filepath.Join(dir, "payloads")}
	ctx := context.Background()

	if err := pages.Save(ctx, "https://old.example", "text/html", "", "", []byte("old")); err != nil {
		t.Fatalf("save page: %v", err)
	}
	// Backdate the page metadata.
	metaPath := filepath.Join(pages.Dir, pageKey("https://old.example")+metaSuffix)
	stale := PageMeta{URL: "https://old.example", SavedAt: time.Now().Add(-48 * time.Hour).UTC()}
	b, _ := json.Marshal(stale)
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		t.Fatalf("rewrite meta: %v", err)
	}
	if err := pages.Save(ctx, "https://fresh.example", "text/html", "", "", []byte("fresh")); err != nil {
		t.Fatalf("save page: %v", err)
	}

	oldKey := KeyFrom("old")
	if err := payloads.Save(ctx, oldKey, []byte(`{}`)); err != nil {
		t.Fatalf("save payload: %v", err)
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(payloads.Dir, oldKey+payloadSuffix), past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := payloads.Save(ctx, KeyFrom("new"), []byte(`{}`)); err != nil {
		t.Fatalf("save payload: %v", err)
	}

	removed, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if _, err := pages.LoadBody(ctx, "https://old.example"); err == nil {
		t.Fatalf("expected stale body removed")
	}
	if _, err := pages.LoadBody(ctx, "https://fresh.example"); err != nil {
		t.Fatalf("fresh body should remain: %v", err)
	}
	if _, ok, _ := payloads.Get(ctx, KeyFrom("new")); !ok {
		t.Fatalf("fresh payload should remain")
	}
}

func TestPurgeByAge_MissingDir(t *testing.T) {
	n, err := PurgeByAge(filepath.Join(t.TempDir(), "absent"), time.Hour)
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x.payload.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty dir, got %v err=%v", entries, err)
	}
	if err := ClearDir("  "); err == nil {
		t.Fatalf("expected error for blank dir")
	}
}
