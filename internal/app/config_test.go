package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperifyio/docscrape/internal/profile"
)

func TestLoadConfigFile_YAMLAndApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docscrape.yaml")
	yml := `
urls:
  - https://docs.python.org/3/library/datetime.html
output: out
backend: llm
profiles:
  default: narrative
  apiReferenceHosts: [docs.stripe.com]
llm:
  base: http://localhost:11434/v1
  model: doc-model
  maxPageChars: 8000
fetch:
  timeout: 5s
render:
  markdown: true
manifest: false
cache:
  dir: .cache
  maxAge: 48h
  strictPerms: true
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)

	if len(cfg.URLs) != 1 || cfg.OutputDir != "out" || cfg.Backend != "llm" {
		t.Fatalf("basic fields: %+v", cfg)
	}
	if cfg.LLMModel != "doc-model" || cfg.MaxPageChars != 8000 || cfg.FetchTimeout != 5*time.Second {
		t.Fatalf("llm fields: %+v", cfg)
	}
	if !cfg.WriteMarkdown || cfg.WritePDF || !cfg.NoManifest {
		t.Fatalf("render fields: md=%v pdf=%v noManifest=%v", cfg.WriteMarkdown, cfg.WritePDF, cfg.NoManifest)
	}
	if cfg.CacheDir != ".cache" || cfg.CacheMaxAge != 48*time.Hour || !cfg.CacheStrictPerms {
		t.Fatalf("cache fields: %+v", cfg)
	}
	if cfg.FirecrawlURL == "" || cfg.ExtractTimeout != DefaultExtractTimeout {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if got := profile.Select("https://docs.stripe.com/api", cfg.Rules()); got.Name != profile.APIReference {
		t.Fatalf("configured host not routed: %s", got.Name)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"backend":"firecrawl","firecrawl":{"key":"fc","url":"http://fc.local"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Firecrawl.APIKey != "fc" || fc.Firecrawl.URL != "http://fc.local" {
		t.Fatalf("unexpected: %+v", fc.Firecrawl)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("backend: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := DefaultConfig()
	valid.FirecrawlAPIKey = "fc"

	cases := []struct {
		name  string
		mut   func(c *Config)
		field string
	}{
		{"firecrawl without key", func(c *Config) { c.FirecrawlAPIKey = "" }, "firecrawl.key"},
		{"llm without model", func(c *Config) { c.Backend = "llm" }, "llm.model"},
		{"unknown backend", func(c *Config) { c.Backend = "scrapy" }, "backend"},
		{"unknown profile", func(c *Config) { c.Profile = "tutorial" }, "profile"},
		{"unknown default profile", func(c *Config) { c.DefaultProfile = "tutorial" }, "profiles"},
		{"empty output", func(c *Config) { c.OutputDir = " " }, "output"},
		{"negative timeout", func(c *Config) { c.FetchTimeout = -time.Second }, ""},
	}
	if err := ValidateConfig(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mut(&cfg)
			err := ValidateConfig(cfg)
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cerr.Field != tc.field {
				t.Fatalf("field = %q, want %q", cerr.Field, tc.field)
			}
		})
	}
}

func TestValidateConfig_DryRunNeedsNoCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DryRun = true
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("dry run should not need a key: %v", err)
	}
	cfg.Backend = "llm"
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("dry run should not need a model: %v", err)
	}
}

func TestCollectURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	list := "# python docs\nhttps://docs.python.org/3/library/json.html\n\n  https://docs.python.org/3/library/os.html  \nhttps://docs.python.org/3/library/json.html#json.dumps\n"
	if err := os.WriteFile(path, []byte(list), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := Config{URLs: []string{"https://platform.openai.com/docs/api-reference", " "}, InputPath: path}
	urls, err := collectURLs(cfg, nil)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := []string{
		"https://platform.openai.com/docs/api-reference",
		"https://docs.python.org/3/library/json.html",
		"https://docs.python.org/3/library/os.html",
	}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v", urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Fatalf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestCollectURLs_Errors(t *testing.T) {
	var cerr *ConfigError
	if _, err := collectURLs(Config{}, nil); !errors.As(err, &cerr) || cerr.Field != "urls" {
		t.Fatalf("expected urls config error, got %v", err)
	}
	if _, err := collectURLs(Config{InputPath: filepath.Join(t.TempDir(), "nope.txt")}, nil); !errors.As(err, &cerr) || cerr.Field != "input" {
		t.Fatalf("expected input config error, got %v", err)
	}
}
