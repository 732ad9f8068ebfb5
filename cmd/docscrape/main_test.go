package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperifyio/docscrape/internal/app"
	"github.com/hyperifyio/docscrape/internal/record"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FIRECRAWL_API_KEY", "FIRECRAWL_API_URL", "EXTRACT_BACKEND", "LLM_MODEL", "OUTPUT_DIR", "CACHE_DIR", "DRY_RUN", "API_REFERENCE_HOSTS"} {
		t.Setenv(k, "")
	}
}

func TestParseConfig_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "docscrape.yaml")
	yml := "output: from-file\nbackend: llm\nllm:\n  model: file-model\nfirecrawl:\n  key: file-key\n"
	if err := os.WriteFile(cfgPath, []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OUTPUT_DIR", "from-env")
	t.Setenv("LLM_MODEL", "env-model")

	cfg, err := parseConfig([]string{
		"-config", cfgPath,
		"-env", filepath.Join(dir, "missing.env"),
		"-output", "from-flag",
		"-urls", "https://a.example/x, https://b.example/y",
		"https://c.example/z",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.OutputDir != "from-flag" {
		t.Fatalf("flag should win: %q", cfg.OutputDir)
	}
	if cfg.LLMModel != "env-model" {
		t.Fatalf("env should beat file: %q", cfg.LLMModel)
	}
	if cfg.Backend != "llm" || cfg.FirecrawlAPIKey != "file-key" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.ExtractTimeout != 60*time.Second {
		t.Fatalf("default timeout lost: %v", cfg.ExtractTimeout)
	}
	if len(cfg.URLs) != 3 || cfg.URLs[2] != "https://c.example/z" {
		t.Fatalf("urls = %v", cfg.URLs)
	}
}

func TestParseConfig_DotenvSuppliesKey(t *testing.T) {
	clearEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte("FIRECRAWL_API_KEY=fc-from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	cfg, err := parseConfig([]string{"-env", envPath}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.FirecrawlAPIKey != "fc-from-dotenv" {
		t.Fatalf("key = %q", cfg.FirecrawlAPIKey)
	}
}

func TestParseConfig_BadConfigFile(t *testing.T) {
	clearEnv(t)
	_, err := parseConfig([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}, io.Discard)
	var cerr *app.ConfigError
	if !errors.As(err, &cerr) || cerr.Field != "config" {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestParseConfig_Version(t *testing.T) {
	if _, err := parseConfig([]string{"-version"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
}

func TestRun_DryRun(t *testing.T) {
	cfg := app.DefaultConfig()
	cfg.DryRun = true
	cfg.URLs = []string{"https://docs.python.org/3/library/datetime.html"}
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
}

func TestRun_MissingKeyIsConfigError(t *testing.T) {
	cfg := app.DefaultConfig()
	cfg.URLs = []string{"https://docs.python.org/3/library/datetime.html"}
	err := run(context.Background(), cfg)
	var cerr *app.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *app.ConfigError, got %v", err)
	}
	if exitCode(err) != exitError {
		t.Fatalf("exit code = %d", exitCode(err))
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{app.ErrAllFailed, exitAllFailed},
		{fmt.Errorf("wrapped: %w", app.ErrAllFailed), exitAllFailed},
		{&record.IOError{Op: "write", Path: "x", Err: os.ErrPermission}, exitError},
		{&app.ConfigError{Field: "backend", Err: errors.New("bad")}, exitError},
		{context.Canceled, exitError},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
