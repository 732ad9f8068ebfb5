package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/docscrape/internal/extract"
	"github.com/hyperifyio/docscrape/internal/profile"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Sources
	URLs      []string
	InputPath string

	// Output
	OutputDir     string
	WriteMarkdown bool
	WritePDF      bool
	NoManifest    bool

	// Extraction
	Backend        string
	ExtractTimeout time.Duration

	FirecrawlURL    string
	FirecrawlAPIKey string

	LLMBaseURL   string
	LLMModel     string
	LLMAPIKey    string
	MaxPageChars int

	// Page fetching for the llm backend
	UserAgent    string
	FetchTimeout time.Duration
	IgnoreRobots bool

	// Profiles
	Profile           string
	DefaultProfile    string
	APIReferenceHosts []string
	NarrativeHosts    []string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Behavior
	DryRun  bool
	Verbose bool
}

const (
	DefaultOutputDir      = "output"
	DefaultUserAgent      = "docscrape/1.0 (+https://github.com/hyperifyio/docscrape)"
	DefaultExtractTimeout = 60 * time.Second
	DefaultFetchTimeout   = 15 * time.Second
)

// DefaultConfig returns the configuration used before any file, env or flag
// is applied. Caching is off until a cache dir is given.
func DefaultConfig() Config {
	return Config{
		OutputDir:      DefaultOutputDir,
		Backend:        extract.BackendFirecrawl,
		ExtractTimeout: DefaultExtractTimeout,
		FirecrawlURL:   extract.DefaultFirecrawlURL,
		UserAgent:      DefaultUserAgent,
		FetchTimeout:   DefaultFetchTimeout,
		DefaultProfile: string(profile.Narrative),
	}
}

// Rules builds the host table used for profile selection.
func (c Config) Rules() profile.Rules {
	r := profile.DefaultRules()
	if c.DefaultProfile != "" {
		r.Default = profile.Name(strings.ToLower(strings.TrimSpace(c.DefaultProfile)))
	}
	r = r.WithHosts(profile.APIReference, c.APIReferenceHosts...)
	return r.WithHosts(profile.Narrative, c.NarrativeHosts...)
}

// ConfigError is a configuration problem detected before any extraction.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(field, msg string) *ConfigError {
	return &ConfigError{Field: field, Err: errors.New(msg)}
}

// ValidateConfig checks required settings for the selected backend. In dry
// run no service is contacted, so credentials may be omitted.
func ValidateConfig(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case extract.BackendFirecrawl:
		if !cfg.DryRun && strings.TrimSpace(cfg.FirecrawlAPIKey) == "" {
			return configErr("firecrawl.key", "API key is required (set FIRECRAWL_API_KEY)")
		}
	case extract.BackendLLM:
		if !cfg.DryRun && strings.TrimSpace(cfg.LLMModel) == "" {
			return configErr("llm.model", "model is required (set LLM_MODEL)")
		}
	default:
		return configErr("backend", fmt.Sprintf("unknown backend %q (want %s or %s)", cfg.Backend, extract.BackendFirecrawl, extract.BackendLLM))
	}
	if !cfg.DryRun && strings.TrimSpace(cfg.OutputDir) == "" {
		return configErr("output", "output dir is required")
	}
	if cfg.Profile != "" {
		if _, err := profile.Lookup(profile.Name(cfg.Profile)); err != nil {
			return &ConfigError{Field: "profile", Err: err}
		}
	}
	if err := cfg.Rules().Validate(); err != nil {
		return &ConfigError{Field: "profiles", Err: err}
	}
	if cfg.ExtractTimeout < 0 || cfg.FetchTimeout < 0 || cfg.CacheMaxAge < 0 {
		return configErr("", "negative durations are not allowed")
	}
	if cfg.MaxPageChars < 0 {
		return configErr("llm.maxPageChars", "must not be negative")
	}
	return nil
}

// SplitList parses a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
