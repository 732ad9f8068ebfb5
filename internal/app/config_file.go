package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the YAML/JSON configuration file schema. Nested sections map
// onto the dotted flag names.
type FileConfig struct {
	URLs    []string `yaml:"urls" json:"urls"`
	Input   string   `yaml:"input" json:"input"`
	Output  string   `yaml:"output" json:"output"`
	Backend string   `yaml:"backend" json:"backend"`
	Profile string   `yaml:"profile" json:"profile"`

	Profiles struct {
		Default           string   `yaml:"default" json:"default"`
		APIReferenceHosts []string `yaml:"apiReferenceHosts" json:"apiReferenceHosts"`
		NarrativeHosts    []string `yaml:"narrativeHosts" json:"narrativeHosts"`
	} `yaml:"profiles" json:"profiles"`

	Firecrawl struct {
		URL     string        `yaml:"url" json:"url"`
		APIKey  string        `yaml:"key" json:"key"`
		Timeout time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"firecrawl" json:"firecrawl"`

	LLM struct {
		BaseURL      string `yaml:"base" json:"base"`
		Model        string `yaml:"model" json:"model"`
		APIKey       string `yaml:"key" json:"key"`
		MaxPageChars int    `yaml:"maxPageChars" json:"maxPageChars"`
	} `yaml:"llm" json:"llm"`

	Fetch struct {
		UserAgent    string        `yaml:"ua" json:"ua"`
		Timeout      time.Duration `yaml:"timeout" json:"timeout"`
		IgnoreRobots bool          `yaml:"ignoreRobots" json:"ignoreRobots"`
	} `yaml:"fetch" json:"fetch"`

	Render struct {
		Markdown bool `yaml:"markdown" json:"markdown"`
		PDF      bool `yaml:"pdf" json:"pdf"`
	} `yaml:"render" json:"render"`

	Manifest *bool `yaml:"manifest" json:"manifest"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	DryRun  bool `yaml:"dryRun" json:"dryRun"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays the non-zero values of fc onto cfg. It runs on
// top of DefaultConfig, before env overrides and explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setDur := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}

	if len(fc.URLs) > 0 {
		cfg.URLs = append([]string{}, fc.URLs...)
	}
	setStr(&cfg.InputPath, fc.Input)
	setStr(&cfg.OutputDir, fc.Output)
	setStr(&cfg.Backend, fc.Backend)
	setStr(&cfg.Profile, fc.Profile)

	setStr(&cfg.DefaultProfile, fc.Profiles.Default)
	if len(fc.Profiles.APIReferenceHosts) > 0 {
		cfg.APIReferenceHosts = append([]string{}, fc.Profiles.APIReferenceHosts...)
	}
	if len(fc.Profiles.NarrativeHosts) > 0 {
		cfg.NarrativeHosts = append([]string{}, fc.Profiles.NarrativeHosts...)
	}

	setStr(&cfg.FirecrawlURL, fc.Firecrawl.URL)
	setStr(&cfg.FirecrawlAPIKey, fc.Firecrawl.APIKey)
	setDur(&cfg.ExtractTimeout, fc.Firecrawl.Timeout)

	setStr(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setStr(&cfg.LLMModel, fc.LLM.Model)
	setStr(&cfg.LLMAPIKey, fc.LLM.APIKey)
	if fc.LLM.MaxPageChars > 0 {
		cfg.MaxPageChars = fc.LLM.MaxPageChars
	}

	setStr(&cfg.UserAgent, fc.Fetch.UserAgent)
	setDur(&cfg.FetchTimeout, fc.Fetch.Timeout)
	if fc.Fetch.IgnoreRobots {
		cfg.IgnoreRobots = true
	}

	if fc.Render.Markdown {
		cfg.WriteMarkdown = true
	}
	if fc.Render.PDF {
		cfg.WritePDF = true
	}
	if fc.Manifest != nil {
		cfg.NoManifest = !*fc.Manifest
	}

	setStr(&cfg.CacheDir, fc.Cache.Dir)
	setDur(&cfg.CacheMaxAge, fc.Cache.MaxAge)
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if fc.DryRun {
		cfg.DryRun = true
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
}
