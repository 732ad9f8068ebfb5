package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. It runs after the config file and before explicit flags, so env beats
// file and flags beat env.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("EXTRACT_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("FIRECRAWL_API_KEY"); v != "" {
		cfg.FirecrawlAPIKey = v
	}
	if v := os.Getenv("FIRECRAWL_API_URL"); v != "" {
		cfg.FirecrawlURL = v
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_MAX_PAGE_CHARS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxPageChars = n
		}
	}

	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("API_REFERENCE_HOSTS"); strings.TrimSpace(v) != "" {
		cfg.APIReferenceHosts = SplitList(v)
	}
	if v := os.Getenv("NARRATIVE_HOSTS"); strings.TrimSpace(v) != "" {
		cfg.NarrativeHosts = SplitList(v)
	}
	if v := os.Getenv("DEFAULT_PROFILE"); v != "" {
		cfg.DefaultProfile = v
	}

	setDuration := func(dst *time.Duration, envKey string) {
		if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setDuration(&cfg.ExtractTimeout, "EXTRACT_TIMEOUT")

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.IgnoreRobots, "IGNORE_ROBOTS")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
