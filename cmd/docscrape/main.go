package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/docscrape/internal/app"
)

const (
	exitOK        = 0
	exitError     = 1
	exitAllFailed = 2
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(exitError)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	os.Exit(exitCode(err))
}

// flagValues mirrors Config for the flag package.
type flagValues struct {
	urls            string
	input           string
	output          string
	backend         string
	profile         string
	defaultProfile  string
	apiRefHosts     string
	narrativeHosts  string
	firecrawlURL    string
	firecrawlKey    string
	extractTimeout  time.Duration
	llmBaseURL      string
	llmModel        string
	llmKey          string
	llmMaxPageChars int
	fetchUA         string
	fetchTimeout    time.Duration
	ignoreRobots    bool
	markdown        bool
	pdf             bool
	noManifest      bool
	cacheDir        string
	cacheMaxAge     time.Duration
	cacheClear      bool
	cacheStrict     bool
	dryRun          bool
	verbose         bool
	configPath      string
	envFiles        string
	version         bool
}

// parseConfig resolves configuration with precedence flags > env > config
// file > defaults. Dotenv files are loaded into the environment first.
func parseConfig(args []string, stderr io.Writer) (app.Config, error) {
	def := app.DefaultConfig()
	var v flagValues

	fs := flag.NewFlagSet("docscrape", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: docscrape [flags] [url ...]\n\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&v.urls, "urls", "", "Comma-separated documentation URLs")
	fs.StringVar(&v.input, "input", "", "File with one URL per line ('#' comments allowed, '-' for stdin)")
	fs.StringVar(&v.output, "output", def.OutputDir, "Directory for record files and the run manifest")
	fs.StringVar(&v.backend, "backend", def.Backend, "Extraction backend: firecrawl or llm")
	fs.StringVar(&v.profile, "profile", "", "Force one extraction profile for every URL (api-reference or narrative)")
	fs.StringVar(&v.defaultProfile, "profiles.default", def.DefaultProfile, "Profile for hosts without a rule")
	fs.StringVar(&v.apiRefHosts, "profiles.apiReferenceHosts", "", "Comma-separated extra hosts routed to the api-reference profile")
	fs.StringVar(&v.narrativeHosts, "profiles.narrativeHosts", "", "Comma-separated extra hosts routed to the narrative profile")
	fs.StringVar(&v.firecrawlURL, "firecrawl.url", def.FirecrawlURL, "Extraction service base URL")
	fs.StringVar(&v.firecrawlKey, "firecrawl.key", "", "Extraction service API key (prefer FIRECRAWL_API_KEY)")
	fs.DurationVar(&v.extractTimeout, "extract.timeout", def.ExtractTimeout, "Timeout for one extraction call")
	fs.StringVar(&v.llmBaseURL, "llm.base", "", "OpenAI-compatible base URL for the llm backend")
	fs.StringVar(&v.llmModel, "llm.model", "", "Model name for the llm backend")
	fs.StringVar(&v.llmKey, "llm.key", "", "API key for the OpenAI-compatible server")
	fs.IntVar(&v.llmMaxPageChars, "llm.maxPageChars", 0, "Maximum page characters sent to the model (0 uses the default)")
	fs.StringVar(&v.fetchUA, "fetch.ua", def.UserAgent, "User-Agent for page fetches in the llm backend")
	fs.DurationVar(&v.fetchTimeout, "fetch.timeout", def.FetchTimeout, "Timeout for one page fetch")
	fs.BoolVar(&v.ignoreRobots, "fetch.ignoreRobots", false, "Do not consult robots.txt before page fetches")
	fs.BoolVar(&v.markdown, "markdown", false, "Also write a Markdown rendering next to each record")
	fs.BoolVar(&v.pdf, "pdf", false, "Also write a PDF rendering next to each record")
	fs.BoolVar(&v.noManifest, "no-manifest", false, "Do not write manifest.json")
	fs.StringVar(&v.cacheDir, "cache.dir", "", "Cache directory; empty disables caching")
	fs.DurationVar(&v.cacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this (e.g. 24h); 0 disables")
	fs.BoolVar(&v.cacheClear, "cache.clear", false, "Clear the cache directory before the run")
	fs.BoolVar(&v.cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&v.dryRun, "dry-run", false, "Print the profile chosen for each URL without extracting")
	fs.BoolVar(&v.verbose, "v", false, "Verbose logging")
	fs.StringVar(&v.configPath, "config", "", "YAML or JSON config file")
	fs.StringVar(&v.envFiles, "env", ".env", "Comma-separated dotenv files to load")
	fs.BoolVar(&v.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return app.Config{}, err
	}
	if v.version {
		fmt.Fprintf(stderr, "docscrape %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return app.Config{}, flag.ErrHelp
	}

	if err := app.LoadEnvFiles(app.SplitList(v.envFiles)...); err != nil {
		return app.Config{}, &app.ConfigError{Field: "env", Err: err}
	}

	cfg := def
	if strings.TrimSpace(v.configPath) != "" {
		fc, err := app.LoadConfigFile(v.configPath)
		if err != nil {
			return app.Config{}, &app.ConfigError{Field: "config", Err: err}
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "urls":
			cfg.URLs = app.SplitList(v.urls)
		case "input":
			cfg.InputPath = v.input
		case "output":
			cfg.OutputDir = v.output
		case "backend":
			cfg.Backend = v.backend
		case "profile":
			cfg.Profile = v.profile
		case "profiles.default":
			cfg.DefaultProfile = v.defaultProfile
		case "profiles.apiReferenceHosts":
			cfg.APIReferenceHosts = app.SplitList(v.apiRefHosts)
		case "profiles.narrativeHosts":
			cfg.NarrativeHosts = app.SplitList(v.narrativeHosts)
		case "firecrawl.url":
			cfg.FirecrawlURL = v.firecrawlURL
		case "firecrawl.key":
			cfg.FirecrawlAPIKey = v.firecrawlKey
		case "extract.timeout":
			cfg.ExtractTimeout = v.extractTimeout
		case "llm.base":
			cfg.LLMBaseURL = v.llmBaseURL
		case "llm.model":
			cfg.LLMModel = v.llmModel
		case "llm.key":
			cfg.LLMAPIKey = v.llmKey
		case "llm.maxPageChars":
			cfg.MaxPageChars = v.llmMaxPageChars
		case "fetch.ua":
			cfg.UserAgent = v.fetchUA
		case "fetch.timeout":
			cfg.FetchTimeout = v.fetchTimeout
		case "fetch.ignoreRobots":
			cfg.IgnoreRobots = v.ignoreRobots
		case "markdown":
			cfg.WriteMarkdown = v.markdown
		case "pdf":
			cfg.WritePDF = v.pdf
		case "no-manifest":
			cfg.NoManifest = v.noManifest
		case "cache.dir":
			cfg.CacheDir = v.cacheDir
		case "cache.maxAge":
			cfg.CacheMaxAge = v.cacheMaxAge
		case "cache.clear":
			cfg.CacheClear = v.cacheClear
		case "cache.strictPerms":
			cfg.CacheStrictPerms = v.cacheStrict
		case "dry-run":
			cfg.DryRun = v.dryRun
		case "v":
			cfg.Verbose = v.verbose
		}
	})
	cfg.URLs = append(cfg.URLs, fs.Args()...)
	return cfg, nil
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}

// exitCode maps run errors onto exit codes: 2 when every URL failed,
// 1 for configuration, I/O and any other fatal error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, app.ErrAllFailed):
		return exitAllFailed
	default:
		return exitError
	}
}
