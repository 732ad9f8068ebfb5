package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/docscrape/internal/cache"
	"github.com/hyperifyio/docscrape/internal/extract"
	"github.com/hyperifyio/docscrape/internal/fetch"
	"github.com/hyperifyio/docscrape/internal/llm"
	"github.com/hyperifyio/docscrape/internal/profile"
	"github.com/hyperifyio/docscrape/internal/robots"
	"github.com/hyperifyio/docscrape/internal/scraper"
)

// ErrAllFailed is returned when every URL of a run failed extraction or
// normalization. The CLI maps it to exit code 2.
var ErrAllFailed = errors.New("all URLs failed")

type App struct {
	cfg     Config
	scraper *scraper.Scraper
	// models is set for the llm backend and checked once per Run.
	models llm.ModelLister
	stdin  io.Reader
	stdout io.Writer
}

// New validates cfg and wires the configured extraction backend. It does
// not contact any service.
func New(ctx context.Context, cfg Config) (*App, error) {
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	var pageCache *cache.PageCache
	var payloadCache *cache.PayloadCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		pageCache = &cache.PageCache{Dir: filepath.Join(cfg.CacheDir, "pages"), StrictPerms: cfg.CacheStrictPerms}
		payloadCache = &cache.PayloadCache{Dir: filepath.Join(cfg.CacheDir, "payloads"), StrictPerms: cfg.CacheStrictPerms}
	}

	var ex extract.Extractor
	var models llm.ModelLister
	switch cfg.Backend {
	case extract.BackendLLM:
		provider := llm.NewOpenAIProvider(cfg.LLMBaseURL, cfg.LLMAPIKey, newHTTPClient(cfg.ExtractTimeout))
		fetcher := &fetch.Client{
			HTTPClient:        newHTTPClient(cfg.FetchTimeout),
			UserAgent:         cfg.UserAgent,
			PerRequestTimeout: cfg.FetchTimeout,
			Cache:             pageCache,
			BypassCache:       cfg.CacheClear,
			RedirectMaxHops:   5,
		}
		if !cfg.IgnoreRobots {
			fetcher.Robots = &robots.Manager{
				HTTPClient: newHTTPClient(cfg.FetchTimeout),
				Cache:      pageCache,
				UserAgent:  cfg.UserAgent,
			}
		}
		ex = &extract.LLM{
			Client:   provider,
			Model:    cfg.LLMModel,
			Fetcher:  fetcher,
			Cache:    payloadCache,
			MaxChars: cfg.MaxPageChars,
		}
		models = provider
	default:
		fc := extract.NewFirecrawl(cfg.FirecrawlURL, cfg.FirecrawlAPIKey, newHTTPClient(cfg.ExtractTimeout))
		fc.Timeout = cfg.ExtractTimeout
		ex = fc
	}

	return &App{
		cfg: cfg,
		scraper: &scraper.Scraper{
			Extractor:       ex,
			Normalizer:      profile.Normalizer{},
			Rules:           cfg.Rules(),
			ProfileOverride: profile.Name(strings.ToLower(strings.TrimSpace(cfg.Profile))),
		},
		models: models,
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}, nil
}

// preflight lists models to surface connectivity problems early. It never
// fails the run.
func preflight(ctx context.Context, l llm.ModelLister, model string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ok, err := llm.HasModel(ctx, l, model)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
	case !ok:
		log.Warn().Str("model", model).Msg("model not listed by server; continuing")
	default:
		log.Debug().Str("model", model).Msg("model available")
	}
}

// SetIO replaces stdin and stdout, mainly for tests.
func (a *App) SetIO(stdin io.Reader, stdout io.Writer) {
	a.stdin = stdin
	a.stdout = stdout
}

func (a *App) Close() {
	// nothing yet
}

// Run scrapes every configured URL in order. Per-URL extraction and
// normalization failures are skipped; configuration and I/O errors are
// returned. ErrAllFailed is returned when nothing could be saved.
func (a *App) Run(ctx context.Context) error {
	urls, err := collectURLs(a.cfg, a.stdin)
	if err != nil {
		return err
	}
	if a.cfg.DryRun {
		return a.dryRun(urls)
	}
	if a.models != nil {
		preflight(ctx, a.models, a.cfg.LLMModel)
	}

	sink := newFileSink(a.cfg)
	outcomes, runErr := a.scraper.Run(ctx, urls, sink)

	failed := scraper.CountFailed(outcomes)
	if !a.cfg.NoManifest && len(outcomes) > 0 {
		meta := manifestMeta{
			GeneratedAt: time.Now().UTC(),
			Version:     BuildVersion,
			Backend:     a.cfg.Backend,
			Total:       len(outcomes),
			Saved:       len(outcomes) - failed,
			Failed:      failed,
		}
		if a.cfg.Backend == extract.BackendLLM {
			meta.Model = a.cfg.LLMModel
		}
		path, err := writeManifest(a.cfg.OutputDir, meta, buildManifestEntries(outcomes, sink.digests))
		if err != nil {
			if runErr == nil {
				return err
			}
			log.Warn().Err(err).Msg("manifest write failed")
		} else {
			log.Debug().Str("path", path).Msg("wrote manifest")
		}
	}
	if runErr != nil {
		return runErr
	}

	log.Info().Int("total", len(outcomes)).Int("saved", len(outcomes)-failed).Int("failed", failed).Msg("run complete")
	if failed > 0 && failed == len(outcomes) {
		return ErrAllFailed
	}
	return nil
}

// dryRun prints the profile chosen for each URL and writes nothing.
func (a *App) dryRun(urls []string) error {
	for _, u := range urls {
		p, err := a.scraper.Profile(u)
		if err != nil {
			return &ConfigError{Field: "profile", Err: err}
		}
		if _, err := fmt.Fprintf(a.stdout, "%s\t%s\n", p.Name, u); err != nil {
			return fmt.Errorf("write dry-run output: %w", err)
		}
	}
	log.Info().Int("urls", len(urls)).Str("backend", a.cfg.Backend).Msg("dry run: nothing extracted")
	return nil
}
