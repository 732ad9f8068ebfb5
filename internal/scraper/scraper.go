// Package scraper runs the extract, normalize, persist pipeline over a list
// of documentation URLs, one URL at a time.
package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/docscrape/internal/extract"
	"github.com/hyperifyio/docscrape/internal/profile"
	"github.com/hyperifyio/docscrape/internal/record"
)

// Sink receives every successfully normalized record and returns where it
// was stored. An error from Persist aborts the run.
type Sink interface {
	Persist(ctx context.Context, rec record.DocumentRecord) (string, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec record.DocumentRecord) (string, error)

func (f SinkFunc) Persist(ctx context.Context, rec record.DocumentRecord) (string, error) {
	return f(ctx, rec)
}

// Status of a single URL in a run.
type Status string

const (
	StatusSaved  Status = "saved"
	StatusFailed Status = "failed"
)

// Outcome describes what happened to one URL.
type Outcome struct {
	URL     string
	Profile profile.Name
	Status  Status
	Path    string
	Blocks  int
	// ErrorKind is the extraction error kind, or "normalization_error".
	ErrorKind string
	Err       error
}

// Scraper wires an extraction backend to the normalizer.
type Scraper struct {
	Extractor  extract.Extractor
	Normalizer profile.Normalizer
	Rules      profile.Rules
	// ProfileOverride, when non-empty, is used for every URL instead of the
	// host rules.
	ProfileOverride profile.Name
}

// Profile returns the profile that will be used for rawURL.
func (s *Scraper) Profile(rawURL string) (profile.Profile, error) {
	if s.ProfileOverride != "" {
		return profile.Lookup(s.ProfileOverride)
	}
	return profile.Select(rawURL, s.Rules), nil
}

// Scrape extracts and normalizes one request. urls[0] selects the profile
// and becomes the record URL. Failures are returned unchanged so callers
// can tell *extract.Error and *profile.NormalizationError apart.
func (s *Scraper) Scrape(ctx context.Context, urls []string) (*record.DocumentRecord, error) {
	if len(urls) == 0 {
		return nil, &extract.Error{Kind: extract.KindInvalidSource, Reason: "no urls given"}
	}
	src := urls[0]
	p, err := s.Profile(src)
	if err != nil {
		return nil, err
	}
	log.Info().Str("url", src).Str("profile", string(p.Name)).Msg("scraping")

	payload, err := s.Extractor.Extract(ctx, urls, p)
	if err != nil {
		return nil, err
	}
	rec, err := s.Normalizer.Normalize(payload, p, src)
	if err != nil {
		return nil, err
	}
	log.Info().Str("url", src).Str("profile", string(p.Name)).Int("blocks", len(rec.Content)).Msg("scraped")
	return &rec, nil
}

// Run scrapes each URL in order and hands successful records to sink.
// Extraction and normalization failures are logged and recorded as failed
// outcomes; the batch continues. Any other error, including context
// cancellation and sink failures, stops the run and is returned together
// with the outcomes collected so far.
func (s *Scraper) Run(ctx context.Context, urls []string, sink Sink) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(urls))
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out := Outcome{URL: u}
		if p, err := s.Profile(u); err == nil {
			out.Profile = p.Name
		}

		rec, err := s.Scrape(ctx, []string{u})
		if err != nil {
			kind, ok := failureKind(err)
			if !ok {
				return outcomes, fmt.Errorf("scrape %s: %w", u, err)
			}
			log.Warn().Err(err).Str("url", u).Str("kind", kind).Msg("scrape failed")
			out.Status = StatusFailed
			out.ErrorKind = kind
			out.Err = err
			outcomes = append(outcomes, out)
			continue
		}

		path, err := sink.Persist(ctx, *rec)
		if err != nil {
			return outcomes, fmt.Errorf("persist %s: %w", u, err)
		}
		out.Status = StatusSaved
		out.Path = path
		out.Blocks = len(rec.Content)
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// failureKind reports whether err is a per-URL failure the batch survives.
func failureKind(err error) (string, bool) {
	var xerr *extract.Error
	if errors.As(err, &xerr) {
		return string(xerr.Kind), true
	}
	var nerr *profile.NormalizationError
	if errors.As(err, &nerr) {
		return "normalization_error", true
	}
	return "", false
}

// CountFailed returns how many outcomes failed.
func CountFailed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == StatusFailed {
			n++
		}
	}
	return n
}
