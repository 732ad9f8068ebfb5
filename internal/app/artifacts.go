package app

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/docscrape/internal/record"
)

// fileSink persists records under dir and optionally renders Markdown and
// PDF siblings. It remembers the digest of every JSON file for the manifest.
type fileSink struct {
	dir      string
	markdown bool
	pdf      bool
	now      func() time.Time
	digests  map[string]string
}

func newFileSink(cfg Config) *fileSink {
	return &fileSink{
		dir:      cfg.OutputDir,
		markdown: cfg.WriteMarkdown,
		pdf:      cfg.WritePDF,
		now:      time.Now,
		digests:  map[string]string{},
	}
}

// Persist implements scraper.Sink.
func (s *fileSink) Persist(_ context.Context, rec record.DocumentRecord) (string, error) {
	path := record.OutputPath(s.dir, rec.URL, s.now())
	data, err := record.Marshal(rec)
	if err != nil {
		return "", &record.IOError{Op: "encode", Path: path, Err: err}
	}
	if err := record.WriteFile(path, data); err != nil {
		return "", err
	}
	s.digests[path] = computeSHA256Hex(data)
	log.Info().Str("path", path).Str("url", rec.URL).Int("blocks", len(rec.Content)).Msg("saved")

	if s.markdown {
		mdPath := record.SiblingPath(path, ".md")
		if err := os.WriteFile(mdPath, []byte(record.RenderMarkdown(rec)), 0o644); err != nil {
			return path, &record.IOError{Op: "write", Path: mdPath, Err: err}
		}
		log.Debug().Str("path", mdPath).Msg("wrote markdown")
	}
	if s.pdf {
		pdfPath := record.SiblingPath(path, ".pdf")
		if err := record.WritePDF(rec, pdfPath); err != nil {
			return path, err
		}
		log.Debug().Str("path", pdfPath).Msg("wrote pdf")
	}
	return path, nil
}
