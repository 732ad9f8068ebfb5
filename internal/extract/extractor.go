// Package extract talks to the services that turn a documentation page into
// a schema-shaped JSON payload.
package extract

import (
	"context"
	"encoding/json"

	"github.com/hyperifyio/docscrape/internal/profile"
)

// Extractor makes exactly one extraction call for urls using p's schema and
// prompt. urls[0] identifies the source; the full list is forwarded.
// Failures are *Error, except context cancellation which is returned as is.
type Extractor interface {
	Extract(ctx context.Context, urls []string, p profile.Profile) (json.RawMessage, error)
}

// Backend names accepted by configuration.
const (
	BackendFirecrawl = "firecrawl"
	BackendLLM       = "llm"
)
