package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/docscrape/internal/record"
)

// NormalizationError reports a payload that does not have the minimal shape
// the profile expects, e.g. not a JSON object or a field of the wrong type.
type NormalizationError struct {
	Profile Name
	Err     error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s payload: %v", e.Profile, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// ErrNotObject is wrapped by NormalizationError when the payload is not a JSON object.
var ErrNotObject = errors.New("payload is not a JSON object")

// blockRule decodes a profile payload into a title and ordered blocks.
type blockRule func(payload []byte) (string, []record.ContentBlock, error)

// Normalizer turns extraction payloads into DocumentRecords. It holds no
// state beyond the clock used to stamp records.
type Normalizer struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

// Normalize maps payload through the rule of p. Given the same payload and
// profile the content sequence is always identical; only the timestamp
// varies. A record without content is returned with a warning, not an error.
func (n Normalizer) Normalize(payload json.RawMessage, p Profile, sourceURL string) (record.DocumentRecord, error) {
	if p.blocks == nil {
		return record.DocumentRecord{}, &NormalizationError{Profile: p.Name, Err: errors.New("profile has no normalization rule")}
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return record.DocumentRecord{}, &NormalizationError{Profile: p.Name, Err: ErrNotObject}
	}
	title, blocks, err := p.blocks(trimmed)
	if err != nil {
		return record.DocumentRecord{}, &NormalizationError{Profile: p.Name, Err: err}
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	rec := record.DocumentRecord{
		Title:     title,
		URL:       sourceURL,
		Timestamp: now().UTC().Format(record.TimestampLayout),
		Content:   blocks,
	}
	if len(rec.Content) == 0 {
		log.Warn().Str("url", sourceURL).Str("profile", string(p.Name)).Msg("no content found")
	}
	return rec, nil
}

type endpointPayload struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// APIReferencePayload is the result shape requested by the api-reference profile.
type APIReferencePayload struct {
	Title     string            `json:"title"`
	Headings  []string          `json:"headings"`
	Content   []string          `json:"content"`
	Endpoints []endpointPayload `json:"endpoints"`
}

func apiReferenceBlocks(payload []byte) (string, []record.ContentBlock, error) {
	var p APIReferencePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", nil, err
	}
	blocks := make([]record.ContentBlock, 0, len(p.Headings)+len(p.Content)+len(p.Endpoints))
	for _, h := range p.Headings {
		blocks = append(blocks, record.Heading(h))
	}
	for _, t := range p.Content {
		blocks = append(blocks, record.Text(t))
	}
	for _, e := range p.Endpoints {
		blocks = append(blocks, record.Endpoint(e.Method, e.Path, e.Description))
	}
	return p.Title, blocks, nil
}

type sectionPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type parameterPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type functionPayload struct {
	Signature   string             `json:"signature"`
	Description string             `json:"description"`
	Parameters  []parameterPayload `json:"parameters"`
}

// NarrativePayload is the result shape requested by the narrative profile.
// Module fields win over their generic counterparts when both are present.
type NarrativePayload struct {
	ModuleName        string            `json:"module_name"`
	Title             string            `json:"title"`
	ModuleDescription string            `json:"module_description"`
	Description       string            `json:"description"`
	Heading           string            `json:"heading"`
	Sections          []sectionPayload  `json:"sections"`
	Functions         []functionPayload `json:"functions"`
}

func (p NarrativePayload) title() string {
	if p.ModuleName != "" {
		return p.ModuleName
	}
	return p.Title
}

func (p NarrativePayload) description() string {
	if p.ModuleDescription != "" {
		return p.ModuleDescription
	}
	return p.Description
}

func narrativeBlocks(payload []byte) (string, []record.ContentBlock, error) {
	var p NarrativePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", nil, err
	}
	blocks := make([]record.ContentBlock, 0, 1+len(p.Sections)+len(p.Functions)*3)
	if d := p.description(); d != "" {
		blocks = append(blocks, record.Description(d))
	}
	switch {
	case len(p.Sections) > 0:
		for _, s := range p.Sections {
			blocks = append(blocks, record.Section(s.Title, s.Content))
		}
	case p.Heading != "" || len(p.Functions) > 0:
		if p.Heading != "" {
			blocks = append(blocks, record.Heading(p.Heading))
		}
		for _, fn := range p.Functions {
			if fn.Signature != "" {
				blocks = append(blocks, record.FunctionSignature(fn.Signature))
			}
			if fn.Description != "" {
				blocks = append(blocks, record.FunctionDescription(fn.Description))
			}
			for _, param := range fn.Parameters {
				blocks = append(blocks, record.Parameter(param.Name, param.Description))
			}
		}
	}
	return p.title(), blocks, nil
}
