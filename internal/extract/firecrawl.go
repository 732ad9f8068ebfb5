package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/docscrape/internal/profile"
)

// DefaultFirecrawlURL is the hosted extraction service.
const DefaultFirecrawlURL = "https://api.firecrawl.dev"

const extractPath = "/v1/extract"

// Firecrawl calls a Firecrawl-compatible /v1/extract endpoint.
type Firecrawl struct {
	client *resty.Client
	// Timeout bounds one extraction call. Zero means no extra bound.
	Timeout time.Duration
}

type extractRequest struct {
	URLs   []string       `json:"urls"`
	Prompt string         `json:"prompt,omitempty"`
	Schema map[string]any `json:"schema"`
}

type extractResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Warning string          `json:"warning"`
}

// NewFirecrawl returns a client for baseURL authenticated with apiKey. When
// httpClient is nil resty's default client is used.
func NewFirecrawl(baseURL, apiKey string, httpClient *http.Client) *Firecrawl {
	var c *resty.Client
	if httpClient != nil {
		c = resty.NewWithClient(httpClient)
	} else {
		c = resty.New()
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultFirecrawlURL
	}
	c.SetBaseURL(strings.TrimRight(baseURL, "/"))
	c.SetAuthToken(apiKey)
	c.SetHeader("Accept", "application/json")
	c.SetDisableWarn(true)
	return &Firecrawl{client: c}
}

// Extract implements Extractor.
func (f *Firecrawl) Extract(ctx context.Context, urls []string, p profile.Profile) (json.RawMessage, error) {
	if err := checkURLs(urls); err != nil {
		return nil, err
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	src := urls[0]
	res, err := f.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(extractRequest{URLs: urls, Prompt: p.Prompt, Schema: p.Schema}).
		Post(extractPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && ctxErr != context.DeadlineExceeded {
			return nil, ctxErr
		}
		return nil, &Error{Kind: KindFetch, URL: src, Err: err}
	}

	var out extractResponse
	decodeErr := json.Unmarshal(res.Body(), &out)

	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		reason := http.StatusText(res.StatusCode())
		if decodeErr == nil && out.Error != "" {
			reason = out.Error
		}
		return nil, &Error{Kind: KindService, URL: src, StatusCode: res.StatusCode(), Reason: reason}
	}
	if decodeErr != nil {
		return nil, &Error{Kind: KindParse, URL: src, StatusCode: res.StatusCode(), Reason: "decode response", Err: decodeErr}
	}
	if !out.Success {
		reason := out.Error
		if reason == "" {
			reason = "service reported failure"
		}
		return nil, &Error{Kind: KindService, URL: src, StatusCode: res.StatusCode(), Reason: reason}
	}
	if out.Warning != "" {
		log.Warn().Str("url", src).Str("warning", out.Warning).Msg("extraction warning")
	}
	data, err := firstPayload(out.Data)
	if err != nil {
		return nil, &Error{Kind: KindParse, URL: src, StatusCode: res.StatusCode(), Reason: err.Error()}
	}
	return data, nil
}

// firstPayload returns data itself when it is an object, or its first
// element when it is an array.
func firstPayload(data json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("response has no data")
	}
	if trimmed[0] != '[' {
		return trimmed, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode data array: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("response data array is empty")
	}
	return bytes.TrimSpace(items[0]), nil
}
