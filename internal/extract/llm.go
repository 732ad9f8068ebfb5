package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/docscrape/internal/budget"
	"github.com/hyperifyio/docscrape/internal/cache"
	"github.com/hyperifyio/docscrape/internal/fetch"
	"github.com/hyperifyio/docscrape/internal/llm"
	"github.com/hyperifyio/docscrape/internal/page"
	"github.com/hyperifyio/docscrape/internal/profile"
	"github.com/hyperifyio/docscrape/internal/robots"
)

// PageFetcher retrieves a page body and content type.
type PageFetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// LLM extracts locally: it fetches urls[0], reduces it to text and asks an
// OpenAI-compatible chat model for a JSON object shaped by the profile schema.
type LLM struct {
	Client  llm.Client
	Model   string
	Fetcher PageFetcher
	// Cache, when set, stores model answers keyed by model and prompt.
	Cache *cache.PayloadCache
	// MaxChars caps the page text sent to the model. Zero sizes it from the
	// model context window, at most 24000.
	MaxChars int
}

const (
	defaultMaxChars = 24000
	minPageChars    = 4000
	// answerTokens is reserved in the context window for the JSON answer.
	answerTokens = 2048
)

// Extract implements Extractor.
func (l *LLM) Extract(ctx context.Context, urls []string, p profile.Profile) (json.RawMessage, error) {
	if err := checkURLs(urls); err != nil {
		return nil, err
	}
	src := urls[0]
	body, _, err := l.Fetcher.Get(ctx, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e := &Error{Kind: KindFetch, URL: src, Err: err}
		var serr *fetch.StatusError
		switch {
		case errors.As(err, &serr):
			e.StatusCode = serr.StatusCode
			e.Err = nil
			e.Reason = "page request failed"
		case errors.Is(err, robots.ErrDisallowed):
			e.Err = nil
			e.Reason = robots.ErrDisallowed.Error()
		}
		return nil, e
	}
	doc := page.FromHTML(body)
	if strings.TrimSpace(doc.Text) == "" {
		return nil, &Error{Kind: KindFetch, URL: src, Reason: "page has no readable text"}
	}

	system, err := systemPrompt(p)
	if err != nil {
		return nil, &Error{Kind: KindInvalidSource, URL: src, Reason: "encode schema", Err: err}
	}
	user := userPrompt(src, doc, l.maxChars(system))

	key := cache.KeyFrom(BackendLLM, l.Model, string(p.Name), system, user)
	if l.Cache != nil {
		if data, ok, _ := l.Cache.Get(ctx, key); ok {
			log.Debug().Str("url", src).Str("key", key[:12]).Msg("payload cache hit")
			return json.RawMessage(data), nil
		}
	}

	resp, err := l.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Error{Kind: KindService, URL: src, StatusCode: apiStatus(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: KindParse, URL: src, Reason: "model returned no choices"}
	}
	data, err := jsonObject(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &Error{Kind: KindParse, URL: src, Reason: "model answer is not a JSON object", Err: err}
	}
	if l.Cache != nil {
		if err := l.Cache.Save(ctx, key, data); err != nil {
			log.Warn().Err(err).Str("url", src).Msg("payload cache save failed")
		}
	}
	return data, nil
}

func (l *LLM) maxChars(system string) int {
	if l.MaxChars > 0 {
		return l.MaxChars
	}
	return budget.PageChars(l.Model, system, answerTokens, minPageChars, defaultMaxChars)
}

func systemPrompt(p profile.Profile) (string, error) {
	schema, err := json.Marshal(p.Schema)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("You extract structured data from documentation pages.\n")
	b.WriteString(p.Prompt)
	b.WriteString("\nRespond with a single JSON object that conforms to this JSON Schema. ")
	b.WriteString("Omit fields you cannot find. Do not add commentary.\n")
	b.Write(schema)
	return b.String(), nil
}

func userPrompt(src string, doc page.Document, maxChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", src)
	if doc.Title != "" {
		fmt.Fprintf(&b, "Page title: %s\n", doc.Title)
	}
	b.WriteString("\n")
	b.WriteString(page.Truncate(doc.Text, maxChars))
	return b.String()
}

// jsonObject accepts a model answer, tolerating a surrounding code fence,
// and returns it only if it is a JSON object.
func jsonObject(answer string) (json.RawMessage, error) {
	s := strings.TrimSpace(answer)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	raw := []byte(s)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, errors.New("answer does not start with '{'")
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(raw), nil
}

func apiStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
