// Command extract-stub serves canned extraction payloads for offline runs.
// It answers the Firecrawl-style /v1/extract endpoint as well as the
// OpenAI-compatible /v1/models and /v1/chat/completions endpoints.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	apiReferencePayload = `{"title":"Stub API","headings":["Introduction","Authentication"],"content":["Requests use bearer tokens."],"endpoints":[{"method":"GET","path":"/v1/models","description":"List models"}]}`
	narrativePayload    = `{"module_name":"datetime","module_description":"Basic date and time types.","sections":[{"title":"Available Types","content":"date, time, datetime, timedelta, tzinfo, timezone"}]}`
)

type extractRequest struct {
	URLs   []string       `json:"urls"`
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema"`
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("extract-stub listening")
	srv := &http.Server{Addr: addr, Handler: newMux(model), ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/extract", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request"})
			return
		}
		log.Debug().Strs("urls", req.URLs).Msg("extract")
		if isMissing(req.URLs[0]) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "page not found"})
			return
		}
		payload := narrativePayload
		if props, ok := req.Schema["properties"].(map[string]any); ok {
			if _, api := props["endpoints"]; api {
				payload = apiReferencePayload
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": json.RawMessage(payload)})
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sys := ""
		if len(req.Messages) > 0 {
			sys = req.Messages[0].Content
		}
		content := narrativePayload
		if strings.Contains(sys, `"endpoints"`) {
			content = apiReferencePayload
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":     "stub",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})
	return mux
}

// isMissing lets callers exercise the failure path with URLs such as
// https://docs.python.org/3/library/nonexistent.html.
func isMissing(u string) bool {
	return strings.Contains(u, "nonexistent") || strings.HasSuffix(u, "/404")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
