// Package budget sizes the page text handed to a chat model so that the
// system prompt, the page and the JSON answer fit in the model context.
package budget

import (
	"math"
	"strings"
)

// CharsPerToken is the conservative characters-per-token ratio used for
// estimates. Documentation text with code tends to tokenize denser than
// prose, so the estimate errs on the side of fewer characters.
const CharsPerToken = 4

// EstimateTokens returns the estimated token count of s, at least 1 for a
// non-empty string.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return int(math.Ceil(float64(len(s)) / CharsPerToken))
}

// ModelContextTokens returns an estimated context window for modelName.
// Unknown models fall back to 8192.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, s := range sizeSuffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	if strings.Contains(name, "-mini") {
		return 128_000
	}
	return 8192
}

// HeadroomTokens is the safety margin subtracted from the context window
// for message framing: 5% of the window, at least 512 tokens.
func HeadroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// RemainingTokens returns how many input tokens are left after the prompt,
// the output reservation and the headroom. Never negative.
func RemainingTokens(modelName string, reservedForOutput, promptTokens int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	rem := ModelContextTokens(modelName) - HeadroomTokens(modelName) - reservedForOutput - promptTokens
	if rem < 0 {
		return 0
	}
	return rem
}

// PageChars returns how many characters of page text fit next to a system
// prompt of the given size, clamped to [minChars, maxChars].
func PageChars(modelName, systemPrompt string, reservedForOutput, minChars, maxChars int) int {
	n := RemainingTokens(modelName, reservedForOutput, EstimateTokens(systemPrompt)) * CharsPerToken
	if maxChars > 0 && n > maxChars {
		n = maxChars
	}
	if n < minChars {
		n = minChars
	}
	return n
}

type sizeSuffix struct {
	suffix string
	tokens int
}

var sizeSuffixes = []sizeSuffix{
	{"1m", 1_000_000},
	{"512k", 512_000},
	{"200k", 200_000},
	{"128k", 128_000},
	{"32k", 32_768},
	{"16k", 16_384},
}

// knownModelMax holds rough context sizes for common model identifiers.
var knownModelMax = map[string]int{
	"gpt-4o":             128_000,
	"gpt-4o-mini":        128_000,
	"gpt-4-turbo":        128_000,
	"gpt-3.5-turbo":      16_384,
	"claude-3-5-sonnet":  200_000,
	"claude-3-haiku":     200_000,
	"llama-3":            8_192,
	"llama-3.1":          128_000,
	"qwen2.5-coder":      32_768,
	"openai/gpt-oss-20b": 4_096,
	"gpt-oss-20b":        4_096,
}
