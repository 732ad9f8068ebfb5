package profile

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Name identifies one of the built-in extraction profiles.
type Name string

const (
	// APIReference targets API reference pages: headings, prose and endpoints.
	APIReference Name = "api-reference"
	// Narrative targets library/module documentation: description plus
	// sections or functions with parameters.
	Narrative Name = "narrative"
)

// Profile pairs the schema and prompt sent to the extraction service with
// the rule that flattens the returned payload into content blocks.
type Profile struct {
	Name   Name
	Prompt string
	Schema map[string]any

	blocks blockRule
}

var registry = map[Name]Profile{
	APIReference: {Name: APIReference, Prompt: apiReferencePrompt, Schema: apiReferenceSchema(), blocks: apiReferenceBlocks},
	Narrative:    {Name: Narrative, Prompt: narrativePrompt, Schema: narrativeSchema(), blocks: narrativeBlocks},
}

// Lookup returns the profile registered under name.
func Lookup(name Name) (Profile, error) {
	p, ok := registry[Name(strings.ToLower(strings.TrimSpace(string(name))))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists the registered profile names in stable order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, string(n))
	}
	sort.Strings(out)
	return out
}

// Rule maps a documentation host (and its subdomains) to a profile.
type Rule struct {
	Host    string
	Profile Name
}

// Rules is an ordered host table plus the profile used when nothing matches.
type Rules struct {
	Hosts   []Rule
	Default Name
}

// DefaultRules routes the OpenAI API reference to the api-reference profile
// and everything else to narrative.
func DefaultRules() Rules {
	return Rules{
		Hosts:   []Rule{{Host: "platform.openai.com", Profile: APIReference}},
		Default: Narrative,
	}
}

// WithHosts returns a copy of r with extra host rules for the given profile
// appended after the existing ones.
func (r Rules) WithHosts(name Name, hosts ...string) Rules {
	out := Rules{Hosts: append([]Rule{}, r.Hosts...), Default: r.Default}
	for _, h := range hosts {
		if h = normalizeHost(h); h != "" {
			out.Hosts = append(out.Hosts, Rule{Host: h, Profile: name})
		}
	}
	return out
}

// Validate checks that every rule names a registered profile.
func (r Rules) Validate() error {
	if r.Default != "" {
		if _, err := Lookup(r.Default); err != nil {
			return fmt.Errorf("default profile: %w", err)
		}
	}
	for _, rule := range r.Hosts {
		if _, err := Lookup(rule.Profile); err != nil {
			return fmt.Errorf("host %q: %w", rule.Host, err)
		}
	}
	return nil
}

// Select picks the profile for the first URL of a request. The first rule
// whose host equals the URL host, or is a parent domain of it, wins.
func Select(rawURL string, rules Rules) Profile {
	host := ""
	if u, err := url.Parse(strings.TrimSpace(rawURL)); err == nil {
		host = normalizeHost(u.Host)
	}
	if host != "" {
		for _, rule := range rules.Hosts {
			h := normalizeHost(rule.Host)
			if h == "" {
				continue
			}
			if host == h || strings.HasSuffix(host, "."+h) {
				if p, err := Lookup(rule.Profile); err == nil {
					return p
				}
			}
		}
	}
	if p, err := Lookup(rules.Default); err == nil {
		return p
	}
	return registry[Narrative]
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if i := strings.LastIndexByte(h, ':'); i >= 0 && !strings.Contains(h[i:], "]") {
		h = h[:i]
	}
	return strings.TrimSuffix(h, ".")
}
