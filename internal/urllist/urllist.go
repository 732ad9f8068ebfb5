// Package urllist merges URL lists from several inputs into one run list.
package urllist

import (
	"net/url"
	"strings"
)

var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"}

// Merge concatenates groups in order and drops URLs whose canonical form was
// already seen. The first spelling of each URL is kept as given. Blank
// entries are skipped; unparsable ones are kept and compared verbatim.
func Merge(groups ...[]string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 16)
	for _, g := range groups {
		for _, raw := range g {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			key := Canonical(raw)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, raw)
		}
	}
	return out
}

// Canonical returns the comparison key for raw: no fragment, lower-case
// scheme and host, tracking parameters removed, remaining query sorted.
func Canonical(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.RawQuery != "" {
		q := u.Query()
		for _, p := range trackingParams {
			q.Del(p)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}
