// Package robots decides whether a documentation page may be fetched for
// local extraction according to its host's robots.txt.
package robots

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/docscrape/internal/cache"
)

// ErrDisallowed is returned by Check when robots.txt forbids the page.
var ErrDisallowed = errors.New("disallowed by robots.txt")

type Rules struct {
	Groups []Group
}

type Group struct {
	Agents   []string
	Allow    []string
	Disallow []string
}

// Manager fetches and memoizes robots.txt per origin. Origins without a
// robots.txt, or whose robots.txt cannot be retrieved, are treated as
// allowing everything.
type Manager struct {
	HTTPClient *http.Client
	// Cache, when set, revalidates robots.txt with conditional requests.
	Cache     *cache.PageCache
	UserAgent string
	// EntryExpiry bounds in-memory reuse. Zero means 30 minutes.
	EntryExpiry time.Duration
	// CheckPrivateHosts enables lookups for loopback and private addresses,
	// which are skipped by default.
	CheckPrivateHosts bool

	mu  sync.Mutex
	mem map[string]memEntry
	now func() time.Time
}

type memEntry struct {
	rules  Rules
	expiry time.Time
}

// Check returns ErrDisallowed when pageURL may not be fetched.
func (m *Manager) Check(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return fmt.Errorf("unsupported url scheme: %q", pageURL)
	}
	if !m.CheckPrivateHosts && isLocalOrPrivateHost(u.Hostname()) {
		return nil
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()
	rules, err := m.Get(ctx, robotsURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug().Err(err).Str("robots", robotsURL).Msg("robots.txt unavailable; allowing")
		return nil
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if !rules.IsAllowed(m.UserAgent, path) {
		return fmt.Errorf("%s: %w", pageURL, ErrDisallowed)
	}
	return nil
}

// Get returns the parsed rules for robotsURL. A 4xx response yields empty
// rules, which allow everything.
func (m *Manager) Get(ctx context.Context, robotsURL string) (Rules, error) {
	m.mu.Lock()
	if m.now == nil {
		m.now = time.Now
	}
	if m.mem == nil {
		m.mem = make(map[string]memEntry)
	}
	if ent, ok := m.mem[robotsURL]; ok && m.now().Before(ent.expiry) {
		m.mu.Unlock()
		return ent.rules, nil
	}
	m.mu.Unlock()

	var etag, lastMod string
	if m.Cache != nil {
		if meta, err := m.Cache.LoadMeta(ctx, robotsURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, fmt.Errorf("new request: %w", err)
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && m.Cache != nil:
		body, err := m.Cache.LoadBody(ctx, robotsURL)
		if err != nil {
			return Rules{}, fmt.Errorf("load cached robots: %w", err)
		}
		rules := Parse(string(body))
		m.storeMem(robotsURL, rules)
		return rules, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		m.storeMem(robotsURL, Rules{})
		return Rules{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return Rules{}, fmt.Errorf("read robots: %w", err)
	}
	if m.Cache != nil {
		_ = m.Cache.Save(ctx, robotsURL, "text/plain", resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), data)
	}
	rules := Parse(string(data))
	m.storeMem(robotsURL, rules)
	return rules, nil
}

func (m *Manager) storeMem(key string, rules Rules) {
	exp := m.EntryExpiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	m.mu.Lock()
	m.mem[key] = memEntry{rules: rules, expiry: m.now().Add(exp)}
	m.mu.Unlock()
}

// Parse reads robots.txt text into groups. Unknown directives are ignored.
func Parse(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	current := Group{}
	flush := func() {
		if len(current.Agents) == 0 && len(current.Allow) == 0 && len(current.Disallow) == 0 {
			return
		}
		groups = append(groups, current)
		current = Group{}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "user-agent", "useragent":
			if len(current.Allow) > 0 || len(current.Disallow) > 0 {
				flush()
			}
			current.Agents = append(current.Agents, strings.ToLower(val))
		case "allow":
			current.Allow = append(current.Allow, val)
		case "disallow":
			current.Disallow = append(current.Disallow, val)
		}
	}
	flush()
	return Rules{Groups: groups}
}

// IsAllowed reports whether path (optionally with a query) may be fetched by
// userAgent. The most specific agent group applies; within it the longest
// matching pattern wins and Allow wins ties. No match means allowed.
func (r Rules) IsAllowed(userAgent, path string) bool {
	idx := r.selectGroup(userAgent)
	if idx < 0 {
		return true
	}
	grp := r.Groups[idx]
	bestScore := -1
	bestAllow := true
	evaluate := func(patterns []string, allow bool) {
		for _, p := range patterns {
			if p == "" || !patternMatches(p, path) {
				continue
			}
			score := patternSpecificity(p)
			if score > bestScore || (score == bestScore && allow && !bestAllow) {
				bestScore = score
				bestAllow = allow
			}
		}
	}
	evaluate(grp.Disallow, false)
	evaluate(grp.Allow, true)
	return bestAllow
}

// selectGroup picks the group whose agent token is the longest substring of
// userAgent; "*" matches with the lowest score. Ties keep the first group.
func (r Rules) selectGroup(userAgent string) int {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	bestIdx, bestScore := -1, -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			token := strings.TrimSpace(a)
			var score int
			switch {
			case token == "":
				continue
			case token == "*":
				score = 0
			case strings.Contains(ua, token):
				score = len(token)
			default:
				continue
			}
			if score > bestScore {
				bestScore, bestIdx = score, i
			}
		}
	}
	return bestIdx
}

// patternMatches supports '*' wildcards and a trailing '$' end anchor.
func patternMatches(pattern, path string) bool {
	anchorEnd := strings.HasSuffix(pattern, "$")
	p := strings.TrimSuffix(pattern, "$")
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(p, "*") {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	if anchorEnd {
		b.WriteString("$")
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

func patternSpecificity(pattern string) int {
	return len(strings.ReplaceAll(strings.TrimSuffix(pattern, "$"), "*", ""))
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isLocalOrPrivateHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "localhost" || h == "localhost.localdomain" {
		return true
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
	}
	return false
}
