package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/docscrape/internal/cache"
)

// StatusError reports a non-2xx response from the documentation host.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status: %d", e.URL, e.StatusCode)
}

// ErrUnsupportedContentType is returned for responses that are not HTML.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// RobotsChecker vetoes pages a host does not want crawled.
type RobotsChecker interface {
	Check(ctx context.Context, url string) error
}

// Client fetches documentation pages for local extraction. It performs a
// single attempt per call; callers decide what a failure means.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// PerRequestTimeout bounds each request. Zero means no extra bound.
	PerRequestTimeout time.Duration
	// MaxBodyBytes caps how much of a page is read. Zero means 8 MiB.
	MaxBodyBytes int64
	// Optional on-disk cache for page bodies and validators.
	Cache *cache.PageCache
	// If true, skip conditional headers but still save the response.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// Robots, when set, is consulted before every request.
	Robots RobotsChecker
}

const defaultMaxBody = 8 << 20

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues one GET for rawURL and returns the body and its content type.
// With a cache configured it sends If-None-Match / If-Modified-Since and
// serves the cached body on 304.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c.Robots != nil {
		if err := c.Robots.Check(ctx, rawURL); err != nil {
			return nil, "", err
		}
	}
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	res, err := c.do(ctx, rawURL, etag, lastMod)
	if err != nil {
		return nil, "", err
	}
	if res.status == http.StatusNotModified && c.Cache != nil {
		cached, err := c.Cache.LoadBody(ctx, rawURL)
		if err != nil {
			return nil, "", fmt.Errorf("cached body: %w", err)
		}
		ct := res.contentType
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta.ContentType != "" {
			ct = meta.ContentType
		}
		return cached, ct, nil
	}
	if c.Cache != nil && res.status == http.StatusOK {
		_ = c.Cache.Save(ctx, rawURL, res.contentType, res.etag, res.lastModified, res.body)
	}
	return res.body, res.contentType, nil
}

type response struct {
	body         []byte
	contentType  string
	etag         string
	lastModified string
	status       int
}

func (c *Client) do(ctx context.Context, rawURL, etag, lastMod string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	res := &response{
		contentType:  resp.Header.Get("Content-Type"),
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		status:       resp.StatusCode,
	}
	if resp.StatusCode == http.StatusNotModified {
		return res, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	if !isAllowedHTMLContentType(res.contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, res.contentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBody
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	res.body = b
	return res, nil
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
