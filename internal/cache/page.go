package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageMeta captures enough of a fetched page's response headers to revalidate
// it with a conditional GET.
type PageMeta struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// PageCache stores fetched documentation pages on disk as <key>.meta.json and
// <key>.body where key is sha256(url). There is no eviction beyond PurgeByAge.
type PageCache struct {
	Dir         string
	StrictPerms bool
}

func pageKey(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *PageCache) metaPath(key string) string { return filepath.Join(c.Dir, key+metaSuffix) }
func (c *PageCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+bodySuffix) }

// LoadMeta returns the cached metadata for url, or an error when absent.
func (c *PageCache) LoadMeta(_ context.Context, url string) (*PageMeta, error) {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(pageKey(url)))
	if err != nil {
		return nil, err
	}
	var m PageMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadBody returns the cached body for url.
func (c *PageCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(pageKey(url)))
}

// Save stores body and its validators. The body is written first and the
// metadata renamed into place, so a readable meta file always has a body.
func (c *PageCache) Save(_ context.Context, url, contentType, etag, lastModified string, body []byte) error {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	key := pageKey(url)
	if err := os.WriteFile(c.bodyPath(key), body, fileMode(c.StrictPerms)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta := PageMeta{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		SavedAt:      time.Now().UTC(),
	}
	b, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	tmp := c.metaPath(key) + ".tmp"
	if err := os.WriteFile(tmp, b, fileMode(c.StrictPerms)); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return os.Rename(tmp, c.metaPath(key))
}
