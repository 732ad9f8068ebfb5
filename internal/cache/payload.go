package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PayloadCache stores raw extraction payloads keyed by a digest of everything
// that determines the request: backend, model, profile, prompt and URLs.
type PayloadCache struct {
	Dir string
	// StrictPerms enforces 0700 directories and 0600 files.
	StrictPerms bool
}

// KeyFrom builds a cache key from the request parts. Order matters.
func KeyFrom(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\n\n")))
	return hex.EncodeToString(h[:])
}

func (c *PayloadCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+payloadSuffix)
}

// Get returns the cached payload and whether it was present. A hit refreshes
// the file mtime so age-based purges keep recently used entries.
func (c *PayloadCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes a payload under key.
func (c *PayloadCache) Save(_ context.Context, key string, data []byte) error {
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	return os.WriteFile(c.pathFor(key), data, fileMode(c.StrictPerms))
}
