package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	metaSuffix    = ".meta.json"
	bodySuffix    = ".body"
	payloadSuffix = ".payload.json"
)

// ClearDir removes dir and everything under it, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes entries older than maxAge under dir. Pages expire by
// their recorded SavedAt, payloads by file mtime. A missing dir is not an
// error. It returns the number of entries removed.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		switch {
		case strings.HasSuffix(name, metaSuffix):
			b, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			var m PageMeta
			if err := json.Unmarshal(b, &m); err != nil {
				return nil
			}
			if now.Sub(m.SavedAt) <= maxAge {
				return nil
			}
			removed++
			_ = os.Remove(path)
			_ = os.Remove(strings.TrimSuffix(path, metaSuffix) + bodySuffix)
		case strings.HasSuffix(name, payloadSuffix):
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if now.Sub(info.ModTime().UTC()) <= maxAge {
				return nil
			}
			removed++
			_ = os.Remove(path)
		}
		return nil
	})
	return removed, err
}
