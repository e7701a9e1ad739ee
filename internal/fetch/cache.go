package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Cache file names.
const (
	RawFile      = "wiki-raw.html"
	MetadataFile = "wiki-metadata.json"
)

// ErrNotCached is returned by Cache.Load when no page has been saved.
var ErrNotCached = errors.New("fetch: page not cached")

// Cache stores the last downloaded page and its metadata in a directory.
type Cache struct {
	Dir string
}

// NewCache returns a cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{Dir: dir}
}

// RawPath returns the path of the cached page.
func (c *Cache) RawPath() string {
	return filepath.Join(c.Dir, RawFile)
}

// MetadataPath returns the path of the metadata sidecar.
func (c *Cache) MetadataPath() string {
	return filepath.Join(c.Dir, MetadataFile)
}

// Save writes the page and its metadata, replacing any previous download.
// Each file is written to a temporary name first and renamed into place.
func (c *Cache) Save(p *Page) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	meta, err := json.MarshalIndent(p.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err := writeFileAtomic(c.RawPath(), p.Body); err != nil {
		return err
	}
	return writeFileAtomic(c.MetadataPath(), meta)
}

// Load returns the cached page body.
func (c *Cache) Load() ([]byte, error) {
	data, err := os.ReadFile(c.RawPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, c.RawPath())
	}
	if err != nil {
		return nil, fmt.Errorf("read cached page: %w", err)
	}
	return data, nil
}

// Metadata returns the metadata of the cached page.
func (c *Cache) Metadata() (Metadata, error) {
	var m Metadata
	data, err := os.ReadFile(c.MetadataPath())
	if errors.Is(err, os.ErrNotExist) {
		return m, fmt.Errorf("%w: %s", ErrNotCached, c.MetadataPath())
	}
	if err != nil {
		return m, fmt.Errorf("read metadata: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
