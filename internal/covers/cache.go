// Package covers keeps manga cover images on disk.
//
// Source covers are cached per manga and cover URL. Custom covers are
// user-provided replacements stored as custom_<mangaID>.jpg and take
// precedence when present.
package covers

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Cache handles local caching of manga cover images.
type Cache struct {
	cacheDir   string
	httpClient *http.Client
}

// NewCache creates a new cover cache at the specified directory.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetCover returns the cached source cover for a manga, fetching it first if needed.
// Returns an empty path when coverURL is empty.
func (c *Cache) GetCover(mangaID int64, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	cachePath := filepath.Join(c.cacheDir, c.coverFilename(mangaID, coverURL))
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	if err := c.fetchAndCache(coverURL, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// InvalidateCover removes the cached source covers of a manga. Custom covers are kept.
func (c *Cache) InvalidateCover(mangaID int64) error {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("cover_%d_*", mangaID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// CustomCoverPath is where the custom cover of mangaID lives, whether or not it exists.
func (c *Cache) CustomCoverPath(mangaID int64) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("custom_%d.jpg", mangaID))
}

func (c *Cache) HasCustomCover(mangaID int64) bool {
	_, err := os.Stat(c.CustomCoverPath(mangaID))
	return err == nil
}

// SetCustomCover stores r as the custom cover of mangaID, replacing any previous one.
func (c *Cache) SetCustomCover(mangaID int64, r io.Reader) error {
	return c.writeAtomic(c.CustomCoverPath(mangaID), r)
}

// CopyCustomCover duplicates the custom cover of from onto to. It is a no-op
// when from has no custom cover.
func (c *Cache) CopyCustomCover(from, to int64) error {
	src, err := os.Open(c.CustomCoverPath(from))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	return c.writeAtomic(c.CustomCoverPath(to), src)
}

func (c *Cache) DeleteCustomCover(mangaID int64) error {
	err := os.Remove(c.CustomCoverPath(mangaID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// coverFilename generates a unique filename based on manga ID and URL hash.
func (c *Cache) coverFilename(mangaID int64, coverURL string) string {
	hash := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("cover_%d_%x.jpg", mangaID, hash[:8])
}

// fetchAndCache downloads a cover image and saves it to the cache.
func (c *Cache) fetchAndCache(url, cachePath string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mangashelf/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}

	return c.writeAtomic(cachePath, resp.Body)
}

// writeAtomic writes through a temp file in the cache dir and renames it into place.
func (c *Cache) writeAtomic(path string, r io.Reader) error {
	tmpFile, err := os.CreateTemp(c.cacheDir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
