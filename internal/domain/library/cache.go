package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"storyfeed/internal/domain/story"
	"time"

	"github.com/sirupsen/logrus"
)

// FetchFunc loads the current feed from the API.
type FetchFunc func(ctx context.Context) ([]story.Story, error)

// Cache handles fetching and caching the story feed
type Cache struct {
	cacheDir  string
	cacheFile string
	source    string
	maxAge    time.Duration
}

// CacheInfo describes the snapshot file.
type CacheInfo struct {
	Exists       bool
	Path         string
	Size         int64
	LastModified time.Time
	Fresh        bool
	MaxAge       time.Duration
}

// NewCache creates a feed cache under cacheDir for the given API source.
func NewCache(cacheDir, source string, maxAge time.Duration) *Cache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logrus.WithError(err).Warn("Failed to create cache directory")
	}

	return &Cache{
		cacheDir:  cacheDir,
		cacheFile: filepath.Join(cacheDir, "feed_cache.json"),
		source:    source,
		maxAge:    maxAge,
	}
}

// Get returns the cached feed when fresh, otherwise fetches it. A failed
// fetch falls back to a stale snapshot if one exists.
func (c *Cache) Get(ctx context.Context, fetch FetchFunc) (*Snapshot, error) {
	if snap, err := c.Load(); err == nil && c.fresh(snap) {
		logrus.Debug("Loading stories from cache")
		return snap, nil
	}

	logrus.Debug("Fetching fresh stories from API")
	stories, err := fetch(ctx)
	if err != nil {
		logrus.WithError(err).Warn("API fetch failed, trying stale cache")
		if cached, cacheErr := c.Load(); cacheErr == nil {
			return cached, nil
		}
		return nil, fmt.Errorf("failed to fetch from API and no cache available: %w", err)
	}

	snap := &Snapshot{
		Source:       c.source,
		Stories:      stories,
		LastUpdated:  time.Now(),
		TotalStories: len(stories),
	}

	// an empty feed usually means the API refused us; keep the old snapshot
	if len(stories) > 0 {
		if err := c.Save(snap); err != nil {
			logrus.WithError(err).Warn("Failed to save to cache")
		}
	}

	return snap, nil
}

// IsFresh reports whether a snapshot exists that was fetched within the max
// age. Local edits saved later do not extend it.
func (c *Cache) IsFresh() bool {
	snap, err := c.Load()
	if err != nil {
		return false
	}
	return c.fresh(snap)
}

func (c *Cache) fresh(snap *Snapshot) bool {
	return !snap.LastUpdated.IsZero() && time.Since(snap.LastUpdated) < c.maxAge
}

// Load reads the snapshot from disk.
func (c *Cache) Load() (*Snapshot, error) {
	file, err := os.Open(c.cacheFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	var snap Snapshot
	if err := json.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode cache file: %w", err)
	}
	if c.source != "" && snap.Source != c.source {
		return nil, fmt.Errorf("cache belongs to %s, not %s", snap.Source, c.source)
	}

	logrus.WithFields(logrus.Fields{
		"stories":      len(snap.Stories),
		"last_updated": snap.LastUpdated.Format(time.RFC3339),
	}).Debug("Loaded story feed from cache")

	return &snap, nil
}

// Save writes the snapshot to disk.
func (c *Cache) Save(snap *Snapshot) error {
	file, err := os.Create(c.cacheFile)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode cache data: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"stories": len(snap.Stories),
		"file":    c.cacheFile,
	}).Debug("Saved story feed to cache")

	return nil
}

// Clear removes the cache file
func (c *Cache) Clear() error {
	if err := os.Remove(c.cacheFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	logrus.Debug("Cleared story feed cache")
	return nil
}

// Info returns information about the cache
func (c *Cache) Info() CacheInfo {
	info := CacheInfo{Path: c.cacheFile, MaxAge: c.maxAge}
	if stat, err := os.Stat(c.cacheFile); err == nil {
		info.Exists = true
		info.Size = stat.Size()
		info.LastModified = stat.ModTime()
		info.Fresh = c.IsFresh()
	}
	return info
}
