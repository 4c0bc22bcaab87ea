package tts

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// AudioCacheStats summarizes the headline audio kept under a cache root.
type AudioCacheStats struct {
	Directory string
	Files     int64
	Stories   int64
	SizeBytes int64
}

func (s AudioCacheStats) SizeMB() float64 {
	return float64(s.SizeBytes) / (1024 * 1024)
}

// storyAudioDir is where the mp3s for one story live under root.
func storyAudioDir(root, storyID string) string {
	return filepath.Join(root, "google_classic", storyID)
}

// ReadAudioCache walks root and counts cached mp3s. A missing root is an
// empty cache, not an error.
func ReadAudioCache(root string) (AudioCacheStats, error) {
	stats := AudioCacheStats{Directory: root}
	if root == "" {
		return stats, nil
	}

	storiesDir := filepath.Join(root, "google_classic")
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return nil
		}
		if d.IsDir() {
			if filepath.Dir(path) == storiesDir {
				stats.Stories++
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".mp3") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.Files++
		stats.SizeBytes += info.Size()
		return nil
	})
	return stats, err
}

// ClearAudioCache removes everything under root.
func ClearAudioCache(root string) error {
	if root == "" {
		return nil
	}
	return os.RemoveAll(root)
}

// ClearStoryAudio removes the cached audio for one story.
func ClearStoryAudio(root, storyID string) error {
	if root == "" || storyID == "" || strings.ContainsAny(storyID, `/\`) {
		return nil
	}
	return os.RemoveAll(storyAudioDir(root, storyID))
}
