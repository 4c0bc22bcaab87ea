package library

import (
	"storyfeed/internal/domain/story"
	"time"
)

// Snapshot is the last story feed fetched from the API, kept on disk.
type Snapshot struct {
	Source       string        `json:"source"`
	Stories      []story.Story `json:"stories"`
	LastUpdated  time.Time     `json:"last_updated"`
	TotalStories int           `json:"total_stories"`
}
