// internal/story/tts/tts.go
package tts

import (
	"fmt"
	"io"
	"storyfeed/internal/domain/story"
	"strings"
)

type Config struct {
	Type      string
	Speed     float64
	Volume    float64
	Voice     string
	CachePath string
	// Out receives the mock engine's transcript; nil means stdout.
	Out io.Writer
}

// Engine interface for text-to-speech functionality
type Engine interface {
	Speak(text string) error
	SetVoice(voice string) error
	SetSpeed(speed float64) error
	SetVolume(volume float64) error
	Stop() error
	Pause() error
	Resume() error
	IsPlaying() bool
	GetAvailableVoices() ([]string, error)
}

// StoryAwareEngine caches audio per story.
type StoryAwareEngine interface {
	Engine
	SetStoryContext(storyID string)
}

// Headline is the sentence read out for a story.
func Headline(s story.Story) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(s.Title))
	if author := strings.TrimSpace(s.Author); author != "" {
		fmt.Fprintf(&b, ", by %s", author)
	}
	if host, err := s.Hostname(); err == nil {
		fmt.Fprintf(&b, ", from %s", strings.TrimPrefix(host, "www."))
	}
	b.WriteString(".")
	return b.String()
}
