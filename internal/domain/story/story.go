package story

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Story is a single story record as the API returns it.
type Story struct {
	StoryID   string    `json:"storyId"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Hostname parses the story URL and returns its host name in lower case.
func (s Story) Hostname() (string, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", fmt.Errorf("invalid story url %q: %w", s.URL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid story url %q: missing host", s.URL)
	}
	return strings.ToLower(u.Hostname()), nil
}

// NewStory is the payload for submitting a story.
type NewStory struct {
	Author string `json:"author" validate:"required,max=200"`
	Title  string `json:"title" validate:"required,max=200"`
	URL    string `json:"url" validate:"required,url"`
}

var validate = validator.New()

// Validate returns a map of field name to failed rule, or nil when the
// payload is acceptable.
func (n NewStory) Validate() map[string]string {
	err := validate.Struct(n)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"story": err.Error()}
	}

	errorsMap := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		errorsMap[fieldErr.Field()] = fmt.Sprintf("failed on '%s' tag", fieldErr.Tag())
	}
	return errorsMap
}

// Index returns the position of the story with the given id, or -1.
func Index(stories []Story, id string) int {
	for i, s := range stories {
		if s.StoryID == id {
			return i
		}
	}
	return -1
}

// Without returns stories minus every entry with the given id. The input
// slice is not modified.
func Without(stories []Story, id string) []Story {
	kept := make([]Story, 0, len(stories))
	for _, s := range stories {
		if s.StoryID != id {
			kept = append(kept, s)
		}
	}
	return kept
}
