package stubapi

import (
	"net/http"
	"storyfeed/internal/domain/story"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	defaultLimit = 25
	maxLimit     = 100
)

type tokenRequest struct {
	Token string `json:"token"`
}

type createStoryRequest struct {
	Token string         `json:"token"`
	Story story.NewStory `json:"story"`
}

func (s *Server) listStories(c echo.Context) error {
	skip, err := intParam(c.QueryParam("skip"), 0)
	if err != nil || skip < 0 {
		return fail(c, http.StatusBadRequest, "skip must be a non-negative integer")
	}
	limit, err := intParam(c.QueryParam("limit"), defaultLimit)
	if err != nil || limit < 1 {
		return fail(c, http.StatusBadRequest, "limit must be a positive integer")
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	page := []story.Story{}
	if skip < len(s.stories) {
		end := skip + limit
		if end > len(s.stories) {
			end = len(s.stories)
		}
		page = append(page, s.stories[skip:end]...)
	}

	return c.JSON(http.StatusOK, map[string]any{"stories": page})
}

func (s *Server) getStory(c echo.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := story.Index(s.stories, c.Param("storyId"))
	if i < 0 {
		return fail(c, http.StatusNotFound, "No story with that id")
	}
	return c.JSON(http.StatusOK, map[string]any{"story": s.stories[i]})
}

func (s *Server) createStory(c echo.Context) error {
	var req createStoryRequest
	if err := readJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.authorize(req.Token)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "A valid token is required")
	}

	if problems := req.Story.Validate(); problems != nil {
		return fail(c, http.StatusBadRequest, describe(problems))
	}

	created := story.Story{
		StoryID:   uuid.NewString(),
		Title:     req.Story.Title,
		Author:    req.Story.Author,
		URL:       req.Story.URL,
		Username:  acct.Username,
		CreatedAt: s.now().UTC(),
	}
	s.stories = append([]story.Story{created}, s.stories...)

	return c.JSON(http.StatusCreated, map[string]any{"story": created})
}

func (s *Server) deleteStory(c echo.Context) error {
	var req tokenRequest
	if err := readJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.authorize(req.Token)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "A valid token is required")
	}

	storyID := c.Param("storyId")
	i := story.Index(s.stories, storyID)
	if i < 0 {
		return fail(c, http.StatusNotFound, "No story with that id")
	}
	deleted := s.stories[i]
	if deleted.Username != acct.Username {
		return fail(c, http.StatusForbidden, "You can only delete your own stories")
	}

	s.stories = story.Without(s.stories, storyID)
	for _, other := range s.accounts {
		other.Favorites = removeID(other.Favorites, storyID)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Deleted story",
		"story":   deleted,
	})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func removeID(ids []string, id string) []string {
	kept := ids[:0:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	return kept
}
