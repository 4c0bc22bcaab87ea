package storylist

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"storyfeed/internal/api"
	"storyfeed/internal/domain/story"
	"storyfeed/internal/domain/user"
	"strconv"

	"github.com/sirupsen/logrus"
)

// StoryList is an ordered collection of stories kept in step with the API
// without re-fetching.
type StoryList struct {
	Stories []story.Story

	client *api.Client
}

type storiesResponse struct {
	Stories []story.Story `json:"stories"`
}

type storyResponse struct {
	Story story.Story `json:"story"`
}

type addStoryBody struct {
	Token string         `json:"token"`
	Story story.NewStory `json:"story"`
}

type tokenBody struct {
	Token string `json:"token"`
}

// New wraps an existing slice of stories.
func New(client *api.Client, stories []story.Story) *StoryList {
	if stories == nil {
		stories = []story.Story{}
	}
	return &StoryList{Stories: stories, client: client}
}

// FetchAll loads every story the API lists. An API rejection produces an
// empty list so callers can render an empty state; other failures are
// returned.
func FetchAll(ctx context.Context, client *api.Client) (*StoryList, error) {
	return FetchPage(ctx, client, 0, 0)
}

// FetchPage is FetchAll with the API's skip/limit paging. Zero values are
// not sent.
func FetchPage(ctx context.Context, client *api.Client, skip, limit int) (*StoryList, error) {
	query := url.Values{}
	if skip > 0 {
		query.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp storiesResponse
	if err := client.Do(ctx, http.MethodGet, "/stories", query, nil, &resp); err != nil {
		if api.IsAPIError(err) {
			logrus.WithError(err).Warn("Failed to fetch stories, showing empty list")
			return New(client, nil), nil
		}
		return nil, fmt.Errorf("failed to fetch stories: %w", err)
	}

	return New(client, resp.Stories), nil
}

// FetchStory loads a single story by id.
func FetchStory(ctx context.Context, client *api.Client, storyID string) (api.Response[story.Story], error) {
	var resp storyResponse
	if err := client.Do(ctx, http.MethodGet, "/stories/"+api.PathEscape(storyID), nil, nil, &resp); err != nil {
		return api.Parse[story.Story](err)
	}
	return api.OK(resp.Story), nil
}

// Find looks a story up in the loaded list.
func (l *StoryList) Find(storyID string) (story.Story, bool) {
	if i := story.Index(l.Stories, storyID); i >= 0 {
		return l.Stories[i], true
	}
	return story.Story{}, false
}

// AddStory posts a story as u. On success the story is put first in both
// the list and u's own stories.
func (l *StoryList) AddStory(ctx context.Context, u *user.User, in story.NewStory) (api.Response[story.Story], error) {
	if u == nil {
		return api.Response[story.Story]{}, fmt.Errorf("add story: no user session")
	}

	var resp storyResponse
	body := addStoryBody{Token: u.LoginToken, Story: in}
	if err := l.client.Do(ctx, http.MethodPost, "/stories", nil, body, &resp); err != nil {
		return api.Parse[story.Story](err)
	}

	created := resp.Story
	l.Stories = append([]story.Story{created}, l.Stories...)
	u.PrependOwn(created)

	return api.OK(created), nil
}

// DeleteStory removes a story on the server and, once confirmed, from the
// list and from u's own stories and favorites.
func (l *StoryList) DeleteStory(ctx context.Context, u *user.User, storyID string) (api.Response[string], error) {
	if u == nil {
		return api.Response[string]{}, fmt.Errorf("delete story: no user session")
	}

	var resp storyResponse
	path := "/stories/" + api.PathEscape(storyID)
	if err := l.client.Do(ctx, http.MethodDelete, path, nil, tokenBody{Token: u.LoginToken}, &resp); err != nil {
		return api.Parse[string](err)
	}

	deletedID := resp.Story.StoryID
	if deletedID == "" {
		deletedID = storyID
	}
	l.removeEverywhere(u, deletedID)

	return api.OK(deletedID), nil
}

// removeEverywhere is the one place a deleted story leaves all three
// collections.
func (l *StoryList) removeEverywhere(u *user.User, storyID string) {
	l.Stories = story.Without(l.Stories, storyID)
	u.ForgetStory(storyID)
}
