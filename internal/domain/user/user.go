package user

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"storyfeed/internal/api"
	"storyfeed/internal/domain/story"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// User is the authenticated session: profile, login token and the two story
// subsets the API tracks per user.
type User struct {
	Username   string
	Name       string
	CreatedAt  time.Time
	LoginToken string

	client *api.Client

	mu         sync.RWMutex
	favorites  []story.Story
	ownStories []story.Story
}

// apiUser is the user record as the API sends it. Own stories arrive under
// "stories".
type apiUser struct {
	Username  string        `json:"username"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
	Favorites []story.Story `json:"favorites"`
	Stories   []story.Story `json:"stories"`
}

type authResponse struct {
	User  apiUser `json:"user"`
	Token string  `json:"token"`
}

type userResponse struct {
	User apiUser `json:"user"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type tokenBody struct {
	Token string `json:"token"`
}

func newUser(client *api.Client, u apiUser, token string) *User {
	favorites := u.Favorites
	if favorites == nil {
		favorites = []story.Story{}
	}
	own := u.Stories
	if own == nil {
		own = []story.Story{}
	}
	return &User{
		Username:   u.Username,
		Name:       u.Name,
		CreatedAt:  u.CreatedAt,
		LoginToken: token,
		client:     client,
		favorites:  favorites,
		ownStories: own,
	}
}

// Signup registers a new account and returns the logged in user.
func Signup(ctx context.Context, client *api.Client, username, password, name string) (api.Response[*User], error) {
	body := map[string]credentials{
		"user": {Username: username, Password: password, Name: name},
	}
	return authenticate(ctx, client, "/signup", body)
}

// Login exchanges credentials for a session.
func Login(ctx context.Context, client *api.Client, username, password string) (api.Response[*User], error) {
	body := map[string]credentials{
		"user": {Username: username, Password: password},
	}
	return authenticate(ctx, client, "/login", body)
}

func authenticate(ctx context.Context, client *api.Client, path string, body any) (api.Response[*User], error) {
	var resp authResponse
	if err := client.Do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return api.Parse[*User](err)
	}
	return api.OK(newUser(client, resp.User, resp.Token)), nil
}

// LoginViaStoredCredentials re-validates a previously issued token. Any
// failure yields nil: a session that cannot be restored just means the
// caller is logged out.
func LoginViaStoredCredentials(ctx context.Context, client *api.Client, token, username string) *User {
	if token == "" || username == "" {
		return nil
	}

	var resp userResponse
	query := url.Values{"token": {token}}
	if err := client.Do(ctx, http.MethodGet, "/users/"+api.PathEscape(username), query, nil, &resp); err != nil {
		logrus.WithError(err).WithField("username", username).Debug("loginViaStoredCredentials failed")
		return nil
	}
	return newUser(client, resp.User, token)
}

// Favorites returns a copy of the user's favorite stories.
func (u *User) Favorites() []story.Story {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return append([]story.Story(nil), u.favorites...)
}

// OwnStories returns a copy of the stories the user posted, newest first.
func (u *User) OwnStories() []story.Story {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return append([]story.Story(nil), u.ownStories...)
}

// AddFavorite marks a story as favorite.
func (u *User) AddFavorite(ctx context.Context, s story.Story) (api.Response[bool], error) {
	return u.UpdateFavorite(ctx, http.MethodPost, s.StoryID)
}

// RemoveFavorite unmarks a favorite story.
func (u *User) RemoveFavorite(ctx context.Context, s story.Story) (api.Response[bool], error) {
	return u.UpdateFavorite(ctx, http.MethodDelete, s.StoryID)
}

// UpdateFavorite adds (POST) or removes (DELETE) a favorite and then adopts
// the favorites list the server answers with.
func (u *User) UpdateFavorite(ctx context.Context, method, storyID string) (api.Response[bool], error) {
	if method != http.MethodPost && method != http.MethodDelete {
		return api.Response[bool]{}, fmt.Errorf("unsupported favorite method %q", method)
	}

	path := fmt.Sprintf("/users/%s/favorites/%s", api.PathEscape(u.Username), api.PathEscape(storyID))

	var resp userResponse
	if err := u.client.Do(ctx, method, path, nil, tokenBody{Token: u.LoginToken}, &resp); err != nil {
		return api.Parse[bool](err)
	}

	favorites := resp.User.Favorites
	if favorites == nil {
		favorites = []story.Story{}
	}

	u.mu.Lock()
	u.favorites = favorites
	u.mu.Unlock()

	return api.OK(true), nil
}

// IsFavorite reports whether s is among the user's favorites.
func (u *User) IsFavorite(s story.Story) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return story.Index(u.favorites, s.StoryID) >= 0
}

// IsOwn reports whether the user posted s.
func (u *User) IsOwn(s story.Story) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return story.Index(u.ownStories, s.StoryID) >= 0
}

// PrependOwn records a freshly created story as the user's newest.
func (u *User) PrependOwn(s story.Story) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ownStories = append([]story.Story{s}, u.ownStories...)
}

// ForgetStory drops a deleted story from both own stories and favorites.
func (u *User) ForgetStory(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ownStories = story.Without(u.ownStories, id)
	u.favorites = story.Without(u.favorites, id)
}
