package stubapi

import (
	"fmt"
	"net/http"
	"slices"
	"sort"
	"storyfeed/internal/domain/story"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

type signupUser struct {
	Username string `json:"username" validate:"required,alphanum,max=50"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=100"`
}

type loginUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userView struct {
	Username  string        `json:"username"`
	Name      string        `json:"name"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
	Favorites []story.Story `json:"favorites"`
	Stories   []story.Story `json:"stories"`
}

func (s *Server) signup(c echo.Context) error {
	var req struct {
		User signupUser `json:"user"`
	}
	if err := readJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if problems := validateStruct(req.User); problems != nil {
		return fail(c, http.StatusBadRequest, describe(problems))
	}

	hash, err := hashPassword(req.User.Password)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return fail(c, http.StatusInternalServerError, "Internal server error")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.User.Username]; exists {
		return fail(c, http.StatusConflict, fmt.Sprintf("There is already a user with username '%s'", req.User.Username))
	}

	now := s.now().UTC()
	acct := &account{
		Username:     req.User.Username,
		Name:         req.User.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
		Favorites:    []string{},
	}

	token, err := s.issueToken(acct.Username)
	if err != nil {
		logrus.WithError(err).Error("Failed to issue token")
		return fail(c, http.StatusInternalServerError, "Internal server error")
	}
	s.accounts[acct.Username] = acct

	return c.JSON(http.StatusCreated, map[string]any{
		"user":  s.view(acct),
		"token": token,
	})
}

func (s *Server) login(c echo.Context) error {
	var req struct {
		User loginUser `json:"user"`
	}
	if err := readJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if problems := validateStruct(req.User); problems != nil {
		return fail(c, http.StatusBadRequest, describe(problems))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[req.User.Username]
	if !ok {
		return fail(c, http.StatusNotFound, fmt.Sprintf("Could not find user with username '%s'", req.User.Username))
	}
	if !checkPassword(acct.PasswordHash, req.User.Password) {
		return fail(c, http.StatusUnauthorized, "Invalid password")
	}

	token, err := s.issueToken(acct.Username)
	if err != nil {
		logrus.WithError(err).Error("Failed to issue token")
		return fail(c, http.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user":  s.view(acct),
		"token": token,
	})
}

func (s *Server) getUser(c echo.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, status, message := s.authorizeUser(c.QueryParam("token"), c.Param("username"))
	if acct == nil {
		return fail(c, status, message)
	}
	return c.JSON(http.StatusOK, map[string]any{"user": s.view(acct)})
}

func (s *Server) addFavorite(c echo.Context) error {
	return s.updateFavorite(c, true)
}

func (s *Server) removeFavorite(c echo.Context) error {
	return s.updateFavorite(c, false)
}

func (s *Server) updateFavorite(c echo.Context, add bool) error {
	var req tokenRequest
	if err := readJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, status, message := s.authorizeUser(req.Token, c.Param("username"))
	if acct == nil {
		return fail(c, status, message)
	}

	storyID := c.Param("storyId")
	if story.Index(s.stories, storyID) < 0 {
		return fail(c, http.StatusNotFound, "No story with that id")
	}

	if add {
		if !slices.Contains(acct.Favorites, storyID) {
			acct.Favorites = append(acct.Favorites, storyID)
		}
	} else {
		acct.Favorites = removeID(acct.Favorites, storyID)
	}
	acct.UpdatedAt = s.now().UTC()

	verb := "Favorite Removed!"
	if add {
		verb = "Favorite Added!"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": verb,
		"user":    s.view(acct),
	})
}

// authorizeUser checks that token belongs to username. Callers hold s.mu.
func (s *Server) authorizeUser(token, username string) (*account, int, string) {
	acct, err := s.authorize(token)
	if err != nil {
		return nil, http.StatusUnauthorized, "A valid token is required"
	}
	if acct.Username != username {
		if _, exists := s.accounts[username]; !exists {
			return nil, http.StatusNotFound, fmt.Sprintf("Could not find user with username '%s'", username)
		}
		return nil, http.StatusUnauthorized, "Token does not match username"
	}
	return acct, 0, ""
}

// view renders an account the way the API does. Callers hold s.mu.
func (s *Server) view(acct *account) userView {
	favorites := make([]story.Story, 0, len(acct.Favorites))
	for _, id := range acct.Favorites {
		if i := story.Index(s.stories, id); i >= 0 {
			favorites = append(favorites, s.stories[i])
		}
	}

	own := []story.Story{}
	for _, st := range s.stories {
		if st.Username == acct.Username {
			own = append(own, st)
		}
	}

	return userView{
		Username:  acct.Username,
		Name:      acct.Name,
		CreatedAt: acct.CreatedAt.Format(timeLayout),
		UpdatedAt: acct.UpdatedAt.Format(timeLayout),
		Favorites: favorites,
		Stories:   own,
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func validateStruct(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}
	problems := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		problems[fieldErr.Field()] = fmt.Sprintf("failed on '%s' tag", fieldErr.Tag())
	}
	return problems
}

// describe flattens a field error map into one stable message.
func describe(problems map[string]string) string {
	fields := make([]string, 0, len(problems))
	for field := range problems {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+" "+problems[field])
	}
	return strings.Join(parts, "; ")
}
