package stubapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"storyfeed/internal/domain/story"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Options configures the stub API.
type Options struct {
	// Secret signs session tokens.
	Secret string
	// Now replaces the clock, mainly for tests.
	Now func() time.Time
}

// Server is an in-memory implementation of the story API.
type Server struct {
	secret []byte
	now    func() time.Time
	echo   *echo.Echo

	mu       sync.RWMutex
	accounts map[string]*account
	stories  []story.Story // newest first
}

type account struct {
	Username     string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Favorites    []string // story ids, oldest first
}

// New builds a stub API with empty state.
func New(opts Options) *Server {
	secret := opts.Secret
	if secret == "" {
		secret = "storyfeed-stub-secret"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		secret:   []byte(secret),
		now:      now,
		accounts: make(map[string]*account),
		stories:  []story.Story{},
	}
	s.echo = s.routes()
	return s
}

// Handler exposes the stub as an http.Handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logrus.WithFields(logrus.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			}).Debug("stub api request")
			return nil
		},
	}))

	e.GET("/stories", s.listStories)
	e.GET("/stories/:storyId", s.getStory)
	e.POST("/stories", s.createStory)
	e.DELETE("/stories/:storyId", s.deleteStory)

	e.POST("/signup", s.signup)
	e.POST("/login", s.login)
	e.GET("/users/:username", s.getUser)
	e.POST("/users/:username/favorites/:storyId", s.addFavorite)
	e.DELETE("/users/:username/favorites/:storyId", s.removeFavorite)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return fail(c, http.StatusNotFound, "Not found")
	})

	return e
}

// apiError mirrors the hosted API's error object.
type apiError struct {
	Status  int    `json:"status"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]apiError{
		"error": {Status: status, Title: http.StatusText(status), Message: message},
	})
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}

	if err := fail(c, status, message); err != nil {
		logrus.WithError(err).Warn("Failed to write stub api error")
	}
}

// readJSON decodes the request body into v. An empty body leaves v as is.
func readJSON(c echo.Context, v any) error {
	err := json.NewDecoder(c.Request().Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
