package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.Nil(t, c.limiter)

	c = New(Options{BaseURL: "http://example.test///", RateLimit: 2})
	assert.Equal(t, "http://example.test", c.BaseURL())
	require.NotNil(t, c.limiter)
	assert.Equal(t, 1, c.limiter.Burst())
}

func TestDo_SendsJSONAndDecodes(t *testing.T) {
	var gotMethod, gotPath, gotQuery, gotContentType, gotRequestID string
	var gotBody map[string]string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-Id")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"story":{"storyId":"s1"}}`)
	})

	var out struct {
		Story struct {
			StoryID string `json:"storyId"`
		} `json:"story"`
	}
	err := c.Do(context.Background(), http.MethodPost, "/stories", url.Values{"skip": {"5"}}, map[string]string{"token": "t"}, &out)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/stories", gotPath)
	assert.Equal(t, "skip=5", gotQuery)
	assert.Equal(t, "application/json", gotContentType)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, map[string]string{"token": "t"}, gotBody)
	assert.Equal(t, "s1", out.Story.StoryID)
}

func TestDo_ErrorEnvelopeBecomesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"status":401,"title":"Unauthorized","message":"Invalid password"}}`)
	})

	err := c.Do(context.Background(), http.MethodPost, "/login", nil, nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "Unauthorized", apiErr.Title)
	assert.Equal(t, "Invalid password", apiErr.Message)
	assert.True(t, IsAPIError(err))
}

func TestDo_EnvelopeWithoutStatusUsesHTTPStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"nope"}}`)
	})

	err := c.Do(context.Background(), http.MethodGet, "/stories/x", nil, nil, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestDo_NonJSONFailureIsNotAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>boom</html>")
	})

	err := c.Do(context.Background(), http.MethodGet, "/stories", nil, nil, nil)
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestDo_MalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	})

	var out map[string]any
	err := c.Do(context.Background(), http.MethodGet, "/stories", nil, nil, &out)
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(Options{BaseURL: base, Timeout: time.Second})
	err := c.Do(context.Background(), http.MethodGet, "/stories", nil, nil, nil)
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}

func TestDo_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Do(ctx, http.MethodGet, "/stories", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParse(t *testing.T) {
	apiErr := &APIError{Status: 409, Title: "Conflict", Message: "taken"}

	resp, err := Parse[string](apiErr)
	require.NoError(t, err)
	assert.Same(t, apiErr, resp.Error)
	assert.False(t, resp.OK())

	defect := errors.New("dial tcp: refused")
	resp, err = Parse[string](defect)
	assert.Same(t, defect, err)
	assert.Nil(t, resp.Error)
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "401 Unauthorized: bad", (&APIError{Status: 401, Title: "Unauthorized", Message: "bad"}).Error())
	assert.Equal(t, "404: gone", (&APIError{Status: 404, Message: "gone"}).Error())
	assert.Equal(t, "api error 500", (&APIError{Status: 500}).Error())
}

func TestPathEscape(t *testing.T) {
	assert.Equal(t, "a%2Fb", PathEscape("a/b"))
	assert.Equal(t, "story-1", PathEscape("story-1"))
}
