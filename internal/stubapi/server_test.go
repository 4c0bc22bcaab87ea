package stubapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestServer() *Server {
	return New(Options{Secret: "test", Now: func() time.Time { return fixedNow }})
}

func do(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func signupToken(t *testing.T, s *Server, username string) string {
	t.Helper()
	rec, out := do(t, s, http.MethodPost, "/signup",
		`{"user":{"username":"`+username+`","password":"pw","name":"N"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return out["token"].(string)
}

func createStory(t *testing.T, s *Server, token, title string) string {
	t.Helper()
	rec, out := do(t, s, http.MethodPost, "/stories",
		`{"token":"`+token+`","story":{"author":"A","title":"`+title+`","url":"https://example.com"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return out["story"].(map[string]any)["storyId"].(string)
}

func errorStatus(t *testing.T, out map[string]any) float64 {
	t.Helper()
	e, ok := out["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %v", out)
	assert.NotEmpty(t, e["title"])
	assert.NotEmpty(t, e["message"])
	return e["status"].(float64)
}

func TestSignup(t *testing.T) {
	s := newTestServer()

	rec, out := do(t, s, http.MethodPost, "/signup", `{"user":{"username":"ann","password":"pw","name":"Ann"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	u := out["user"].(map[string]any)
	assert.Equal(t, "ann", u["username"])
	assert.Equal(t, "2024-03-01T12:00:00.000Z", u["createdAt"])
	assert.Empty(t, u["favorites"])

	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(out["token"].(string), claims)
	require.NoError(t, err)
	assert.Equal(t, "ann", claims["username"])

	rec, out = do(t, s, http.MethodPost, "/signup", `{"user":{"username":"ann","password":"x","name":"Again"}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, float64(http.StatusConflict), errorStatus(t, out))

	rec, out = do(t, s, http.MethodPost, "/signup", `{"user":{"username":"bad name!","password":"x","name":"X"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"].(map[string]any)["message"], "Username")

	rec, _ = do(t, s, http.MethodPost, "/signup", `{"user":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer()
	signupToken(t, s, "ben")

	rec, out := do(t, s, http.MethodPost, "/login", `{"user":{"username":"ben","password":"pw"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, out["token"])

	rec, _ = do(t, s, http.MethodPost, "/login", `{"user":{"username":"ben","password":"nope"}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, s, http.MethodPost, "/login", `{"user":{"username":"nobody","password":"pw"}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStories_CreateListGet(t *testing.T) {
	s := newTestServer()
	token := signupToken(t, s, "cat")

	first := createStory(t, s, token, "first")
	second := createStory(t, s, token, "second")

	rec, out := do(t, s, http.MethodGet, "/stories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stories := out["stories"].([]any)
	require.Len(t, stories, 2)
	assert.Equal(t, second, stories[0].(map[string]any)["storyId"])
	assert.Equal(t, "cat", stories[0].(map[string]any)["username"])

	_, out = do(t, s, http.MethodGet, "/stories?skip=1&limit=5", "")
	stories = out["stories"].([]any)
	require.Len(t, stories, 1)
	assert.Equal(t, first, stories[0].(map[string]any)["storyId"])

	_, out = do(t, s, http.MethodGet, "/stories?skip=10", "")
	assert.Empty(t, out["stories"])

	rec, _ = do(t, s, http.MethodGet, "/stories?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = do(t, s, http.MethodGet, "/stories/"+first, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "first", out["story"].(map[string]any)["title"])

	rec, _ = do(t, s, http.MethodGet, "/stories/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStories_CreateRejects(t *testing.T) {
	s := newTestServer()
	token := signupToken(t, s, "dan")

	rec, out := do(t, s, http.MethodPost, "/stories", `{"token":"forged","story":{"author":"A","title":"T","url":"https://e.com"}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, float64(http.StatusUnauthorized), errorStatus(t, out))

	rec, _ = do(t, s, http.MethodPost, "/stories", `{"token":"`+token+`","story":{"author":"A","title":"T","url":"nope"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	other := New(Options{Secret: "different"})
	foreign := signupToken(t, other, "dan")
	rec, _ = do(t, s, http.MethodPost, "/stories", `{"token":"`+foreign+`","story":{"author":"A","title":"T","url":"https://e.com"}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "token signed with another secret")
}

func TestStories_Delete(t *testing.T) {
	s := newTestServer()
	owner := signupToken(t, s, "eve")
	other := signupToken(t, s, "fay")
	id := createStory(t, s, owner, "doomed")

	rec, _ := do(t, s, http.MethodPost, "/users/fay/favorites/"+id, `{"token":"`+other+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out := do(t, s, http.MethodDelete, "/stories/"+id, `{"token":"`+other+`"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, float64(http.StatusForbidden), errorStatus(t, out))

	rec, _ = do(t, s, http.MethodDelete, "/stories/"+id, `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out = do(t, s, http.MethodDelete, "/stories/"+id, `{"token":"`+owner+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, out["story"].(map[string]any)["storyId"])

	rec, _ = do(t, s, http.MethodDelete, "/stories/"+id, `{"token":"`+owner+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, out = do(t, s, http.MethodGet, "/users/fay?token="+other, "")
	assert.Empty(t, out["user"].(map[string]any)["favorites"], "deleted story leaves favorites")
}

func TestUsers_GetAndFavorites(t *testing.T) {
	s := newTestServer()
	token := signupToken(t, s, "gus")
	otherToken := signupToken(t, s, "hal")
	id := createStory(t, s, token, "fav")

	rec, out := do(t, s, http.MethodGet, "/users/gus?token="+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	u := out["user"].(map[string]any)
	assert.Len(t, u["stories"], 1)

	rec, _ = do(t, s, http.MethodGet, "/users/gus?token="+otherToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = do(t, s, http.MethodGet, "/users/nobody?token="+token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, s, http.MethodGet, "/users/gus", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, out = do(t, s, http.MethodPost, "/users/gus/favorites/"+id, `{"token":"`+token+`"}`)
	assert.Len(t, out["user"].(map[string]any)["favorites"], 1)
	_, out = do(t, s, http.MethodPost, "/users/gus/favorites/"+id, `{"token":"`+token+`"}`)
	assert.Len(t, out["user"].(map[string]any)["favorites"], 1, "adding twice keeps one entry")

	_, out = do(t, s, http.MethodDelete, "/users/gus/favorites/"+id, `{"token":"`+token+`"}`)
	assert.Empty(t, out["user"].(map[string]any)["favorites"])

	rec, _ = do(t, s, http.MethodPost, "/users/gus/favorites/missing", `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec, out := do(t, newTestServer(), http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, float64(http.StatusNotFound), errorStatus(t, out))
}

func TestDescribe_IsSorted(t *testing.T) {
	got := describe(map[string]string{"Name": "failed on 'required' tag", "Age": "failed on 'min' tag"})
	assert.Equal(t, "Age failed on 'min' tag; Name failed on 'required' tag", got)
}
