/* server_test.go
 * Contains unit tests for the router, the middleware and the rate limiter
 * Authors: Zachary Bower
 */

package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gamehub/api/api"
	"gamehub/api/auth"
	"gamehub/api/store"
	"gamehub/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *api.API, *api.MockStore) {
	t.Helper()
	ms := api.NewMockStore()
	a, err := api.NewAPI(ms, auth.NewTokens("test-secret", time.Hour))
	require.NoError(t, err)
	schema, err := graph.NewSchema(a)
	require.NoError(t, err)
	s, err := NewServer(Config{
		API:           a,
		Schema:        schema,
		UploadDir:     t.TempDir(),
		AuthRateLimit: 0.001,
		AuthRateBurst: 2,
	})
	require.NoError(t, err)
	t.Cleanup(s.closeSockets)
	return s, a, ms
}

func seedUser(t *testing.T, a *api.API, ms *api.MockStore, username string) (*store.User, string) {
	t.Helper()
	u := store.CreateSampleUser(username)
	stored := ms.PutUser(&u)
	token, err := a.Tokens.Issue(auth.Identity{UserID: stored.ID.Hex()})
	require.NoError(t, err)
	return stored, token
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

func postGraphQL(t *testing.T, srv *httptest.Server, token, query string) (int, gqlResponse) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"query": query})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/graphql", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out gqlResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// region NewServer tests

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}

func TestNewServer_Defaults(t *testing.T) {
	s, _, _ := newTestServer(t)
	assert.Equal(t, []string{"*"}, s.origins)
	assert.NotNil(t, s.limiter)
	assert.DirExists(t, s.uploadDir)
}

// endregion

// region Route tests

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetrics_ExposesRequestCounters(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Routes()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gamehub_http_requests_total{code="200",method="GET",route="/healthz"}`)
}

func TestGraphQL_GetWithoutUpgrade(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// endregion

// region Middleware tests

func TestGraphQL_BearerIdentity(t *testing.T) {
	s, a, ms := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()
	_, token := seedUser(t, a, ms, "ada")

	code, resp := postGraphQL(t, srv, token, `{ me { username } }`)
	assert.Equal(t, http.StatusOK, code)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"me":{"username":"ada"}}`, string(resp.Data))
}

func TestGraphQL_InvalidTokenIsAnonymous(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	_, resp := postGraphQL(t, srv, "not-a-token", `{ getUsers { id } }`)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "Not authenticated!", resp.Errors[0].Message)
	assert.EqualValues(t, 401, resp.Errors[0].Extensions["code"])
}

func TestGraphQL_RateLimitsLogin(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	login := `mutation { login(email: "nobody@example.com", password: "secret1") { token } }`
	for i := 0; i < 2; i++ {
		code, _ := postGraphQL(t, srv, "", login)
		assert.Equal(t, http.StatusOK, code)
	}
	code, resp := postGraphQL(t, srv, "", login)
	assert.Equal(t, http.StatusTooManyRequests, code)
	require.Len(t, resp.Errors, 1)
	assert.EqualValues(t, 429, resp.Errors[0].Extensions["code"])

	// other operations share the endpoint but not the limit
	code, _ = postGraphQL(t, srv, "", `{ getUsers { id } }`)
	assert.Equal(t, http.StatusOK, code)
}

func TestGraphQL_RateLimitsCommentedLogin(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	login := "mutation { login #x\n(email: \"nobody@example.com\", password: \"secret1\") { token } }"
	for i := 0; i < 2; i++ {
		code, _ := postGraphQL(t, srv, "", login)
		assert.Equal(t, http.StatusOK, code)
	}
	code, _ := postGraphQL(t, srv, "", login)
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestCallsAuthMutation(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{`mutation { login(email: "a", password: "b") { token } }`, true},
		{`mutation { signUp (input: {}) { id } }`, true},
		{"mutation { login #comment\n(email: \"a\") { token } }", true},
		{"mutation { signUp # one\n # two\r\n (input: {}) { id } }", true},
		{`mutation { login, (email: "a") { token } }`, true},
		{`mutation { x: login(email: "a") { token } }`, true},
		{`mutation { sendMessage(content: "#") login(email: "a") { token } }`, true},
		{`{ getUsers { id } }`, false},
		{"# login(\n{ getUsers { id } }", false},
		{`mutation { relogin(email: "a") { token } }`, false},
		{`mutation { sendMessage(content: "\"#") { id } }`, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, callsAuthMutation(tc.query), tc.query)
	}
}

func TestIPLimiter(t *testing.T) {
	l := newIPLimiter(1, 1)
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	assert.True(t, l.allow("10.0.0.1", now))
	assert.False(t, l.allow("10.0.0.1", now))
	assert.True(t, l.allow("10.0.0.2", now), "buckets are per IP")
	assert.True(t, l.allow("10.0.0.1", now.Add(time.Second)))

	l.allow("10.0.0.3", now.Add(time.Hour))
	assert.Len(t, l.clients, 1, "idle buckets are dropped")
}

func TestLimitAuthMutations_BodyStillReadable(t *testing.T) {
	s, _, _ := newTestServer(t)
	var seen string
	h := s.limitAuthMutations(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
	}))

	body := `{"query":"mutation { signUp(input: {}) { id } }"}`
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body)))
	assert.Equal(t, body, seen)
}

// endregion
