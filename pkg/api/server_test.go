package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dd0wney/cluso-patchbay/pkg/auth"
	"github.com/dd0wney/cluso-patchbay/pkg/metrics"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	s := NewServer(patch.NewStore(), opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func seedDevices(t *testing.T, s *Server) {
	t.Helper()
	_, err := s.store.AddDevice(&patch.Device{
		ID: "synth", Name: "Synth",
		Ports: []patch.Port{
			{ID: "out", Name: "Out", Direction: patch.Output, Signal: signal.MonoAudio},
		},
	})
	require.NoError(t, err)
	_, err = s.store.AddDevice(&patch.Device{
		ID: "mixer", Name: "Mixer",
		Ports: []patch.Port{
			{ID: "ch1", Name: "Ch 1", Direction: patch.Input, Signal: signal.MonoAudio},
			{ID: "st-in", Name: "Stereo In", Direction: patch.Input, Signal: signal.StereoAudio},
		},
	})
	require.NoError(t, err)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t, Options{Version: "test"})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decodeBody[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
}

func TestStatsEndpoint(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	seedDevices(t, s)

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	stats := decodeBody[StatsResponse](t, resp)
	assert.Equal(t, 2, stats.DeviceCount)
	assert.Equal(t, 3, stats.PortCount)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	// Generate one request first so counters exist.
	_, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "patchbay_http_requests_total")
}

func TestGraphQLEndpoint(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp := postJSON(t, ts.URL+"/graphql", map[string]string{"query": "{ health }"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "ok", body["data"].(map[string]any)["health"])
}

func TestUnknownMethodRejected(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/validate", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestBodySizeLimit(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	huge := bytes.Repeat([]byte("x"), maxBodyBytes+1)
	resp, err := http.Post(ts.URL+"/devices", "application/json", bytes.NewReader(huge))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestAuthEnforcement(t *testing.T) {
	users := auth.NewUserStore()
	_, err := users.CreateUser("alice", "alice password", auth.RoleEditor)
	require.NoError(t, err)
	_, err = users.CreateUser("bob", "bob's password", auth.RoleViewer)
	require.NoError(t, err)

	jwtManager, err := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)

	_, ts := newTestServer(t, Options{Users: users, JWTManager: jwtManager})

	// Unauthenticated mutation is refused.
	resp := postJSON(t, ts.URL+"/devices", DeviceRequest{Name: "Synth"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Reads stay open.
	getResp, err := http.Get(ts.URL + "/devices")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	getResp.Body.Close()

	login := func(username, password string) string {
		resp := postJSON(t, ts.URL+"/auth/login", LoginRequest{Username: username, Password: password})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decodeBody[LoginResponse](t, resp).Token
	}
	authedPost := func(token string, path string, body any) *http.Response {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	// Viewer may not mutate.
	viewerToken := login("bob", "bob's password")
	resp = authedPost(viewerToken, "/devices", DeviceRequest{Name: "Synth"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Editor may.
	editorToken := login("alice", "alice password")
	resp = authedPost(editorToken, "/devices", DeviceRequest{Name: "Synth"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Bad credentials are refused without detail.
	loginResp := postJSON(t, ts.URL+"/auth/login", LoginRequest{Username: "alice", Password: "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, loginResp.StatusCode)
	loginResp.Body.Close()
}

func TestWhoAmI(t *testing.T) {
	users := auth.NewUserStore()
	_, err := users.CreateUser("alice", "alice password", auth.RoleAdmin)
	require.NoError(t, err)
	jwtManager, err := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)

	_, ts := newTestServer(t, Options{Users: users, JWTManager: jwtManager})

	loginResp := postJSON(t, ts.URL+"/auth/login", LoginRequest{Username: "alice", Password: "alice password"})
	token := decodeBody[LoginResponse](t, loginResp).Token

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	claims := decodeBody[auth.Claims](t, resp)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}
