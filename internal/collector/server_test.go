package collector

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/rdrain/log2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const deviceLine = `{ "currentTemperature": -1.5, "isFrozen": 1, "currentTime": 600000, "timeOfLastPrime": 540000, "timeOfLastDrain": 0, "timeOfNextPrime": 660000, "isDraining": false, "message": "Frozen, waiting" }`

func newTestServer(t *testing.T, apiKey string) (*Server, http.Handler) {
	t.Helper()
	s := NewServer("", apiKey, NewStore(time.Minute), log2.NewTest(t, log2.LDebug))
	return s, s.Handler()
}

func do(t testing.TB, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPostState(t *testing.T) {
	t.Parallel()

	s, h := newTestServer(t, "abc123")
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	w := do(t, h, http.MethodPost, "/api/state?apiKey=abc123", deviceLine)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"drain": false}`, w.Body.String())

	state, ok := s.store.Get()
	require.True(t, ok)
	assert.Equal(t, now, state.Updated)
	assert.Equal(t, -1.5, state.CurrentTemperature)
	assert.True(t, state.IsFrozen)
	assert.False(t, state.IsDraining)
	assert.Equal(t, now.Add(-time.Minute), state.TimeOfLastPrime)
	assert.Equal(t, now.Add(-10*time.Minute), state.TimeOfLastDrain)
	assert.Equal(t, now.Add(time.Minute), state.TimeOfNextPrime)
	assert.Equal(t, "Frozen, waiting", state.Message)
}

func TestPostStateUnauthorized(t *testing.T) {
	t.Parallel()

	s, h := newTestServer(t, "abc123")
	for _, target := range []string{"/api/state", "/api/state?apiKey=wrong", "/api/state?apiKey="} {
		w := do(t, h, http.MethodPost, target, deviceLine)
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
	_, ok := s.store.Get()
	assert.False(t, ok)

	w := do(t, h, http.MethodPost, "/api/drain?apiKey=nope", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, s.store.Armed())
}

func TestPostStateNoKey(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, "")
	w := do(t, h, http.MethodPost, "/api/state?apiKey=anything", `{"isFrozen": true}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPostStateInvalid(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, "")
	for _, body := range []string{"garbage", `{"isFrozen": "maybe"}`, `[1]`} {
		w := do(t, h, http.MethodPost, "/api/state", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestGetState(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, "k")
	w := do(t, h, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"State unavailable"`, w.Body.String())

	do(t, h, http.MethodPost, "/api/state?apiKey=k", deviceLine)
	w = do(t, h, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, true, state["isFrozen"])
	assert.Equal(t, "Frozen, waiting", state["message"])
	assert.Contains(t, state, "timeOfNextPrime")
}

func TestDrainOneShot(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, "k")
	w := do(t, h, http.MethodPost, "/api/drain?apiKey=k", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/api/state?apiKey=k", deviceLine)
	assert.JSONEq(t, `{"drain": true}`, w.Body.String())
	w = do(t, h, http.MethodPost, "/api/state?apiKey=k", deviceLine)
	assert.JSONEq(t, `{"drain": false}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, "")
	w := do(t, h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["state"])

	w = do(t, h, http.MethodPost, "/api/health", "")
	assert.Contains(t, []int{http.StatusMethodNotAllowed, http.StatusNotFound}, w.Code)
}

func TestServerStartStop(t *testing.T) {
	t.Parallel()

	s := NewServer("127.0.0.1:0", "", NewStore(0), log2.NewTest(t, log2.LDebug))
	require.NoError(t, s.Start())
	resp, err := http.Get("http://" + s.Addr().String() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, s.Stop())
}
