package skill

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveSkill(t *testing.T, s *testSkill, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	r := mux.NewRouter()
	s.RegisterRoutes(r)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}

	return rec, out
}

func TestHTTPQuery(t *testing.T) {
	s := newTestSkill(t)

	rec, out := serveSkill(t, s, http.MethodPost, "/tunein/query", `{"phrase": "jazz 24 internet radio on tunein"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EXACT", out["level"])
	assert.Equal(t, 1.0, out["confidence"])
	assert.Equal(t, "jazz 24", out["data"])

	rec, _ = serveSkill(t, s, http.MethodPost, "/tunein/query", `{"phrase": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serveSkill(t, s, http.MethodGet, "/tunein/query", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHTTPPlaybackLifecycle(t *testing.T) {
	s := newTestSkill(t)
	s.dir.respond("kexp", opml(station("KEXP", "kexp")))
	s.dir.stream("kexp", "http://x/kexp.m3u")

	rec, out := serveSkill(t, s, http.MethodPost, "/tunein/start", `{"phrase": "kexp radio", "data": "kexp"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "playing", out["state"])
	assert.Equal(t, "KEXP", out["station"])
	assert.Equal(t, "http://x/kexp", out["stream_url"])

	rec, out = serveSkill(t, s, http.MethodGet, "/tunein/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "playing", out["state"])

	rec, out = serveSkill(t, s, http.MethodPost, "/tunein/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stopped", out["state"])
	assert.NotContains(t, out, "station")
}

func TestHTTPIntentErrors(t *testing.T) {
	s := newTestSkill(t)

	rec, out := serveSkill(t, s, http.MethodPost, "/tunein/intent", `{"station": "nothing", "utterance": "play nothing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", out["error"])

	rec, out = serveSkill(t, s, http.MethodPost, "/tunein/intent", `{"station": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", out["error"])

	s.dir.mu.Lock()
	s.dir.status = http.StatusInternalServerError
	s.dir.mu.Unlock()

	rec, out = serveSkill(t, s, http.MethodPost, "/tunein/intent", `{"station": "kexp"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream", out["error"])
}
