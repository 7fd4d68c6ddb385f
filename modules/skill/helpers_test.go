package skill

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func opml(outlines ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><opml version="1"><head><status>200</status></head><body>` +
		strings.Join(outlines, "") + `</body></opml>`
}

func station(name, id string) string {
	return `<outline type="audio" item="station" text="` + name + `" URL="{{base}}/tune/` + id + `"/>`
}

func unavailable(name, id string) string {
	return `<outline type="audio" item="station" key="unavailable" text="` + name + `" URL="{{base}}/tune/` + id + `"/>`
}

func suggestion(term string) string {
	return `<outline type="link" key="didyoumean" text="Did you mean ` + term + `?"/>`
}

// directory fakes the search endpoint and the station metadata urls.
type directory struct {
	srv *httptest.Server

	mu        sync.Mutex
	responses map[string]string
	metadata  map[string]string
	searches  []string
	status    int
}

func newDirectory(t *testing.T) *directory {
	t.Helper()

	d := &directory{
		responses: map[string]string{},
		metadata:  map[string]string{},
	}

	d.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		defer d.mu.Unlock()

		if d.status != 0 {
			w.WriteHeader(d.status)
			return
		}

		switch {
		case r.URL.Path == "/search" && r.Method == http.MethodPost:
			q := r.PostFormValue("query")
			d.searches = append(d.searches, q)
			body, ok := d.responses[q]
			if !ok {
				body = opml()
			}
			_, _ = io.WriteString(w, strings.ReplaceAll(body, "{{base}}", "http://"+r.Host))
		case strings.HasPrefix(r.URL.Path, "/tune/"):
			body, ok := d.metadata[strings.TrimPrefix(r.URL.Path, "/tune/")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = io.WriteString(w, body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(d.srv.Close)

	return d
}

func (d *directory) respond(query, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.responses[query] = body
}

func (d *directory) stream(id, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metadata[id] = body
}

func (d *directory) searched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.searches...)
}

type fakeSpeaker struct {
	mu         sync.Mutex
	utterances []string
}

func (f *fakeSpeaker) Speak(_ context.Context, utterance string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.utterances = append(f.utterances, utterance)
	return nil
}

func (f *fakeSpeaker) spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.utterances...)
}

type fakeAudio struct {
	mu      sync.Mutex
	calls   []string
	playErr error
}

func (f *fakeAudio) Play(_ context.Context, tracks []string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.calls = append(f.calls, "play "+strings.Join(tracks, ","))
	return nil
}

func (f *fakeAudio) Stop(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "stop")
	return nil
}

func (f *fakeAudio) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var errBackend = errors.New("backend unavailable")

type testSkill struct {
	*Skill
	dir     *directory
	speaker *fakeSpeaker
	audio   *fakeAudio
}

func newTestSkill(t *testing.T, mutate ...func(*Config)) *testSkill {
	t.Helper()

	dir := newDirectory(t)
	cfg := Config{
		SkillID:        "tunein-skill",
		SearchURL:      dir.srv.URL + "/search",
		MatchMode:      MatchModeFuzzy,
		Language:       "en-us",
		AudioBackend:   AudioBackendBus,
		RequestTimeout: 5 * time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	speaker := &fakeSpeaker{}
	audio := &fakeAudio{}

	s, err := New(cfg, speaker, audio, *testLogger())
	require.NoError(t, err)
	s.dialogs.intn = func(int) int { return 0 }

	return &testSkill{Skill: s, dir: dir, speaker: speaker, audio: audio}
}
