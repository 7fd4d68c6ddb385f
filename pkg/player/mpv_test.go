package player

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMpv answers IPC commands on a unix socket and records them.
type fakeMpv struct {
	ln net.Listener

	mu       sync.Mutex
	commands [][]any
	fail     string
}

func newFakeMpv(t *testing.T) (*fakeMpv, string) {
	t.Helper()

	dir, err := os.MkdirTemp("", "mpv")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	socket := filepath.Join(dir, "mpv.sock")
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	f := &fakeMpv{ln: ln}
	go f.serve()

	return f, socket
}

func (f *fakeMpv) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeMpv) handle(conn net.Conn) {
	defer conn.Close()

	enc := json.NewEncoder(conn)
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var c command
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			return
		}

		f.mu.Lock()
		f.commands = append(f.commands, c.Command)
		errText := "success"
		if f.fail != "" && c.Command[0] == f.fail {
			errText = "invalid parameter"
		}
		f.mu.Unlock()

		_ = enc.Encode(map[string]any{"event": "idle"})
		_ = enc.Encode(response{Error: errText, RequestID: c.RequestID})
	}
}

func (f *fakeMpv) recorded() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([][]any(nil), f.commands...)
}

func newTestMpv(t *testing.T, socket string) (*Mpv, *int) {
	t.Helper()

	m := New(Config{Socket: socket}, *slog.New(slog.NewTextHandler(io.Discard, nil)))
	starts := 0
	m.start = func(context.Context) (*process, error) {
		starts++
		return &process{kill: func() error { return nil }, exited: make(chan struct{})}, nil
	}

	return m, &starts
}

func TestMpvPlayAndStop(t *testing.T) {
	fake, socket := newFakeMpv(t)
	m, starts := newTestMpv(t, socket)
	ctx := context.Background()

	require.NoError(t, m.Stop(ctx))
	assert.Empty(t, fake.recorded())

	require.NoError(t, m.Play(ctx, []string{"http://a/stream", "http://b/stream"}, "play jazz"))
	require.NoError(t, m.Queue(ctx, []string{"http://c/stream"}))
	require.NoError(t, m.Stop(ctx))
	require.NoError(t, m.Clear(ctx))

	assert.Equal(t, 1, *starts)
	assert.Equal(t, [][]any{
		{"loadfile", "http://a/stream", "replace"},
		{"loadfile", "http://b/stream", "append"},
		{"loadfile", "http://c/stream", "append-play"},
		{"stop"},
		{"playlist-clear"},
	}, fake.recorded())
}

func TestMpvCommandError(t *testing.T) {
	fake, socket := newFakeMpv(t)
	fake.fail = "loadfile"
	m, _ := newTestMpv(t, socket)

	err := m.Play(context.Background(), []string{"http://a/stream"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameter")
}

func TestMpvPlayRequiresTracks(t *testing.T) {
	m, starts := newTestMpv(t, filepath.Join(t.TempDir(), "unused.sock"))

	require.Error(t, m.Play(context.Background(), nil, ""))
	assert.Equal(t, 0, *starts)
}

func TestMpvClose(t *testing.T) {
	_, socket := newFakeMpv(t)
	m, _ := newTestMpv(t, socket)

	killed := false
	exited := make(chan struct{})
	m.start = func(context.Context) (*process, error) {
		return &process{kill: func() error { killed = true; close(exited); return nil }, exited: exited}, nil
	}

	require.NoError(t, m.Play(context.Background(), []string{"http://a/stream"}, ""))
	require.NoError(t, m.Close())
	assert.True(t, killed)
	require.NoError(t, m.Stop(context.Background()))
}
