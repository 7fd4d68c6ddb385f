// Package player plays streams through a local mpv process driven over its
// JSON IPC socket.
package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	socketCheckRetries  = 20
	socketCheckInterval = 100 * time.Millisecond
	socketReadDeadline  = 2 * time.Second
)

type command struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

type response struct {
	Error     string `json:"error"`
	Data      any    `json:"data"`
	RequestID int    `json:"request_id"`
	Event     string `json:"event"`
}

// process is a running mpv. exited is closed once it has exited.
type process struct {
	kill   func() error
	exited chan struct{}
}

func (p *process) running() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// Mpv implements the skill audio service on top of mpv.
type Mpv struct {
	cfg    Config
	logger *slog.Logger

	// start launches mpv; replaced in tests.
	start func(ctx context.Context) (*process, error)

	mu        sync.Mutex
	proc      *process
	requestID int
}

func New(cfg Config, logger slog.Logger) *Mpv {
	if cfg.Binary == "" {
		cfg.Binary = "mpv"
	}

	m := &Mpv{
		cfg:    cfg,
		logger: logger.With("module", "player"),
	}
	m.start = m.startProcess

	return m
}

// Play replaces the mpv playlist with tracks. utterance is unused by mpv.
func (m *Mpv) Play(ctx context.Context, tracks []string, _ string) error {
	if len(tracks) == 0 {
		return errors.New("no tracks to play")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureRunning(ctx); err != nil {
		return err
	}

	cmds := []command{m.command("loadfile", tracks[0], "replace")}
	for _, t := range tracks[1:] {
		cmds = append(cmds, m.command("loadfile", t, "append"))
	}

	return m.send(ctx, cmds...)
}

// Queue appends tracks, starting playback if mpv is idle.
func (m *Mpv) Queue(ctx context.Context, tracks []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureRunning(ctx); err != nil {
		return err
	}

	cmds := make([]command, 0, len(tracks))
	for _, t := range tracks {
		cmds = append(cmds, m.command("loadfile", t, "append-play"))
	}

	return m.send(ctx, cmds...)
}

// Stop halts playback. It does nothing if mpv is not running.
func (m *Mpv) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.proc == nil || !m.proc.running() {
		return nil
	}

	return m.send(ctx, m.command("stop"))
}

func (m *Mpv) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.proc == nil || !m.proc.running() {
		return nil
	}

	return m.send(ctx, m.command("playlist-clear"))
}

// Close terminates the mpv process.
func (m *Mpv) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.proc == nil {
		return nil
	}

	proc := m.proc
	m.proc = nil

	if err := proc.kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-proc.exited
	_ = os.Remove(m.cfg.Socket)

	return nil
}

func (m *Mpv) command(args ...any) command {
	m.requestID++
	return command{Command: args, RequestID: m.requestID}
}

func (m *Mpv) ensureRunning(ctx context.Context) error {
	if m.proc != nil && m.proc.running() {
		return nil
	}

	proc, err := m.start(ctx)
	if err != nil {
		return err
	}
	m.proc = proc

	return nil
}

func (m *Mpv) startProcess(_ context.Context) (*process, error) {
	_ = os.Remove(m.cfg.Socket)

	args := append([]string{
		"--idle",
		"--input-ipc-server=" + m.cfg.Socket,
		"--no-video",
		"--no-terminal",
	}, m.cfg.Args...)

	m.logger.Info("starting mpv", "binary", m.cfg.Binary, "socket", m.cfg.Socket)

	// The process outlives the request that started it.
	cmd := exec.Command(m.cfg.Binary, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start mpv: %w", err)
	}

	proc := &process{kill: cmd.Process.Kill, exited: make(chan struct{})}
	go func() {
		defer close(proc.exited)
		if err := cmd.Wait(); err != nil {
			m.logger.Warn("mpv exited", "err", err)
		}
	}()

	for range socketCheckRetries {
		if _, err := os.Stat(m.cfg.Socket); err == nil {
			return proc, nil
		}
		if !proc.running() {
			return nil, errors.New("mpv exited during startup")
		}
		time.Sleep(socketCheckInterval)
	}

	_ = proc.kill()

	return nil, fmt.Errorf("mpv started but socket did not appear at %s", m.cfg.Socket)
}

// send writes cmds and waits for their replies, ignoring events.
func (m *Mpv) send(ctx context.Context, cmds ...command) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", m.cfg.Socket)
	if err != nil {
		return fmt.Errorf("could not connect to mpv socket: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(socketReadDeadline)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	enc := json.NewEncoder(conn)
	for _, c := range cmds {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("error sending mpv command: %w", err)
		}
	}

	pending := make(map[int]command, len(cmds))
	for _, c := range cmds {
		pending[c.RequestID] = c
	}

	scanner := bufio.NewScanner(conn)
	for len(pending) > 0 && scanner.Scan() {
		var resp response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			m.logger.Warn("could not parse mpv reply", "line", scanner.Text(), "err", err)
			continue
		}
		if resp.Event != "" {
			continue
		}

		c, ok := pending[resp.RequestID]
		if !ok {
			continue
		}
		delete(pending, resp.RequestID)

		if resp.Error != "" && resp.Error != "success" {
			return fmt.Errorf("mpv %v: %s", c.Command[0], resp.Error)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading mpv reply: %w", err)
	}
	if len(pending) > 0 {
		return fmt.Errorf("mpv closed the connection with %d commands unanswered", len(pending))
	}

	return nil
}
