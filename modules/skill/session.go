package skill

import (
	"context"
	"fmt"
	"sync"
)

// State is the playback state of a Session.
type State int

const (
	StateStopped State = iota
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// AudioService plays stream urls on behalf of the skill.
type AudioService interface {
	Play(ctx context.Context, tracks []string, utterance string) error
	Stop(ctx context.Context) error
}

// SessionInfo is a point in time copy of a Session.
type SessionInfo struct {
	State     State
	Station   string
	StreamURL string
}

// Session is the single playback session of the skill.
type Session struct {
	audio AudioService

	mu        sync.Mutex
	state     State
	station   string
	streamURL string
}

func NewSession(audio AudioService) *Session {
	return &Session{audio: audio}
}

// Play stops any current playback and starts streamURL. The session stays
// stopped if the backend refuses.
func (s *Session) Play(ctx context.Context, station, streamURL, utterance string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePlaying {
		if err := s.stop(ctx); err != nil {
			return fmt.Errorf("failed to stop %q: %w", s.station, err)
		}
	}

	if err := s.audio.Play(ctx, []string{streamURL}, utterance); err != nil {
		return fmt.Errorf("failed to play %q: %w", station, err)
	}

	s.state = StatePlaying
	s.station = station
	s.streamURL = streamURL
	metricPlaying.Set(1)

	return nil
}

// Stop halts playback. It is a no-op when already stopped.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stop(ctx)
}

func (s *Session) stop(ctx context.Context) error {
	if s.state == StateStopped {
		return nil
	}

	if err := s.audio.Stop(ctx); err != nil {
		return err
	}

	s.state = StateStopped
	s.station = ""
	s.streamURL = ""
	metricPlaying.Set(0)

	return nil
}

// Shutdown stops playback if a station is playing.
func (s *Session) Shutdown(ctx context.Context) error {
	return s.Stop(ctx)
}

func (s *Session) Snapshot() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionInfo{State: s.state, Station: s.station, StreamURL: s.streamURL}
}
