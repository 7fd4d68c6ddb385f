package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/grafana/dskit/services"

	"github.com/zachfi/tunego/pkg/playlist"
	"github.com/zachfi/tunego/pkg/tunein"
)

const module = "skill"

// Speaker voices rendered dialog.
type Speaker interface {
	Speak(ctx context.Context, utterance string) error
}

// PhraseMatcher is the play query capability: rate a phrase, then start
// playback for the data extracted from it.
type PhraseMatcher interface {
	MatchQueryPhrase(phrase string) Match
	StartPlayback(ctx context.Context, phrase, data string) error
}

// IntentHandler handles a direct request to stream a named station.
type IntentHandler interface {
	HandleStreamIntent(ctx context.Context, station, utterance string) error
}

// StreamUnwinder resolves a station metadata url to a stream url.
type StreamUnwinder interface {
	Unwind(ctx context.Context, metadataURL string) (string, error)
}

var (
	_ PhraseMatcher = (*Skill)(nil)
	_ IntentHandler = (*Skill)(nil)
)

type Skill struct {
	services.Service

	cfg    *Config
	logger *slog.Logger

	phrases  *Phrases
	dialogs  *Dialogs
	aliases  *Aliases
	resolver *Resolver
	unwinder StreamUnwinder
	speaker  Speaker
	session  *Session
	bus      Bus

	// mu serializes play and stop requests; the session is not reentrant.
	mu sync.Mutex
}

// New creates the skill. Speech goes to speaker and playback to audio.
func New(cfg Config, speaker Speaker, audio AudioService, logger slog.Logger) (*Skill, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if speaker == nil {
		return nil, errors.New("speaker is required")
	}
	if audio == nil {
		return nil, errors.New("audio service is required")
	}

	s := &Skill{
		cfg:     &cfg,
		logger:  logger.With("module", module),
		speaker: speaker,
		session: NewSession(audio),
	}

	res, err := newResources(cfg.ResourceDir, cfg.Language)
	if err != nil {
		return nil, err
	}

	s.phrases, err = loadPhrases(res)
	if err != nil {
		return nil, err
	}

	s.dialogs, err = loadDialogs(res, dialogNowPlaying, dialogNotFound)
	if err != nil {
		return nil, err
	}

	s.aliases = NewAliases(cfg.SettingsFile, cfg.LegacyAliasFile, s.logger)

	httpClient := playlist.NewHTTPClient(cfg.RequestTimeout)
	s.resolver = NewResolver(tunein.NewClient(cfg.SearchURL, httpClient, s.logger), s.aliases, cfg.MatchMode, s.logger)
	s.unwinder = playlist.NewUnwinder(httpClient, s.logger)

	s.Service = services.NewBasicService(s.starting, s.running, s.stopping)

	return s, nil
}

func (s *Skill) starting(_ context.Context) error {
	if err := s.aliases.Load(); err != nil {
		// Playback works without aliases; a later edit triggers a reload.
		s.logger.Error("failed to load aliases", "err", err)
	}

	return nil
}

func (s *Skill) running(ctx context.Context) error {
	if err := s.aliases.Watch(ctx); err != nil {
		s.logger.Warn("alias reload disabled", "err", err)
		<-ctx.Done()
	}

	return nil
}

func (s *Skill) stopping(_ error) error {
	s.logger.Info("stopping")

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session.Shutdown(context.Background())
}

// MatchQueryPhrase rates phrase against the localized patterns.
func (s *Skill) MatchQueryPhrase(phrase string) Match {
	m := s.phrases.Match(phrase)
	s.logger.Debug("phrase match", "phrase", phrase, "level", m.Level, "data", m.Data)

	return m
}

// StartPlayback plays the station named by data, as extracted by
// MatchQueryPhrase.
func (s *Skill) StartPlayback(ctx context.Context, phrase, data string) error {
	s.logger.Debug("start playback", "phrase", phrase, "data", data)
	return s.play(ctx, "query", data, "")
}

// HandleStreamIntent plays station in response to a direct intent.
func (s *Skill) HandleStreamIntent(ctx context.Context, station, utterance string) error {
	s.logger.Debug("stream intent", "station", station, "utterance", utterance)
	return s.play(ctx, "intent", station, utterance)
}

// Stop halts playback. It is safe to call when nothing is playing.
func (s *Skill) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session.Stop(ctx)
}

// Status returns the current playback session.
func (s *Skill) Status() SessionInfo {
	return s.session.Snapshot()
}

func (s *Skill) play(ctx context.Context, source, query, utterance string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.playLocked(ctx, query, utterance)
	if err != nil {
		metricRequests.WithLabelValues(source, "failed").Inc()
		s.logger.Info("unable to play station", "query", query, "err", err)
		s.speak(ctx, dialogNotFound, nil)
		return err
	}

	metricRequests.WithLabelValues(source, "played").Inc()

	return nil
}

func (s *Skill) playLocked(ctx context.Context, query, utterance string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}

	sel, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return err
	}

	streamURL, err := s.unwinder.Unwind(ctx, sel.MetadataURL)
	if err != nil {
		return fmt.Errorf("failed to resolve stream for %q: %w", sel.Name, err)
	}

	s.logger.Info("found stream url", "station", sel.Name, "stream_url", streamURL)
	s.speak(ctx, dialogNowPlaying, map[string]string{"station": sel.Name})

	return s.session.Play(ctx, sel.Name, streamURL, utterance)
}

func (s *Skill) speak(ctx context.Context, dialog string, vars map[string]string) {
	text, err := s.dialogs.Render(dialog, vars)
	if err != nil {
		s.logger.Error("failed to render dialog", "dialog", dialog, "err", err)
		return
	}

	if err := s.speaker.Speak(ctx, text); err != nil {
		s.logger.Error("failed to speak", "dialog", dialog, "err", err)
	}
}

// LogSpeaker writes utterances to the log. It is used when no voice host
// is connected.
type LogSpeaker struct {
	Logger *slog.Logger
}

func (l LogSpeaker) Speak(_ context.Context, utterance string) error {
	l.Logger.Info("speak", "utterance", utterance)
	return nil
}
