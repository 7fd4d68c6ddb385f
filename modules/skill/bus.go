package skill

import (
	"context"

	"github.com/zachfi/tunego/pkg/messagebus"
)

const (
	msgPlayQuery         = "play:query"
	msgPlayQueryResponse = "play:query.response"
	msgPlayStart         = "play:start"
	msgStop              = "mycroft.stop"

	streamIntent = "StreamRequest.intent"
	serviceName  = "TuneIn"
)

// Bus is the subset of the message bus client the skill needs.
type Bus interface {
	On(msgType string, h messagebus.Handler)
	Emit(ctx context.Context, msg messagebus.Message) error
}

// RegisterBusHandlers answers play queries, play starts, the stream intent
// and stop requests arriving on bus.
func (s *Skill) RegisterBusHandlers(bus Bus) {
	s.bus = bus

	bus.On(msgPlayQuery, s.onPlayQuery)
	bus.On(msgPlayStart, s.onPlayStart)
	bus.On(s.cfg.SkillID+":"+streamIntent, s.onStreamIntent)
	bus.On(msgStop, s.onStop)
}

func (s *Skill) onPlayQuery(ctx context.Context, msg messagebus.Message) error {
	phrase := msg.String("phrase")

	if err := s.bus.Emit(ctx, msg.Reply(msgPlayQueryResponse, map[string]any{
		"phrase":    phrase,
		"skill_id":  s.cfg.SkillID,
		"searching": true,
	})); err != nil {
		return err
	}

	m := s.MatchQueryPhrase(phrase)

	return s.bus.Emit(ctx, msg.Reply(msgPlayQueryResponse, map[string]any{
		"phrase":        phrase,
		"skill_id":      s.cfg.SkillID,
		"callback_data": m.Data,
		"service_name":  serviceName,
		"conf":          m.Level.Confidence(),
	}))
}

func (s *Skill) onPlayStart(ctx context.Context, msg messagebus.Message) error {
	if msg.String("skill_id") != s.cfg.SkillID {
		return nil
	}

	return s.StartPlayback(ctx, msg.String("phrase"), msg.String("callback_data"))
}

func (s *Skill) onStreamIntent(ctx context.Context, msg messagebus.Message) error {
	return s.HandleStreamIntent(ctx, msg.String("station"), msg.String("utterance"))
}

func (s *Skill) onStop(ctx context.Context, _ messagebus.Message) error {
	return s.Stop(ctx)
}
