package messagebus

import "context"

// Speaker asks the voice host to speak an utterance.
type Speaker struct {
	client *Client
}

func NewSpeaker(c *Client) *Speaker {
	return &Speaker{client: c}
}

func (s *Speaker) Speak(ctx context.Context, utterance string) error {
	return s.client.Emit(ctx, NewMessage("speak", map[string]any{
		"utterance":       utterance,
		"expect_response": false,
	}))
}

// AudioService drives the host's audio service.
type AudioService struct {
	client *Client
}

func NewAudioService(c *Client) *AudioService {
	return &AudioService{client: c}
}

// Play replaces the host playlist with tracks and starts playback.
func (a *AudioService) Play(ctx context.Context, tracks []string, utterance string) error {
	return a.client.Emit(ctx, NewMessage("mycroft.audio.service.play", map[string]any{
		"tracks":    tracks,
		"utterance": utterance,
	}))
}

// Queue appends tracks to the host playlist.
func (a *AudioService) Queue(ctx context.Context, tracks []string) error {
	return a.client.Emit(ctx, NewMessage("mycroft.audio.service.queue", map[string]any{
		"tracks": tracks,
	}))
}

func (a *AudioService) Stop(ctx context.Context) error {
	return a.client.Emit(ctx, NewMessage("mycroft.audio.service.stop", nil))
}

func (a *AudioService) Clear(ctx context.Context) error {
	return a.client.Emit(ctx, NewMessage("mycroft.audio.service.clear", nil))
}
