package skill

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zachfi/tunego/pkg/messagebus"
)

// fakeBus dispatches messages to registered handlers directly and records
// emitted messages.
type fakeBus struct {
	handlers map[string][]messagebus.Handler

	mu      sync.Mutex
	emitted []messagebus.Message
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: map[string][]messagebus.Handler{}}
}

func (b *fakeBus) On(msgType string, h messagebus.Handler) {
	b.handlers[msgType] = append(b.handlers[msgType], h)
}

func (b *fakeBus) Emit(_ context.Context, msg messagebus.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emitted = append(b.emitted, msg)
	return nil
}

func (b *fakeBus) deliver(t *testing.T, msg messagebus.Message) error {
	t.Helper()

	handlers, ok := b.handlers[msg.Type]
	require.True(t, ok, "no handler for %s", msg.Type)

	var err error
	for _, h := range handlers {
		if herr := h(context.Background(), msg); herr != nil {
			err = herr
		}
	}
	return err
}

func TestBusPlayQuery(t *testing.T) {
	s := newTestSkill(t)
	bus := newFakeBus()
	s.RegisterBusHandlers(bus)

	msg := messagebus.NewMessage("play:query", map[string]any{"phrase": "kexp radio on tunein"})
	msg.Context["source"] = "audio"
	require.NoError(t, bus.deliver(t, msg))

	require.Len(t, bus.emitted, 2)

	searching := bus.emitted[0]
	assert.Equal(t, "play:query.response", searching.Type)
	assert.Equal(t, true, searching.Data["searching"])
	assert.Equal(t, "audio", searching.Context["destination"])

	answer := bus.emitted[1]
	assert.Equal(t, "play:query.response", answer.Type)
	assert.Equal(t, "tunein-skill", answer.Data["skill_id"])
	assert.Equal(t, "kexp", answer.Data["callback_data"])
	assert.Equal(t, 1.0, answer.Data["conf"])
	assert.Equal(t, "kexp radio on tunein", answer.Data["phrase"])
}

func TestBusPlayStartAndStop(t *testing.T) {
	s := newTestSkill(t)
	s.dir.respond("kexp", opml(station("KEXP", "kexp")))
	s.dir.stream("kexp", "http://x/kexp")

	bus := newFakeBus()
	s.RegisterBusHandlers(bus)

	other := messagebus.NewMessage("play:start", map[string]any{"skill_id": "another-skill", "phrase": "kexp", "callback_data": "kexp"})
	require.NoError(t, bus.deliver(t, other))
	assert.Empty(t, s.audio.recorded())

	start := messagebus.NewMessage("play:start", map[string]any{"skill_id": "tunein-skill", "phrase": "kexp radio", "callback_data": "kexp"})
	require.NoError(t, bus.deliver(t, start))
	assert.Equal(t, StatePlaying, s.Status().State)

	require.NoError(t, bus.deliver(t, messagebus.NewMessage("mycroft.stop", nil)))
	assert.Equal(t, StateStopped, s.Status().State)
	assert.Equal(t, []string{"play http://x/kexp", "stop"}, s.audio.recorded())
}

func TestBusStreamIntent(t *testing.T) {
	s := newTestSkill(t)
	s.dir.respond("jazz 24", opml(station("Jazz 24", "j24")))
	s.dir.stream("j24", "http://x/j24")

	bus := newFakeBus()
	s.RegisterBusHandlers(bus)

	intent := messagebus.NewMessage("tunein-skill:StreamRequest.intent", map[string]any{"station": "jazz 24", "utterance": "play jazz 24"})
	require.NoError(t, bus.deliver(t, intent))
	assert.Equal(t, "Jazz 24", s.Status().Station)

	missing := messagebus.NewMessage("tunein-skill:StreamRequest.intent", map[string]any{"station": "nothing"})
	require.ErrorIs(t, bus.deliver(t, missing), ErrNotFound)
}
