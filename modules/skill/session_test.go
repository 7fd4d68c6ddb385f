package skill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTransitions(t *testing.T) {
	audio := &fakeAudio{}
	s := NewSession(audio)
	ctx := context.Background()

	assert.Equal(t, SessionInfo{State: StateStopped}, s.Snapshot())

	require.NoError(t, s.Stop(ctx))
	assert.Empty(t, audio.recorded())

	require.NoError(t, s.Play(ctx, "KEXP", "http://x/kexp", "play kexp"))
	assert.Equal(t, SessionInfo{State: StatePlaying, Station: "KEXP", StreamURL: "http://x/kexp"}, s.Snapshot())

	require.NoError(t, s.Play(ctx, "Jazz 24", "http://x/j24", ""))
	assert.Equal(t, "Jazz 24", s.Snapshot().Station)

	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, SessionInfo{State: StateStopped}, s.Snapshot())

	assert.Equal(t, []string{"play http://x/kexp", "stop", "play http://x/j24", "stop"}, audio.recorded())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "State(7)", State(7).String())
}
