package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhraseMatch(t *testing.T) {
	res, err := newResources("", "en-us")
	require.NoError(t, err)
	phrases, err := loadPhrases(res)
	require.NoError(t, err)

	cases := []struct {
		phrase string
		level  MatchLevel
		data   string
	}{
		{"jazz 24 internet radio on tunein", LevelExact, "jazz 24"},
		{"jazz 24 internet radio on tune in", LevelExact, "jazz 24"},
		{"kexp radio on tunein", LevelExact, "kexp"},
		{"bbc world service on TuneIn", LevelExact, "bbc world service"},
		{"soma fm internet radio", LevelCategory, "soma fm"},
		{"kexp radio", LevelCategory, "kexp"},
		{"some song", LevelGeneric, "some song"},
		{"radiohead", LevelGeneric, "radiohead"},
	}

	for _, tc := range cases {
		t.Run(tc.phrase, func(t *testing.T) {
			m := phrases.Match(tc.phrase)
			assert.Equal(t, tc.phrase, m.Phrase)
			assert.Equal(t, tc.level, m.Level)
			assert.Equal(t, tc.data, m.Data)
		})
	}
}

func TestMatchLevel(t *testing.T) {
	assert.Equal(t, "EXACT", LevelExact.String())
	assert.Equal(t, "CATEGORY", LevelCategory.String())
	assert.Equal(t, "GENERIC", LevelGeneric.String())
	assert.Equal(t, 1.0, LevelExact.Confidence())
	assert.Equal(t, 0.6, LevelCategory.Confidence())
	assert.Equal(t, 0.5, LevelGeneric.Confidence())
}

func TestResourceOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "en-us"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en-us", "radio.regex"), []byte(`\s*\bstation\b`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en-us", "not.found.dialog"), []byte("# comment\nNo luck with that one\n"), 0o600))

	res, err := newResources(dir, "en-US")
	require.NoError(t, err)

	phrases, err := loadPhrases(res)
	require.NoError(t, err)
	m := phrases.Match("kexp station")
	assert.Equal(t, LevelCategory, m.Level)
	assert.Equal(t, "kexp", m.Data)

	dialogs, err := loadDialogs(res, dialogNowPlaying, dialogNotFound)
	require.NoError(t, err)
	text, err := dialogs.Render(dialogNotFound, nil)
	require.NoError(t, err)
	assert.Equal(t, "No luck with that one", text)
}

func TestDialogRender(t *testing.T) {
	res, err := newResources("", "en-us")
	require.NoError(t, err)
	dialogs, err := loadDialogs(res, dialogNowPlaying)
	require.NoError(t, err)

	for i := range dialogs.templates[dialogNowPlaying] {
		dialogs.intn = func(int) int { return i }
		text, err := dialogs.Render(dialogNowPlaying, map[string]string{"station": "Jazz 24"})
		require.NoError(t, err)
		assert.Contains(t, text, "Jazz 24")
		assert.NotContains(t, text, "{{")
	}

	_, err = dialogs.Render("missing", nil)
	require.Error(t, err)
}
