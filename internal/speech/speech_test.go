package speech

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpc/mediactl/internal/settings"
)

type fakeSynth struct {
	mu     sync.Mutex
	voices []Voice
	err    error
	gate   chan struct{}
	spoken []Utterance
}

func (f *fakeSynth) Voices(ctx context.Context) ([]Voice, error) {
	if f.gate != nil {
		<-f.gate
	}
	return f.voices, f.err
}

func (f *fakeSynth) Speak(_ context.Context, u Utterance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, u)
	return nil
}

var english = Voice{ID: "en-us", Name: "English (America)", Language: "en-us"}

func TestCatalog_VoicesArriveLate(t *testing.T) {
	synth := &fakeSynth{voices: []Voice{english}, gate: make(chan struct{})}
	c := NewCatalog(synth)

	var notified [][]Voice
	var mu sync.Mutex
	c.OnChange(func(v []Voice) {
		mu.Lock()
		notified = append(notified, v)
		mu.Unlock()
	})

	c.Load(context.Background())
	assert.Empty(t, c.Voices())
	assert.False(t, c.Loaded())

	close(synth.gate)
	c.Wait()

	assert.True(t, c.Loaded())
	assert.Equal(t, []Voice{english}, c.Voices())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, notified, 1)
	assert.Equal(t, []Voice{english}, notified[0])
}

func TestCatalog_LoadErrorKeepsEmptyList(t *testing.T) {
	c := NewCatalog(&fakeSynth{err: errors.New("no binary")})
	c.Load(context.Background())
	c.Wait()
	assert.False(t, c.Loaded())
	assert.Empty(t, c.Voices())
}

func TestCatalog_Preview(t *testing.T) {
	a := settings.DefaultAccessibility().Audio
	a.SpeechRate = 1.5
	a.SpeechPitch = 0.8
	a.SpeechVolume = 60

	tests := []struct {
		name      string
		loaded    bool
		voice     string
		text      string
		wantVoice string
		wantText  string
	}{
		{"known voice", true, "en-us", "hello", "en-us", "hello"},
		{"unknown voice falls back", true, "xx", "hello", "", "hello"},
		{"voice before list arrives", false, "en-us", "hello", "", "hello"},
		{"default text", true, "", "", "", DefaultPreviewText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &fakeSynth{voices: []Voice{english}}
			c := NewCatalog(synth)
			if tt.loaded {
				c.Load(context.Background())
				c.Wait()
			}

			a.Voice = tt.voice
			require.NoError(t, c.Preview(context.Background(), tt.text, a))
			require.Len(t, synth.spoken, 1)
			u := synth.spoken[0]
			assert.Equal(t, tt.wantVoice, u.Voice)
			assert.Equal(t, tt.wantText, u.Text)
			assert.Equal(t, 1.5, u.Rate)
			assert.Equal(t, 0.8, u.Pitch)
			assert.Equal(t, 60, u.Volume)
		})
	}
}

func TestParseVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-us           --/M      English_(America)  gmw/en-US            (en 3)

`)
	voices := parseVoices(out)
	require.Len(t, voices, 2)
	assert.Equal(t, Voice{ID: "af", Name: "Afrikaans", Language: "af"}, voices[0])
	assert.Equal(t, english, voices[1])
}

func TestSpeakArgs(t *testing.T) {
	tests := []struct {
		name string
		u    Utterance
		want []string
	}{
		{
			name: "defaults",
			u:    Utterance{Text: "hi", Rate: 1, Pitch: 1, Volume: 80},
			want: []string{"-s", "175", "-p", "50", "-a", "80", "--", "hi"},
		},
		{
			name: "voice and scaling",
			u:    Utterance{Text: "-x", Voice: "en-us", Rate: 2, Pitch: 2, Volume: 100},
			want: []string{"-s", "350", "-p", "99", "-a", "100", "-v", "en-us", "--", "-x"},
		},
		{
			name: "zero values use base",
			u:    Utterance{Text: "hi"},
			want: []string{"-s", "175", "-p", "50", "-a", "0", "--", "hi"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, speakArgs(tt.u))
		})
	}
}

func TestESpeak_UsesRunner(t *testing.T) {
	var calls [][]string
	e := NewESpeak("")
	e.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		return []byte("Pty Language Age/Gender VoiceName File\n 5 de --/M German gmw/de\n"), nil
	}

	voices, err := e.Voices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Voice{{ID: "de", Name: "German", Language: "de"}}, voices)

	require.NoError(t, e.Speak(context.Background(), Utterance{Text: "hallo", Rate: 1, Pitch: 1, Volume: 50}))
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"espeak-ng", "--voices"}, calls[0])
	assert.Equal(t, "espeak-ng", calls[1][0])
	assert.Equal(t, "hallo", calls[1][len(calls[1])-1])
}
