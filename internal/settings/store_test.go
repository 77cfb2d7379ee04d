package settings

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPusher struct {
	mu      sync.Mutex
	changes []Change
	panicOn Field
}

func (p *recordingPusher) PushField(c Change) {
	p.mu.Lock()
	p.changes = append(p.changes, c)
	p.mu.Unlock()
	if p.panicOn != "" && c.Field == p.panicOn {
		panic("remote rejected " + string(c.Field))
	}
}

func (p *recordingPusher) recorded() []Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Change, len(p.changes))
	copy(out, p.changes)
	return out
}

type recordingEffects struct {
	applied []VisualSettings
}

func (e *recordingEffects) ApplyVisual(v VisualSettings) {
	e.applied = append(e.applied, v)
}

func TestStoreDefaults(t *testing.T) {
	s := NewStore(nil, nil)
	snap := s.Snapshot()

	assert.Equal(t, DefaultDeviceID, snap.Audio.InputDevice)
	assert.Equal(t, 48000, snap.Audio.SampleRate)
	assert.Equal(t, "1920x1080", snap.Video.Resolution)
	assert.Equal(t, 14, snap.Visual.FontSize)
	assert.Equal(t, 1000, snap.Motor.DwellTime)
	assert.Equal(t, 30, snap.Cognitive.SessionTimeout)
}

func TestStoreSetterAppliesThenPushes(t *testing.T) {
	pusher := &recordingPusher{}
	s := NewStore(pusher, nil)

	s.SetAudioInputVolume(40)

	assert.Equal(t, 40, s.Snapshot().Audio.InputVolume)
	changes := pusher.recorded()
	require.Len(t, changes, 1)
	assert.Equal(t, SliceAudio, changes[0].Slice)
	assert.Equal(t, FieldInputVolume, changes[0].Field)
	assert.Equal(t, 40, changes[0].Value)
	assert.Equal(t, 40, changes[0].Settings.Audio.InputVolume)
}

func TestStoreRejectedPushKeepsLocalValue(t *testing.T) {
	pusher := &recordingPusher{panicOn: FieldInputVolume}
	s := NewStore(pusher, nil)

	assert.NotPanics(t, func() { s.SetAudioInputVolume(33) })
	assert.Equal(t, 33, s.Snapshot().Audio.InputVolume)

	// later setters still run
	s.SetAudioOutputVolume(10)
	assert.Equal(t, 10, s.Snapshot().Audio.OutputVolume)
	assert.Len(t, pusher.recorded(), 2)
}

func TestStoreSettersPreserveCallOrder(t *testing.T) {
	pusher := &recordingPusher{}
	s := NewStore(pusher, nil)

	s.SetDwellTime(1500)
	s.SetSessionTimeout(60)
	s.SetFontSize(18)

	changes := pusher.recorded()
	require.Len(t, changes, 3)
	assert.Equal(t, FieldDwellTime, changes[0].Field)
	assert.Equal(t, FieldSessionTimeout, changes[1].Field)
	assert.Equal(t, FieldFontSize, changes[2].Field)
	assert.Equal(t, 1500, changes[2].Settings.Motor.DwellTime)
}

func TestStoreDoesNotRevalidate(t *testing.T) {
	s := NewStore(nil, nil)
	s.SetDwellTime(10)
	assert.Equal(t, 10, s.Snapshot().Motor.DwellTime)
}

func TestStoreVisualEffects(t *testing.T) {
	tests := []struct {
		name        string
		set         func(*Store)
		wantApplied bool
	}{
		{"high contrast", func(s *Store) { s.SetHighContrast(true) }, true},
		{"font size", func(s *Store) { s.SetFontSize(20) }, true},
		{"cursor size", func(s *Store) { s.SetCursorSize(CursorLarge) }, true},
		{"reduced motion", func(s *Store) { s.SetReducedMotion(true) }, true},
		{"speech rate", func(s *Store) { s.SetSpeechRate(1.5) }, false},
		{"audio volume", func(s *Store) { s.SetAudioOutputVolume(50) }, false},
		{"dwell time", func(s *Store) { s.SetDwellTime(800) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effects := &recordingEffects{}
			s := NewStore(nil, effects)
			tt.set(s)
			if tt.wantApplied {
				require.Len(t, effects.applied, 1)
				assert.Equal(t, s.Snapshot().Visual, effects.applied[0])
			} else {
				assert.Empty(t, effects.applied)
			}
		})
	}
}

func TestStoreQualityIsAdvisory(t *testing.T) {
	s := NewStore(nil, nil)
	s.SetVideoBitrate(12000)
	s.SetVideoFrameRate(45)
	s.SetVideoQuality(QualityLow)

	v := s.Snapshot().Video
	assert.Equal(t, QualityLow, v.Quality)
	assert.Equal(t, 12000, v.Bitrate)
	assert.Equal(t, 45, v.FrameRate)
}

func TestStoreReplaceAccessibilityPushesEveryField(t *testing.T) {
	pusher := &recordingPusher{}
	effects := &recordingEffects{}
	s := NewStore(pusher, effects)

	a := DefaultAccessibility()
	a.Visual.HighContrast = true
	a.Visual.MagnificationLevel = 150
	a.Audio.ScreenReaderEnabled = true
	s.ReplaceAccessibility(a)

	snap := s.Snapshot()
	assert.Equal(t, a, snap.Accessibility())
	assert.Len(t, effects.applied, 1)

	changes := pusher.recorded()
	require.Len(t, changes, len(accessibilityFields))
	seen := make(map[Slice]int)
	for _, c := range changes {
		assert.True(t, c.Slice.IsAccessibility())
		seen[c.Slice]++
	}
	assert.Equal(t, 7, seen[SliceVisual])
	assert.Equal(t, 10, seen[SliceAudioA11y])
	assert.Equal(t, 7, seen[SliceMotor])
	assert.Equal(t, 6, seen[SliceCognitive])
	assert.Equal(t, true, changes[0].Value)
}

func TestStoreReplaceAudioAndVideo(t *testing.T) {
	pusher := &recordingPusher{}
	s := NewStore(pusher, nil)

	audio := DefaultAudioSettings()
	audio.Channels = ChannelsMono
	s.ReplaceAudio(audio)

	video := DefaultVideoSettings()
	video.Codec = CodecVP9
	s.ReplaceVideo(video)

	assert.Equal(t, ChannelsMono, s.Snapshot().Audio.Channels)
	assert.Equal(t, CodecVP9, s.Snapshot().Video.Codec)
	changes := pusher.recorded()
	require.Len(t, changes, 2)
	assert.Equal(t, FieldAll, changes[0].Field)
	assert.Equal(t, audio, changes[0].Value)
	assert.Equal(t, video, changes[1].Value)
}

func TestStoreOnChange(t *testing.T) {
	s := NewStore(nil, nil)
	var got [][]Change
	unsubscribe := s.OnChange(func(c []Change) { got = append(got, c) })

	s.SetMonoAudio(true)
	s.ReplaceAccessibility(DefaultAccessibility())
	unsubscribe()
	s.SetMonoAudio(false)

	require.Len(t, got, 2)
	assert.Len(t, got[0], 1)
	assert.Len(t, got[1], len(accessibilityFields))
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewStore(nil, nil)
	snap := s.Snapshot()
	snap.Audio.InputVolume = 1
	assert.Equal(t, 75, s.Snapshot().Audio.InputVolume)
}

func TestRangeClamp(t *testing.T) {
	tests := []struct {
		name     string
		slice    Slice
		field    Field
		input    float64
		expected float64
	}{
		{"dwell below min", SliceMotor, FieldDwellTime, 100, 500},
		{"dwell above max", SliceMotor, FieldDwellTime, 9000, 5000},
		{"dwell snaps to step", SliceMotor, FieldDwellTime, 1240, 1200},
		{"session timeout min", SliceCognitive, FieldSessionTimeout, 1, 5},
		{"session timeout max", SliceCognitive, FieldSessionTimeout, 500, 120},
		{"font size min", SliceVisual, FieldFontSize, 8, 10},
		{"font size max", SliceVisual, FieldFontSize, 30, 24},
		{"frame rate step", SliceVideo, FieldFrameRate, 27, 25},
		{"volume in range", SliceAudio, FieldInputVolume, 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := RangeOf(tt.slice, tt.field)
			require.True(t, ok)
			assert.InDelta(t, tt.expected, r.Clamp(tt.input), 1e-9)
		})
	}

	_, ok := RangeOf(SliceAudio, FieldChannels)
	assert.False(t, ok)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateSampleRate(44100))
	assert.ErrorIs(t, ValidateSampleRate(12345), ErrInvalidSampleRate)
	assert.NoError(t, ValidateResolution("1280x720"))
	assert.ErrorIs(t, ValidateResolution("1x1"), ErrInvalidResolution)
	assert.NoError(t, ValidateChoice(CodecAV1, Codecs))
	assert.ErrorIs(t, ValidateChoice(VideoCodec("mpeg2"), Codecs), ErrInvalidChoice)

	w, h, err := ParseResolution("2560x1440")
	require.NoError(t, err)
	assert.Equal(t, 2560, w)
	assert.Equal(t, 1440, h)
	_, _, err = ParseResolution("wide")
	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func TestPresentationAttributes(t *testing.T) {
	v := DefaultAccessibility().Visual
	v.HighContrast = true
	v.CursorSize = CursorExtraLarge
	v.FontSize = 18

	attrs := PresentationAttributes(v)
	assert.Equal(t, "18px", attrs["--font-size"])
	assert.Equal(t, "1.5", attrs["--line-spacing"])
	assert.Equal(t, "48px", attrs["--cursor-size"])
	assert.Equal(t, "true", attrs["data-high-contrast"])
	assert.Equal(t, "default", attrs["data-color-scheme"])
	assert.Equal(t, "false", attrs["data-reduced-motion"])
}
