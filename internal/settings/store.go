package settings

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/logging"
)

// FieldAll marks a change that replaced a whole slice. The change value is
// the slice struct.
const FieldAll Field = "*"

// Change describes one applied mutation. Settings is the full snapshot right
// after the mutation.
type Change struct {
	Slice    Slice
	Field    Field
	Value    any
	Settings Settings
}

// Pusher forwards applied changes to the remote session. PushField must not
// block and must not report errors back to the store.
type Pusher interface {
	PushField(Change)
}

// PresentationEffects mirrors visual settings onto the local control UI.
type PresentationEffects interface {
	ApplyVisual(VisualSettings)
}

// NopEffects ignores visual updates.
type NopEffects struct{}

func (NopEffects) ApplyVisual(VisualSettings) {}

type nopPusher struct{}

func (nopPusher) PushField(Change) {}

// Store is the single source of truth for the desired configuration. Every
// setter applies locally first and then pushes the field; a failed push
// never reverts the local value.
type Store struct {
	// applyMu keeps side effects in call order.
	applyMu sync.Mutex

	mu       sync.RWMutex
	settings Settings

	pusher  Pusher
	effects PresentationEffects

	listenerMu sync.Mutex
	listeners  map[int]func([]Change)
	nextID     int

	logger *zerolog.Logger
}

// NewStore creates a store holding DefaultSettings. Nil ports are replaced
// with no-ops.
func NewStore(pusher Pusher, effects PresentationEffects) *Store {
	if pusher == nil {
		pusher = nopPusher{}
	}
	if effects == nil {
		effects = NopEffects{}
	}
	return &Store{
		settings:  DefaultSettings(),
		pusher:    pusher,
		effects:   effects,
		listeners: make(map[int]func([]Change)),
		logger:    logging.GetSubsystemLogger("settings"),
	}
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Accessibility returns the current accessibility slices.
func (s *Store) Accessibility() Accessibility {
	return s.Snapshot().Accessibility()
}

// OnChange registers fn to receive every applied batch of changes. The
// returned func removes the listener.
func (s *Store) OnChange(fn func([]Change)) func() {
	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

func (s *Store) apply(slice Slice, field Field, value any, mutate func(*Settings)) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	next := s.commit(mutate)
	if slice == SliceVisual {
		s.applyVisual(next.Visual)
	}
	change := Change{Slice: slice, Field: field, Value: value, Settings: next}
	s.push(change)
	s.notify([]Change{change})
}

func (s *Store) commit(mutate func(*Settings)) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.settings
	mutate(&next)
	s.settings = next
	return next
}

func (s *Store) applyVisual(v VisualSettings) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("presentation effects panicked")
		}
	}()
	s.effects.ApplyVisual(v)
}

func (s *Store) push(c Change) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).
				Str("slice", string(c.Slice)).
				Str("field", string(c.Field)).
				Msg("push panicked")
		}
	}()
	s.pusher.PushField(c)
}

func (s *Store) notify(changes []Change) {
	s.listenerMu.Lock()
	fns := make([]func([]Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn(changes)
	}
}

// ReplaceAccessibility swaps all four accessibility slices at once and pushes
// every accessibility field, whether or not it changed.
func (s *Store) ReplaceAccessibility(a Accessibility) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	next := s.commit(func(st *Settings) {
		st.Visual = a.Visual
		st.AudioA11y = a.Audio
		st.Motor = a.Motor
		st.Cognitive = a.Cognitive
	})
	s.applyVisual(next.Visual)

	changes := make([]Change, 0, len(accessibilityFields))
	for _, f := range accessibilityFields {
		c := Change{Slice: f.slice, Field: f.field, Value: f.get(next), Settings: next}
		s.push(c)
		changes = append(changes, c)
	}
	s.logger.Debug().Int("fields", len(changes)).Msg("accessibility settings replaced")
	s.notify(changes)
}

// ReplaceAudio swaps the audio slice and pushes it as a whole.
func (s *Store) ReplaceAudio(a AudioSettings) {
	s.apply(SliceAudio, FieldAll, a, func(st *Settings) { st.Audio = a })
}

// ReplaceVideo swaps the video slice and pushes it as a whole.
func (s *Store) ReplaceVideo(v VideoSettings) {
	s.apply(SliceVideo, FieldAll, v, func(st *Settings) { st.Video = v })
}

// Audio

// SetAudioEnabled turns the remote audio stream on or off.
func (s *Store) SetAudioEnabled(v bool) {
	s.apply(SliceAudio, FieldAudioEnabled, v, func(st *Settings) { st.Audio.Enabled = v })
}

// SetAudioInputDevice selects the microphone by registry ID. "default"
// follows the system default.
func (s *Store) SetAudioInputDevice(id string) {
	s.apply(SliceAudio, FieldInputDevice, id, func(st *Settings) { st.Audio.InputDevice = id })
}

// SetAudioOutputDevice selects the speaker by registry ID.
func (s *Store) SetAudioOutputDevice(id string) {
	s.apply(SliceAudio, FieldOutputDevice, id, func(st *Settings) { st.Audio.OutputDevice = id })
}

// SetAudioInputVolume sets the microphone gain in percent. It is pushed on
// its own, not as part of the audio slice.
func (s *Store) SetAudioInputVolume(v int) {
	s.apply(SliceAudio, FieldInputVolume, v, func(st *Settings) { st.Audio.InputVolume = v })
}

// SetAudioOutputVolume sets the playback volume in percent.
func (s *Store) SetAudioOutputVolume(v int) {
	s.apply(SliceAudio, FieldOutputVolume, v, func(st *Settings) { st.Audio.OutputVolume = v })
}

// SetEchoCancellation toggles echo cancellation.
func (s *Store) SetEchoCancellation(v bool) {
	s.apply(SliceAudio, FieldEchoCancellation, v, func(st *Settings) { st.Audio.EchoCancellation = v })
}

// SetNoiseSuppression toggles noise suppression.
func (s *Store) SetNoiseSuppression(v bool) {
	s.apply(SliceAudio, FieldNoiseSuppression, v, func(st *Settings) { st.Audio.NoiseSuppression = v })
}

// SetAutoGainControl toggles automatic gain control.
func (s *Store) SetAutoGainControl(v bool) {
	s.apply(SliceAudio, FieldAutoGainControl, v, func(st *Settings) { st.Audio.AutoGainControl = v })
}

// SetAudioSampleRate sets the capture rate in Hz.
func (s *Store) SetAudioSampleRate(hz int) {
	s.apply(SliceAudio, FieldSampleRate, hz, func(st *Settings) { st.Audio.SampleRate = hz })
}

// SetAudioBitrate sets the encoder bitrate in kbps.
func (s *Store) SetAudioBitrate(kbps int) {
	s.apply(SliceAudio, FieldAudioBitrate, kbps, func(st *Settings) { st.Audio.Bitrate = kbps })
}

// SetAudioChannels selects mono or stereo.
func (s *Store) SetAudioChannels(c ChannelLayout) {
	s.apply(SliceAudio, FieldChannels, c, func(st *Settings) { st.Audio.Channels = c })
}

// Video

// SetVideoEnabled turns the remote video stream on or off.
func (s *Store) SetVideoEnabled(v bool) {
	s.apply(SliceVideo, FieldVideoEnabled, v, func(st *Settings) { st.Video.Enabled = v })
}

// SetVideoDevice selects the camera by registry ID.
func (s *Store) SetVideoDevice(id string) {
	s.apply(SliceVideo, FieldVideoDevice, id, func(st *Settings) { st.Video.Device = id })
}

// SetVideoResolution takes a "WIDTHxHEIGHT" string.
func (s *Store) SetVideoResolution(res string) {
	s.apply(SliceVideo, FieldResolution, res, func(st *Settings) { st.Video.Resolution = res })
}

// SetVideoFrameRate sets frames per second.
func (s *Store) SetVideoFrameRate(fps int) {
	s.apply(SliceVideo, FieldFrameRate, fps, func(st *Settings) { st.Video.FrameRate = fps })
}

// SetVideoBitrate sets the encoder bitrate in kbps.
func (s *Store) SetVideoBitrate(kbps int) {
	s.apply(SliceVideo, FieldVideoBitrate, kbps, func(st *Settings) { st.Video.Bitrate = kbps })
}

// SetVideoCodec selects the encoder.
func (s *Store) SetVideoCodec(c VideoCodec) {
	s.apply(SliceVideo, FieldCodec, c, func(st *Settings) { st.Video.Codec = c })
}

// SetVideoQuality only records the preset; bitrate and frame rate are left
// untouched.
func (s *Store) SetVideoQuality(q Quality) {
	s.apply(SliceVideo, FieldQuality, q, func(st *Settings) { st.Video.Quality = q })
}

// Visual

// SetHighContrast toggles the high contrast theme. Like every visual setter
// it also updates the local presentation.
func (s *Store) SetHighContrast(v bool) {
	s.apply(SliceVisual, FieldHighContrast, v, func(st *Settings) { st.Visual.HighContrast = v })
}

// SetColorScheme selects the color scheme, including the color-blind
// filters.
func (s *Store) SetColorScheme(c ColorScheme) {
	s.apply(SliceVisual, FieldColorScheme, c, func(st *Settings) { st.Visual.ColorScheme = c })
}

// SetFontSize sets the base font size in pixels.
func (s *Store) SetFontSize(px int) {
	s.apply(SliceVisual, FieldFontSize, px, func(st *Settings) { st.Visual.FontSize = px })
}

// SetLineSpacing sets the line height multiplier.
func (s *Store) SetLineSpacing(v float64) {
	s.apply(SliceVisual, FieldLineSpacing, v, func(st *Settings) { st.Visual.LineSpacing = v })
}

// SetCursorSize selects the pointer size.
func (s *Store) SetCursorSize(c CursorSize) {
	s.apply(SliceVisual, FieldCursorSize, c, func(st *Settings) { st.Visual.CursorSize = c })
}

// SetMagnificationLevel sets screen zoom in percent. 100 is unmagnified.
func (s *Store) SetMagnificationLevel(percent int) {
	s.apply(SliceVisual, FieldMagnificationLevel, percent, func(st *Settings) { st.Visual.MagnificationLevel = percent })
}

// SetReducedMotion disables animations.
func (s *Store) SetReducedMotion(v bool) {
	s.apply(SliceVisual, FieldReducedMotion, v, func(st *Settings) { st.Visual.ReducedMotion = v })
}

// Audio accessibility

// SetScreenReaderEnabled starts or stops the remote screen reader.
func (s *Store) SetScreenReaderEnabled(v bool) {
	s.apply(SliceAudioA11y, FieldScreenReader, v, func(st *Settings) { st.AudioA11y.ScreenReaderEnabled = v })
}

// SetSpeechRate sets the speech rate multiplier.
func (s *Store) SetSpeechRate(v float64) {
	s.apply(SliceAudioA11y, FieldSpeechRate, v, func(st *Settings) { st.AudioA11y.SpeechRate = v })
}

// SetSpeechPitch sets the speech pitch multiplier.
func (s *Store) SetSpeechPitch(v float64) {
	s.apply(SliceAudioA11y, FieldSpeechPitch, v, func(st *Settings) { st.AudioA11y.SpeechPitch = v })
}

// SetSpeechVolume sets the speech volume in percent.
func (s *Store) SetSpeechVolume(v int) {
	s.apply(SliceAudioA11y, FieldSpeechVolume, v, func(st *Settings) { st.AudioA11y.SpeechVolume = v })
}

// SetVoice selects the speech voice by name. Empty means the synthesizer
// default.
func (s *Store) SetVoice(name string) {
	s.apply(SliceAudioA11y, FieldVoice, name, func(st *Settings) { st.AudioA11y.Voice = name })
}

// SetCaptionsEnabled toggles live captions.
func (s *Store) SetCaptionsEnabled(v bool) {
	s.apply(SliceAudioA11y, FieldCaptions, v, func(st *Settings) { st.AudioA11y.CaptionsEnabled = v })
}

// SetCaptionSize selects the caption text size.
func (s *Store) SetCaptionSize(c CaptionSize) {
	s.apply(SliceAudioA11y, FieldCaptionSize, c, func(st *Settings) { st.AudioA11y.CaptionSize = c })
}

// SetVisualAlerts flashes the screen for audio alerts.
func (s *Store) SetVisualAlerts(v bool) {
	s.apply(SliceAudioA11y, FieldVisualAlerts, v, func(st *Settings) { st.AudioA11y.VisualAlerts = v })
}

// SetMonoAudio mixes playback down to one channel.
func (s *Store) SetMonoAudio(v bool) {
	s.apply(SliceAudioA11y, FieldMonoAudio, v, func(st *Settings) { st.AudioA11y.MonoAudio = v })
}

// SetVoiceInputLevel sets the voice input level of the audio accessibility
// slice. It is separate from the microphone gain.
func (s *Store) SetVoiceInputLevel(v int) {
	s.apply(SliceAudioA11y, FieldVoiceInputLevel, v, func(st *Settings) { st.AudioA11y.InputVolume = v })
}

// Motor

// SetStickyKeys toggles sticky modifier keys.
func (s *Store) SetStickyKeys(v bool) {
	s.apply(SliceMotor, FieldStickyKeys, v, func(st *Settings) { st.Motor.StickyKeys = v })
}

// SetMouseKeys lets the keypad move the pointer.
func (s *Store) SetMouseKeys(v bool) {
	s.apply(SliceMotor, FieldMouseKeys, v, func(st *Settings) { st.Motor.MouseKeys = v })
}

// SetDwellClickEnabled toggles dwell clicking. The push carries the current
// dwell time too.
func (s *Store) SetDwellClickEnabled(v bool) {
	s.apply(SliceMotor, FieldDwellClick, v, func(st *Settings) { st.Motor.DwellClickEnabled = v })
}

// SetDwellTime sets how long the pointer must rest before a dwell click, in
// milliseconds.
func (s *Store) SetDwellTime(ms int) {
	s.apply(SliceMotor, FieldDwellTime, ms, func(st *Settings) { st.Motor.DwellTime = ms })
}

// SetVoiceControl toggles voice commands.
func (s *Store) SetVoiceControl(v bool) {
	s.apply(SliceMotor, FieldVoiceControl, v, func(st *Settings) { st.Motor.VoiceControl = v })
}

// SetKeyRepeatDelay sets the key repeat delay in milliseconds.
func (s *Store) SetKeyRepeatDelay(ms int) {
	s.apply(SliceMotor, FieldKeyRepeatDelay, ms, func(st *Settings) { st.Motor.KeyRepeatDelay = ms })
}

// SetSlowKeys toggles slow keys.
func (s *Store) SetSlowKeys(v bool) {
	s.apply(SliceMotor, FieldSlowKeys, v, func(st *Settings) { st.Motor.SlowKeys = v })
}

// Cognitive

// SetFocusMode toggles focus mode.
func (s *Store) SetFocusMode(v bool) {
	s.apply(SliceCognitive, FieldFocusMode, v, func(st *Settings) { st.Cognitive.FocusMode = v })
}

// SetSimplifiedUI toggles the simplified interface.
func (s *Store) SetSimplifiedUI(v bool) {
	s.apply(SliceCognitive, FieldSimplifiedUI, v, func(st *Settings) { st.Cognitive.SimplifiedUI = v })
}

// SetSessionTimeout sets the idle timeout in minutes.
func (s *Store) SetSessionTimeout(minutes int) {
	s.apply(SliceCognitive, FieldSessionTimeout, minutes, func(st *Settings) { st.Cognitive.SessionTimeout = minutes })
}

// SetGuidedNavigation toggles guided navigation.
func (s *Store) SetGuidedNavigation(v bool) {
	s.apply(SliceCognitive, FieldGuidedNavigation, v, func(st *Settings) { st.Cognitive.GuidedNavigation = v })
}

// SetReadingGuide toggles the reading guide overlay.
func (s *Store) SetReadingGuide(v bool) {
	s.apply(SliceCognitive, FieldReadingGuide, v, func(st *Settings) { st.Cognitive.ReadingGuide = v })
}

// SetAutoSave toggles automatic saving.
func (s *Store) SetAutoSave(v bool) {
	s.apply(SliceCognitive, FieldAutoSave, v, func(st *Settings) { st.Cognitive.AutoSave = v })
}
