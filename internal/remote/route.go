package remote

import (
	"context"

	"github.com/smartpc/mediactl/internal/settings"
)

// route picks the adapter operation for a settings change. Fields that only
// affect the local control UI return a nil call.
func route(c settings.Change) (string, call) {
	s := c.Settings
	switch c.Slice {
	case settings.SliceAudio:
		return routeAudio(c.Field, s)
	case settings.SliceVideo:
		return routeVideo(c.Field, s)
	case settings.SliceVisual:
		return routeVisual(c.Field, s)
	case settings.SliceAudioA11y:
		return routeAudioA11y(c.Field, s)
	case settings.SliceMotor:
		return routeMotor(c.Field, s)
	case settings.SliceCognitive:
		return routeCognitive(c.Field, s)
	}
	return string(c.Slice) + "." + string(c.Field), nil
}

func routeAudio(f settings.Field, s settings.Settings) (string, call) {
	a := s.Audio
	switch f {
	case settings.FieldAudioEnabled:
		return "setAudioEnabled", func(ctx context.Context, ad Adapter) error { return ad.SetAudioEnabled(ctx, a.Enabled) }
	case settings.FieldInputDevice:
		return "setAudioInputDevice", func(ctx context.Context, ad Adapter) error { return ad.SetAudioInputDevice(ctx, a.InputDevice) }
	case settings.FieldOutputDevice:
		return "setAudioOutputDevice", func(ctx context.Context, ad Adapter) error { return ad.SetAudioOutputDevice(ctx, a.OutputDevice) }
	case settings.FieldInputVolume:
		return "setAudioInputVolume", func(ctx context.Context, ad Adapter) error { return ad.SetAudioInputVolume(ctx, a.InputVolume) }
	case settings.FieldOutputVolume:
		return "setAudioOutputVolume", func(ctx context.Context, ad Adapter) error { return ad.SetAudioOutputVolume(ctx, a.OutputVolume) }
	default:
		// DSP toggles, sample rate, bitrate, channels and bulk updates travel
		// as a whole slice.
		return "setAudioSettings", func(ctx context.Context, ad Adapter) error { return ad.SetAudioSettings(ctx, a) }
	}
}

func routeVideo(f settings.Field, s settings.Settings) (string, call) {
	v := s.Video
	switch f {
	case settings.FieldVideoEnabled:
		return "setVideoEnabled", func(ctx context.Context, ad Adapter) error { return ad.SetVideoEnabled(ctx, v.Enabled) }
	case settings.FieldVideoDevice:
		return "setVideoDevice", func(ctx context.Context, ad Adapter) error { return ad.SetVideoDevice(ctx, v.Device) }
	default:
		return "setVideoSettings", func(ctx context.Context, ad Adapter) error { return ad.SetVideoSettings(ctx, v) }
	}
}

func routeVisual(f settings.Field, s settings.Settings) (string, call) {
	v := s.Visual
	switch f {
	case settings.FieldHighContrast:
		return "setHighContrast", func(ctx context.Context, ad Adapter) error { return ad.SetHighContrast(ctx, v.HighContrast) }
	case settings.FieldMagnificationLevel:
		return "setMagnification", func(ctx context.Context, ad Adapter) error { return ad.SetMagnification(ctx, v.MagnificationLevel) }
	case settings.FieldCursorSize:
		return "setCursorSize", func(ctx context.Context, ad Adapter) error { return ad.SetCursorSize(ctx, v.CursorSize) }
	}
	return "visual." + string(f), nil
}

func routeAudioA11y(f settings.Field, s settings.Settings) (string, call) {
	a := s.AudioA11y
	switch f {
	case settings.FieldScreenReader:
		if a.ScreenReaderEnabled {
			return "enableScreenReader", func(ctx context.Context, ad Adapter) error { return ad.EnableScreenReader(ctx) }
		}
		return "disableScreenReader", func(ctx context.Context, ad Adapter) error { return ad.DisableScreenReader(ctx) }
	case settings.FieldSpeechRate, settings.FieldSpeechPitch, settings.FieldSpeechVolume, settings.FieldVoice:
		p := SpeechParams{Rate: a.SpeechRate, Pitch: a.SpeechPitch, Volume: a.SpeechVolume, Voice: a.Voice}
		return "setSpeechSettings", func(ctx context.Context, ad Adapter) error { return ad.SetSpeechSettings(ctx, p) }
	case settings.FieldCaptions, settings.FieldCaptionSize:
		return "setCaptions", func(ctx context.Context, ad Adapter) error { return ad.SetCaptions(ctx, a.CaptionsEnabled, a.CaptionSize) }
	}
	return "audioAccessibility." + string(f), nil
}

func routeMotor(f settings.Field, s settings.Settings) (string, call) {
	m := s.Motor
	switch f {
	case settings.FieldStickyKeys:
		return "setStickyKeys", func(ctx context.Context, ad Adapter) error { return ad.SetStickyKeys(ctx, m.StickyKeys) }
	case settings.FieldMouseKeys:
		return "setMouseKeys", func(ctx context.Context, ad Adapter) error { return ad.SetMouseKeys(ctx, m.MouseKeys) }
	case settings.FieldDwellClick, settings.FieldDwellTime:
		return "setDwellClick", func(ctx context.Context, ad Adapter) error { return ad.SetDwellClick(ctx, m.DwellClickEnabled, m.DwellTime) }
	case settings.FieldVoiceControl:
		return "setVoiceControl", func(ctx context.Context, ad Adapter) error { return ad.SetVoiceControl(ctx, m.VoiceControl) }
	}
	return "motor." + string(f), nil
}

func routeCognitive(f settings.Field, s settings.Settings) (string, call) {
	c := s.Cognitive
	switch f {
	case settings.FieldFocusMode:
		return "setFocusMode", func(ctx context.Context, ad Adapter) error { return ad.SetFocusMode(ctx, c.FocusMode) }
	case settings.FieldSessionTimeout:
		return "setSessionTimeout", func(ctx context.Context, ad Adapter) error { return ad.SetSessionTimeout(ctx, c.SessionTimeout) }
	case settings.FieldGuidedNavigation:
		return "setGuidedNavigation", func(ctx context.Context, ad Adapter) error { return ad.SetGuidedNavigation(ctx, c.GuidedNavigation) }
	}
	return "cognitive." + string(f), nil
}
