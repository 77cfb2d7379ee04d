package mediactl

import (
	"errors"
	"fmt"
	"math"

	"github.com/smartpc/mediactl/internal/settings"
)

// ErrInvalidParams is returned for a settings call with missing or
// out-of-range parameters. The store is not touched.
var ErrInvalidParams = errors.New("invalid params")

// ErrUnknownMethod is returned for a settings call nobody handles.
var ErrUnknownMethod = errors.New("unknown method")

// Settings RPC handlers
// Every setter takes a single "value" parameter. Numeric values must lie in
// the published range of the field and are snapped to its step.

const valueParam = "value"

// validateFloat64Param extracts and validates a float64 parameter from the params map
func validateFloat64Param(params map[string]interface{}, paramName, methodName string, min, max float64) (float64, error) {
	value, ok := params[paramName].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s: %s parameter must be a number, got %T", ErrInvalidParams, methodName, paramName, params[paramName])
	}
	if math.IsNaN(value) || value < min || value > max {
		return 0, fmt.Errorf("%w: %s: %s value %v out of range [%v to %v]", ErrInvalidParams, methodName, paramName, value, min, max)
	}
	return value, nil
}

// validateRangeParam validates a numeric parameter against the published
// range of a field and snaps it to the range's step.
func validateRangeParam(params map[string]interface{}, paramName, methodName string, slice settings.Slice, field settings.Field) (float64, error) {
	r, ok := settings.RangeOf(slice, field)
	if !ok {
		return 0, fmt.Errorf("%s: no published range for %s.%s", methodName, slice, field)
	}
	value, err := validateFloat64Param(params, paramName, methodName, r.Min, r.Max)
	if err != nil {
		return 0, err
	}
	return r.Clamp(value), nil
}

func validateBoolParam(params map[string]interface{}, paramName, methodName string) (bool, error) {
	value, ok := params[paramName].(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s: %s parameter must be a boolean, got %T", ErrInvalidParams, methodName, paramName, params[paramName])
	}
	return value, nil
}

func validateStringParam(params map[string]interface{}, paramName, methodName string) (string, error) {
	value, ok := params[paramName].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s: %s parameter must be a string, got %T", ErrInvalidParams, methodName, paramName, params[paramName])
	}
	return value, nil
}

func validateChoiceParam[T ~string](params map[string]interface{}, paramName, methodName string, choices []T) (T, error) {
	value, err := validateStringParam(params, paramName, methodName)
	if err != nil {
		return "", err
	}
	if err := settings.ValidateChoice(T(value), choices); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidParams, methodName, err)
	}
	return T(value), nil
}

type settingsHandler func(s *settings.Store, params map[string]interface{}) error

func boolSetting(method string, set func(*settings.Store, bool)) settingsHandler {
	return func(s *settings.Store, params map[string]interface{}) error {
		v, err := validateBoolParam(params, valueParam, method)
		if err != nil {
			return err
		}
		set(s, v)
		return nil
	}
}

func stringSetting(method string, set func(*settings.Store, string)) settingsHandler {
	return func(s *settings.Store, params map[string]interface{}) error {
		v, err := validateStringParam(params, valueParam, method)
		if err != nil {
			return err
		}
		set(s, v)
		return nil
	}
}

func intSetting(method string, slice settings.Slice, field settings.Field, set func(*settings.Store, int)) settingsHandler {
	return func(s *settings.Store, params map[string]interface{}) error {
		v, err := validateRangeParam(params, valueParam, method, slice, field)
		if err != nil {
			return err
		}
		set(s, int(math.Round(v)))
		return nil
	}
}

func floatSetting(method string, slice settings.Slice, field settings.Field, set func(*settings.Store, float64)) settingsHandler {
	return func(s *settings.Store, params map[string]interface{}) error {
		v, err := validateRangeParam(params, valueParam, method, slice, field)
		if err != nil {
			return err
		}
		// Step snapping leaves binary noise such as 1.2000000000000002.
		set(s, math.Round(v*100)/100)
		return nil
	}
}

func choiceSetting[T ~string](method string, choices []T, set func(*settings.Store, T)) settingsHandler {
	return func(s *settings.Store, params map[string]interface{}) error {
		v, err := validateChoiceParam(params, valueParam, method, choices)
		if err != nil {
			return err
		}
		set(s, v)
		return nil
	}
}

func setSampleRate(s *settings.Store, params map[string]interface{}) error {
	v, err := validateFloat64Param(params, valueParam, "setAudioSampleRate", 0, math.MaxInt32)
	if err != nil {
		return err
	}
	rate := int(v)
	if err := settings.ValidateSampleRate(rate); err != nil {
		return fmt.Errorf("%w: setAudioSampleRate: %w", ErrInvalidParams, err)
	}
	s.SetAudioSampleRate(rate)
	return nil
}

func setResolution(s *settings.Store, params map[string]interface{}) error {
	v, err := validateStringParam(params, valueParam, "setVideoResolution")
	if err != nil {
		return err
	}
	if err := settings.ValidateResolution(v); err != nil {
		return fmt.Errorf("%w: setVideoResolution: %w", ErrInvalidParams, err)
	}
	s.SetVideoResolution(v)
	return nil
}

var settingsHandlers = map[string]settingsHandler{
	// Audio
	"setAudioEnabled":      boolSetting("setAudioEnabled", (*settings.Store).SetAudioEnabled),
	"setAudioInputDevice":  stringSetting("setAudioInputDevice", (*settings.Store).SetAudioInputDevice),
	"setAudioOutputDevice": stringSetting("setAudioOutputDevice", (*settings.Store).SetAudioOutputDevice),
	"setAudioInputVolume":  intSetting("setAudioInputVolume", settings.SliceAudio, settings.FieldInputVolume, (*settings.Store).SetAudioInputVolume),
	"setAudioOutputVolume": intSetting("setAudioOutputVolume", settings.SliceAudio, settings.FieldOutputVolume, (*settings.Store).SetAudioOutputVolume),
	"setEchoCancellation":  boolSetting("setEchoCancellation", (*settings.Store).SetEchoCancellation),
	"setNoiseSuppression":  boolSetting("setNoiseSuppression", (*settings.Store).SetNoiseSuppression),
	"setAutoGainControl":   boolSetting("setAutoGainControl", (*settings.Store).SetAutoGainControl),
	"setAudioSampleRate":   setSampleRate,
	"setAudioBitrate":      intSetting("setAudioBitrate", settings.SliceAudio, settings.FieldAudioBitrate, (*settings.Store).SetAudioBitrate),
	"setAudioChannels":     choiceSetting("setAudioChannels", settings.Layouts, (*settings.Store).SetAudioChannels),

	// Video
	"setVideoEnabled":    boolSetting("setVideoEnabled", (*settings.Store).SetVideoEnabled),
	"setVideoDevice":     stringSetting("setVideoDevice", (*settings.Store).SetVideoDevice),
	"setVideoResolution": setResolution,
	"setVideoFrameRate":  intSetting("setVideoFrameRate", settings.SliceVideo, settings.FieldFrameRate, (*settings.Store).SetVideoFrameRate),
	"setVideoBitrate":    intSetting("setVideoBitrate", settings.SliceVideo, settings.FieldVideoBitrate, (*settings.Store).SetVideoBitrate),
	"setVideoCodec":      choiceSetting("setVideoCodec", settings.Codecs, (*settings.Store).SetVideoCodec),
	"setVideoQuality":    choiceSetting("setVideoQuality", settings.Qualities, (*settings.Store).SetVideoQuality),

	// Visual
	"setHighContrast":       boolSetting("setHighContrast", (*settings.Store).SetHighContrast),
	"setColorScheme":        choiceSetting("setColorScheme", settings.ColorSchemes, (*settings.Store).SetColorScheme),
	"setFontSize":           intSetting("setFontSize", settings.SliceVisual, settings.FieldFontSize, (*settings.Store).SetFontSize),
	"setLineSpacing":        floatSetting("setLineSpacing", settings.SliceVisual, settings.FieldLineSpacing, (*settings.Store).SetLineSpacing),
	"setCursorSize":         choiceSetting("setCursorSize", settings.CursorSizes, (*settings.Store).SetCursorSize),
	"setMagnificationLevel": intSetting("setMagnificationLevel", settings.SliceVisual, settings.FieldMagnificationLevel, (*settings.Store).SetMagnificationLevel),
	"setReducedMotion":      boolSetting("setReducedMotion", (*settings.Store).SetReducedMotion),

	// Audio accessibility
	"setScreenReaderEnabled": boolSetting("setScreenReaderEnabled", (*settings.Store).SetScreenReaderEnabled),
	"setSpeechRate":          floatSetting("setSpeechRate", settings.SliceAudioA11y, settings.FieldSpeechRate, (*settings.Store).SetSpeechRate),
	"setSpeechPitch":         floatSetting("setSpeechPitch", settings.SliceAudioA11y, settings.FieldSpeechPitch, (*settings.Store).SetSpeechPitch),
	"setSpeechVolume":        intSetting("setSpeechVolume", settings.SliceAudioA11y, settings.FieldSpeechVolume, (*settings.Store).SetSpeechVolume),
	"setVoice":               stringSetting("setVoice", (*settings.Store).SetVoice),
	"setCaptionsEnabled":     boolSetting("setCaptionsEnabled", (*settings.Store).SetCaptionsEnabled),
	"setCaptionSize":         choiceSetting("setCaptionSize", settings.CaptionSizes, (*settings.Store).SetCaptionSize),
	"setVisualAlerts":        boolSetting("setVisualAlerts", (*settings.Store).SetVisualAlerts),
	"setMonoAudio":           boolSetting("setMonoAudio", (*settings.Store).SetMonoAudio),
	"setVoiceInputLevel":     intSetting("setVoiceInputLevel", settings.SliceAudioA11y, settings.FieldVoiceInputLevel, (*settings.Store).SetVoiceInputLevel),

	// Motor
	"setStickyKeys":        boolSetting("setStickyKeys", (*settings.Store).SetStickyKeys),
	"setMouseKeys":         boolSetting("setMouseKeys", (*settings.Store).SetMouseKeys),
	"setDwellClickEnabled": boolSetting("setDwellClickEnabled", (*settings.Store).SetDwellClickEnabled),
	"setDwellTime":         intSetting("setDwellTime", settings.SliceMotor, settings.FieldDwellTime, (*settings.Store).SetDwellTime),
	"setVoiceControl":      boolSetting("setVoiceControl", (*settings.Store).SetVoiceControl),
	"setKeyRepeatDelay":    intSetting("setKeyRepeatDelay", settings.SliceMotor, settings.FieldKeyRepeatDelay, (*settings.Store).SetKeyRepeatDelay),
	"setSlowKeys":          boolSetting("setSlowKeys", (*settings.Store).SetSlowKeys),

	// Cognitive
	"setFocusMode":        boolSetting("setFocusMode", (*settings.Store).SetFocusMode),
	"setSimplifiedUI":     boolSetting("setSimplifiedUI", (*settings.Store).SetSimplifiedUI),
	"setSessionTimeout":   intSetting("setSessionTimeout", settings.SliceCognitive, settings.FieldSessionTimeout, (*settings.Store).SetSessionTimeout),
	"setGuidedNavigation": boolSetting("setGuidedNavigation", (*settings.Store).SetGuidedNavigation),
	"setReadingGuide":     boolSetting("setReadingGuide", (*settings.Store).SetReadingGuide),
	"setAutoSave":         boolSetting("setAutoSave", (*settings.Store).SetAutoSave),
}

// handleSettingsRPC validates params and applies a single setting.
func handleSettingsRPC(store *settings.Store, method string, params map[string]interface{}) error {
	handler, ok := settingsHandlers[method]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return handler(store, params)
}

// validateAudioSettings checks a whole audio slice before ReplaceAudio.
func validateAudioSettings(a settings.AudioSettings) error {
	if err := checkRange(settings.SliceAudio, settings.FieldInputVolume, float64(a.InputVolume)); err != nil {
		return err
	}
	if err := checkRange(settings.SliceAudio, settings.FieldOutputVolume, float64(a.OutputVolume)); err != nil {
		return err
	}
	if err := checkRange(settings.SliceAudio, settings.FieldAudioBitrate, float64(a.Bitrate)); err != nil {
		return err
	}
	if err := settings.ValidateSampleRate(a.SampleRate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if err := settings.ValidateChoice(a.Channels, settings.Layouts); err != nil {
		return fmt.Errorf("%w: channels: %w", ErrInvalidParams, err)
	}
	return nil
}

// validateVideoSettings checks a whole video slice before ReplaceVideo.
func validateVideoSettings(v settings.VideoSettings) error {
	if err := checkRange(settings.SliceVideo, settings.FieldFrameRate, float64(v.FrameRate)); err != nil {
		return err
	}
	if err := checkRange(settings.SliceVideo, settings.FieldVideoBitrate, float64(v.Bitrate)); err != nil {
		return err
	}
	if err := settings.ValidateResolution(v.Resolution); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if err := settings.ValidateChoice(v.Codec, settings.Codecs); err != nil {
		return fmt.Errorf("%w: codec: %w", ErrInvalidParams, err)
	}
	if err := settings.ValidateChoice(v.Quality, settings.Qualities); err != nil {
		return fmt.Errorf("%w: quality: %w", ErrInvalidParams, err)
	}
	return nil
}

func checkRange(slice settings.Slice, field settings.Field, v float64) error {
	r, ok := settings.RangeOf(slice, field)
	if ok && !r.Contains(v) {
		return fmt.Errorf("%w: %s.%s value %v out of range [%v to %v]", ErrInvalidParams, slice, field, v, r.Min, r.Max)
	}
	return nil
}
