package settings

// Field is the key of a single setting inside a slice. Keys match the JSON
// names of the slice structs.
type Field string

// Audio fields
const (
	FieldAudioEnabled     Field = "enabled"
	FieldInputDevice      Field = "inputDevice"
	FieldOutputDevice     Field = "outputDevice"
	FieldInputVolume      Field = "inputVolume"
	FieldOutputVolume     Field = "outputVolume"
	FieldEchoCancellation Field = "echoCancellation"
	FieldNoiseSuppression Field = "noiseSuppression"
	FieldAutoGainControl  Field = "autoGainControl"
	FieldSampleRate       Field = "sampleRate"
	FieldAudioBitrate     Field = "bitrate"
	FieldChannels         Field = "channels"
)

// Video fields
const (
	FieldVideoEnabled Field = "enabled"
	FieldVideoDevice  Field = "device"
	FieldResolution   Field = "resolution"
	FieldFrameRate    Field = "frameRate"
	FieldVideoBitrate Field = "bitrate"
	FieldCodec        Field = "codec"
	FieldQuality      Field = "quality"
)

// Visual fields
const (
	FieldHighContrast       Field = "highContrast"
	FieldColorScheme        Field = "colorScheme"
	FieldFontSize           Field = "fontSize"
	FieldLineSpacing        Field = "lineSpacing"
	FieldCursorSize         Field = "cursorSize"
	FieldMagnificationLevel Field = "magnificationLevel"
	FieldReducedMotion      Field = "reducedMotion"
)

// Audio accessibility fields
const (
	FieldScreenReader    Field = "screenReaderEnabled"
	FieldSpeechRate      Field = "speechRate"
	FieldSpeechPitch     Field = "speechPitch"
	FieldSpeechVolume    Field = "speechVolume"
	FieldVoice           Field = "voice"
	FieldCaptions        Field = "captionsEnabled"
	FieldCaptionSize     Field = "captionSize"
	FieldVisualAlerts    Field = "visualAlerts"
	FieldMonoAudio       Field = "monoAudio"
	FieldVoiceInputLevel Field = "inputVolume"
)

// Motor fields
const (
	FieldStickyKeys     Field = "stickyKeys"
	FieldMouseKeys      Field = "mouseKeys"
	FieldDwellClick     Field = "dwellClickEnabled"
	FieldDwellTime      Field = "dwellTime"
	FieldVoiceControl   Field = "voiceControl"
	FieldKeyRepeatDelay Field = "keyRepeatDelay"
	FieldSlowKeys       Field = "slowKeys"
)

// Cognitive fields
const (
	FieldFocusMode        Field = "focusMode"
	FieldSimplifiedUI     Field = "simplifiedUI"
	FieldSessionTimeout   Field = "sessionTimeout"
	FieldGuidedNavigation Field = "guidedNavigation"
	FieldReadingGuide     Field = "readingGuide"
	FieldAutoSave         Field = "autoSave"
)

type fieldSpec struct {
	slice Slice
	field Field
	get   func(Settings) any
}

// accessibilityFields lists every accessibility field in push order.
var accessibilityFields = []fieldSpec{
	{SliceVisual, FieldHighContrast, func(s Settings) any { return s.Visual.HighContrast }},
	{SliceVisual, FieldColorScheme, func(s Settings) any { return s.Visual.ColorScheme }},
	{SliceVisual, FieldFontSize, func(s Settings) any { return s.Visual.FontSize }},
	{SliceVisual, FieldLineSpacing, func(s Settings) any { return s.Visual.LineSpacing }},
	{SliceVisual, FieldCursorSize, func(s Settings) any { return s.Visual.CursorSize }},
	{SliceVisual, FieldMagnificationLevel, func(s Settings) any { return s.Visual.MagnificationLevel }},
	{SliceVisual, FieldReducedMotion, func(s Settings) any { return s.Visual.ReducedMotion }},

	{SliceAudioA11y, FieldScreenReader, func(s Settings) any { return s.AudioA11y.ScreenReaderEnabled }},
	{SliceAudioA11y, FieldSpeechRate, func(s Settings) any { return s.AudioA11y.SpeechRate }},
	{SliceAudioA11y, FieldSpeechPitch, func(s Settings) any { return s.AudioA11y.SpeechPitch }},
	{SliceAudioA11y, FieldSpeechVolume, func(s Settings) any { return s.AudioA11y.SpeechVolume }},
	{SliceAudioA11y, FieldVoice, func(s Settings) any { return s.AudioA11y.Voice }},
	{SliceAudioA11y, FieldCaptions, func(s Settings) any { return s.AudioA11y.CaptionsEnabled }},
	{SliceAudioA11y, FieldCaptionSize, func(s Settings) any { return s.AudioA11y.CaptionSize }},
	{SliceAudioA11y, FieldVisualAlerts, func(s Settings) any { return s.AudioA11y.VisualAlerts }},
	{SliceAudioA11y, FieldMonoAudio, func(s Settings) any { return s.AudioA11y.MonoAudio }},
	{SliceAudioA11y, FieldVoiceInputLevel, func(s Settings) any { return s.AudioA11y.InputVolume }},

	{SliceMotor, FieldStickyKeys, func(s Settings) any { return s.Motor.StickyKeys }},
	{SliceMotor, FieldMouseKeys, func(s Settings) any { return s.Motor.MouseKeys }},
	{SliceMotor, FieldDwellClick, func(s Settings) any { return s.Motor.DwellClickEnabled }},
	{SliceMotor, FieldDwellTime, func(s Settings) any { return s.Motor.DwellTime }},
	{SliceMotor, FieldVoiceControl, func(s Settings) any { return s.Motor.VoiceControl }},
	{SliceMotor, FieldKeyRepeatDelay, func(s Settings) any { return s.Motor.KeyRepeatDelay }},
	{SliceMotor, FieldSlowKeys, func(s Settings) any { return s.Motor.SlowKeys }},

	{SliceCognitive, FieldFocusMode, func(s Settings) any { return s.Cognitive.FocusMode }},
	{SliceCognitive, FieldSimplifiedUI, func(s Settings) any { return s.Cognitive.SimplifiedUI }},
	{SliceCognitive, FieldSessionTimeout, func(s Settings) any { return s.Cognitive.SessionTimeout }},
	{SliceCognitive, FieldGuidedNavigation, func(s Settings) any { return s.Cognitive.GuidedNavigation }},
	{SliceCognitive, FieldReadingGuide, func(s Settings) any { return s.Cognitive.ReadingGuide }},
	{SliceCognitive, FieldAutoSave, func(s Settings) any { return s.Cognitive.AutoSave }},
}
