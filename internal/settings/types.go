package settings

// DefaultDeviceID lets the operating system choose the device.
const DefaultDeviceID = "default"

// Slice names one independently mutable group of settings.
type Slice string

const (
	SliceAudio     Slice = "audio"
	SliceVideo     Slice = "video"
	SliceVisual    Slice = "visual"
	SliceAudioA11y Slice = "audioAccessibility"
	SliceMotor     Slice = "motor"
	SliceCognitive Slice = "cognitive"
)

// IsAccessibility reports whether the slice belongs to an accessibility profile.
func (s Slice) IsAccessibility() bool {
	switch s {
	case SliceVisual, SliceAudioA11y, SliceMotor, SliceCognitive:
		return true
	default:
		return false
	}
}

// ChannelLayout is the audio channel configuration.
type ChannelLayout string

const (
	ChannelsMono   ChannelLayout = "mono"
	ChannelsStereo ChannelLayout = "stereo"
)

// VideoCodec is a negotiable video codec.
type VideoCodec string

const (
	CodecH264 VideoCodec = "h264"
	CodecVP8  VideoCodec = "vp8"
	CodecVP9  VideoCodec = "vp9"
	CodecAV1  VideoCodec = "av1"
)

// Quality is an advisory video quality preset.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
	QualityUltra  Quality = "ultra"
)

// ColorScheme selects the control UI palette.
type ColorScheme string

const (
	ColorSchemeDefault           ColorScheme = "default"
	ColorSchemeDark              ColorScheme = "dark"
	ColorSchemeLight             ColorScheme = "light"
	ColorSchemeHighContrastDark  ColorScheme = "high-contrast-dark"
	ColorSchemeHighContrastLight ColorScheme = "high-contrast-light"
)

// CursorSize is the pointer size on the remote desktop and the control UI.
type CursorSize string

const (
	CursorSmall      CursorSize = "small"
	CursorMedium     CursorSize = "medium"
	CursorLarge      CursorSize = "large"
	CursorExtraLarge CursorSize = "extra-large"
)

// CaptionSize is the caption text size.
type CaptionSize string

const (
	CaptionSmall  CaptionSize = "small"
	CaptionMedium CaptionSize = "medium"
	CaptionLarge  CaptionSize = "large"
)

// AudioSettings configures session audio.
type AudioSettings struct {
	Enabled          bool          `json:"enabled"`
	InputDevice      string        `json:"inputDevice"`
	OutputDevice     string        `json:"outputDevice"`
	InputVolume      int           `json:"inputVolume"`  // 0-100
	OutputVolume     int           `json:"outputVolume"` // 0-100
	EchoCancellation bool          `json:"echoCancellation"`
	NoiseSuppression bool          `json:"noiseSuppression"`
	AutoGainControl  bool          `json:"autoGainControl"`
	SampleRate       int           `json:"sampleRate"` // Hz
	Bitrate          int           `json:"bitrate"`    // kbps
	Channels         ChannelLayout `json:"channels"`
}

// VideoSettings configures session video. Quality is advisory and never
// clamps Bitrate or FrameRate.
type VideoSettings struct {
	Enabled    bool       `json:"enabled"`
	Device     string     `json:"device"`
	Resolution string     `json:"resolution"` // WxH
	FrameRate  int        `json:"frameRate"`
	Bitrate    int        `json:"bitrate"` // kbps
	Codec      VideoCodec `json:"codec"`
	Quality    Quality    `json:"quality"`
}

// VisualSettings are the visual accessibility options.
type VisualSettings struct {
	HighContrast       bool        `json:"highContrast"`
	ColorScheme        ColorScheme `json:"colorScheme"`
	FontSize           int         `json:"fontSize"` // px
	LineSpacing        float64     `json:"lineSpacing"`
	CursorSize         CursorSize  `json:"cursorSize"`
	MagnificationLevel int         `json:"magnificationLevel"` // percent
	ReducedMotion      bool        `json:"reducedMotion"`
}

// AudioAccessibilitySettings are the audio accessibility options.
type AudioAccessibilitySettings struct {
	ScreenReaderEnabled bool        `json:"screenReaderEnabled"`
	SpeechRate          float64     `json:"speechRate"`
	SpeechPitch         float64     `json:"speechPitch"`
	SpeechVolume        int         `json:"speechVolume"` // 0-100
	Voice               string      `json:"voice"`
	CaptionsEnabled     bool        `json:"captionsEnabled"`
	CaptionSize         CaptionSize `json:"captionSize"`
	VisualAlerts        bool        `json:"visualAlerts"`
	MonoAudio           bool        `json:"monoAudio"`
	// InputVolume is the microphone gain used by voice control and dictation.
	InputVolume int `json:"inputVolume"`
}

// MotorSettings are the motor accessibility options.
type MotorSettings struct {
	StickyKeys        bool `json:"stickyKeys"`
	MouseKeys         bool `json:"mouseKeys"`
	DwellClickEnabled bool `json:"dwellClickEnabled"`
	DwellTime         int  `json:"dwellTime"` // ms
	VoiceControl      bool `json:"voiceControl"`
	KeyRepeatDelay    int  `json:"keyRepeatDelay"` // ms
	SlowKeys          bool `json:"slowKeys"`
}

// CognitiveSettings are the cognitive accessibility options.
type CognitiveSettings struct {
	FocusMode        bool `json:"focusMode"`
	SimplifiedUI     bool `json:"simplifiedUI"`
	SessionTimeout   int  `json:"sessionTimeout"` // minutes
	GuidedNavigation bool `json:"guidedNavigation"`
	ReadingGuide     bool `json:"readingGuide"`
	AutoSave         bool `json:"autoSave"`
}

// Accessibility bundles the four accessibility slices.
type Accessibility struct {
	Visual    VisualSettings             `json:"visual"`
	Audio     AudioAccessibilitySettings `json:"audio"`
	Motor     MotorSettings              `json:"motor"`
	Cognitive CognitiveSettings          `json:"cognitive"`
}

// Settings is the complete desired configuration.
type Settings struct {
	Audio     AudioSettings              `json:"audio"`
	Video     VideoSettings              `json:"video"`
	Visual    VisualSettings             `json:"visual"`
	AudioA11y AudioAccessibilitySettings `json:"audioAccessibility"`
	Motor     MotorSettings              `json:"motor"`
	Cognitive CognitiveSettings          `json:"cognitive"`
}

// Accessibility returns the accessibility slices of s.
func (s Settings) Accessibility() Accessibility {
	return Accessibility{
		Visual:    s.Visual,
		Audio:     s.AudioA11y,
		Motor:     s.Motor,
		Cognitive: s.Cognitive,
	}
}

// DefaultAudioSettings returns the initial audio configuration.
func DefaultAudioSettings() AudioSettings {
	return AudioSettings{
		Enabled:          true,
		InputDevice:      DefaultDeviceID,
		OutputDevice:     DefaultDeviceID,
		InputVolume:      75,
		OutputVolume:     80,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
		SampleRate:       48000,
		Bitrate:          128,
		Channels:         ChannelsStereo,
	}
}

// DefaultVideoSettings returns the initial video configuration.
func DefaultVideoSettings() VideoSettings {
	return VideoSettings{
		Enabled:    true,
		Device:     DefaultDeviceID,
		Resolution: "1920x1080",
		FrameRate:  30,
		Bitrate:    5000,
		Codec:      CodecH264,
		Quality:    QualityHigh,
	}
}

// DefaultAccessibility returns the accessibility values of the built-in
// default profile.
func DefaultAccessibility() Accessibility {
	return Accessibility{
		Visual: VisualSettings{
			ColorScheme:        ColorSchemeDefault,
			FontSize:           14,
			LineSpacing:        1.5,
			CursorSize:         CursorMedium,
			MagnificationLevel: 100,
		},
		Audio: AudioAccessibilitySettings{
			SpeechRate:   1.0,
			SpeechPitch:  1.0,
			SpeechVolume: 80,
			CaptionSize:  CaptionMedium,
			InputVolume:  75,
		},
		Motor: MotorSettings{
			DwellTime:      1000,
			KeyRepeatDelay: 500,
		},
		Cognitive: CognitiveSettings{
			SessionTimeout: 30,
			AutoSave:       true,
		},
	}
}

// DefaultSettings returns the initial configuration of a new store.
func DefaultSettings() Settings {
	a := DefaultAccessibility()
	return Settings{
		Audio:     DefaultAudioSettings(),
		Video:     DefaultVideoSettings(),
		Visual:    a.Visual,
		AudioA11y: a.Audio,
		Motor:     a.Motor,
		Cognitive: a.Cognitive,
	}
}
