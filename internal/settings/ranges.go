package settings

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Validation errors
var (
	ErrOutOfRange        = errors.New("value out of range")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrInvalidResolution = errors.New("invalid resolution")
	ErrInvalidChoice     = errors.New("invalid choice")
)

// Range is the published bound of a numeric setting. Step is zero for
// continuous values.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step,omitempty"`
}

// Clamp bounds v to the range and snaps it to the step grid anchored at Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return r.Min
	}
	if r.Step > 0 {
		v = r.Min + math.Round((v-r.Min)/r.Step)*r.Step
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

type rangeKey struct {
	slice Slice
	field Field
}

var ranges = map[rangeKey]Range{
	{SliceAudio, FieldInputVolume}:         {Min: 0, Max: 100, Step: 1},
	{SliceAudio, FieldOutputVolume}:        {Min: 0, Max: 100, Step: 1},
	{SliceAudio, FieldAudioBitrate}:        {Min: 16, Max: 320, Step: 16},
	{SliceVideo, FieldFrameRate}:           {Min: 15, Max: 60, Step: 5},
	{SliceVideo, FieldVideoBitrate}:        {Min: 500, Max: 20000, Step: 500},
	{SliceVisual, FieldFontSize}:           {Min: 10, Max: 24, Step: 1},
	{SliceVisual, FieldLineSpacing}:        {Min: 1.0, Max: 3.0, Step: 0.1},
	{SliceVisual, FieldMagnificationLevel}: {Min: 100, Max: 400, Step: 25},
	{SliceAudioA11y, FieldSpeechRate}:      {Min: 0.5, Max: 2.0, Step: 0.1},
	{SliceAudioA11y, FieldSpeechPitch}:     {Min: 0.5, Max: 2.0, Step: 0.1},
	{SliceAudioA11y, FieldSpeechVolume}:    {Min: 0, Max: 100, Step: 1},
	{SliceAudioA11y, FieldVoiceInputLevel}: {Min: 0, Max: 100, Step: 1},
	{SliceMotor, FieldDwellTime}:           {Min: 500, Max: 5000, Step: 100},
	{SliceMotor, FieldKeyRepeatDelay}:      {Min: 100, Max: 2000, Step: 50},
	{SliceCognitive, FieldSessionTimeout}:  {Min: 5, Max: 120, Step: 5},
}

// RangeOf returns the published range of a numeric field.
func RangeOf(slice Slice, field Field) (Range, bool) {
	r, ok := ranges[rangeKey{slice, field}]
	return r, ok
}

// Enumerated choices
var (
	SampleRates  = []int{8000, 16000, 22050, 44100, 48000}
	Resolutions  = []string{"640x480", "1280x720", "1920x1080", "2560x1440", "3840x2160"}
	Codecs       = []VideoCodec{CodecH264, CodecVP8, CodecVP9, CodecAV1}
	Qualities    = []Quality{QualityLow, QualityMedium, QualityHigh, QualityUltra}
	ColorSchemes = []ColorScheme{ColorSchemeDefault, ColorSchemeDark, ColorSchemeLight, ColorSchemeHighContrastDark, ColorSchemeHighContrastLight}
	CursorSizes  = []CursorSize{CursorSmall, CursorMedium, CursorLarge, CursorExtraLarge}
	CaptionSizes = []CaptionSize{CaptionSmall, CaptionMedium, CaptionLarge}
	Layouts      = []ChannelLayout{ChannelsMono, ChannelsStereo}
)

// ValidateSampleRate checks that rate is one of SampleRates.
func ValidateSampleRate(rate int) error {
	if !slices.Contains(SampleRates, rate) {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, rate)
	}
	return nil
}

// ValidateResolution checks that res is one of Resolutions.
func ValidateResolution(res string) error {
	if !slices.Contains(Resolutions, res) {
		return fmt.Errorf("%w: %q", ErrInvalidResolution, res)
	}
	return nil
}

// ValidateChoice checks that v is one of choices.
func ValidateChoice[T ~string](v T, choices []T) error {
	if !slices.Contains(choices, v) {
		return fmt.Errorf("%w: %q", ErrInvalidChoice, string(v))
	}
	return nil
}

// ParseResolution splits a WxH resolution string.
func ParseResolution(res string) (width, height int, err error) {
	w, h, ok := strings.Cut(res, "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidResolution, res)
	}
	if width, err = strconv.Atoi(w); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidResolution, res)
	}
	if height, err = strconv.Atoi(h); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidResolution, res)
	}
	return width, height, nil
}

// ChannelCount returns the number of channels of a layout.
func (c ChannelLayout) ChannelCount() int {
	if c == ChannelsMono {
		return 1
	}
	return 2
}

// QualityPreset is the suggested bitrate and frame rate of a quality level.
// Presets are advisory; the store never applies them to explicit values.
type QualityPreset struct {
	Resolution string `json:"resolution"`
	FrameRate  int    `json:"frameRate"`
	Bitrate    int    `json:"bitrate"`
}

var qualityPresets = map[Quality]QualityPreset{
	QualityLow:    {Resolution: "640x480", FrameRate: 15, Bitrate: 1000},
	QualityMedium: {Resolution: "1280x720", FrameRate: 30, Bitrate: 2500},
	QualityHigh:   {Resolution: "1920x1080", FrameRate: 30, Bitrate: 5000},
	QualityUltra:  {Resolution: "3840x2160", FrameRate: 60, Bitrate: 15000},
}

// GetQualityPresets returns the suggested values per quality level.
func GetQualityPresets() map[Quality]QualityPreset {
	result := make(map[Quality]QualityPreset, len(qualityPresets))
	for q, p := range qualityPresets {
		result[q] = p
	}
	return result
}
