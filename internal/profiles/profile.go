// Package profiles manages named bundles of the accessibility settings.
// Exactly one profile is active at a time; built-in profiles cannot be
// deleted.
package profiles

import (
	"errors"
	"time"

	"github.com/smartpc/mediactl/internal/settings"
)

// Built-in profile IDs.
const (
	DefaultID          = "default"
	VisualImpairedID   = "visual-impaired"
	MotorImpairedID    = "motor-impaired"
	CognitiveSupportID = "cognitive-support"
)

var (
	// ErrValidation is returned for bad user input such as an empty name.
	ErrValidation = errors.New("invalid profile")
	// ErrProfileNotFound is returned for an unknown profile ID.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrBuiltinProfile is returned when deleting a built-in profile.
	ErrBuiltinProfile = errors.New("built-in profiles cannot be deleted")
)

// Profile is a named accessibility bundle. The embedded slices are what
// activation applies.
type Profile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	settings.Accessibility
	IsActive  bool      `json:"isActive"`
	IsCustom  bool      `json:"isCustom"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func builtinProfiles() []Profile {
	visual := settings.DefaultAccessibility()
	visual.Visual.HighContrast = true
	visual.Visual.ColorScheme = settings.ColorSchemeHighContrastDark
	visual.Visual.FontSize = 18
	visual.Visual.LineSpacing = 1.8
	visual.Visual.CursorSize = settings.CursorLarge
	visual.Visual.MagnificationLevel = 150
	visual.Visual.ReducedMotion = true
	visual.Audio.ScreenReaderEnabled = true
	visual.Audio.SpeechRate = 1.2

	motor := settings.DefaultAccessibility()
	motor.Visual.CursorSize = settings.CursorLarge
	motor.Motor.StickyKeys = true
	motor.Motor.MouseKeys = true
	motor.Motor.DwellClickEnabled = true
	motor.Motor.DwellTime = 1500
	motor.Motor.VoiceControl = true
	motor.Motor.KeyRepeatDelay = 1000
	motor.Motor.SlowKeys = true
	motor.Cognitive.SessionTimeout = 60

	cognitive := settings.DefaultAccessibility()
	cognitive.Visual.FontSize = 16
	cognitive.Visual.LineSpacing = 1.8
	cognitive.Visual.ReducedMotion = true
	cognitive.Audio.CaptionsEnabled = true
	cognitive.Cognitive.FocusMode = true
	cognitive.Cognitive.SimplifiedUI = true
	cognitive.Cognitive.SessionTimeout = 60
	cognitive.Cognitive.GuidedNavigation = true
	cognitive.Cognitive.ReadingGuide = true
	cognitive.Cognitive.AutoSave = true

	return []Profile{
		{
			ID:            DefaultID,
			Name:          "Default",
			Description:   "Standard settings",
			Accessibility: settings.DefaultAccessibility(),
		},
		{
			ID:            VisualImpairedID,
			Name:          "Visual Impairment",
			Description:   "High contrast, magnification and screen reader",
			Accessibility: visual,
		},
		{
			ID:            MotorImpairedID,
			Name:          "Motor Impairment",
			Description:   "Sticky keys, dwell click and voice control",
			Accessibility: motor,
		},
		{
			ID:            CognitiveSupportID,
			Name:          "Cognitive Support",
			Description:   "Focus mode, simplified interface and guided navigation",
			Accessibility: cognitive,
		},
	}
}

// IsBuiltin reports whether id names a built-in profile.
func IsBuiltin(id string) bool {
	switch id {
	case DefaultID, VisualImpairedID, MotorImpairedID, CognitiveSupportID:
		return true
	}
	return false
}
