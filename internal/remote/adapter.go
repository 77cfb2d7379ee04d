// Package remote defines the capability surface of the remote session and
// the dispatcher that pushes local changes through it.
package remote

import (
	"context"
	"errors"

	"github.com/smartpc/mediactl/internal/settings"
	"github.com/smartpc/mediactl/internal/telemetry"
)

var (
	// ErrAdapterUnavailable means no remote connection exists. Callers treat
	// it as expected and absorb it silently.
	ErrAdapterUnavailable = errors.New("remote adapter unavailable")
	// ErrAdapterCallFailed wraps a rejected remote call.
	ErrAdapterCallFailed = errors.New("remote adapter call failed")
)

// SpeechParams are the screen reader voice parameters.
type SpeechParams struct {
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume int     `json:"volume"`
	Voice  string  `json:"voice,omitempty"`
}

// ProfilePayload is the accessibility bundle saved on the remote side.
type ProfilePayload struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Settings settings.Accessibility `json:"settings"`
}

// Adapter is the remote session's capability surface. Every call may fail
// and is safe to repeat.
type Adapter interface {
	SetAudioEnabled(ctx context.Context, enabled bool) error
	SetAudioInputDevice(ctx context.Context, deviceID string) error
	SetAudioOutputDevice(ctx context.Context, deviceID string) error
	SetAudioInputVolume(ctx context.Context, volume int) error
	SetAudioOutputVolume(ctx context.Context, volume int) error
	SetAudioSettings(ctx context.Context, s settings.AudioSettings) error

	SetVideoEnabled(ctx context.Context, enabled bool) error
	SetVideoDevice(ctx context.Context, deviceID string) error
	SetVideoSettings(ctx context.Context, s settings.VideoSettings) error

	SetHighContrast(ctx context.Context, enabled bool) error
	SetMagnification(ctx context.Context, percent int) error
	SetCursorSize(ctx context.Context, size settings.CursorSize) error

	EnableScreenReader(ctx context.Context) error
	DisableScreenReader(ctx context.Context) error
	SetSpeechSettings(ctx context.Context, p SpeechParams) error
	SetCaptions(ctx context.Context, enabled bool, size settings.CaptionSize) error

	SetStickyKeys(ctx context.Context, enabled bool) error
	SetMouseKeys(ctx context.Context, enabled bool) error
	SetDwellClick(ctx context.Context, enabled bool, dwellMs int) error
	SetVoiceControl(ctx context.Context, enabled bool) error

	SetFocusMode(ctx context.Context, enabled bool) error
	SetSessionTimeout(ctx context.Context, minutes int) error
	SetGuidedNavigation(ctx context.Context, enabled bool) error

	LoadAccessibilityProfile(ctx context.Context, profileID string) error
	SaveAccessibilityProfile(ctx context.Context, p ProfilePayload) error

	GetMediaStats(ctx context.Context) (telemetry.MediaStats, error)

	StartAudioTest(ctx context.Context) error
	StopAudioTest(ctx context.Context) error
	StartVideoTest(ctx context.Context) error
	StopVideoTest(ctx context.Context) error
}

// NopAdapter accepts every call. Embed it to implement a subset of Adapter.
type NopAdapter struct{}

var _ Adapter = NopAdapter{}

func (NopAdapter) SetAudioEnabled(context.Context, bool) error { return nil }
func (NopAdapter) SetAudioInputDevice(context.Context, string) error { return nil }
func (NopAdapter) SetAudioOutputDevice(context.Context, string) error { return nil }
func (NopAdapter) SetAudioInputVolume(context.Context, int) error { return nil }
func (NopAdapter) SetAudioOutputVolume(context.Context, int) error { return nil }
func (NopAdapter) SetAudioSettings(context.Context, settings.AudioSettings) error { return nil }
func (NopAdapter) SetVideoEnabled(context.Context, bool) error { return nil }
func (NopAdapter) SetVideoDevice(context.Context, string) error { return nil }
func (NopAdapter) SetVideoSettings(context.Context, settings.VideoSettings) error { return nil }
func (NopAdapter) SetHighContrast(context.Context, bool) error { return nil }
func (NopAdapter) SetMagnification(context.Context, int) error { return nil }
func (NopAdapter) SetCursorSize(context.Context, settings.CursorSize) error { return nil }
func (NopAdapter) EnableScreenReader(context.Context) error { return nil }
func (NopAdapter) DisableScreenReader(context.Context) error { return nil }
func (NopAdapter) SetSpeechSettings(context.Context, SpeechParams) error { return nil }
func (NopAdapter) SetCaptions(context.Context, bool, settings.CaptionSize) error { return nil }
func (NopAdapter) SetStickyKeys(context.Context, bool) error { return nil }
func (NopAdapter) SetMouseKeys(context.Context, bool) error { return nil }
func (NopAdapter) SetDwellClick(context.Context, bool, int) error { return nil }
func (NopAdapter) SetVoiceControl(context.Context, bool) error { return nil }
func (NopAdapter) SetFocusMode(context.Context, bool) error { return nil }
func (NopAdapter) SetSessionTimeout(context.Context, int) error { return nil }
func (NopAdapter) SetGuidedNavigation(context.Context, bool) error { return nil }
func (NopAdapter) LoadAccessibilityProfile(context.Context, string) error { return nil }
func (NopAdapter) SaveAccessibilityProfile(context.Context, ProfilePayload) error { return nil }
func (NopAdapter) StartAudioTest(context.Context) error { return nil }
func (NopAdapter) StopAudioTest(context.Context) error { return nil }
func (NopAdapter) StartVideoTest(context.Context) error { return nil }
func (NopAdapter) StopVideoTest(context.Context) error { return nil }

func (NopAdapter) GetMediaStats(context.Context) (telemetry.MediaStats, error) {
	return telemetry.MediaStats{}, nil
}
