// Package harness runs local hardware tests. A test owns at most one capture
// handle per media kind and releases it on stop, on failure and on teardown.
package harness

import (
	"context"
	"errors"

	"github.com/smartpc/mediactl/internal/settings"
)

// Kind is the media kind of a test.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// State is the single authoritative state of a test session.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrAcquisition means the capture could not start.
	ErrAcquisition = errors.New("capture acquisition failed")
	// ErrCancelled is returned by a start whose session was stopped before the
	// capture arrived.
	ErrCancelled = errors.New("test cancelled")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("harness closed")
	// ErrAnalyserClosed is returned by a closed analyser.
	ErrAnalyserClosed = errors.New("analyser closed")
	// ErrUnsupported means the capturer cannot serve the requested kind.
	ErrUnsupported = errors.New("capture not supported")
)

// Track is a live hardware capture handle. Stop releases it.
type Track interface {
	Kind() Kind
	Stop() error
}

// SampleSink consumes mono PCM samples in [-1, 1].
type SampleSink interface {
	Write(samples []float64)
}

// AudioTrack is a microphone capture that can feed an analysis graph.
type AudioTrack interface {
	Track
	Connect(sink SampleSink) error
}

// AudioConstraints select and configure a microphone capture.
type AudioConstraints struct {
	DeviceID         string `json:"deviceId"`
	EchoCancellation bool   `json:"echoCancellation"`
	NoiseSuppression bool   `json:"noiseSuppression"`
	AutoGainControl  bool   `json:"autoGainControl"`
	SampleRate       int    `json:"sampleRate"`
	Channels         int    `json:"channels"`
}

// VideoConstraints select and configure a camera capture.
type VideoConstraints struct {
	DeviceID  string `json:"deviceId"`
	FrameRate int    `json:"frameRate"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// AudioConstraintsFrom derives capture constraints from the current audio
// settings.
func AudioConstraintsFrom(a settings.AudioSettings) AudioConstraints {
	return AudioConstraints{
		DeviceID:         a.InputDevice,
		EchoCancellation: a.EchoCancellation,
		NoiseSuppression: a.NoiseSuppression,
		AutoGainControl:  a.AutoGainControl,
		SampleRate:       a.SampleRate,
		Channels:         a.Channels.ChannelCount(),
	}
}

// VideoConstraintsFrom derives capture constraints from the current video
// settings. An unparsable resolution leaves the size to the device.
func VideoConstraintsFrom(v settings.VideoSettings) VideoConstraints {
	c := VideoConstraints{DeviceID: v.Device, FrameRate: v.FrameRate}
	if w, h, err := settings.ParseResolution(v.Resolution); err == nil {
		c.Width, c.Height = w, h
	}
	return c
}

// Capturer acquires hardware captures.
type Capturer interface {
	CaptureAudio(ctx context.Context, c AudioConstraints) (AudioTrack, error)
	CaptureVideo(ctx context.Context, c VideoConstraints) (Track, error)
}

// PreviewSink shows a running video capture.
type PreviewSink interface {
	Attach(t Track) error
	Detach() error
}

// RemoteHook is told when a test starts and stops. Calls must not block.
type RemoteHook interface {
	TestStarted(kind Kind)
	TestStopped(kind Kind)
}

type nopPreview struct{}

func (nopPreview) Attach(Track) error { return nil }
func (nopPreview) Detach() error { return nil }

type nopHook struct{}

func (nopHook) TestStarted(Kind) {}
func (nopHook) TestStopped(Kind) {}

// EventType distinguishes harness events.
type EventType string

const (
	EventState EventType = "state"
	EventLevel EventType = "level"
)

// Event reports a state transition or a new audio level.
type Event struct {
	Type  EventType `json:"type"`
	Kind  Kind      `json:"kind"`
	State State     `json:"state"`
	Level float64   `json:"level,omitempty"`
	Error string    `json:"error,omitempty"`
}
