// Package devices keeps the list of media devices the host exposes. The list
// is replaced wholesale on every refresh and is empty whenever the last
// refresh failed.
package devices

import (
	"context"
	"errors"
)

// Kind is the media kind of a device.
type Kind string

const (
	KindAudioInput  Kind = "audio-input"
	KindAudioOutput Kind = "audio-output"
	KindVideoInput  Kind = "video-input"
)

// DefaultDeviceID lets the OS pick the device.
const DefaultDeviceID = "default"

// Device is one enumerated media device.
type Device struct {
	ID      string `json:"deviceId"`
	Label   string `json:"label"`
	Kind    Kind   `json:"kind"`
	GroupID string `json:"groupId"`
}

var (
	// ErrPermissionDenied means the OS refused access to capture devices.
	ErrPermissionDenied = errors.New("device permission denied")
	// ErrEnumeration means the device list could not be read.
	ErrEnumeration = errors.New("device enumeration failed")
)

// Enumerator reads devices from the host.
type Enumerator interface {
	// Probe requests a transient capture grant so that enumeration returns
	// labels. The returned release func is non-nil whenever something was
	// acquired and must be called even when err is non-nil.
	Probe(ctx context.Context) (release func(), err error)
	Enumerate(ctx context.Context) ([]Device, error)
}
