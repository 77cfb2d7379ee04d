//go:build !cgo || noaudio

package harness

import "fmt"

func captureAudio(AudioConstraints) (AudioTrack, error) {
	return nil, fmt.Errorf("%w: built without audio support", ErrUnsupported)
}
