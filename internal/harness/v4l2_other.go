//go:build !linux || !(amd64 || arm64)

package harness

import "fmt"

func applyVideoConstraints(_ uintptr, cons VideoConstraints) (VideoConstraints, error) {
	if cons.Width == 0 && cons.FrameRate == 0 {
		return cons, nil
	}
	return VideoConstraints{DeviceID: cons.DeviceID}, fmt.Errorf("%w: video format control", ErrUnsupported)
}
