//go:build linux && (amd64 || arm64)

package harness

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestV4L2StructSizes(t *testing.T) {
	// the sizes are part of the ioctl numbers
	assert.Equal(t, uintptr(208), unsafe.Sizeof(v4l2Format{}))
	assert.Equal(t, uintptr(204), unsafe.Sizeof(v4l2StreamParm{}))
}

func TestApplyVideoConstraints(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "not-a-camera"))
	require.NoError(t, err)
	defer f.Close()

	tests := []struct {
		name    string
		cons    VideoConstraints
		wantErr bool
	}{
		{"nothing requested", VideoConstraints{DeviceID: "cam"}, false},
		{"size", VideoConstraints{DeviceID: "cam", Width: 1280, Height: 720}, true},
		{"frame rate", VideoConstraints{DeviceID: "cam", FrameRate: 30}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied, err := applyVideoConstraints(f.Fd(), tt.cons)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, VideoConstraints{DeviceID: "cam"}, applied, "a regular file accepts no video mode")
		})
	}
}
