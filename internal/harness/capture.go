package harness

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/smartpc/mediactl/internal/logging"
)

var captureLogger = logging.GetSubsystemLogger("capture")

// NullCapturer has no hardware. Every capture fails with ErrUnsupported.
type NullCapturer struct{}

func (NullCapturer) CaptureAudio(context.Context, AudioConstraints) (AudioTrack, error) {
	return nil, ErrUnsupported
}

func (NullCapturer) CaptureVideo(context.Context, VideoConstraints) (Track, error) {
	return nil, ErrUnsupported
}

// SystemCapturer captures from the host. Audio goes through the native audio
// backend when the binary is built with cgo; video opens the V4L2 node named
// by the device ID.
type SystemCapturer struct {
	// DefaultVideoDevice is opened when the constraints name no device.
	DefaultVideoDevice string
}

// NewSystemCapturer returns a capturer for the local machine.
func NewSystemCapturer() *SystemCapturer {
	return &SystemCapturer{DefaultVideoDevice: "/dev/video0"}
}

func (c *SystemCapturer) CaptureAudio(ctx context.Context, cons AudioConstraints) (AudioTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return captureAudio(cons)
}

func (c *SystemCapturer) CaptureVideo(ctx context.Context, cons VideoConstraints) (Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := cons.DeviceID
	if path == "" || path == "default" {
		path = c.DefaultVideoDevice
	}
	if !strings.HasPrefix(path, "/dev/") {
		return nil, fmt.Errorf("%w: video device %q is not a device node", ErrUnsupported, path)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("permission denied opening %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	applied, err := applyVideoConstraints(f.Fd(), cons)
	if err != nil {
		// the node is still usable in whatever mode the driver is in
		captureLogger.Warn().Err(err).Str("device", path).Msg("failed to apply video constraints")
	}
	captureLogger.Debug().
		Str("device", path).
		Int("width", applied.Width).
		Int("height", applied.Height).
		Int("frame_rate", applied.FrameRate).
		Msg("video capture opened")
	return &nodeTrack{file: f}, nil
}

// nodeTrack holds an open camera device node.
type nodeTrack struct {
	mu   sync.Mutex
	file *os.File
}

func (t *nodeTrack) Kind() Kind { return KindVideo }

// Path returns the device node the track holds, or "" once stopped.
func (t *nodeTrack) Path() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return ""
	}
	return t.file.Name()
}

func (t *nodeTrack) Stop() error {
	t.mu.Lock()
	f := t.file
	t.file = nil
	t.mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

// pcmS16ToMono converts interleaved little-endian signed 16-bit frames to
// mono samples in [-1, 1] by averaging the channels.
func pcmS16ToMono(in []byte, channels int) []float64 {
	if channels < 1 {
		channels = 1
	}
	frameBytes := 2 * channels
	frames := len(in) / frameBytes
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			off := i*frameBytes + ch*2
			sum += float64(int16(binary.LittleEndian.Uint16(in[off:]))) / 32768
		}
		out[i] = sum / float64(channels)
	}
	return out
}
