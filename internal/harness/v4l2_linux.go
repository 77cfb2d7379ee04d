//go:build linux && (amd64 || arm64)

package harness

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// V4L2 ioctl numbers from include/uapi/linux/videodev2.h, encoded as
// _IOWR('V', nr, size) for 64-bit little-endian targets.
const (
	vidiocGFmt  = 0xc0d05604 // struct v4l2_format, 208 bytes
	vidiocSFmt  = 0xc0d05605
	vidiocGParm = 0xc0cc5615 // struct v4l2_streamparm, 204 bytes
	vidiocSParm = 0xc0cc5616

	v4l2BufTypeVideoCapture = 1
	v4l2CapTimePerFrame     = 0x1000
)

// v4l2Format mirrors struct v4l2_format. The union is 8-byte aligned
// because v4l2_window holds pointers.
type v4l2Format struct {
	typ uint32
	_   uint32
	fmt [200]byte
}

// v4l2StreamParm mirrors struct v4l2_streamparm.
type v4l2StreamParm struct {
	typ  uint32
	parm [200]byte
}

// Offsets into v4l2_pix_format and v4l2_captureparm.
const (
	pixWidthOff       = 0
	pixHeightOff      = 4
	parmCapabilityOff = 0
	parmNumeratorOff  = 8
	parmDenomOff      = 12
)

func v4l2Ioctl(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// applyVideoConstraints sets the capture size and frame interval of an open
// V4L2 node. Drivers may pick the nearest supported mode; the mode the
// driver settled on is returned.
func applyVideoConstraints(fd uintptr, cons VideoConstraints) (VideoConstraints, error) {
	applied := VideoConstraints{DeviceID: cons.DeviceID}
	var errs []error

	if cons.Width > 0 && cons.Height > 0 {
		f := v4l2Format{typ: v4l2BufTypeVideoCapture}
		if err := v4l2Ioctl(fd, vidiocGFmt, unsafe.Pointer(&f)); err != nil {
			errs = append(errs, fmt.Errorf("VIDIOC_G_FMT: %w", err))
		} else {
			binary.LittleEndian.PutUint32(f.fmt[pixWidthOff:], uint32(cons.Width))
			binary.LittleEndian.PutUint32(f.fmt[pixHeightOff:], uint32(cons.Height))
			if err := v4l2Ioctl(fd, vidiocSFmt, unsafe.Pointer(&f)); err != nil {
				errs = append(errs, fmt.Errorf("VIDIOC_S_FMT %dx%d: %w", cons.Width, cons.Height, err))
			} else {
				applied.Width = int(binary.LittleEndian.Uint32(f.fmt[pixWidthOff:]))
				applied.Height = int(binary.LittleEndian.Uint32(f.fmt[pixHeightOff:]))
			}
		}
	}

	if cons.FrameRate > 0 {
		p := v4l2StreamParm{typ: v4l2BufTypeVideoCapture}
		if err := v4l2Ioctl(fd, vidiocGParm, unsafe.Pointer(&p)); err != nil {
			errs = append(errs, fmt.Errorf("VIDIOC_G_PARM: %w", err))
		} else if binary.LittleEndian.Uint32(p.parm[parmCapabilityOff:])&v4l2CapTimePerFrame == 0 {
			errs = append(errs, errors.New("device does not support setting the frame interval"))
		} else {
			binary.LittleEndian.PutUint32(p.parm[parmNumeratorOff:], 1)
			binary.LittleEndian.PutUint32(p.parm[parmDenomOff:], uint32(cons.FrameRate))
			if err := v4l2Ioctl(fd, vidiocSParm, unsafe.Pointer(&p)); err != nil {
				errs = append(errs, fmt.Errorf("VIDIOC_S_PARM %d fps: %w", cons.FrameRate, err))
			} else if num := binary.LittleEndian.Uint32(p.parm[parmNumeratorOff:]); num > 0 {
				applied.FrameRate = int(binary.LittleEndian.Uint32(p.parm[parmDenomOff:]) / num)
			}
		}
	}
	return applied, errors.Join(errs...)
}
