package devices

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultVideoGlob matches V4L2 capture nodes.
const DefaultVideoGlob = "/dev/video*"

// SystemEnumerator reads audio devices from the native audio backend and
// cameras from V4L2 device nodes.
type SystemEnumerator struct {
	VideoGlob string
	// SysfsRoot holds the video4linux class directory used for labels.
	SysfsRoot string
}

// NewSystemEnumerator returns an enumerator for the local machine.
func NewSystemEnumerator(videoGlob string) *SystemEnumerator {
	if videoGlob == "" {
		videoGlob = DefaultVideoGlob
	}
	return &SystemEnumerator{
		VideoGlob: videoGlob,
		SysfsRoot: "/sys/class/video4linux",
	}
}

func (e *SystemEnumerator) Probe(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return probeAudio()
}

func (e *SystemEnumerator) Enumerate(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	audio, err := listAudio()
	if err != nil {
		return nil, err
	}
	video, err := e.listVideo()
	if err != nil {
		return nil, err
	}
	return append(audio, video...), nil
}

func (e *SystemEnumerator) listVideo() ([]Device, error) {
	paths, err := filepath.Glob(e.VideoGlob)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []Device
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if info.Mode()&os.ModeDevice == 0 {
			continue
		}
		base := filepath.Base(p)
		label := base
		if name, err := os.ReadFile(filepath.Join(e.SysfsRoot, base, "name")); err == nil {
			if s := strings.TrimSpace(string(name)); s != "" {
				label = s
			}
		}
		out = append(out, Device{
			ID:      p,
			Label:   label,
			Kind:    KindVideoInput,
			GroupID: e.groupOf(base),
		})
	}
	return out, nil
}

// groupOf links nodes of the same physical camera through their sysfs
// parent device.
func (e *SystemEnumerator) groupOf(node string) string {
	target, err := filepath.EvalSymlinks(filepath.Join(e.SysfsRoot, node, "device"))
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}

// StaticEnumerator returns a fixed list. It is used when no hardware access
// is configured.
type StaticEnumerator struct {
	List []Device
}

func (s StaticEnumerator) Probe(context.Context) (func(), error) { return nil, nil }

func (s StaticEnumerator) Enumerate(context.Context) ([]Device, error) {
	out := make([]Device, len(s.List))
	copy(out, s.List)
	return out, nil
}
