//go:build cgo && !noaudio

package devices

import (
	"errors"
	"fmt"

	"github.com/gen2brain/malgo"
)

func withAudioContext(fn func(*malgo.AllocatedContext) error) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()
	return fn(mctx)
}

// probeAudio opens the default capture device and releases it at once.
func probeAudio() (func(), error) {
	err := withAudioContext(func(mctx *malgo.AllocatedContext) error {
		cfg := malgo.DefaultDeviceConfig(malgo.Capture)
		cfg.Capture.Format = malgo.FormatS16
		cfg.Capture.Channels = 1
		cfg.SampleRate = 48000
		dev, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{})
		if err != nil {
			return err
		}
		dev.Uninit()
		return nil
	})
	if errors.Is(err, malgo.ErrAccessDenied) {
		return nil, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return nil, err
}

func listAudio() ([]Device, error) {
	var out []Device
	err := withAudioContext(func(mctx *malgo.AllocatedContext) error {
		for _, typ := range []struct {
			dt   malgo.DeviceType
			kind Kind
		}{
			{malgo.Capture, KindAudioInput},
			{malgo.Playback, KindAudioOutput},
		} {
			infos, err := mctx.Devices(typ.dt)
			if err != nil {
				return fmt.Errorf("list %s devices: %w", typ.kind, err)
			}
			seen := make(map[string]struct{}, len(infos))
			for _, info := range infos {
				id := info.ID.String()
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, Device{ID: id, Label: info.Name(), Kind: typ.kind})
			}
		}
		return nil
	})
	return out, err
}
