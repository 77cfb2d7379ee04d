//go:build cgo && !noaudio

package harness

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

const defaultSampleRate = 48000

var emptyDeviceID malgo.DeviceID

// toMalgoDeviceID decodes a registry device ID. Registry IDs are the hex
// form of the backend ID with trailing zero bytes trimmed.
func toMalgoDeviceID(id string) (malgo.DeviceID, error) {
	var res malgo.DeviceID
	if id == "" || id == "default" {
		return res, nil
	}
	raw, err := hex.DecodeString(id)
	if err != nil {
		return res, fmt.Errorf("invalid audio device id %q: %w", id, err)
	}
	if len(raw) > len(res) {
		return res, fmt.Errorf("audio device id %q too long", id)
	}
	copy(res[:], raw)
	return res, nil
}

func captureAudio(cons AudioConstraints) (AudioTrack, error) {
	id, err := toMalgoDeviceID(cons.DeviceID)
	if err != nil {
		return nil, err
	}
	if cons.EchoCancellation || cons.NoiseSuppression || cons.AutoGainControl {
		// malgo exposes raw capture only
		captureLogger.Debug().
			Bool("echo_cancellation", cons.EchoCancellation).
			Bool("noise_suppression", cons.NoiseSuppression).
			Bool("auto_gain_control", cons.AutoGainControl).
			Msg("audio processing constraints are not supported by the capture backend, ignoring")
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio backend: %w", err)
	}

	channels := cons.Channels
	if channels < 1 {
		channels = 1
	}
	rate := cons.SampleRate
	if rate <= 0 {
		rate = defaultSampleRate
	}

	t := &malgoTrack{mctx: mctx, channels: channels}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.SampleRate = uint32(rate)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(channels)
	if id != emptyDeviceID {
		cfg.Capture.DeviceID = id.Pointer()
	}
	cfg.Alsa.NoMMap = 1

	dev, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: t.onData,
	})
	if err != nil {
		t.freeContext()
		return nil, fmt.Errorf("failed to open capture device: %w", err)
	}
	t.dev = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		t.freeContext()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}
	return t, nil
}

// malgoTrack is a running capture device with its own backend context.
type malgoTrack struct {
	mctx     *malgo.AllocatedContext
	dev      *malgo.Device
	channels int

	mu      sync.Mutex
	sink    SampleSink
	stopped bool
}

func (t *malgoTrack) Kind() Kind { return KindAudio }

func (t *malgoTrack) Connect(sink SampleSink) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return errors.New("capture already stopped")
	}
	t.sink = sink
	return nil
}

func (t *malgoTrack) onData(_, in []byte, _ uint32) {
	t.mu.Lock()
	sink := t.sink
	t.mu.Unlock()
	if sink == nil {
		return
	}
	sink.Write(pcmS16ToMono(in, t.channels))
}

func (t *malgoTrack) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	t.sink = nil
	t.mu.Unlock()

	err := t.dev.Stop()
	t.dev.Uninit()
	return errors.Join(err, t.freeContext())
}

func (t *malgoTrack) freeContext() error {
	err := t.mctx.Uninit()
	t.mctx.Free()
	return err
}
