//go:build !cgo || noaudio

package devices

func probeAudio() (func(), error) { return nil, nil }

func listAudio() ([]Device, error) { return nil, nil }
