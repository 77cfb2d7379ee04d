package devices

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnumerator struct {
	mu       sync.Mutex
	lists    [][]Device
	probeErr error
	enumErr  error

	probes   int64
	released int64
	enums    int64
}

func (f *fakeEnumerator) Probe(context.Context) (func(), error) {
	atomic.AddInt64(&f.probes, 1)
	release := func() { atomic.AddInt64(&f.released, 1) }
	return release, f.probeErr
}

func (f *fakeEnumerator) Enumerate(context.Context) ([]Device, error) {
	atomic.AddInt64(&f.enums, 1)
	if f.enumErr != nil {
		return nil, f.enumErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lists) == 0 {
		return nil, nil
	}
	next := f.lists[0]
	if len(f.lists) > 1 {
		f.lists = f.lists[1:]
	}
	return next, nil
}

var (
	mic    = Device{ID: "mic-1", Label: "USB Mic", Kind: KindAudioInput}
	mic2   = Device{ID: "mic-2", Label: "Headset", Kind: KindAudioInput}
	out1   = Device{ID: "out-1", Label: "Speakers", Kind: KindAudioOutput}
	camera = Device{ID: "/dev/video0", Label: "Webcam", Kind: KindVideoInput}
)

func TestRegistry_SecondRefreshReplacesList(t *testing.T) {
	enum := &fakeEnumerator{lists: [][]Device{
		{mic, out1, camera},
		{mic2},
	}}
	r := NewRegistry(enum)

	first, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Device{mic, out1, camera}, first)

	second, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Device{mic2}, second)
	assert.Equal(t, []Device{mic2}, r.Devices())

	_, ok := r.Lookup("mic-1")
	assert.False(t, ok)
	assert.EqualValues(t, 2, atomic.LoadInt64(&enum.released))
}

func TestRegistry_RefreshFailures(t *testing.T) {
	tests := []struct {
		name    string
		enum    *fakeEnumerator
		wantErr error
	}{
		{
			name:    "permission denied",
			enum:    &fakeEnumerator{probeErr: ErrPermissionDenied},
			wantErr: ErrPermissionDenied,
		},
		{
			name:    "enumeration failure",
			enum:    &fakeEnumerator{enumErr: errors.New("backend gone")},
			wantErr: ErrEnumeration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := &fakeEnumerator{lists: [][]Device{{mic, camera}}}
			r := NewRegistry(good)
			_, err := r.Refresh(context.Background())
			require.NoError(t, err)
			require.Len(t, r.Devices(), 2)

			r.enum = tt.enum
			list, err := r.Refresh(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, list)
			assert.Empty(t, r.Devices())
			assert.ErrorIs(t, r.LastError(), tt.wantErr)
			assert.EqualValues(t, 1, atomic.LoadInt64(&tt.enum.released))
		})
	}
}

func TestRegistry_DeniedProbeSkipsEnumeration(t *testing.T) {
	enum := &fakeEnumerator{probeErr: ErrPermissionDenied}
	r := NewRegistry(enum)
	_, err := r.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Zero(t, atomic.LoadInt64(&enum.enums))
}

func TestRegistry_OtherProbeErrorStillEnumerates(t *testing.T) {
	enum := &fakeEnumerator{
		probeErr: errors.New("no capture device"),
		lists:    [][]Device{{out1}},
	}
	r := NewRegistry(enum)
	list, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Device{out1}, list)
	assert.NoError(t, r.LastError())
}

func TestRegistry_ByKindAndLookup(t *testing.T) {
	r := NewRegistry(&fakeEnumerator{lists: [][]Device{{mic, mic2, out1, camera}}})
	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Device{mic, mic2}, r.ByKind(KindAudioInput))
	assert.Equal(t, []Device{out1}, r.ByKind(KindAudioOutput))
	assert.Equal(t, []Device{camera}, r.ByKind(KindVideoInput))

	d, ok := r.Lookup("/dev/video0")
	assert.True(t, ok)
	assert.Equal(t, "Webcam", d.Label)
}

func TestRegistry_DevicesIsACopy(t *testing.T) {
	r := NewRegistry(&fakeEnumerator{lists: [][]Device{{mic}}})
	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	list := r.Devices()
	list[0].Label = "changed"
	assert.Equal(t, "USB Mic", r.Devices()[0].Label)
}

func TestRegistry_OnChange(t *testing.T) {
	r := NewRegistry(&fakeEnumerator{lists: [][]Device{{mic}, {mic, out1}}})

	var got [][]Device
	unsubscribe := r.OnChange(func(list []Device) {
		got = append(got, list)
	})

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)
	unsubscribe()
	_, err = r.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, []Device{mic}, got[0])
}

func TestRegistry_WatchCoalescesBursts(t *testing.T) {
	enum := &fakeEnumerator{lists: [][]Device{{mic}}}
	r := NewRegistry(enum)
	r.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notify := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, notify) }()

	for i := 0; i < 5; i++ {
		notify <- struct{}{}
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&enum.enums) == 1
	}, time.Second, time.Millisecond)
	assert.Never(t, func() bool {
		return atomic.LoadInt64(&enum.enums) > 1
	}, 60*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, []Device{mic}, r.Devices())

	close(notify)
	assert.NoError(t, <-done)
}

func TestRegistry_SetDebounceWhileWatching(t *testing.T) {
	enum := &fakeEnumerator{lists: [][]Device{{mic}}}
	r := NewRegistry(enum)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notify := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, notify) }()

	notify <- struct{}{}
	r.SetDebounce(10 * time.Millisecond)
	notify <- struct{}{}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&enum.enums) == 1
	}, 200*time.Millisecond, time.Millisecond, "the shorter window applies to the next notification")

	close(notify)
	assert.NoError(t, <-done)
}

func TestRegistry_WatchStopsOnCancel(t *testing.T) {
	r := NewRegistry(&fakeEnumerator{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, make(chan struct{})) }()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestIsMediaNode(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/dev/video0", true},
		{"/dev/video12", true},
		{"/dev/snd/pcmC0D0c", true},
		{"/dev/snd/controlC1", true},
		{"/dev/snd/timer", false},
		{"/dev/tty1", false},
		{"/dev/pcm", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isMediaNode(tt.path), tt.path)
	}
}

func TestSystemEnumerator_SkipsRegularFiles(t *testing.T) {
	sysfs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(sysfs, "video0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sysfs, "video0", "name"), []byte("Integrated Camera\n"), 0o644))

	// Regular files are not device nodes and must be skipped.
	dev := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dev, "video0"), nil, 0o644))

	e := &SystemEnumerator{VideoGlob: filepath.Join(dev, "video*"), SysfsRoot: sysfs}
	list, err := e.listVideo()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStaticEnumerator(t *testing.T) {
	r := NewRegistry(StaticEnumerator{List: []Device{camera}})
	list, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Device{camera}, list)
}
