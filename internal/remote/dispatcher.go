package remote

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/harness"
	"github.com/smartpc/mediactl/internal/logging"
	"github.com/smartpc/mediactl/internal/settings"
	"github.com/smartpc/mediactl/internal/telemetry"
)

// DefaultCallTimeout bounds a single remote push.
const DefaultCallTimeout = 5 * time.Second

type call func(ctx context.Context, a Adapter) error

// Dispatcher is the single routing point between local state and the remote
// session. Pushes run in their own goroutine, are skipped while no
// connection exists, are never retried and never roll anything back.
type Dispatcher struct {
	// Atomic fields first for ARM32 alignment
	failures int64
	skipped  int64

	provider atomic.Value // providerBox
	timeout  time.Duration
	logger   *zerolog.Logger
	wg       sync.WaitGroup
}

type providerBox struct {
	ConnectionProvider
}

// NewDispatcher creates a dispatcher. A nil provider means disconnected.
func NewDispatcher(provider ConnectionProvider, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	d := &Dispatcher{
		timeout: timeout,
		logger:  logging.GetSubsystemLogger("remote"),
	}
	d.SetProvider(provider)
	return d
}

// SetProvider swaps the connection provider.
func (d *Dispatcher) SetProvider(p ConnectionProvider) {
	if p == nil {
		p = DisconnectedProvider{}
	}
	d.provider.Store(providerBox{p})
}

func (d *Dispatcher) connection() ConnectionProvider {
	return d.provider.Load().(providerBox).ConnectionProvider
}

// IsConnected reports whether a live adapter is available.
func (d *Dispatcher) IsConnected() bool {
	p := d.connection()
	return p.IsConnected() && p.Adapter() != nil
}

// Failures returns the number of rejected pushes.
func (d *Dispatcher) Failures() int64 {
	return atomic.LoadInt64(&d.failures)
}

// Skipped returns the number of pushes dropped for lack of a connection.
func (d *Dispatcher) Skipped() int64 {
	return atomic.LoadInt64(&d.skipped)
}

// Wait blocks until every in-flight push has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// PushField implements settings.Pusher.
func (d *Dispatcher) PushField(c settings.Change) {
	op, fn := route(c)
	if fn == nil {
		adapterPushesTotal.WithLabelValues(op, resultLocal).Inc()
		d.logger.Trace().Str("op", op).Msg("field has no remote counterpart")
		return
	}
	d.invoke(op, fn)
}

func (d *Dispatcher) invoke(op string, fn call) {
	p := d.connection()
	var adapter Adapter
	if p.IsConnected() {
		adapter = p.Adapter()
	}
	if adapter == nil {
		atomic.AddInt64(&d.skipped, 1)
		adapterPushesTotal.WithLabelValues(op, resultSkipped).Inc()
		d.logger.Debug().Str("op", op).Msg("no remote connection, push skipped")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.run(op, adapter, fn); err != nil {
			atomic.AddInt64(&d.failures, 1)
			adapterPushesTotal.WithLabelValues(op, resultFailed).Inc()
			d.logger.Warn().Err(err).Str("op", op).Msg("remote push failed")
			return
		}
		adapterPushesTotal.WithLabelValues(op, resultOK).Inc()
	}()
}

func (d *Dispatcher) run(op string, adapter Adapter, fn call) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrAdapterCallFailed, op, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	err = fn(ctx, adapter)
	adapterPushDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAdapterCallFailed, op, err)
	}
	return nil
}

// LoadProfile asks the remote session to load an accessibility profile.
func (d *Dispatcher) LoadProfile(id string) {
	d.invoke("loadAccessibilityProfile", func(ctx context.Context, a Adapter) error {
		return a.LoadAccessibilityProfile(ctx, id)
	})
}

// SaveProfile stores an accessibility profile on the remote session.
func (d *Dispatcher) SaveProfile(id, name string, acc settings.Accessibility) {
	p := ProfilePayload{ID: id, Name: name, Settings: acc}
	d.invoke("saveAccessibilityProfile", func(ctx context.Context, a Adapter) error {
		return a.SaveAccessibilityProfile(ctx, p)
	})
}

// TestStarted mirrors a local hardware test onto the remote session.
func (d *Dispatcher) TestStarted(kind harness.Kind) {
	switch kind {
	case harness.KindAudio:
		d.invoke("startAudioTest", func(ctx context.Context, a Adapter) error { return a.StartAudioTest(ctx) })
	case harness.KindVideo:
		d.invoke("startVideoTest", func(ctx context.Context, a Adapter) error { return a.StartVideoTest(ctx) })
	}
}

// TestStopped mirrors the end of a local hardware test.
func (d *Dispatcher) TestStopped(kind harness.Kind) {
	switch kind {
	case harness.KindAudio:
		d.invoke("stopAudioTest", func(ctx context.Context, a Adapter) error { return a.StopAudioTest(ctx) })
	case harness.KindVideo:
		d.invoke("stopVideoTest", func(ctx context.Context, a Adapter) error { return a.StopVideoTest(ctx) })
	}
}

// GetMediaStats fetches statistics synchronously. It returns
// ErrAdapterUnavailable when no connection exists.
func (d *Dispatcher) GetMediaStats(ctx context.Context) (telemetry.MediaStats, error) {
	p := d.connection()
	if !p.IsConnected() {
		return telemetry.MediaStats{}, ErrAdapterUnavailable
	}
	adapter := p.Adapter()
	if adapter == nil {
		return telemetry.MediaStats{}, ErrAdapterUnavailable
	}
	stats, err := adapter.GetMediaStats(ctx)
	if err != nil {
		return telemetry.MediaStats{}, fmt.Errorf("%w: getMediaStats: %w", ErrAdapterCallFailed, err)
	}
	return stats, nil
}
