package devices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/logging"
)

// DefaultDebounce coalesces bursts of hot-plug notifications.
const DefaultDebounce = 250 * time.Millisecond

// Registry holds the latest device list.
type Registry struct {
	enum   Enumerator
	logger *zerolog.Logger

	// refreshMu serializes refreshes so that lists are published in the
	// order they were read.
	refreshMu sync.Mutex

	mu        sync.RWMutex
	debounce  time.Duration
	devices   []Device
	lastErr   error
	listeners map[int]func([]Device)
	nextID    int
}

// NewRegistry creates an empty registry. Call Refresh to populate it.
func NewRegistry(enum Enumerator) *Registry {
	return &Registry{
		enum:      enum,
		debounce:  DefaultDebounce,
		logger:    logging.GetSubsystemLogger("devices"),
		listeners: make(map[int]func([]Device)),
	}
}

// SetDebounce changes the coalescing window used by Watch. A running Watch
// picks it up with the next notification.
func (r *Registry) SetDebounce(d time.Duration) {
	r.mu.Lock()
	r.debounce = d
	r.mu.Unlock()
}

func (r *Registry) debounceWindow() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.debounce
}

// Refresh probes for permission, enumerates and replaces the list. On any
// failure the published list is empty.
func (r *Registry) Refresh(ctx context.Context) ([]Device, error) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	release, err := r.enum.Probe(ctx)
	if release != nil {
		defer release()
	}
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			deviceRefreshesTotal.WithLabelValues("denied").Inc()
			r.logger.Warn().Err(err).Msg("device access denied")
			r.publish(nil, err)
			return nil, err
		}
		// Labels may be missing, but the list is still worth reading.
		r.logger.Debug().Err(err).Msg("permission probe failed")
	}

	list, err := r.enum.Enumerate(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrEnumeration, err)
		deviceRefreshesTotal.WithLabelValues("failed").Inc()
		r.logger.Warn().Err(err).Msg("device enumeration failed")
		r.publish(nil, err)
		return nil, err
	}

	snapshot := make([]Device, len(list))
	copy(snapshot, list)
	deviceRefreshesTotal.WithLabelValues("ok").Inc()
	r.logger.Debug().Int("count", len(snapshot)).Msg("device list refreshed")
	r.publish(snapshot, nil)
	return r.Devices(), nil
}

func (r *Registry) publish(list []Device, err error) {
	r.mu.Lock()
	r.devices = list
	r.lastErr = err
	listeners := make([]func([]Device), 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.mu.Unlock()

	recordDevices(list)
	for _, fn := range listeners {
		fn(r.Devices())
	}
}

// Devices returns a copy of the current list.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// ByKind returns the devices of one kind.
func (r *Registry) ByKind(kind Kind) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Device
	for _, d := range r.devices {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Lookup finds a device by ID.
func (r *Registry) Lookup(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.devices {
		if d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}

// LastError returns the error of the last refresh, or nil.
func (r *Registry) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// OnChange registers fn to receive every published list. The returned func
// unregisters it.
func (r *Registry) OnChange(fn func([]Device)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Watch refreshes after every burst of notifications until ctx is done or
// notify is closed.
func (r *Registry) Watch(ctx context.Context, notify <-chan struct{}) error {
	// chanReload is nil until a notification arrives, then fires once the
	// burst has been quiet for the debounce window.
	var chanReload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case _, ok := <-notify:
			if !ok {
				return nil
			}
			chanReload = time.After(r.debounceWindow())

		case <-chanReload:
			chanReload = nil
			if _, err := r.Refresh(ctx); err != nil {
				r.logger.Debug().Err(err).Msg("refresh after device change failed")
			}
		}
	}
}
