package devices

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/logging"
)

// DefaultWatchPaths are the directories where sound and video nodes appear.
var DefaultWatchPaths = []string{"/dev", "/dev/snd"}

// HotplugWatcher turns device node creation and removal into notifications
// for Registry.Watch.
type HotplugWatcher struct {
	watcher *fsnotify.Watcher
	events  chan struct{}
	logger  *zerolog.Logger
}

// NewHotplugWatcher watches paths. Paths that do not exist are skipped.
func NewHotplugWatcher(paths []string) (*HotplugWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to start filesystem watcher: %w", err)
	}
	w := &HotplugWatcher{
		watcher: watcher,
		events:  make(chan struct{}, 1),
		logger:  logging.GetSubsystemLogger("hotplug"),
	}
	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			w.logger.Warn().Err(err).Str("path", p).Msg("unable to watch device path")
		}
	}
	return w, nil
}

// Events delivers one value per relevant change. Values are dropped while
// one is already pending.
func (w *HotplugWatcher) Events() <-chan struct{} {
	return w.events
}

// Run forwards events until ctx is done, then closes the watcher and the
// Events channel.
func (w *HotplugWatcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.watcher.Close()

	w.logger.Debug().Strs("paths", w.watcher.WatchList()).Msg("starting hotplug watcher")
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.logger.Warn().Msg("watcher events closed")
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			if !isMediaNode(event.Name) {
				continue
			}
			w.logger.Debug().Str("event", event.String()).Msg("device node changed")
			select {
			case w.events <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.logger.Warn().Msg("watcher errors closed")
				return nil
			}
			w.logger.Debug().Err(err).Msg("watcher error")
		}
	}
}

// isMediaNode reports whether a device node path is a camera or a sound
// device.
func isMediaNode(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "video") {
		return true
	}
	if filepath.Base(filepath.Dir(path)) == "snd" {
		return strings.HasPrefix(base, "pcm") || strings.HasPrefix(base, "control")
	}
	return false
}
