package mediactl

import (
	"context"
	"errors"
	"time"

	"github.com/smartpc/mediactl/internal/devices"
	"github.com/smartpc/mediactl/internal/harness"
	"github.com/smartpc/mediactl/internal/profiles"
	"github.com/smartpc/mediactl/internal/remote"
	"github.com/smartpc/mediactl/internal/settings"
	"github.com/smartpc/mediactl/internal/speech"
	"github.com/smartpc/mediactl/internal/telemetry"
)

// Options replace the hardware-facing ports. Nil fields use the system
// implementations.
type Options struct {
	Enumerator  devices.Enumerator
	Capturer    harness.Capturer
	Synthesizer speech.Synthesizer
}

// App owns every component and the wiring between them.
type App struct {
	cfg *Config

	events       *EventBroadcaster
	presentation *presentationEffects
	preview      *videoPreview
	sessions     *SessionProvider

	dispatcher *remote.Dispatcher
	store      *settings.Store
	registry   *devices.Registry
	harness    *harness.Harness
	poller     *telemetry.Poller
	profiles   *profiles.Manager
	voices     *speech.Catalog
}

// NewApp builds the component graph. Nothing runs until Run is called.
func NewApp(cfg *Config, opts Options) *App {
	if opts.Enumerator == nil {
		opts.Enumerator = devices.NewSystemEnumerator(cfg.VideoDeviceGlob)
	}
	if opts.Capturer == nil {
		opts.Capturer = harness.NewSystemCapturer()
	}
	if opts.Synthesizer == nil {
		opts.Synthesizer = speech.NewESpeak(cfg.SpeechBinary)
	}

	a := &App{
		cfg:      cfg,
		preview:  &videoPreview{},
		sessions: &SessionProvider{},
	}
	a.events = NewEventBroadcaster(a.initialEvents)
	a.presentation = newPresentationEffects(a.events)
	a.dispatcher = remote.NewDispatcher(a.sessions, time.Duration(cfg.AdapterCallTimeout))
	a.store = settings.NewStore(a.dispatcher, a.presentation)
	a.registry = devices.NewRegistry(opts.Enumerator)
	a.harness = harness.New(harness.Config{
		Capturer:      opts.Capturer,
		Preview:       a.preview,
		Hook:          a.dispatcher,
		MeterInterval: time.Duration(cfg.MeterInterval),
	})
	a.poller = telemetry.NewPoller(a.dispatcher, time.Duration(cfg.StatsPollInterval))
	a.profiles = profiles.NewManager(profiles.Config{
		Store:  a.store,
		Syncer: a.dispatcher,
		Path:   cfg.ProfilesPath,
	})
	a.voices = speech.NewCatalog(opts.Synthesizer)

	a.wireEvents()
	return a
}

func (a *App) wireEvents() {
	a.store.OnChange(func(changes []settings.Change) {
		if len(changes) == 0 {
			return
		}
		fields := make([]ChangedField, len(changes))
		for i, c := range changes {
			fields[i] = ChangedField{Slice: c.Slice, Field: c.Field}
		}
		a.events.Broadcast(EventSettingsChanged, SettingsChangedData{
			Fields:   fields,
			Settings: changes[len(changes)-1].Settings,
		})
	})

	a.registry.OnChange(func(list []devices.Device) {
		a.events.Broadcast(EventDevicesChanged, a.devicesData(list))
	})

	a.harness.OnEvent(func(e harness.Event) {
		switch e.Type {
		case harness.EventLevel:
			a.events.Broadcast(EventAudioLevel, AudioLevelData{Level: e.Level})
		case harness.EventState:
			data := a.testState(e.Kind)
			data.State = e.State
			data.Error = e.Error
			a.events.Broadcast(EventTestStateChanged, data)
		}
	})

	a.poller.OnUpdate(func(stats telemetry.MediaStats, health telemetry.HealthScore) {
		a.events.Broadcast(EventMediaStatsUpdate, MediaStatsData{Stats: stats, Health: health})
	})

	a.profiles.OnActivate(func(p profiles.Profile) {
		a.events.Broadcast(EventProfileActivated, ProfileData{Profile: p})
	})

	a.voices.OnChange(func(v []speech.Voice) {
		a.events.Broadcast(EventVoicesChanged, VoicesData{Voices: v})
	})
}

func (a *App) devicesData(list []devices.Device) DevicesData {
	data := DevicesData{Devices: list}
	if data.Devices == nil {
		data.Devices = []devices.Device{}
	}
	if err := a.registry.LastError(); err != nil {
		data.Error = err.Error()
	}
	return data
}

func (a *App) testState(kind harness.Kind) TestStateData {
	data := TestStateData{
		Kind:    kind,
		State:   a.harness.State(kind),
		Handles: a.harness.ActiveHandles(kind),
	}
	if kind == harness.KindVideo {
		data.Preview = a.preview.Current()
	}
	return data
}

// initialEvents is the state snapshot sent to every new subscriber.
func (a *App) initialEvents() []Event {
	events := []Event{
		{Type: EventSettingsChanged, Data: SettingsChangedData{Fields: []ChangedField{}, Settings: a.store.Snapshot()}},
		{Type: EventPresentationChanged, Data: a.presentation.Attributes()},
		{Type: EventDevicesChanged, Data: a.devicesData(a.registry.Devices())},
		{Type: EventTestStateChanged, Data: a.testState(harness.KindAudio)},
		{Type: EventTestStateChanged, Data: a.testState(harness.KindVideo)},
		{Type: EventProfileActivated, Data: ProfileData{Profile: a.profiles.Active()}},
		{Type: EventVoicesChanged, Data: VoicesData{Voices: a.voices.Voices()}},
	}
	if stats, ok := a.poller.Latest(); ok {
		events = append(events, Event{
			Type: EventMediaStatsUpdate,
			Data: MediaStatsData{Stats: stats, Health: telemetry.HealthOf(stats)},
		})
	}
	return events
}

// Start loads persisted state and kicks off the asynchronous loads.
func (a *App) Start(ctx context.Context) {
	if err := a.profiles.Load(); err != nil {
		logger.Warn().Err(err).Msg("failed to load custom profiles")
	}
	if _, err := a.registry.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial device enumeration failed")
	}
	a.voices.Load(ctx)
}

// onSessionReady makes s the current session and starts polling.
func (a *App) onSessionReady(s remoteSession) {
	if prev := a.sessions.Set(s); prev != nil {
		logger.Info().Msg("replacing previous remote session")
		_ = prev.Close()
	}
	logger.Info().Msg("remote session connected")
	a.poller.Start()
}

// onSessionClosed stops polling when the closed session was current.
func (a *App) onSessionClosed(s remoteSession) {
	if !a.sessions.Clear(s) {
		return
	}
	logger.Info().Msg("remote session disconnected")
	a.poller.Stop()
}

// Shutdown releases every capture and timer and waits for in-flight pushes.
func (a *App) Shutdown() error {
	var errs []error
	if err := a.harness.Close(); err != nil {
		errs = append(errs, err)
	}
	a.poller.Stop()
	a.poller.Wait()
	if prev := a.sessions.Set(nil); prev != nil {
		errs = append(errs, prev.Close())
	}
	a.dispatcher.Wait()
	a.voices.Wait()
	return errors.Join(errs...)
}
