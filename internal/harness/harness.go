package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/logging"
	"github.com/smartpc/mediactl/internal/schedule"
)

// DefaultMeterInterval is the audio level sampling period.
const DefaultMeterInterval = 100 * time.Millisecond

// Config wires a Harness. Only Capturer is required.
type Config struct {
	Capturer      Capturer
	Preview       PreviewSink
	Hook          RemoteHook
	MeterInterval time.Duration
	Logger        *zerolog.Logger
}

// Harness runs one independent test session per media kind. Starting a kind
// that is already active stops the previous capture first.
type Harness struct {
	// Atomic fields first for ARM32 alignment
	closed int32

	capturer      Capturer
	preview       PreviewSink
	meterInterval time.Duration
	logger        *zerolog.Logger

	hookMu sync.RWMutex
	hook   RemoteHook

	audio *session
	video *session

	listenerMu sync.RWMutex
	listeners  []func(Event)
}

// New creates a harness with both sessions idle.
func New(cfg Config) *Harness {
	h := &Harness{
		capturer:      cfg.Capturer,
		preview:       cfg.Preview,
		meterInterval: cfg.MeterInterval,
		logger:        cfg.Logger,
		hook:          cfg.Hook,
		audio:         newSession(KindAudio),
		video:         newSession(KindVideo),
	}
	if h.capturer == nil {
		h.capturer = NullCapturer{}
	}
	if h.preview == nil {
		h.preview = nopPreview{}
	}
	if h.hook == nil {
		h.hook = nopHook{}
	}
	if h.meterInterval <= 0 {
		h.meterInterval = DefaultMeterInterval
	}
	if h.logger == nil {
		h.logger = logging.GetSubsystemLogger("harness")
	}
	return h
}

// SetRemoteHook replaces the hook told about test starts and stops.
func (h *Harness) SetRemoteHook(hook RemoteHook) {
	if hook == nil {
		hook = nopHook{}
	}
	h.hookMu.Lock()
	h.hook = hook
	h.hookMu.Unlock()
}

func (h *Harness) remoteHook() RemoteHook {
	h.hookMu.RLock()
	defer h.hookMu.RUnlock()
	return h.hook
}

// OnEvent registers fn for state transitions and level samples. fn runs on
// the goroutine that caused the event and must not block.
func (h *Harness) OnEvent(fn func(Event)) {
	h.listenerMu.Lock()
	h.listeners = append(h.listeners, fn)
	h.listenerMu.Unlock()
}

func (h *Harness) emit(e Event) {
	h.listenerMu.RLock()
	listeners := h.listeners
	h.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(e)
	}
}

func (h *Harness) emitState(kind Kind, state State, err error) {
	e := Event{Type: EventState, Kind: kind, State: state}
	if err != nil {
		e.Error = err.Error()
	}
	h.emit(e)
}

func (h *Harness) isClosed() bool {
	return atomic.LoadInt32(&h.closed) == 1
}

func (h *Harness) sessionFor(kind Kind) (*session, error) {
	switch kind {
	case KindAudio:
		return h.audio, nil
	case KindVideo:
		return h.video, nil
	default:
		return nil, fmt.Errorf("unknown media kind %q", kind)
	}
}

// State returns the current state of a kind.
func (h *Harness) State(kind Kind) State {
	s, err := h.sessionFor(kind)
	if err != nil {
		return StateIdle
	}
	return s.currentState()
}

// ActiveHandles returns how many capture handles a kind currently holds.
func (h *Harness) ActiveHandles(kind Kind) int {
	s, err := h.sessionFor(kind)
	if err != nil {
		return 0
	}
	return s.handles()
}

// AudioLevel returns the latest metered level in 0-100.
func (h *Harness) AudioLevel() float64 {
	return h.audio.getLevel()
}

// StartAudioTest captures the microphone and starts metering its level.
func (h *Harness) StartAudioTest(ctx context.Context, c AudioConstraints) error {
	acquire := func(ctx context.Context) (Track, error) {
		t, err := h.capturer.CaptureAudio(ctx, c)
		if t == nil {
			return nil, err
		}
		return t, err
	}
	return h.start(ctx, h.audio, acquire, h.activateAudio)
}

// StopAudioTest stops the audio test. It is a no-op when idle.
func (h *Harness) StopAudioTest() error {
	return h.stop(h.audio)
}

// StartVideoTest captures the camera and attaches it to the preview sink.
func (h *Harness) StartVideoTest(ctx context.Context, c VideoConstraints) error {
	acquire := func(ctx context.Context) (Track, error) {
		return h.capturer.CaptureVideo(ctx, c)
	}
	return h.start(ctx, h.video, acquire, h.activateVideo)
}

// StopVideoTest stops the video test. It is a no-op when idle.
func (h *Harness) StopVideoTest() error {
	return h.stop(h.video)
}

// Stop stops the test of a kind.
func (h *Harness) Stop(kind Kind) error {
	s, err := h.sessionFor(kind)
	if err != nil {
		return err
	}
	return h.stop(s)
}

// Close stops both tests and rejects further starts. Captures that arrive
// after Close are released immediately.
func (h *Harness) Close() error {
	atomic.StoreInt32(&h.closed, 1)
	return errors.Join(h.stop(h.audio), h.stop(h.video))
}

type activateFunc func(s *session, t Track, gen uint64) error

func (h *Harness) start(ctx context.Context, s *session, acquire func(context.Context) (Track, error), activate activateFunc) error {
	if h.isClosed() {
		return ErrClosed
	}

	// Stop-before-start. Loop in case another start slipped in between.
	for {
		if err := h.stop(s); err != nil {
			h.logger.Warn().Err(err).Str("kind", string(s.kind)).Msg("previous test did not stop cleanly")
		}
		s.mu.Lock()
		if s.state == StateIdle {
			break
		}
		s.mu.Unlock()
	}
	if h.isClosed() {
		s.mu.Unlock()
		return ErrClosed
	}
	s.generation++
	gen := s.generation
	s.state = StateStarting
	s.mu.Unlock()

	testSessionsTotal.WithLabelValues(string(s.kind), "start").Inc()
	h.logger.Info().Str("kind", string(s.kind)).Msg("starting local test")
	h.emitState(s.kind, StateStarting, nil)

	track, err := acquire(ctx)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		if track != nil {
			h.logger.Debug().Str("kind", string(s.kind)).Msg("discarding capture that arrived after stop")
			if rerr := safeStep("release late track", track.Stop); rerr != nil {
				h.logger.Warn().Err(rerr).Msg("failed to release late capture")
			}
		}
		return ErrCancelled
	}
	if err == nil && track == nil {
		err = errors.New("capturer returned no track")
	}
	if err != nil {
		s.state = StateErrored
		s.mu.Unlock()
		if track != nil {
			if rerr := safeStep("release partial track", track.Stop); rerr != nil {
				h.logger.Warn().Err(rerr).Msg("failed to release partial capture")
			}
		}
		return h.abort(s, fmt.Errorf("%w: %w", ErrAcquisition, err))
	}

	s.tracks = append(s.tracks, track)
	liveCaptureHandles.WithLabelValues(string(s.kind)).Inc()
	if err := activate(s, track, gen); err != nil {
		s.state = StateErrored
		s.mu.Unlock()
		return h.abort(s, fmt.Errorf("%w: %w", ErrAcquisition, err))
	}
	s.state = StateRunning
	s.announced = true
	s.mu.Unlock()

	h.logger.Info().Str("kind", string(s.kind)).Msg("local test running")
	h.emitState(s.kind, StateRunning, nil)
	h.remoteHook().TestStarted(s.kind)
	return nil
}

// abort reports the Errored state and runs the stop path.
func (h *Harness) abort(s *session, err error) error {
	testSessionsTotal.WithLabelValues(string(s.kind), "error").Inc()
	h.logger.Warn().Err(err).Str("kind", string(s.kind)).Msg("local test failed")
	h.emitState(s.kind, StateErrored, err)
	if serr := h.stop(s); serr != nil {
		h.logger.Warn().Err(serr).Str("kind", string(s.kind)).Msg("stop after failure was not clean")
	}
	return err
}

// activateAudio wires the track into an analyser and starts metering. The
// caller holds s.mu.
func (h *Harness) activateAudio(s *session, t Track, gen uint64) error {
	at, ok := t.(AudioTrack)
	if !ok {
		return fmt.Errorf("track of kind %s cannot be metered", t.Kind())
	}
	a := NewAnalyser()
	if err := at.Connect(a); err != nil {
		_ = a.Close()
		return fmt.Errorf("failed to connect analyser: %w", err)
	}
	s.analyser = a
	s.loop = schedule.Every(h.meterInterval, func() bool {
		return h.meter(s, gen)
	})
	return nil
}

// activateVideo attaches the track to the preview sink. The caller holds
// s.mu.
func (h *Harness) activateVideo(s *session, t Track, _ uint64) error {
	if err := h.preview.Attach(t); err != nil {
		return fmt.Errorf("failed to attach preview: %w", err)
	}
	s.previewing = true
	return nil
}

// meter samples the level once. It keeps the loop alive only while the
// session that started it is still running.
func (h *Harness) meter(s *session, gen uint64) bool {
	s.mu.Lock()
	if s.state != StateRunning || s.generation != gen {
		s.mu.Unlock()
		return false
	}
	a := s.analyser
	s.mu.Unlock()

	level, err := a.Level()
	if err != nil {
		s.mu.Lock()
		current := s.state == StateRunning && s.generation == gen
		if current {
			s.state = StateErrored
		}
		s.mu.Unlock()
		if current {
			_ = h.abort(s, fmt.Errorf("metering failed: %w", err))
		}
		return false
	}

	s.setLevel(level)
	testAudioLevel.Set(level)
	h.emit(Event{Type: EventLevel, Kind: s.kind, State: StateRunning, Level: level})
	return true
}

// stop is the unconditional, idempotent stop path. Tracks are released
// first; every later step runs even if an earlier one fails or panics.
func (h *Harness) stop(s *session) error {
	s.mu.Lock()
	if s.idle() {
		s.mu.Unlock()
		return nil
	}
	r := s.detach()
	s.mu.Unlock()

	h.emitState(s.kind, StateStopping, nil)

	var errs []error
	for _, t := range r.tracks {
		errs = append(errs, safeStep("release track", t.Stop))
		liveCaptureHandles.WithLabelValues(string(s.kind)).Dec()
	}
	if r.analyser != nil {
		errs = append(errs, safeStep("close analyser", r.analyser.Close))
	}
	if r.loop != nil {
		errs = append(errs, safeStep("cancel metering", func() error {
			r.loop.Cancel()
			return nil
		}))
	}
	if r.previewing {
		errs = append(errs, safeStep("detach preview", h.preview.Detach))
	}

	s.mu.Lock()
	reset := s.generation == r.generation && s.state == StateStopping
	if reset {
		s.state = StateIdle
	}
	s.mu.Unlock()
	s.setLevel(0)

	testSessionsTotal.WithLabelValues(string(s.kind), "stop").Inc()
	h.logger.Info().Str("kind", string(s.kind)).Int("released", len(r.tracks)).Msg("local test stopped")
	if reset {
		h.emitState(s.kind, StateIdle, nil)
	}
	if r.announced {
		h.remoteHook().TestStopped(s.kind)
	}
	return errors.Join(errs...)
}

func safeStep(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", name, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
