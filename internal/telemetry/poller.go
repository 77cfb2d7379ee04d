package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/logging"
	"github.com/smartpc/mediactl/internal/schedule"
)

// DefaultPollInterval is the statistics refresh period.
const DefaultPollInterval = time.Second

// Source provides live statistics of the remote session.
type Source interface {
	IsConnected() bool
	GetMediaStats(ctx context.Context) (MediaStats, error)
}

// UpdateFunc receives every applied snapshot.
type UpdateFunc func(MediaStats, HealthScore)

// Poller fetches statistics on a fixed interval while the connection exists.
// A tick that fires while a fetch is still in flight cancels and discards
// that fetch, so at most one request is outstanding.
type Poller struct {
	// Atomic fields first for ARM32 alignment
	pollCount int64

	interval time.Duration
	source   Source
	logger   *zerolog.Logger

	mu          sync.Mutex
	running     bool
	generation  uint64
	loop        *schedule.Loop
	cancelFetch context.CancelFunc
	listeners   []UpdateFunc

	latest atomic.Pointer[MediaStats]
	wg     sync.WaitGroup
}

// NewPoller creates a stopped poller.
func NewPoller(source Source, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		interval: interval,
		source:   source,
		logger:   logging.GetSubsystemLogger("telemetry"),
	}
}

// Start begins polling. It reports false when the poller is already running
// or no connection exists.
func (p *Poller) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return false
	}
	if !p.source.IsConnected() {
		p.logger.Debug().Msg("no remote connection, polling not started")
		return false
	}
	p.running = true
	p.generation++
	p.loop = schedule.Every(p.interval, p.tick)
	p.logger.Info().Dur("interval", p.interval).Msg("statistics polling started")
	return true
}

// Stop cancels the scheduled tick and any in-flight fetch. Results that
// arrive afterwards are discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	wasRunning := p.running
	p.running = false
	p.generation++
	loop := p.loop
	p.loop = nil
	if p.cancelFetch != nil {
		p.cancelFetch()
		p.cancelFetch = nil
	}
	p.mu.Unlock()

	loop.Cancel()
	if wasRunning {
		p.logger.Info().Msg("statistics polling stopped")
	}
}

// Running reports whether ticks are still scheduled.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Wait blocks until every started fetch has returned.
func (p *Poller) Wait() {
	p.wg.Wait()
}

// PollCount returns how many fetches have been issued.
func (p *Poller) PollCount() int64 {
	return atomic.LoadInt64(&p.pollCount)
}

// Latest returns the most recent snapshot.
func (p *Poller) Latest() (MediaStats, bool) {
	s := p.latest.Load()
	if s == nil {
		return MediaStats{}, false
	}
	return *s, true
}

// Health returns the score of the most recent snapshot.
func (p *Poller) Health() (HealthScore, bool) {
	s, ok := p.Latest()
	if !ok {
		return HealthPoor, false
	}
	return HealthOf(s), true
}

// OnUpdate registers fn for every applied snapshot.
func (p *Poller) OnUpdate(fn UpdateFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Poller) tick() bool {
	if !p.source.IsConnected() {
		p.logger.Info().Msg("remote connection gone, stopping statistics polling")
		p.Stop()
		return false
	}

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return false
	}
	if p.cancelFetch != nil {
		p.cancelFetch()
		statsPollsTotal.WithLabelValues("superseded").Inc()
	}
	p.generation++
	gen := p.generation
	ctx, cancel := context.WithCancel(context.Background())
	p.cancelFetch = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	atomic.AddInt64(&p.pollCount, 1)
	go p.fetch(ctx, cancel, gen)
	return true
}

func (p *Poller) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer p.wg.Done()
	defer cancel()

	stats, err := p.source.GetMediaStats(ctx)

	p.mu.Lock()
	if !p.running || gen != p.generation {
		p.mu.Unlock()
		p.logger.Trace().Uint64("generation", gen).Msg("discarding superseded statistics")
		return
	}
	p.cancelFetch = nil
	if err != nil {
		p.mu.Unlock()
		statsPollsTotal.WithLabelValues("error").Inc()
		p.logger.Debug().Err(err).Msg("failed to fetch media statistics")
		return
	}
	if stats.CollectedAt.IsZero() {
		stats.CollectedAt = time.Now()
	}
	p.latest.Store(&stats)
	listeners := make([]UpdateFunc, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	health := HealthOf(stats)
	statsPollsTotal.WithLabelValues("ok").Inc()
	recordSnapshot(stats, health)
	for _, fn := range listeners {
		fn(stats, health)
	}
}
