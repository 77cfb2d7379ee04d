package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	connected atomic.Bool
	calls     atomic.Int64
	delay     time.Duration
	err       error

	mu    sync.Mutex
	stats MediaStats
}

func newFakeSource(connected bool) *fakeSource {
	s := &fakeSource{}
	s.connected.Store(connected)
	return s
}

func (s *fakeSource) IsConnected() bool { return s.connected.Load() }

func (s *fakeSource) GetMediaStats(ctx context.Context) (MediaStats, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return MediaStats{}, ctx.Err()
		}
	}
	if s.err != nil {
		return MediaStats{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, nil
}

func TestDeriveHealthScore(t *testing.T) {
	tests := []struct {
		name     string
		latency  float64
		lost     int64
		expected HealthScore
	}{
		{"idle link", 0, 0, HealthExcellent},
		{"fast with no loss", 49, 0, HealthExcellent},
		{"fast with one loss", 10, 1, HealthGood},
		{"latency at excellent bound", 50, 0, HealthGood},
		{"good bound", 99, 4, HealthGood},
		{"fair by latency", 100, 0, HealthFair},
		{"fair by loss", 20, 5, HealthFair},
		{"fair bound", 199, 9, HealthFair},
		{"poor by latency", 200, 0, HealthPoor},
		{"poor by loss", 10, 10, HealthPoor},
		{"poor both", 250, 12, HealthPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveHealthScore(tt.latency, tt.lost))
		})
	}
}

func TestDeriveHealthScoreMonotonic(t *testing.T) {
	latencies := []float64{0, 10, 49, 50, 75, 99, 100, 150, 199, 200, 500}
	losses := []int64{0, 1, 4, 5, 9, 10, 50}

	for i, lat := range latencies {
		for j, lost := range losses {
			score := DeriveHealthScore(lat, lost)
			if i+1 < len(latencies) {
				assert.GreaterOrEqual(t, DeriveHealthScore(latencies[i+1], lost), score,
					"latency %v -> %v with loss %d", lat, latencies[i+1], lost)
			}
			if j+1 < len(losses) {
				assert.GreaterOrEqual(t, DeriveHealthScore(lat, losses[j+1]), score,
					"loss %d -> %d with latency %v", lost, losses[j+1], lat)
			}
		}
	}
}

func TestHealthOf(t *testing.T) {
	s := MediaStats{
		Audio: AudioStats{Latency: 20, PacketsLost: 2},
		Video: VideoStats{Latency: 60, PacketsLost: 2},
	}
	// avg 40ms, 4 lost
	assert.Equal(t, HealthGood, HealthOf(s))
}

func TestHealthScoreText(t *testing.T) {
	b, err := json.Marshal(map[string]HealthScore{"health": HealthFair})
	require.NoError(t, err)
	assert.JSONEq(t, `{"health":"Fair"}`, string(b))

	var h HealthScore
	require.NoError(t, h.UnmarshalText([]byte("Excellent")))
	assert.Equal(t, HealthExcellent, h)
	assert.Error(t, h.UnmarshalText([]byte("Great")))
}

func TestPollerDoesNotStartWithoutConnection(t *testing.T) {
	src := newFakeSource(false)
	p := NewPoller(src, 10*time.Millisecond)

	assert.False(t, p.Start())
	assert.False(t, p.Running())
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, src.calls.Load())
}

func TestPollerAppliesSnapshots(t *testing.T) {
	src := newFakeSource(true)
	src.stats = MediaStats{
		Audio: AudioStats{Latency: 10},
		Video: VideoStats{Latency: 10, Resolution: "1280x720"},
	}
	p := NewPoller(src, 10*time.Millisecond)
	defer func() {
		p.Stop()
		p.Wait()
	}()

	var updates atomic.Int64
	p.OnUpdate(func(s MediaStats, h HealthScore) {
		assert.Equal(t, HealthExcellent, h)
		updates.Add(1)
	})

	require.True(t, p.Start())
	assert.False(t, p.Start())

	assert.Eventually(t, func() bool { return updates.Load() >= 2 }, time.Second, 5*time.Millisecond)
	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, "1280x720", latest.Video.Resolution)
	assert.False(t, latest.CollectedAt.IsZero())

	health, ok := p.Health()
	require.True(t, ok)
	assert.Equal(t, HealthExcellent, health)
}

func TestPollerStopsAfterDisconnect(t *testing.T) {
	const interval = 20 * time.Millisecond
	src := newFakeSource(true)
	p := NewPoller(src, interval)
	defer p.Stop()

	require.True(t, p.Start())
	assert.Eventually(t, func() bool { return p.PollCount() >= 2 }, time.Second, 5*time.Millisecond)

	src.connected.Store(false)
	// the tick already running may still issue one fetch
	time.Sleep(interval + interval/2)
	count := p.PollCount()

	time.Sleep(2 * interval)
	assert.Equal(t, count, p.PollCount())
	assert.Equal(t, count, src.calls.Load())
	assert.False(t, p.Running())
}

func TestPollerStopCancelsEverything(t *testing.T) {
	const interval = 10 * time.Millisecond
	src := newFakeSource(true)
	src.delay = time.Hour
	p := NewPoller(src, interval)

	var updates atomic.Int64
	p.OnUpdate(func(MediaStats, HealthScore) { updates.Add(1) })

	require.True(t, p.Start())
	assert.Eventually(t, func() bool { return p.PollCount() >= 1 }, time.Second, time.Millisecond)
	p.Stop()
	p.Wait()

	count := p.PollCount()
	time.Sleep(3 * interval)
	assert.Equal(t, count, p.PollCount())
	assert.Zero(t, updates.Load())
	_, ok := p.Latest()
	assert.False(t, ok)
}

func TestPollerSupersedesSlowFetch(t *testing.T) {
	const interval = 10 * time.Millisecond
	src := newFakeSource(true)
	src.delay = time.Hour
	p := NewPoller(src, interval)

	require.True(t, p.Start())
	assert.Eventually(t, func() bool { return p.PollCount() >= 4 }, time.Second, time.Millisecond)
	p.Stop()
	p.Wait()

	// each tick cancelled the fetch before it
	assert.GreaterOrEqual(t, src.calls.Load(), int64(4))
	_, ok := p.Latest()
	assert.False(t, ok)
}

func TestPollerIgnoresFetchErrors(t *testing.T) {
	src := newFakeSource(true)
	src.err = errors.New("adapter unavailable")
	p := NewPoller(src, 10*time.Millisecond)
	defer p.Stop()

	require.True(t, p.Start())
	assert.Eventually(t, func() bool { return p.PollCount() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, p.Running())
	_, ok := p.Latest()
	assert.False(t, ok)
}

func TestFromStatsReport(t *testing.T) {
	report := webrtc.StatsReport{
		"in-audio": webrtc.InboundRTPStreamStats{
			Kind:        "audio",
			PacketsLost: 3,
			Jitter:      0.012,
			AudioLevel:  0.5,
		},
		"in-video": webrtc.InboundRTPStreamStats{
			Kind:          "video",
			PacketsLost:   1,
			FramesDecoded: 300,
			FramesDropped: 4,
			FrameWidth:    1920,
			FrameHeight:   1080,
		},
		"remote-audio": webrtc.RemoteInboundRTPStreamStats{
			Kind:          "audio",
			PacketsLost:   2,
			RoundTripTime: 0.080,
		},
		"pair": webrtc.ICECandidatePairStats{
			Nominated:            true,
			CurrentRoundTripTime: 0.100,
		},
		"source": &webrtc.AudioSourceStats{AudioLevel: 0.25},
	}

	s := FromStatsReport(report)
	assert.EqualValues(t, 5, s.Audio.PacketsLost)
	assert.InDelta(t, 12, s.Audio.Jitter, 1e-9)
	assert.InDelta(t, 50, s.Audio.OutputLevel, 1e-9)
	assert.InDelta(t, 25, s.Audio.InputLevel, 1e-9)
	assert.InDelta(t, 40, s.Audio.Latency, 1e-9)
	assert.InDelta(t, 50, s.Video.Latency, 1e-9)
	assert.EqualValues(t, 1, s.Video.PacketsLost)
	assert.EqualValues(t, 4, s.Video.DroppedFrames)
	assert.Equal(t, "1920x1080", s.Video.Resolution)
	// no history, so no rates
	assert.Zero(t, s.Video.FrameRate)
	assert.Zero(t, s.Audio.Bitrate)
}

func TestReportConverterBitrate(t *testing.T) {
	c := NewReportConverter()
	first := webrtc.StatsReport{
		"out-video": webrtc.OutboundRTPStreamStats{Kind: "video", BytesSent: 0, Timestamp: 1000},
	}
	second := webrtc.StatsReport{
		"out-video": webrtc.OutboundRTPStreamStats{Kind: "video", BytesSent: 125000, Timestamp: 2000},
	}

	assert.Zero(t, c.Convert(first).Video.Bitrate)
	// 125000 bytes in 1000ms is 1000 kbps
	assert.InDelta(t, 1000, c.Convert(second).Video.Bitrate, 1e-9)
}

func TestReportConverterInboundFrameRate(t *testing.T) {
	c := NewReportConverter()
	report := func(frames uint32, ts webrtc.StatsTimestamp) webrtc.StatsReport {
		return webrtc.StatsReport{
			"in-video": webrtc.InboundRTPStreamStats{Kind: "video", FramesDecoded: frames, Timestamp: ts},
		}
	}

	assert.Zero(t, c.Convert(report(100, 1000)).Video.FrameRate)
	// 30 frames in 1000ms
	assert.InDelta(t, 30, c.Convert(report(130, 2000)).Video.FrameRate, 1e-9)
	// 12 frames in 500ms
	assert.InDelta(t, 24, c.Convert(report(142, 2500)).Video.FrameRate, 1e-9)
}

func TestReportConverterOutboundFrameRateFallback(t *testing.T) {
	c := NewReportConverter()
	s := c.Convert(webrtc.StatsReport{
		"out-video": webrtc.OutboundRTPStreamStats{Kind: "video", FramesPerSecond: 25, Timestamp: 1000},
	})
	assert.InDelta(t, 25, s.Video.FrameRate, 1e-9)
}
