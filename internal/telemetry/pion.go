package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
)

type counterSample struct {
	count     uint64
	timestamp webrtc.StatsTimestamp
}

// counterRate returns the per-millisecond change of a monotonic counter,
// multiplied by scale. It is zero until a key has two samples.
type counterRate func(key string, count uint64, ts webrtc.StatsTimestamp, scale float64) float64

const (
	// bits per millisecond == kbps
	scaleKbps = 8
	// frames per millisecond * 1000 == fps
	scalePerSecond = 1000
)

// ReportConverter turns pion stats reports into MediaStats. It keeps the
// previous byte and frame counters per stream so that bitrates and frame
// rates can be derived from consecutive reports.
type ReportConverter struct {
	mu   sync.Mutex
	prev map[string]counterSample
}

// NewReportConverter creates a converter with no history.
func NewReportConverter() *ReportConverter {
	return &ReportConverter{prev: make(map[string]counterSample)}
}

// Convert builds a snapshot from report. The first report of a stream yields
// a zero bitrate and, for inbound video, a zero frame rate.
func (c *ReportConverter) Convert(report webrtc.StatsReport) MediaStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return convertReport(report, c.rate)
}

func (c *ReportConverter) rate(key string, count uint64, ts webrtc.StatsTimestamp, scale float64) float64 {
	prev, ok := c.prev[key]
	c.prev[key] = counterSample{count: count, timestamp: ts}
	if !ok || ts <= prev.timestamp || count < prev.count {
		return 0
	}
	elapsedMs := float64(ts - prev.timestamp)
	return float64(count-prev.count) * scale / elapsedMs
}

// FromStatsReport converts a single report without history. Bitrates and
// the inbound frame rate are zero.
func FromStatsReport(report webrtc.StatsReport) MediaStats {
	return convertReport(report, func(string, uint64, webrtc.StatsTimestamp, float64) float64 { return 0 })
}

func convertReport(report webrtc.StatsReport, rate counterRate) MediaStats {
	var (
		out       MediaStats
		pairRTTMs float64
		rtt       = make(map[string]float64, 2)
	)

	for id, stat := range report {
		switch s := stat.(type) {
		case webrtc.InboundRTPStreamStats:
			applyInbound(&out, id, s, rate)
		case *webrtc.InboundRTPStreamStats:
			applyInbound(&out, id, *s, rate)
		case webrtc.RemoteInboundRTPStreamStats:
			applyRemoteInbound(&out, s, rtt)
		case *webrtc.RemoteInboundRTPStreamStats:
			applyRemoteInbound(&out, *s, rtt)
		case webrtc.OutboundRTPStreamStats:
			applyOutbound(&out, id, s, rate)
		case *webrtc.OutboundRTPStreamStats:
			applyOutbound(&out, id, *s, rate)
		case webrtc.AudioSourceStats:
			out.Audio.InputLevel = levelPercent(s.AudioLevel)
		case *webrtc.AudioSourceStats:
			out.Audio.InputLevel = levelPercent(s.AudioLevel)
		case webrtc.ICECandidatePairStats:
			if s.Nominated && s.CurrentRoundTripTime > 0 {
				pairRTTMs = s.CurrentRoundTripTime * 1000
			}
		case *webrtc.ICECandidatePairStats:
			if s.Nominated && s.CurrentRoundTripTime > 0 {
				pairRTTMs = s.CurrentRoundTripTime * 1000
			}
		}
	}

	// One-way latency is half the round trip. The transport pair stands in
	// for streams without receiver reports.
	out.Audio.Latency = pairRTTMs / 2
	if v, ok := rtt["audio"]; ok {
		out.Audio.Latency = v * 1000 / 2
	}
	out.Video.Latency = pairRTTMs / 2
	if v, ok := rtt["video"]; ok {
		out.Video.Latency = v * 1000 / 2
	}

	out.CollectedAt = time.Now()
	return out
}

func applyInbound(out *MediaStats, id string, s webrtc.InboundRTPStreamStats, rate counterRate) {
	switch s.Kind {
	case "audio":
		out.Audio.PacketsLost += int64(s.PacketsLost)
		out.Audio.Jitter = s.Jitter * 1000
		out.Audio.OutputLevel = levelPercent(s.AudioLevel)
		out.Audio.Bitrate += rate(id, s.BytesReceived, s.Timestamp, scaleKbps)
	case "video":
		out.Video.PacketsLost += int64(s.PacketsLost)
		if fps := rate(id+"/frames", uint64(s.FramesDecoded), s.Timestamp, scalePerSecond); fps > 0 {
			out.Video.FrameRate = fps
		}
		out.Video.DroppedFrames += int64(s.FramesDropped)
		if s.FrameWidth > 0 && s.FrameHeight > 0 {
			out.Video.Resolution = fmt.Sprintf("%dx%d", s.FrameWidth, s.FrameHeight)
		}
		out.Video.Bitrate += rate(id, s.BytesReceived, s.Timestamp, scaleKbps)
	}
}

func applyRemoteInbound(out *MediaStats, s webrtc.RemoteInboundRTPStreamStats, rtt map[string]float64) {
	switch s.Kind {
	case "audio":
		out.Audio.PacketsLost += int64(s.PacketsLost)
	case "video":
		out.Video.PacketsLost += int64(s.PacketsLost)
	default:
		return
	}
	if s.RoundTripTime > 0 {
		rtt[s.Kind] = s.RoundTripTime
	}
}

func applyOutbound(out *MediaStats, id string, s webrtc.OutboundRTPStreamStats, rate counterRate) {
	switch s.Kind {
	case "audio":
		out.Audio.Bitrate += rate(id, s.BytesSent, s.Timestamp, scaleKbps)
	case "video":
		out.Video.Bitrate += rate(id, s.BytesSent, s.Timestamp, scaleKbps)
		if out.Video.FrameRate == 0 {
			out.Video.FrameRate = s.FramesPerSecond
		}
		if out.Video.Resolution == "" && s.FrameWidth > 0 && s.FrameHeight > 0 {
			out.Video.Resolution = fmt.Sprintf("%dx%d", s.FrameWidth, s.FrameHeight)
		}
	}
}

// levelPercent maps a pion audio level (0..1) to 0-100.
func levelPercent(level float64) float64 {
	if level <= 0 {
		return 0
	}
	if level >= 1 {
		return 100
	}
	return level * 100
}
