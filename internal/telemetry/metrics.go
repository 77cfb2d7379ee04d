package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionLatencyMs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediactl_session_latency_milliseconds",
			Help: "Latest one-way latency reported by the remote session",
		},
		[]string{"kind"},
	)

	sessionJitterMs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediactl_session_audio_jitter_milliseconds",
			Help: "Latest audio jitter reported by the remote session",
		},
	)

	sessionPacketsLost = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediactl_session_packets_lost",
			Help: "Packets lost as of the latest snapshot",
		},
		[]string{"kind"},
	)

	sessionBitrateKbps = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediactl_session_bitrate_kbps",
			Help: "Latest bitrate reported by the remote session",
		},
		[]string{"kind"},
	)

	sessionFrameRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediactl_session_video_frame_rate",
			Help: "Latest video frame rate reported by the remote session",
		},
	)

	sessionDroppedFrames = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediactl_session_video_dropped_frames",
			Help: "Dropped video frames as of the latest snapshot",
		},
	)

	sessionHealthScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediactl_session_health_score",
			Help: "Session health (0 excellent, 1 good, 2 fair, 3 poor)",
		},
	)

	statsPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediactl_stats_polls_total",
			Help: "Statistics polls by outcome",
		},
		[]string{"result"},
	)
)

func recordSnapshot(s MediaStats, h HealthScore) {
	sessionLatencyMs.WithLabelValues("audio").Set(s.Audio.Latency)
	sessionLatencyMs.WithLabelValues("video").Set(s.Video.Latency)
	sessionJitterMs.Set(s.Audio.Jitter)
	sessionPacketsLost.WithLabelValues("audio").Set(float64(s.Audio.PacketsLost))
	sessionPacketsLost.WithLabelValues("video").Set(float64(s.Video.PacketsLost))
	sessionBitrateKbps.WithLabelValues("audio").Set(s.Audio.Bitrate)
	sessionBitrateKbps.WithLabelValues("video").Set(s.Video.Bitrate)
	sessionFrameRate.Set(s.Video.FrameRate)
	sessionDroppedFrames.Set(float64(s.Video.DroppedFrames))
	sessionHealthScore.Set(float64(h))
}
