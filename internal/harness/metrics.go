package harness

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	liveCaptureHandles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediactl_test_capture_handles",
			Help: "Hardware capture handles currently held by local tests",
		},
		[]string{"kind"},
	)

	testSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediactl_test_sessions_total",
			Help: "Local test transitions by kind and event",
		},
		[]string{"kind", "event"},
	)

	testAudioLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediactl_test_audio_level",
			Help: "Latest metered audio level of the local test",
		},
	)
)
