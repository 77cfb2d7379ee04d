package devices

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	devicesPresent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediactl_devices",
			Help: "Enumerated media devices by kind",
		},
		[]string{"kind"},
	)

	deviceRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediactl_device_refreshes_total",
			Help: "Device list refreshes by result",
		},
		[]string{"result"},
	)
)

func recordDevices(list []Device) {
	counts := map[Kind]int{KindAudioInput: 0, KindAudioOutput: 0, KindVideoInput: 0}
	for _, d := range list {
		counts[d.Kind]++
	}
	for k, n := range counts {
		devicesPresent.WithLabelValues(string(k)).Set(float64(n))
	}
}
