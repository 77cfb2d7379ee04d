package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK      = "ok"
	resultFailed  = "failed"
	resultSkipped = "skipped"
	resultLocal   = "local"
)

var (
	adapterPushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediactl_adapter_pushes_total",
			Help: "Remote pushes by operation and result",
		},
		[]string{"op", "result"},
	)

	adapterPushDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediactl_adapter_push_duration_seconds",
			Help:    "Time spent in remote adapter calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	rpcPendingCalls = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediactl_rpc_pending_calls",
			Help: "JSON-RPC calls waiting for a response",
		},
	)
)
