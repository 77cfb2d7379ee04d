// Package telemetry polls live session statistics and derives a qualitative
// health score from them.
package telemetry

import "time"

// AudioStats are the audio counters of a session. Latency and Jitter are in
// milliseconds, Bitrate in kbps, levels in 0-100.
type AudioStats struct {
	InputLevel  float64 `json:"inputLevel"`
	OutputLevel float64 `json:"outputLevel"`
	PacketsLost int64   `json:"packetsLost"`
	Latency     float64 `json:"latency"`
	Jitter      float64 `json:"jitter"`
	Bitrate     float64 `json:"bitrate"`
}

// VideoStats are the video counters of a session.
type VideoStats struct {
	FrameRate     float64 `json:"frameRate"`
	Resolution    string  `json:"resolution"`
	PacketsLost   int64   `json:"packetsLost"`
	Latency       float64 `json:"latency"`
	Bitrate       float64 `json:"bitrate"`
	DroppedFrames int64   `json:"droppedFrames"`
}

// MediaStats is a read-only snapshot. Pollers replace it wholesale and never
// merge two snapshots.
type MediaStats struct {
	Audio       AudioStats `json:"audio"`
	Video       VideoStats `json:"video"`
	CollectedAt time.Time  `json:"collectedAt"`
}
