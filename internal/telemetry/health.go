package telemetry

import "fmt"

// HealthScore is the ordinal session quality. Larger values are worse.
type HealthScore int

const (
	HealthExcellent HealthScore = iota
	HealthGood
	HealthFair
	HealthPoor
)

func (h HealthScore) String() string {
	switch h {
	case HealthExcellent:
		return "Excellent"
	case HealthGood:
		return "Good"
	case HealthFair:
		return "Fair"
	default:
		return "Poor"
	}
}

// MarshalText encodes the score by name.
func (h HealthScore) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a score name.
func (h *HealthScore) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Excellent":
		*h = HealthExcellent
	case "Good":
		*h = HealthGood
	case "Fair":
		*h = HealthFair
	case "Poor":
		*h = HealthPoor
	default:
		return fmt.Errorf("unknown health score %q", string(b))
	}
	return nil
}

// Health thresholds. Each level requires both bounds to hold.
const (
	excellentLatencyMs = 50
	goodLatencyMs      = 100
	goodPacketLoss     = 5
	fairLatencyMs      = 200
	fairPacketLoss     = 10
)

// DeriveHealthScore maps average latency and total packet loss to a score.
// Increasing either input never improves the result.
func DeriveHealthScore(avgLatencyMs float64, totalPacketsLost int64) HealthScore {
	switch {
	case avgLatencyMs < excellentLatencyMs && totalPacketsLost == 0:
		return HealthExcellent
	case avgLatencyMs < goodLatencyMs && totalPacketsLost < goodPacketLoss:
		return HealthGood
	case avgLatencyMs < fairLatencyMs && totalPacketsLost < fairPacketLoss:
		return HealthFair
	default:
		return HealthPoor
	}
}

// HealthOf averages audio and video latency and sums their packet loss.
func HealthOf(s MediaStats) HealthScore {
	avg := (s.Audio.Latency + s.Video.Latency) / 2
	return DeriveHealthScore(avg, s.Audio.PacketsLost+s.Video.PacketsLost)
}
