package mediactl

import "github.com/smartpc/mediactl/internal/logging"

var (
	logger       = logging.GetDefaultLogger()
	configLogger = logging.GetSubsystemLogger("config")
	webrtcLogger = logging.GetSubsystemLogger("webrtc")
	eventLogger  = logging.GetSubsystemLogger("events")
	httpLogger   = logging.GetSubsystemLogger("http")
)
