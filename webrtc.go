package mediactl

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"runtime"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/logging"
	"github.com/smartpc/mediactl/internal/remote"
	"github.com/smartpc/mediactl/internal/telemetry"
)

// Session is one WebRTC connection to the remote machine. The remote side
// opens an "rpc" data channel that carries the accessibility and media
// control calls; media statistics come from the peer connection itself.
type Session struct {
	peerConnection *webrtc.PeerConnection
	RPCChannel     *webrtc.DataChannel
	converter      *telemetry.ReportConverter
	logger         *zerolog.Logger

	mu           sync.Mutex
	rpc          *remote.RPCAdapter
	iceConnected bool
	ready        bool
	closed       bool

	onReady func(*Session)
	onClose func(*Session)
}

type SessionConfig struct {
	ICEServers []string
	ws         *websocket.Conn
	Logger     *zerolog.Logger
	// OnReady runs once ICE is connected and the rpc channel is open.
	OnReady func(*Session)
	// OnClose runs once when the peer connection closes.
	OnClose func(*Session)
}

func (s *Session) ExchangeOffer(offerStr string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(offerStr)
	if err != nil {
		return "", err
	}
	offer := webrtc.SessionDescription{}
	err = json.Unmarshal(b, &offer)
	if err != nil {
		return "", err
	}
	// Set the remote SessionDescription
	if err = s.peerConnection.SetRemoteDescription(offer); err != nil {
		return "", err
	}

	answer, err := s.peerConnection.CreateAnswer(nil)
	if err != nil {
		return "", err
	}

	// Sets the LocalDescription, and starts our UDP listeners
	if err = s.peerConnection.SetLocalDescription(answer); err != nil {
		return "", err
	}

	localDescription, err := json.Marshal(s.peerConnection.LocalDescription())
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(localDescription), nil
}

// AddICECandidate adds a trickled remote candidate.
func (s *Session) AddICECandidate(c webrtc.ICECandidateInit) error {
	return s.peerConnection.AddICECandidate(c)
}

func newSession(config SessionConfig) (*Session, error) {
	webrtcSettingEngine := webrtc.SettingEngine{
		LoggerFactory: logging.GetPionDefaultLoggerFactory(),
	}

	var scopedLogger *zerolog.Logger
	if config.Logger != nil {
		l := config.Logger.With().Str("component", "webrtc").Logger()
		scopedLogger = &l
	} else {
		scopedLogger = webrtcLogger
	}

	var iceServers []webrtc.ICEServer
	if len(config.ICEServers) > 0 {
		iceServers = []webrtc.ICEServer{{URLs: config.ICEServers}}
		scopedLogger.Info().Interface("iceServers", config.ICEServers).Msg("Using configured ICE Servers")
	}

	api := webrtc.NewAPI(webrtc.WithSettingEngine(webrtcSettingEngine))
	peerConnection, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: iceServers,
	})
	if err != nil {
		return nil, err
	}
	session := &Session{
		peerConnection: peerConnection,
		converter:      telemetry.NewReportConverter(),
		logger:         scopedLogger,
		onReady:        config.OnReady,
		onClose:        config.OnClose,
	}

	peerConnection.OnDataChannel(func(d *webrtc.DataChannel) {
		scopedLogger.Info().Str("label", d.Label()).Msg("New DataChannel")
		switch d.Label() {
		case "rpc":
			d.OnOpen(func() {
				session.attachRPC(d)
			})
			d.OnClose(func() {
				scopedLogger.Debug().Msg("rpc channel closed")
				session.detachRPC(d)
			})
		default:
			scopedLogger.Debug().Str("label", d.Label()).Msg("ignoring unknown data channel")
		}
	})

	// Receive the remote machine's media so that inbound statistics exist.
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if _, err := peerConnection.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			_ = peerConnection.Close()
			return nil, err
		}
	}

	peerConnection.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		scopedLogger.Info().Str("codec", track.Codec().MimeType).Str("id", track.ID()).Msg("Got remote track")
		go drainTrack(track, scopedLogger)
	})

	peerConnection.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		scopedLogger.Debug().Interface("candidate", candidate).Msg("WebRTC peerConnection has a new ICE candidate")
		if candidate != nil && config.ws != nil {
			err := wsjson.Write(context.Background(), config.ws, gin.H{"type": "new-ice-candidate", "data": candidate.ToJSON()})
			if err != nil {
				scopedLogger.Warn().Err(err).Msg("failed to write new-ice-candidate to WebRTC signaling channel")
			}
		}
	})

	peerConnection.OnICEConnectionStateChange(func(connectionState webrtc.ICEConnectionState) {
		scopedLogger.Info().Str("connectionState", connectionState.String()).Msg("ICE Connection State has changed")
		switch connectionState {
		case webrtc.ICEConnectionStateConnected:
			session.mu.Lock()
			session.iceConnected = true
			session.mu.Unlock()
			session.maybeReady()
		case webrtc.ICEConnectionStateFailed:
			//state changes on closing browser tab disconnected->failed, we need to manually close it
			scopedLogger.Debug().Msg("ICE Connection State is failed, closing peerConnection")
			_ = session.Close()
		case webrtc.ICEConnectionStateClosed:
			session.teardown()
		}
	})
	return session, nil
}

func (s *Session) attachRPC(d *webrtc.DataChannel) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.rpc != nil {
		s.rpc.Close()
	}
	s.RPCChannel = d
	s.rpc = remote.NewRPCAdapter(d)
	s.mu.Unlock()
	s.logger.Info().Msg("rpc channel open")
	s.maybeReady()
}

func (s *Session) detachRPC(d *webrtc.DataChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RPCChannel != d || s.rpc == nil {
		return
	}
	s.rpc.Close()
	s.rpc = nil
	s.RPCChannel = nil
	// a reopened rpc channel makes the session ready again
	s.ready = false
}

func (s *Session) maybeReady() {
	s.mu.Lock()
	fire := !s.ready && !s.closed && s.iceConnected && s.rpc != nil
	if fire {
		s.ready = true
	}
	onReady := s.onReady
	s.mu.Unlock()

	if fire && onReady != nil {
		onReady(s)
	}
}

func (s *Session) teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.ready = false
	if s.rpc != nil {
		s.rpc.Close()
		s.rpc = nil
	}
	onClose := s.onClose
	s.mu.Unlock()

	s.logger.Info().Msg("session closed")
	if onClose != nil {
		onClose(s)
	}
}

// IsConnected reports whether the session can carry remote calls.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready && !s.closed && s.rpc != nil
}

// Adapter returns the remote capability surface of the session, or nil when
// it is not connected.
func (s *Session) Adapter() remote.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.rpc == nil {
		return nil
	}
	return &sessionAdapter{RPCAdapter: s.rpc, session: s}
}

// Close closes the peer connection. The close callback runs once.
func (s *Session) Close() error {
	err := s.peerConnection.Close()
	s.teardown()
	return err
}

func (s *Session) mediaStats() telemetry.MediaStats {
	return s.converter.Convert(s.peerConnection.GetStats())
}

// sessionAdapter sends control calls over the rpc channel but answers
// statistics from the local peer connection.
type sessionAdapter struct {
	*remote.RPCAdapter
	session *Session
}

func (a *sessionAdapter) GetMediaStats(ctx context.Context) (telemetry.MediaStats, error) {
	if err := ctx.Err(); err != nil {
		return telemetry.MediaStats{}, err
	}
	return a.session.mediaStats(), nil
}

func drainTrack(track *webrtc.TrackRemote, logger *zerolog.Logger) {
	// Lock to OS thread to isolate RTP processing
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		if _, _, err := track.ReadRTP(); err != nil {
			logger.Debug().Err(err).Str("id", track.ID()).Msg("remote track ended")
			return
		}
	}
}
