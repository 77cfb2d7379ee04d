package mediactl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smartpc/mediactl/internal/devices"
	"github.com/smartpc/mediactl/internal/harness"
	"github.com/smartpc/mediactl/internal/profiles"
	"github.com/smartpc/mediactl/internal/remote"
	"github.com/smartpc/mediactl/internal/settings"
)

type rpcCall struct {
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
}

type signalingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// setupRouter builds the HTTP control surface.
func (a *App) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connected": a.dispatcher.IsConnected()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/events", a.handleEvents)
	r.GET("/ws/signaling", a.handleSignaling)

	api := r.Group("/api")
	{
		api.GET("/settings", a.handleGetSettings)
		api.POST("/settings/rpc", a.handleSettingsCall)
		api.PUT("/settings/audio", a.handleReplaceAudio)
		api.PUT("/settings/video", a.handleReplaceVideo)
		api.GET("/settings/presets/:quality", a.handleQualityPreset)
		api.GET("/presentation", func(c *gin.Context) {
			c.JSON(http.StatusOK, a.presentation.Attributes())
		})

		api.GET("/devices", a.handleGetDevices)
		api.POST("/devices/refresh", a.handleRefreshDevices)

		api.GET("/tests", a.handleGetTests)
		api.POST("/tests/:kind/start", a.handleStartTest)
		api.POST("/tests/:kind/stop", a.handleStopTest)

		api.GET("/stats", a.handleGetStats)

		api.GET("/profiles", a.handleListProfiles)
		api.POST("/profiles", a.handleCreateProfile)
		api.POST("/profiles/:id/activate", a.handleActivateProfile)
		api.DELETE("/profiles/:id", a.handleDeleteProfile)

		api.GET("/voices", a.handleGetVoices)
		api.POST("/voices/preview", a.handlePreviewVoice)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		httpLogger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidParams), errors.Is(err, profiles.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownMethod), errors.Is(err, profiles.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, profiles.ErrBuiltinProfile):
		return http.StatusForbidden
	case errors.Is(err, harness.ErrAcquisition), errors.Is(err, harness.ErrCancelled),
		errors.Is(err, devices.ErrPermissionDenied):
		return http.StatusConflict
	case errors.Is(err, harness.ErrClosed), errors.Is(err, remote.ErrAdapterUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errorStatus(err), gin.H{"error": err.Error()})
}

func (a *App) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.Snapshot())
}

func (a *App) handleSettingsCall(c *gin.Context) {
	var call rpcCall
	if err := c.ShouldBindJSON(&call); err != nil {
		abortWithError(c, errors.Join(ErrInvalidParams, err))
		return
	}
	if call.Params == nil {
		call.Params = map[string]interface{}{}
	}
	if err := handleSettingsRPC(a.store, call.Method, call.Params); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.store.Snapshot())
}

func (a *App) handleReplaceAudio(c *gin.Context) {
	var s settings.AudioSettings
	if err := c.ShouldBindJSON(&s); err != nil {
		abortWithError(c, errors.Join(ErrInvalidParams, err))
		return
	}
	if err := validateAudioSettings(s); err != nil {
		abortWithError(c, err)
		return
	}
	a.store.ReplaceAudio(s)
	c.JSON(http.StatusOK, a.store.Snapshot().Audio)
}

func (a *App) handleReplaceVideo(c *gin.Context) {
	var s settings.VideoSettings
	if err := c.ShouldBindJSON(&s); err != nil {
		abortWithError(c, errors.Join(ErrInvalidParams, err))
		return
	}
	if err := validateVideoSettings(s); err != nil {
		abortWithError(c, err)
		return
	}
	a.store.ReplaceVideo(s)
	c.JSON(http.StatusOK, a.store.Snapshot().Video)
}

func (a *App) handleQualityPreset(c *gin.Context) {
	q := settings.Quality(c.Param("quality"))
	preset, ok := settings.GetQualityPresets()[q]
	if !ok {
		abortWithError(c, errors.Join(ErrInvalidParams, errors.New("unknown quality "+string(q))))
		return
	}
	c.JSON(http.StatusOK, preset)
}

func (a *App) handleGetDevices(c *gin.Context) {
	data := a.devicesData(a.registry.Devices())
	if kind := c.Query("kind"); kind != "" {
		data.Devices = a.registry.ByKind(devices.Kind(kind))
	}
	c.JSON(http.StatusOK, data)
}

func (a *App) handleRefreshDevices(c *gin.Context) {
	list, err := a.registry.Refresh(c.Request.Context())
	if err != nil && !errors.Is(err, devices.ErrPermissionDenied) {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.devicesData(list))
}

func (a *App) handleGetTests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"audio": a.testState(harness.KindAudio),
		"video": a.testState(harness.KindVideo),
		"level": a.harness.AudioLevel(),
	})
}

func (a *App) handleStartTest(c *gin.Context) {
	kind := harness.Kind(c.Param("kind"))
	snap := a.store.Snapshot()
	ctx := c.Request.Context()

	var err error
	switch kind {
	case harness.KindAudio:
		err = a.harness.StartAudioTest(ctx, harness.AudioConstraintsFrom(snap.Audio))
	case harness.KindVideo:
		err = a.harness.StartVideoTest(ctx, harness.VideoConstraintsFrom(snap.Video))
	default:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown test kind " + string(kind)})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.testState(kind))
}

func (a *App) handleStopTest(c *gin.Context) {
	kind := harness.Kind(c.Param("kind"))
	if kind != harness.KindAudio && kind != harness.KindVideo {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown test kind " + string(kind)})
		return
	}
	if err := a.harness.Stop(kind); err != nil {
		// The capture is released even when a step fails.
		httpLogger.Warn().Err(err).Str("kind", string(kind)).Msg("test stop was not clean")
	}
	c.JSON(http.StatusOK, a.testState(kind))
}

func (a *App) handleGetStats(c *gin.Context) {
	stats, ok := a.poller.Latest()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"available": false, "connected": a.dispatcher.IsConnected()})
		return
	}
	health, _ := a.poller.Health()
	c.JSON(http.StatusOK, gin.H{
		"available": true,
		"connected": a.dispatcher.IsConnected(),
		"stats":     stats,
		"health":    health,
	})
}

func (a *App) handleListProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, a.profiles.List())
}

func (a *App) handleCreateProfile(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.Join(ErrInvalidParams, err))
		return
	}
	p, err := a.profiles.CreateCustom(req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (a *App) handleActivateProfile(c *gin.Context) {
	if err := a.profiles.Activate(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.profiles.Active())
}

func (a *App) handleDeleteProfile(c *gin.Context) {
	if err := a.profiles.Delete(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handleGetVoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"loaded": a.voices.Loaded(),
		"voices": a.voices.Voices(),
	})
}

func (a *App) handlePreviewVoice(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	// An empty body previews the default text.
	_ = c.ShouldBindJSON(&req)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	if err := a.voices.Preview(ctx, req.Text, a.store.Snapshot().AudioA11y); err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handleEvents(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		httpLogger.Warn().Err(err).Msg("failed to accept events websocket")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	connectionID := uuid.NewString()
	l := eventLogger.With().Str("connectionID", connectionID).Logger()

	// Nothing is read from this socket; CloseRead ends ctx when the peer goes.
	ctx := conn.CloseRead(c.Request.Context())
	a.events.Subscribe(connectionID, conn, ctx, &l)
	<-ctx.Done()
	a.events.Unsubscribe(connectionID)
}

// handleSignaling runs the WebRTC offer/answer exchange with the remote
// machine. Candidates trickle in both directions as "new-ice-candidate".
func (a *App) handleSignaling(c *gin.Context) {
	wsCon, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		httpLogger.Warn().Err(err).Msg("failed to accept signaling websocket")
		return
	}
	defer wsCon.Close(websocket.StatusNormalClosure, "")

	connectionID := uuid.NewString()
	scopedLogger := webrtcLogger.With().Str("connectionID", connectionID).Logger()
	ctx := c.Request.Context()

	var session *Session
	for {
		var msg signalingMessage
		if err := wsjson.Read(ctx, wsCon, &msg); err != nil {
			scopedLogger.Debug().Err(err).Msg("signaling channel closed")
			return
		}

		switch msg.Type {
		case "offer":
			var req struct {
				SD string `json:"sd"`
			}
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				scopedLogger.Warn().Err(err).Msg("invalid offer")
				continue
			}
			if session != nil {
				_ = session.Close()
			}
			session, err = newSession(SessionConfig{
				ICEServers: a.cfg.ICEServers,
				ws:         wsCon,
				Logger:     &scopedLogger,
				OnReady:    func(s *Session) { a.onSessionReady(s) },
				OnClose:    func(s *Session) { a.onSessionClosed(s) },
			})
			if err != nil {
				scopedLogger.Warn().Err(err).Msg("failed to create session")
				_ = wsjson.Write(ctx, wsCon, gin.H{"type": "error", "data": err.Error()})
				continue
			}
			answer, err := session.ExchangeOffer(req.SD)
			if err != nil {
				scopedLogger.Warn().Err(err).Msg("failed to exchange offer")
				_ = session.Close()
				session = nil
				_ = wsjson.Write(ctx, wsCon, gin.H{"type": "error", "data": err.Error()})
				continue
			}
			if err := wsjson.Write(ctx, wsCon, gin.H{"type": "answer", "data": answer}); err != nil {
				scopedLogger.Warn().Err(err).Msg("failed to send answer")
				return
			}
		case "new-ice-candidate":
			if session == nil {
				scopedLogger.Debug().Msg("candidate before offer, ignoring")
				continue
			}
			var candidate webrtc.ICECandidateInit
			if err := json.Unmarshal(msg.Data, &candidate); err != nil {
				scopedLogger.Warn().Err(err).Msg("invalid ICE candidate")
				continue
			}
			if err := session.AddICECandidate(candidate); err != nil {
				scopedLogger.Warn().Err(err).Msg("failed to add ICE candidate")
			}
		default:
			scopedLogger.Debug().Str("type", msg.Type).Msg("unknown signaling message")
		}
	}
}
