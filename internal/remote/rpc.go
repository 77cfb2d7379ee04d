package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/logging"
	"github.com/smartpc/mediactl/internal/settings"
	"github.com/smartpc/mediactl/internal/telemetry"
)

const jsonrpcVersion = "2.0"

// MessageChannel is the transport of the RPC adapter. *webrtc.DataChannel
// satisfies it.
type MessageChannel interface {
	SendText(s string) error
	OnMessage(f func(msg webrtc.DataChannelMessage))
}

// RPCError is an error object returned by the remote session.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      string      `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      string          `json:"id"`
}

// RPCAdapter implements Adapter with JSON-RPC 2.0 requests over a message
// channel. Responses are matched to requests by id.
type RPCAdapter struct {
	ch     MessageChannel
	logger *zerolog.Logger

	mu      sync.Mutex
	pending map[string]chan rpcResponse
	closed  bool
}

var _ Adapter = (*RPCAdapter)(nil)

// NewRPCAdapter starts reading responses from ch.
func NewRPCAdapter(ch MessageChannel) *RPCAdapter {
	a := &RPCAdapter{
		ch:      ch,
		logger:  logging.GetSubsystemLogger("rpc"),
		pending: make(map[string]chan rpcResponse),
	}
	ch.OnMessage(a.handleMessage)
	return a
}

// Close fails every pending call with ErrAdapterUnavailable and rejects new
// ones.
func (a *RPCAdapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	for id, ch := range a.pending {
		close(ch)
		delete(a.pending, id)
	}
	rpcPendingCalls.Set(0)
}

func (a *RPCAdapter) handleMessage(msg webrtc.DataChannelMessage) {
	var resp rpcResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		a.logger.Warn().Err(err).Msg("failed to decode rpc message")
		return
	}
	if resp.ID == "" {
		a.logger.Trace().RawJSON("message", msg.Data).Msg("ignoring rpc notification")
		return
	}

	a.mu.Lock()
	ch, ok := a.pending[resp.ID]
	delete(a.pending, resp.ID)
	if ok {
		rpcPendingCalls.Dec()
	}
	a.mu.Unlock()

	if !ok {
		a.logger.Warn().Str("id", resp.ID).Msg("received response without prior request")
		return
	}
	ch <- resp
}

func (a *RPCAdapter) call(ctx context.Context, method string, params, result interface{}) error {
	id := uuid.NewString()
	req, err := json.Marshal(rpcRequest{JSONRPC: jsonrpcVersion, Method: method, Params: params, ID: id})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	// buffered so a late response never blocks the reader
	wait := make(chan rpcResponse, 1)
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrAdapterUnavailable
	}
	a.pending[id] = wait
	rpcPendingCalls.Inc()
	a.mu.Unlock()

	if err := a.ch.SendText(string(req)); err != nil {
		a.forget(id)
		return fmt.Errorf("failed to send %s request: %w", method, err)
	}

	select {
	case resp, ok := <-wait:
		if !ok {
			return ErrAdapterUnavailable
		}
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		a.forget(id)
		return ctx.Err()
	}
}

func (a *RPCAdapter) forget(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.pending[id]; ok {
		delete(a.pending, id)
		rpcPendingCalls.Dec()
	}
}

type enabledParams struct {
	Enabled bool `json:"enabled"`
}

type deviceParams struct {
	DeviceID string `json:"deviceId"`
}

type volumeParams struct {
	Volume int `json:"volume"`
}

func (a *RPCAdapter) SetAudioEnabled(ctx context.Context, enabled bool) error {
	return a.call(ctx, "setAudioEnabled", enabledParams{enabled}, nil)
}

func (a *RPCAdapter) SetAudioInputDevice(ctx context.Context, deviceID string) error {
	return a.call(ctx, "setAudioInputDevice", deviceParams{deviceID}, nil)
}

func (a *RPCAdapter) SetAudioOutputDevice(ctx context.Context, deviceID string) error {
	return a.call(ctx, "setAudioOutputDevice", deviceParams{deviceID}, nil)
}

func (a *RPCAdapter) SetAudioInputVolume(ctx context.Context, volume int) error {
	return a.call(ctx, "setAudioInputVolume", volumeParams{volume}, nil)
}

func (a *RPCAdapter) SetAudioOutputVolume(ctx context.Context, volume int) error {
	return a.call(ctx, "setAudioOutputVolume", volumeParams{volume}, nil)
}

func (a *RPCAdapter) SetAudioSettings(ctx context.Context, s settings.AudioSettings) error {
	return a.call(ctx, "setAudioSettings", s, nil)
}

func (a *RPCAdapter) SetVideoEnabled(ctx context.Context, enabled bool) error {
	return a.call(ctx, "setVideoEnabled", enabledParams{enabled}, nil)
}

func (a *RPCAdapter) SetVideoDevice(ctx context.Context, deviceID string) error {
	return a.call(ctx, "setVideoDevice", deviceParams{deviceID}, nil)
}

func (a *RPCAdapter) SetVideoSettings(ctx context.Context, s settings.VideoSettings) error {
	return a.call(ctx, "setVideoSettings", s, nil)
}

func (a *RPCAdapter) SetHighContrast(ctx context.Context, enabled bool) error {
	return a.call(ctx, "setHighContrast", enabledParams{enabled}, nil)
}

func (a *RPCAdapter) SetMagnification(ctx context.Context, percent int) error {
	return a.call(ctx, "setMagnification", map[string]int{"level": percent}, nil)
}

func (a *RPCAdapter) SetCursorSize(ctx context.Context, size settings.CursorSize) error {
	return a.call(ctx, "setCursorSize", map[string]settings.CursorSize{"size": size}, nil)
}

func (a *RPCAdapter) EnableScreenReader(ctx context.Context) error {
	return a.call(ctx, "enableScreenReader", nil, nil)
}

func (a *RPCAdapter) DisableScreenReader(ctx context.Context) error {
	return a.call(ctx, "disableScreenReader", nil, nil)
}

func (a *RPCAdapter) SetSpeechSettings(ctx context.Context, p SpeechParams) error {
	return a.call(ctx, "setSpeechSettings", p, nil)
}

func (a *RPCAdapter) SetCaptions(ctx context.Context, enabled bool, size settings.CaptionSize) error {
	return a.call(ctx, "setCaptions", struct {
		Enabled bool                 `json:"enabled"`
		Size    settings.CaptionSize `json:"size"`
	}{enabled, size}, nil)
}

func (a *RPCAdapter) SetStickyKeys(ctx context.Context, enabled bool) error {
	return a.call(ctx, "setStickyKeys", enabledParams{enabled}, nil)
}

func (a *RPCAdapter) SetMouseKeys(ctx context.Context, enabled bool) error {
	return a.call(ctx, "setMouseKeys", enabledParams{enabled}, nil)
}

func (a *RPCAdapter) SetDwellClick(ctx context.Context, enabled bool, dwellMs int) error {
	return a.call(ctx, "setDwellClick", struct {
		Enabled   bool `json:"enabled"`
		DwellTime int  `json:"dwellTime"`
	}{enabled, dwellMs}, nil)
}

func (a *RPCAdapter) SetVoiceControl(ctx context.Context, enabled bool) error {
	return a.call(ctx, "setVoiceControl", enabledParams{enabled}, nil)
}

func (a *RPCAdapter) SetFocusMode(ctx context.Context, enabled bool) error {
	return a.call(ctx, "setFocusMode", enabledParams{enabled}, nil)
}

func (a *RPCAdapter) SetSessionTimeout(ctx context.Context, minutes int) error {
	return a.call(ctx, "setSessionTimeout", map[string]int{"minutes": minutes}, nil)
}

func (a *RPCAdapter) SetGuidedNavigation(ctx context.Context, enabled bool) error {
	return a.call(ctx, "setGuidedNavigation", enabledParams{enabled}, nil)
}

func (a *RPCAdapter) LoadAccessibilityProfile(ctx context.Context, profileID string) error {
	return a.call(ctx, "loadAccessibilityProfile", map[string]string{"profileId": profileID}, nil)
}

func (a *RPCAdapter) SaveAccessibilityProfile(ctx context.Context, p ProfilePayload) error {
	return a.call(ctx, "saveAccessibilityProfile", p, nil)
}

func (a *RPCAdapter) GetMediaStats(ctx context.Context) (telemetry.MediaStats, error) {
	var stats telemetry.MediaStats
	if err := a.call(ctx, "getMediaStats", nil, &stats); err != nil {
		return telemetry.MediaStats{}, err
	}
	return stats, nil
}

func (a *RPCAdapter) StartAudioTest(ctx context.Context) error {
	return a.call(ctx, "startAudioTest", nil, nil)
}

func (a *RPCAdapter) StopAudioTest(ctx context.Context) error {
	return a.call(ctx, "stopAudioTest", nil, nil)
}

func (a *RPCAdapter) StartVideoTest(ctx context.Context) error {
	return a.call(ctx, "startVideoTest", nil, nil)
}

func (a *RPCAdapter) StopVideoTest(ctx context.Context) error {
	return a.call(ctx, "stopVideoTest", nil, nil)
}
