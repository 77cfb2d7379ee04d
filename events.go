package mediactl

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/devices"
	"github.com/smartpc/mediactl/internal/harness"
	"github.com/smartpc/mediactl/internal/profiles"
	"github.com/smartpc/mediactl/internal/settings"
	"github.com/smartpc/mediactl/internal/speech"
	"github.com/smartpc/mediactl/internal/telemetry"
)

// EventType represents the kinds of control surface events
type EventType string

const (
	EventMediaStatsUpdate    EventType = "media-stats-update"
	EventDevicesChanged      EventType = "devices-changed"
	EventTestStateChanged    EventType = "test-state-changed"
	EventAudioLevel          EventType = "audio-level"
	EventPresentationChanged EventType = "presentation-changed"
	EventSettingsChanged     EventType = "settings-changed"
	EventProfileActivated    EventType = "profile-activated"
	EventVoicesChanged       EventType = "voices-changed"
)

// Event represents a WebSocket event
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// MediaStatsData is the payload of EventMediaStatsUpdate
type MediaStatsData struct {
	Stats  telemetry.MediaStats  `json:"stats"`
	Health telemetry.HealthScore `json:"health"`
}

// DevicesData is the payload of EventDevicesChanged. Error is set when the
// last refresh failed and the list is empty because of it.
type DevicesData struct {
	Devices []devices.Device `json:"devices"`
	Error   string           `json:"error,omitempty"`
}

// TestStateData is the payload of EventTestStateChanged
type TestStateData struct {
	Kind    harness.Kind  `json:"kind"`
	State   harness.State `json:"state"`
	Handles int           `json:"handles"`
	Preview string        `json:"preview,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// AudioLevelData is the payload of EventAudioLevel
type AudioLevelData struct {
	Level float64 `json:"level"`
}

// SettingsChangedData is the payload of EventSettingsChanged
type SettingsChangedData struct {
	Fields   []ChangedField    `json:"fields"`
	Settings settings.Settings `json:"settings"`
}

// ChangedField names one applied mutation
type ChangedField struct {
	Slice settings.Slice `json:"slice"`
	Field settings.Field `json:"field"`
}

// ProfileData is the payload of EventProfileActivated
type ProfileData struct {
	Profile profiles.Profile `json:"profile"`
}

// VoicesData is the payload of EventVoicesChanged
type VoicesData struct {
	Voices []speech.Voice `json:"voices"`
}

const (
	eventQueueSize    = 64
	eventWriteTimeout = 5 * time.Second
)

type eventSubscriber struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	queue  chan Event
	logger *zerolog.Logger

	// initial is sent before anything in queue
	initial []Event
}

// EventBroadcaster fans events out to WebSocket subscribers. Every
// subscriber has its own ordered queue; a subscriber that falls behind or
// fails a write is dropped.
type EventBroadcaster struct {
	subscribers *xsync.MapOf[string, *eventSubscriber]
	logger      *zerolog.Logger

	initialState func() []Event
}

// NewEventBroadcaster creates a broadcaster. initialState, if set, produces
// the events every new subscriber receives first.
func NewEventBroadcaster(initialState func() []Event) *EventBroadcaster {
	return &EventBroadcaster{
		subscribers:  xsync.NewMapOf[string, *eventSubscriber](),
		logger:       eventLogger,
		initialState: initialState,
	}
}

// Subscribe adds a WebSocket connection. Delivery stops when ctx is done or
// Unsubscribe is called.
func (b *EventBroadcaster) Subscribe(connectionID string, conn *websocket.Conn, ctx context.Context, logger *zerolog.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &eventSubscriber{
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan Event, eventQueueSize),
		logger: logger,
	}
	if prev, loaded := b.subscribers.LoadAndStore(connectionID, sub); loaded {
		prev.cancel()
	}
	// Snapshot after registering: a change racing the snapshot is queued
	// behind it instead of being missed.
	if b.initialState != nil {
		sub.initial = b.initialState()
	}
	b.logger.Info().Str("connectionID", connectionID).Msg("event subscription added")
	go b.run(connectionID, sub)
}

// Unsubscribe removes a WebSocket connection
func (b *EventBroadcaster) Unsubscribe(connectionID string) {
	if sub, ok := b.subscribers.LoadAndDelete(connectionID); ok {
		sub.cancel()
		b.logger.Info().Str("connectionID", connectionID).Msg("event subscription removed")
	}
}

// SubscriberCount returns the number of live subscribers
func (b *EventBroadcaster) SubscriberCount() int {
	return b.subscribers.Size()
}

// Broadcast queues an event for every subscriber
func (b *EventBroadcaster) Broadcast(t EventType, data interface{}) {
	event := Event{Type: t, Data: data}
	b.subscribers.Range(func(id string, sub *eventSubscriber) bool {
		if !sub.enqueue(event) {
			b.logger.Warn().Str("connectionID", id).Str("type", string(t)).Msg("subscriber queue full, dropping subscriber")
			b.remove(id, sub)
		}
		return true
	})
}

func (s *eventSubscriber) enqueue(e Event) bool {
	select {
	case s.queue <- e:
		return true
	default:
		return false
	}
}

func (b *EventBroadcaster) run(id string, sub *eventSubscriber) {
	for _, event := range sub.initial {
		if !b.sendToSubscriber(sub, event) {
			b.remove(id, sub)
			b.logger.Warn().Str("connectionID", id).Msg("removed failed event subscriber")
			return
		}
	}
	for {
		select {
		case <-sub.ctx.Done():
			b.remove(id, sub)
			return
		case event := <-sub.queue:
			if !b.sendToSubscriber(sub, event) {
				b.remove(id, sub)
				b.logger.Warn().Str("connectionID", id).Msg("removed failed event subscriber")
				return
			}
		}
	}
}

// remove deletes sub unless the id has been taken over by a newer
// subscription.
func (b *EventBroadcaster) remove(id string, sub *eventSubscriber) {
	b.subscribers.Compute(id, func(old *eventSubscriber, loaded bool) (*eventSubscriber, bool) {
		return old, !loaded || old == sub
	})
	sub.cancel()
}

func (b *EventBroadcaster) sendToSubscriber(sub *eventSubscriber, event Event) bool {
	ctx, cancel := context.WithTimeout(sub.ctx, eventWriteTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, sub.conn, event); err != nil {
		sub.logger.Warn().Err(err).Str("type", string(event.Type)).Msg("failed to send event to subscriber")
		return false
	}
	return true
}
