package mediactl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpc/mediactl/internal/settings"
)

type rawEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialEvents(t *testing.T, app *App) (*websocket.Conn, context.Context) {
	t.Helper()
	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) rawEvent {
	t.Helper()
	var e rawEvent
	require.NoError(t, wsjson.Read(ctx, conn, &e))
	return e
}

func TestEvents_InitialState(t *testing.T) {
	app := newTestApp(t)
	conn, ctx := dialEvents(t, app)

	want := []EventType{
		EventSettingsChanged,
		EventPresentationChanged,
		EventDevicesChanged,
		EventTestStateChanged,
		EventTestStateChanged,
		EventProfileActivated,
		EventVoicesChanged,
	}
	for i, typ := range want {
		e := readEvent(t, ctx, conn)
		assert.Equal(t, typ, e.Type, "event %d", i)

		if typ == EventDevicesChanged {
			var data DevicesData
			require.NoError(t, json.Unmarshal(e.Data, &data))
			assert.Equal(t, testDevices, data.Devices)
		}
	}
	assert.Equal(t, 1, app.events.SubscriberCount())
}

func TestEvents_SettingsChangeIsBroadcast(t *testing.T) {
	app := newTestApp(t)
	conn, ctx := dialEvents(t, app)

	// Drain the initial snapshot.
	for i := 0; i < 7; i++ {
		readEvent(t, ctx, conn)
	}

	app.store.SetHighContrast(true)

	seen := map[EventType]bool{}
	for !seen[EventSettingsChanged] || !seen[EventPresentationChanged] {
		e := readEvent(t, ctx, conn)
		seen[e.Type] = true

		switch e.Type {
		case EventSettingsChanged:
			var data SettingsChangedData
			require.NoError(t, json.Unmarshal(e.Data, &data))
			require.Len(t, data.Fields, 1)
			assert.Equal(t, ChangedField{Slice: settings.SliceVisual, Field: settings.FieldHighContrast}, data.Fields[0])
			assert.True(t, data.Settings.Visual.HighContrast)
		case EventPresentationChanged:
			var attrs map[string]string
			require.NoError(t, json.Unmarshal(e.Data, &attrs))
			assert.Equal(t, "true", attrs["data-high-contrast"])
		}
	}
}

func TestEvents_DisconnectUnsubscribes(t *testing.T) {
	app := newTestApp(t)
	conn, _ := dialEvents(t, app)

	require.Eventually(t, func() bool {
		return app.events.SubscriberCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	assert.Eventually(t, func() bool {
		return app.events.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEvents_BroadcastWithoutSubscribers(t *testing.T) {
	b := NewEventBroadcaster(nil)
	assert.NotPanics(t, func() {
		b.Broadcast(EventAudioLevel, AudioLevelData{Level: 42})
	})
	assert.Equal(t, 0, b.SubscriberCount())
	b.Unsubscribe("missing")
}

func TestEvents_ChangeDuringSnapshotIsDelivered(t *testing.T) {
	var b *EventBroadcaster
	b = NewEventBroadcaster(func() []Event {
		// a change lands while the snapshot is being taken
		b.Broadcast(EventAudioLevel, AudioLevelData{Level: 7})
		return []Event{{Type: EventVoicesChanged, Data: VoicesData{}}}
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := conn.CloseRead(r.Context())
		b.Subscribe("c1", conn, ctx, eventLogger)
		<-ctx.Done()
		b.Unsubscribe("c1")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	assert.Equal(t, EventVoicesChanged, readEvent(t, ctx, conn).Type, "the snapshot comes first")

	e := readEvent(t, ctx, conn)
	require.Equal(t, EventAudioLevel, e.Type)
	var level AudioLevelData
	require.NoError(t, json.Unmarshal(e.Data, &level))
	assert.Equal(t, 7.0, level.Level)
}
