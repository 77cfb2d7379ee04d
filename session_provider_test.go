package mediactl

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartpc/mediactl/internal/remote"
)

type fakeSession struct {
	connected bool
	closed    atomic.Int32
}

func (s *fakeSession) IsConnected() bool { return s.connected }

func (s *fakeSession) Adapter() remote.Adapter {
	if !s.connected {
		return nil
	}
	return remote.NopAdapter{}
}

func (s *fakeSession) Close() error {
	s.closed.Add(1)
	return nil
}

func TestSessionProviderEmpty(t *testing.T) {
	var p SessionProvider
	assert.False(t, p.IsConnected())
	assert.Nil(t, p.Adapter())
}

func TestSessionProviderSetAndClear(t *testing.T) {
	var p SessionProvider
	first := &fakeSession{connected: true}
	second := &fakeSession{connected: true}

	assert.Nil(t, p.Set(first))
	assert.True(t, p.IsConnected())
	assert.NotNil(t, p.Adapter())

	assert.Nil(t, p.Set(first), "setting the current session again replaces nothing")
	assert.Equal(t, remoteSession(first), p.Set(second))

	assert.False(t, p.Clear(first), "a replaced session cannot clear its successor")
	assert.True(t, p.IsConnected())

	assert.True(t, p.Clear(second))
	assert.False(t, p.IsConnected())
	assert.Nil(t, p.Adapter())
}

func TestSessionProviderNotConnected(t *testing.T) {
	var p SessionProvider
	p.Set(&fakeSession{connected: false})
	assert.False(t, p.IsConnected())
	assert.Nil(t, p.Adapter())
}

func TestAppSessionLifecycle(t *testing.T) {
	app := newTestApp(t)
	first := &fakeSession{connected: true}
	second := &fakeSession{connected: true}

	app.onSessionReady(first)
	assert.True(t, app.dispatcher.IsConnected())
	assert.True(t, app.poller.Running())

	app.onSessionReady(second)
	assert.Equal(t, int32(1), first.closed.Load(), "the replaced session is closed")

	app.onSessionClosed(first)
	assert.True(t, app.poller.Running(), "a stale close leaves the current session alone")

	app.onSessionClosed(second)
	assert.False(t, app.dispatcher.IsConnected())
	assert.False(t, app.poller.Running())
}
