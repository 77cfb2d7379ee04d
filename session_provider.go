package mediactl

import (
	"sync"

	"github.com/smartpc/mediactl/internal/remote"
)

// remoteSession is the part of a Session the provider needs.
type remoteSession interface {
	IsConnected() bool
	Adapter() remote.Adapter
	Close() error
}

// SessionProvider implements remote.ConnectionProvider over the current
// session. At most one session is current; a new one replaces the old.
type SessionProvider struct {
	mu      sync.RWMutex
	current remoteSession
}

var _ remote.ConnectionProvider = (*SessionProvider)(nil)

// IsConnected returns whether there's a connected session
func (p *SessionProvider) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current != nil && p.current.IsConnected()
}

// Adapter returns the current session's adapter
func (p *SessionProvider) Adapter() remote.Adapter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	return p.current.Adapter()
}

// Set makes s the current session and returns the one it replaced.
func (p *SessionProvider) Set(s remoteSession) remoteSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.current
	p.current = s
	if prev == s {
		return nil
	}
	return prev
}

// Clear drops s if it is still current and reports whether it was.
func (p *SessionProvider) Clear(s remoteSession) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != s {
		return false
	}
	p.current = nil
	return true
}
