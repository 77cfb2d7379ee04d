package mediactl

import (
	"sync"

	"github.com/smartpc/mediactl/internal/harness"
	"github.com/smartpc/mediactl/internal/settings"
)

// presentationEffects mirrors visual settings onto the browser UI as
// document attributes and CSS variables.
type presentationEffects struct {
	mu     sync.RWMutex
	attrs  map[string]string
	events *EventBroadcaster
}

var _ settings.PresentationEffects = (*presentationEffects)(nil)

func newPresentationEffects(events *EventBroadcaster) *presentationEffects {
	return &presentationEffects{
		attrs:  settings.PresentationAttributes(settings.DefaultAccessibility().Visual),
		events: events,
	}
}

func (p *presentationEffects) ApplyVisual(v settings.VisualSettings) {
	attrs := settings.PresentationAttributes(v)
	p.mu.Lock()
	p.attrs = attrs
	p.mu.Unlock()
	p.events.Broadcast(EventPresentationChanged, attrs)
}

// Attributes returns the attributes currently applied.
func (p *presentationEffects) Attributes() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.attrs))
	for k, v := range p.attrs {
		out[k] = v
	}
	return out
}

// videoPreview records the device node a running video test holds so the
// UI can show which camera is live.
type videoPreview struct {
	mu   sync.Mutex
	path string
}

var _ harness.PreviewSink = (*videoPreview)(nil)

func (v *videoPreview) Attach(t harness.Track) error {
	path := string(t.Kind())
	if node, ok := t.(interface{ Path() string }); ok {
		path = node.Path()
	}
	v.mu.Lock()
	v.path = path
	v.mu.Unlock()
	return nil
}

func (v *videoPreview) Detach() error {
	v.mu.Lock()
	v.path = ""
	v.mu.Unlock()
	return nil
}

func (v *videoPreview) Current() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.path
}
