// Package speech previews the screen reader voice. The voice list arrives
// asynchronously and may be empty until it does.
package speech

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/logging"
	"github.com/smartpc/mediactl/internal/settings"
)

// DefaultPreviewText is spoken when a preview names no text.
const DefaultPreviewText = "This is a preview of the selected voice."

// Voice is one synthesizer voice.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// Utterance is one piece of text to speak. Rate and Pitch are multipliers
// around 1.0; Volume is 0-100. An empty Voice selects the default voice.
type Utterance struct {
	Text   string
	Voice  string
	Rate   float64
	Pitch  float64
	Volume int
}

// Synthesizer speaks text.
type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, u Utterance) error
}

// Catalog caches the voice list of a synthesizer.
type Catalog struct {
	synth  Synthesizer
	logger *zerolog.Logger

	mu        sync.RWMutex
	voices    []Voice
	loaded    bool
	listeners []func([]Voice)

	wg sync.WaitGroup
}

// NewCatalog returns an empty catalog. Call Load to fetch voices.
func NewCatalog(s Synthesizer) *Catalog {
	return &Catalog{
		synth:  s,
		logger: logging.GetSubsystemLogger("speech"),
	}
}

// Load fetches the voice list in the background. Listeners are notified
// when it arrives.
func (c *Catalog) Load(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		voices, err := c.synth.Voices(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("failed to list voices")
			return
		}

		c.mu.Lock()
		c.voices = voices
		c.loaded = true
		listeners := c.listeners
		c.mu.Unlock()

		c.logger.Debug().Int("count", len(voices)).Msg("voices loaded")
		for _, fn := range listeners {
			fn(c.Voices())
		}
	}()
}

// Wait blocks until pending loads finish.
func (c *Catalog) Wait() {
	c.wg.Wait()
}

// Voices returns the known voices. It is empty before the first load
// completes.
func (c *Catalog) Voices() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Loaded reports whether a voice list has arrived.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// OnChange registers fn for every arriving voice list.
func (c *Catalog) OnChange(fn func([]Voice)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Catalog) has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.voices {
		if v.ID == id {
			return true
		}
	}
	return false
}

// Preview speaks text with the given speech settings. A voice that is not
// in the catalog falls back to the default voice.
func (c *Catalog) Preview(ctx context.Context, text string, a settings.AudioAccessibilitySettings) error {
	if text == "" {
		text = DefaultPreviewText
	}
	voice := a.Voice
	if voice != "" && !c.has(voice) {
		c.logger.Debug().Str("voice", voice).Msg("voice not available, using default")
		voice = ""
	}
	return c.synth.Speak(ctx, Utterance{
		Text:   text,
		Voice:  voice,
		Rate:   a.SpeechRate,
		Pitch:  a.SpeechPitch,
		Volume: a.SpeechVolume,
	})
}
