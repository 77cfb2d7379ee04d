package profiles

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/logging"
	"github.com/smartpc/mediactl/internal/settings"
)

// LiveSettings is the settings store a manager swaps profiles into.
type LiveSettings interface {
	Accessibility() settings.Accessibility
	ReplaceAccessibility(a settings.Accessibility)
}

// Syncer tells the remote session about profile activations and new custom
// profiles. Calls must not block.
type Syncer interface {
	LoadProfile(id string)
	SaveProfile(id, name string, a settings.Accessibility)
}

type nopSyncer struct{}

func (nopSyncer) LoadProfile(string) {}
func (nopSyncer) SaveProfile(string, string, settings.Accessibility) {}

// Config wires a Manager. Store is required.
type Config struct {
	Store  LiveSettings
	Syncer Syncer
	// Path of the custom profile file. Empty disables persistence.
	Path string
}

// Manager owns the profile list and the active profile.
type Manager struct {
	store  LiveSettings
	syncer Syncer
	file   *File
	logger *zerolog.Logger
	now    func() time.Time

	// opMu orders activations, creations and deletions.
	opMu sync.Mutex

	mu       sync.RWMutex
	profiles []Profile
	activeID string

	listenerMu sync.Mutex
	listeners  []func(Profile)
}

// NewManager returns a manager holding the built-in profiles with the
// default profile marked active. It does not touch the store; call Load and
// then Activate to apply a profile.
func NewManager(cfg Config) *Manager {
	logger := logging.GetSubsystemLogger("profiles")
	syncer := cfg.Syncer
	if syncer == nil {
		syncer = nopSyncer{}
	}
	return &Manager{
		store:    cfg.Store,
		syncer:   syncer,
		file:     NewFile(cfg.Path, logger),
		logger:   logger,
		now:      time.Now,
		profiles: builtinProfiles(),
		activeID: DefaultID,
	}
}

// SetSyncer replaces the remote syncer.
func (m *Manager) SetSyncer(s Syncer) {
	if s == nil {
		s = nopSyncer{}
	}
	m.opMu.Lock()
	m.syncer = s
	m.opMu.Unlock()
}

// Load appends the persisted custom profiles. Entries that clash with a
// built-in ID or repeat an ID are skipped.
func (m *Manager) Load() error {
	stored, err := m.file.Load()
	if err != nil {
		return err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(m.profiles))
	for _, p := range m.profiles {
		seen[p.ID] = true
	}
	loaded := 0
	for _, p := range stored {
		if p.ID == "" || seen[p.ID] {
			m.logger.Warn().Str("id", p.ID).Msg("skipping stored profile with duplicate id")
			continue
		}
		seen[p.ID] = true
		p.IsCustom = true
		p.IsActive = false
		m.profiles = append(m.profiles, p)
		loaded++
	}
	m.logger.Info().Int("count", loaded).Msg("loaded custom profiles")
	return nil
}

// OnActivate registers fn to be called after every activation.
func (m *Manager) OnActivate(fn func(Profile)) {
	m.listenerMu.Lock()
	m.listeners = append(m.listeners, fn)
	m.listenerMu.Unlock()
}

// Activate swaps all four accessibility slices to the profile's values,
// pushing every field, and makes it the active profile.
func (m *Manager) Activate(id string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.activateLocked(id)
}

func (m *Manager) activateLocked(id string) error {
	p, ok := m.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}

	m.store.ReplaceAccessibility(p.Accessibility)

	m.mu.Lock()
	m.activeID = p.ID
	m.mu.Unlock()
	p.IsActive = true

	m.logger.Info().Str("id", p.ID).Str("name", p.Name).Msg("profile activated")
	m.syncer.LoadProfile(p.ID)

	m.listenerMu.Lock()
	listeners := m.listeners
	m.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(p)
	}
	return nil
}

// CreateCustom snapshots the live accessibility settings into a new custom
// profile. The new profile is not activated.
func (m *Manager) CreateCustom(name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	p := Profile{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   "Custom profile",
		Accessibility: m.store.Accessibility(),
		IsCustom:      true,
		CreatedAt:     m.now().UTC(),
	}

	m.mu.Lock()
	m.profiles = append(m.profiles, p)
	custom := m.customLocked()
	m.mu.Unlock()

	if err := m.file.Save(custom); err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist custom profiles")
	}
	m.logger.Info().Str("id", p.ID).Str("name", p.Name).Msg("custom profile created")
	m.syncer.SaveProfile(p.ID, p.Name, p.Accessibility)
	return p, nil
}

// Delete removes a custom profile. Deleting the active profile activates
// the default profile.
func (m *Manager) Delete(id string) error {
	if IsBuiltin(id) {
		return fmt.Errorf("%w: %s", ErrBuiltinProfile, id)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	idx := -1
	for i, p := range m.profiles {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	m.profiles = append(m.profiles[:idx:idx], m.profiles[idx+1:]...)
	wasActive := m.activeID == id
	custom := m.customLocked()
	m.mu.Unlock()

	if err := m.file.Save(custom); err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist custom profiles")
	}
	m.logger.Info().Str("id", id).Msg("custom profile deleted")

	if wasActive {
		return m.activateLocked(DefaultID)
	}
	return nil
}

// List returns every profile, built-ins first.
func (m *Manager) List() []Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Profile, len(m.profiles))
	for i, p := range m.profiles {
		p.IsActive = p.ID == m.activeID
		out[i] = p
	}
	return out
}

// Get returns one profile.
func (m *Manager) Get(id string) (Profile, bool) {
	return m.find(id)
}

// Active returns the active profile.
func (m *Manager) Active() Profile {
	m.mu.RLock()
	id := m.activeID
	m.mu.RUnlock()
	p, _ := m.find(id)
	return p
}

func (m *Manager) find(id string) (Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.ID == id {
			p.IsActive = p.ID == m.activeID
			return p, true
		}
	}
	return Profile{}, false
}

func (m *Manager) customLocked() []Profile {
	var out []Profile
	for _, p := range m.profiles {
		if p.IsCustom {
			p.IsActive = false
			out = append(out, p)
		}
	}
	return out
}
