package profiles

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpc/mediactl/internal/settings"
)

type recordingSyncer struct {
	mu     sync.Mutex
	loaded []string
	saved  []string
}

func (s *recordingSyncer) LoadProfile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = append(s.loaded, id)
}

func (s *recordingSyncer) SaveProfile(id, name string, _ settings.Accessibility) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, name)
}

type countingPusher struct {
	mu     sync.Mutex
	fields []settings.Field
}

func (p *countingPusher) PushField(c settings.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fields = append(p.fields, c.Field)
}

func newTestManager(t *testing.T, path string) (*Manager, *settings.Store, *recordingSyncer, *countingPusher) {
	t.Helper()
	pusher := &countingPusher{}
	store := settings.NewStore(pusher, nil)
	syncer := &recordingSyncer{}
	m := NewManager(Config{Store: store, Syncer: syncer, Path: path})
	return m, store, syncer, pusher
}

func TestManager_BuiltinsPresent(t *testing.T) {
	m, _, _, _ := newTestManager(t, "")

	list := m.List()
	require.Len(t, list, 4)
	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID
		assert.False(t, p.IsCustom)
	}
	assert.Equal(t, []string{DefaultID, VisualImpairedID, MotorImpairedID, CognitiveSupportID}, ids)
	assert.Equal(t, DefaultID, m.Active().ID)
	assert.True(t, m.Active().IsActive)
}

func TestManager_ActivateVisualImpaired(t *testing.T) {
	for _, from := range []string{DefaultID, MotorImpairedID, CognitiveSupportID} {
		t.Run("from "+from, func(t *testing.T) {
			m, store, syncer, _ := newTestManager(t, "")
			require.NoError(t, m.Activate(from))
			require.NoError(t, m.Activate(VisualImpairedID))

			a := store.Accessibility()
			assert.True(t, a.Visual.HighContrast)
			assert.Equal(t, 150, a.Visual.MagnificationLevel)
			assert.True(t, a.Audio.ScreenReaderEnabled)

			assert.Equal(t, VisualImpairedID, m.Active().ID)
			assert.Equal(t, []string{from, VisualImpairedID}, syncer.loaded)
		})
	}
}

func TestManager_ActivateExactlyOneActive(t *testing.T) {
	m, _, _, _ := newTestManager(t, "")
	require.NoError(t, m.Activate(MotorImpairedID))

	active := 0
	for _, p := range m.List() {
		if p.IsActive {
			active++
			assert.Equal(t, MotorImpairedID, p.ID)
		}
	}
	assert.Equal(t, 1, active)
}

func TestManager_ActivatePushesFullSet(t *testing.T) {
	m, _, _, pusher := newTestManager(t, "")
	require.NoError(t, m.Activate(DefaultID))
	first := len(pusher.fields)
	assert.Equal(t, 30, first)

	// Activating the same profile again is not diffed away.
	require.NoError(t, m.Activate(DefaultID))
	assert.Len(t, pusher.fields, 2*first)
}

func TestManager_ActivateUnknown(t *testing.T) {
	m, store, syncer, _ := newTestManager(t, "")
	before := store.Snapshot()

	err := m.Activate("nope")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Equal(t, before, store.Snapshot())
	assert.Empty(t, syncer.loaded)
	assert.Equal(t, DefaultID, m.Active().ID)
}

func TestManager_CreateCustomSnapshotsLiveSettings(t *testing.T) {
	m, store, syncer, _ := newTestManager(t, "")

	store.SetVoiceInputLevel(40)
	store.SetHighContrast(true)

	p, err := m.CreateCustom("My Setup")
	require.NoError(t, err)
	assert.Equal(t, "My Setup", p.Name)
	assert.True(t, p.IsCustom)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 40, p.Audio.InputVolume)
	assert.True(t, p.Visual.HighContrast)
	assert.Equal(t, []string{"My Setup"}, syncer.saved)

	// Later edits do not leak into the stored snapshot.
	store.SetVoiceInputLevel(90)
	got, ok := m.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, 40, got.Audio.InputVolume)
	assert.Len(t, m.List(), 5)
	assert.Equal(t, DefaultID, m.Active().ID)
}

func TestManager_CreateCustomRejectsEmptyName(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"whitespace", "\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, syncer, _ := newTestManager(t, "")
			before := len(m.List())

			_, err := m.CreateCustom(tt.input)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Len(t, m.List(), before)
			assert.Empty(t, syncer.saved)
		})
	}
}

func TestManager_Delete(t *testing.T) {
	m, store, _, _ := newTestManager(t, "")

	err := m.Delete(VisualImpairedID)
	assert.ErrorIs(t, err, ErrBuiltinProfile)
	assert.Len(t, m.List(), 4)

	assert.ErrorIs(t, m.Delete("missing"), ErrProfileNotFound)

	store.SetFontSize(22)
	p, err := m.CreateCustom("Big text")
	require.NoError(t, err)
	require.NoError(t, m.Activate(p.ID))
	assert.Equal(t, 22, store.Accessibility().Visual.FontSize)

	require.NoError(t, m.Delete(p.ID))
	assert.Len(t, m.List(), 4)
	assert.Equal(t, DefaultID, m.Active().ID)
	assert.Equal(t, settings.DefaultAccessibility(), store.Accessibility())
}

func TestManager_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")

	m, store, _, _ := newTestManager(t, path)
	store.SetDwellTime(2500)
	p, err := m.CreateCustom("Slow clicks")
	require.NoError(t, err)

	reloaded, _, _, _ := newTestManager(t, path)
	require.NoError(t, reloaded.Load())
	got, ok := reloaded.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, "Slow clicks", got.Name)
	assert.Equal(t, 2500, got.Motor.DwellTime)
	assert.True(t, got.IsCustom)
	assert.False(t, got.IsActive)

	require.NoError(t, reloaded.Delete(p.ID))
	again, _, _, _ := newTestManager(t, path)
	require.NoError(t, again.Load())
	assert.Len(t, again.List(), 4)
}

func TestManager_LoadMissingFile(t *testing.T) {
	m, _, _, _ := newTestManager(t, filepath.Join(t.TempDir(), "none.json"))
	assert.NoError(t, m.Load())
	assert.Len(t, m.List(), 4)
}

func TestManager_LoadAcceptsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	data := `[
		// hand-edited
		{"id": "abc", "name": "Mine", "visual": {"fontSize": 20},},
		{"id": "default", "name": "Shadow"},
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	m, _, _, _ := newTestManager(t, path)
	require.NoError(t, m.Load())
	require.Len(t, m.List(), 5)

	p, ok := m.Get("abc")
	require.True(t, ok)
	assert.Equal(t, 20, p.Visual.FontSize)
	assert.True(t, p.IsCustom)

	def, _ := m.Get(DefaultID)
	assert.Equal(t, "Default", def.Name)
}

func TestManager_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	m, _, _, _ := newTestManager(t, path)
	assert.Error(t, m.Load())
	assert.Len(t, m.List(), 4)
}
