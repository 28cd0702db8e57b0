package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSection is a test implementation of the Section interface
type mockSection struct {
	id          string
	data        map[string]interface{}
	validateErr error
}

func (m *mockSection) ID() string                                { return m.id }
func (m *mockSection) Title() string                             { return m.id }
func (m *mockSection) Description() string                       { return "" }
func (m *mockSection) Data() map[string]interface{}              { return m.data }
func (m *mockSection) SetData(data map[string]interface{}) error { m.data = data; return nil }
func (m *mockSection) Validate() error                           { return m.validateErr }
func (m *mockSection) Reset()                                    { m.data = make(map[string]interface{}) }

// mockStore is a test implementation of the Store interface
type mockStore struct {
	sections map[string]map[string]interface{}
	loadErr  error
	saveErr  error
	saves    int
}

func newMockStore() *mockStore {
	return &mockStore{sections: make(map[string]map[string]interface{})}
}

func (m *mockStore) Load() error { return m.loadErr }

func (m *mockStore) Save() error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	return nil
}

func (m *mockStore) GetSection(id string) (map[string]interface{}, error) {
	return m.sections[id], nil
}

func (m *mockStore) SetSection(id string, data map[string]interface{}) error {
	m.sections[id] = data
	return nil
}

func (m *mockStore) GetAll() (map[string]map[string]interface{}, error) { return m.sections, nil }

func (m *mockStore) SetAll(data map[string]map[string]interface{}) error {
	m.sections = data
	return nil
}

func TestManager_RegisterSection(t *testing.T) {
	manager := NewManager(newMockStore())
	require.NoError(t, manager.RegisterSection(&mockSection{id: "b"}))
	require.NoError(t, manager.RegisterSection(&mockSection{id: "a"}))

	err := manager.RegisterSection(&mockSection{id: "a"})
	assert.ErrorContains(t, err, `section "a" already registered`)

	var ids []string
	for _, s := range manager.GetSections() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{"b", "a"}, ids)

	_, ok := manager.GetSection("missing")
	assert.False(t, ok)
}

func TestManager_LoadAll(t *testing.T) {
	t.Run("applies stored data and keeps defaults otherwise", func(t *testing.T) {
		store := newMockStore()
		store.sections["stored"] = map[string]interface{}{"key": "value"}

		manager := NewManager(store)
		stored := &mockSection{id: "stored"}
		untouched := &mockSection{id: "untouched", data: map[string]interface{}{"default": true}}
		require.NoError(t, manager.RegisterSection(stored))
		require.NoError(t, manager.RegisterSection(untouched))

		require.NoError(t, manager.LoadAll())
		assert.Equal(t, "value", stored.data["key"])
		assert.Equal(t, true, untouched.data["default"])
	})

	t.Run("store error", func(t *testing.T) {
		store := newMockStore()
		store.loadErr = errors.New("disk gone")

		err := NewManager(store).LoadAll()
		assert.ErrorContains(t, err, "disk gone")
	})
}

func TestManager_SaveAll(t *testing.T) {
	t.Run("persists every section", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		require.NoError(t, manager.RegisterSection(&mockSection{id: "one", data: map[string]interface{}{"k": 1}}))
		require.NoError(t, manager.RegisterSection(&mockSection{id: "two", data: map[string]interface{}{"k": 2}}))

		require.NoError(t, manager.SaveAll())
		assert.Equal(t, 1, store.sections["one"]["k"])
		assert.Equal(t, 2, store.sections["two"]["k"])
		assert.Equal(t, 1, store.saves)
	})

	t.Run("validation failure writes nothing", func(t *testing.T) {
		store := newMockStore()
		manager := NewManager(store)
		require.NoError(t, manager.RegisterSection(&mockSection{id: "ok", data: map[string]interface{}{}}))
		require.NoError(t, manager.RegisterSection(&mockSection{id: "bad", validateErr: errors.New("nope")}))

		err := manager.SaveAll()
		assert.ErrorContains(t, err, "invalid section bad")
		assert.Empty(t, store.sections)
		assert.Zero(t, store.saves)
	})

	t.Run("store error", func(t *testing.T) {
		store := newMockStore()
		store.saveErr = errors.New("read-only")
		manager := NewManager(store)
		require.NoError(t, manager.RegisterSection(&mockSection{id: "s"}))

		assert.ErrorContains(t, manager.SaveAll(), "read-only")
	})
}

func TestManager_ResetAll(t *testing.T) {
	manager := NewManager(newMockStore())
	section := &mockSection{id: "s", data: map[string]interface{}{"k": "v"}}
	require.NoError(t, manager.RegisterSection(section))

	manager.ResetAll()
	assert.Empty(t, section.data)
}
