package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webtool/pkg/logging"
	"github.com/entrhq/webtool/pkg/watcher"
)

func TestIntegrationsSection(t *testing.T) {
	s := NewIntegrationsSection()
	assert.True(t, s.IsEnabled("GitLab"))

	require.NoError(t, s.SetData(map[string]interface{}{
		"disabled": []interface{}{"trello", "Jira"},
	}))
	assert.False(t, s.IsEnabled("Trello"))
	assert.False(t, s.IsEnabled("jira"))
	assert.True(t, s.IsEnabled("GitHub"))

	s.SetEnabled("Trello", true)
	s.SetEnabled("Wrike", false)
	assert.Equal(t, []string{"Jira", "Wrike"}, s.DisabledNames())

	err := s.SetData(map[string]interface{}{"disabled": []interface{}{"ok", 3.0}})
	assert.ErrorContains(t, err, "item 1: expected string")

	require.NoError(t, s.SetData(map[string]interface{}{"disabled": []string{" "}}))
	assert.Error(t, s.Validate())

	s.Reset()
	assert.NoError(t, s.Validate())
	assert.Empty(t, s.DisabledNames())
}

func TestWatcherSection(t *testing.T) {
	s := NewWatcherSection()
	require.NoError(t, s.Validate())
	assert.Equal(t, watcher.DefaultMarkerAttribute, s.Data()["marker_attribute"])

	require.NoError(t, s.SetData(map[string]interface{}{
		"marker_attribute": "data-timer",
		"control_label":    "Track time",
		"log_level":        "debug",
		"unknown":          42.0,
	}))
	require.NoError(t, s.Validate())
	assert.Equal(t, logging.LevelDebug, s.Level())

	opts, factory := s.Options()
	w := watcher.New(nil, factory, opts...)
	assert.Equal(t, "data-timer", w.MarkerAttribute())
	assert.Equal(t, watcher.DefaultControlFactory{Label: "Track time"}, factory)

	tests := []struct {
		name string
		data map[string]interface{}
		want string
	}{
		{"not a data attribute", map[string]interface{}{"marker_attribute": "class"}, "marker_attribute"},
		{"uppercase", map[string]interface{}{"marker_attribute": "data-Timer"}, "marker_attribute"},
		{"blank label", map[string]interface{}{"control_label": "  "}, "control_label"},
		{"bad level", map[string]interface{}{"log_level": "loud"}, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewWatcherSection()
			require.NoError(t, s.SetData(tt.data))
			assert.ErrorContains(t, s.Validate(), tt.want)
		})
	}

	assert.Error(t, NewWatcherSection().SetData(map[string]interface{}{"control_label": true}))
}

func TestBrowserSection(t *testing.T) {
	s := NewBrowserSection()
	require.NoError(t, s.Validate())
	assert.Equal(t, BrowserSettings{
		Headless:       true,
		Timeout:        30 * time.Second,
		ViewportWidth:  1280,
		ViewportHeight: 800,
	}, s.Snapshot())

	require.NoError(t, s.SetData(map[string]interface{}{
		"headless":        false,
		"timeout":         "2m",
		"viewport_width":  1920.0,
		"viewport_height": 1080.0,
		"user_agent":      "probe",
	}))
	got := s.Snapshot()
	assert.False(t, got.Headless)
	assert.Equal(t, 2*time.Minute, got.Timeout)
	assert.Equal(t, 1920, got.ViewportWidth)
	assert.Equal(t, "probe", got.UserAgent)

	require.NoError(t, s.SetData(map[string]interface{}{"timeout": 5000.0}))
	assert.Equal(t, 5*time.Second, s.Snapshot().Timeout)

	assert.Error(t, s.SetData(map[string]interface{}{"viewport_width": 10.5}))
	assert.Error(t, s.SetData(map[string]interface{}{"timeout": "soon"}))

	require.NoError(t, s.SetData(map[string]interface{}{"timeout": "100ms"}))
	assert.ErrorContains(t, s.Validate(), "timeout must be between")

	s.Reset()
	assert.NoError(t, s.Validate())
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	manager, err := Load(path)
	require.NoError(t, err)
	require.Len(t, manager.GetSections(), 3)

	section, ok := manager.GetSection(SectionIDIntegrations)
	require.True(t, ok)
	section.(*IntegrationsSection).SetEnabled("Redmine", false)
	require.NoError(t, manager.SaveAll())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Redmine"`)

	reloaded, err := Load(path)
	require.NoError(t, err)
	section, _ = reloaded.GetSection(SectionIDIntegrations)
	assert.False(t, section.(*IntegrationsSection).IsEnabled("Redmine"))

	browser, _ := reloaded.GetSection(SectionIDBrowser)
	assert.Equal(t, 30*time.Second, browser.(*BrowserSection).Snapshot().Timeout)
}

func TestGlobal(t *testing.T) {
	t.Cleanup(func() {
		globalMu.Lock()
		globalManager = nil
		globalMu.Unlock()
	})

	assert.True(t, IsIntegrationEnabled("GitLab"))
	assert.Nil(t, GetWatcher())

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"1.0","sections":{"integrations":{"disabled":["GitLab"]}}}`), 0600))
	require.NoError(t, Initialize(path))

	assert.True(t, IsInitialized())
	assert.False(t, IsIntegrationEnabled("gitlab"))
	require.NotNil(t, GetWatcher())
	require.NotNil(t, GetBrowser())
	assert.Equal(t, []string{"GitLab"}, GetIntegrations().DisabledNames())
}
