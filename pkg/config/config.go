package config

import (
	"sync"
)

var (
	// globalManager is the process-wide configuration
	globalManager *Manager
	globalMu      sync.Mutex
)

// Load opens the file store at configPath (DefaultPath when empty),
// registers the default sections and loads them.
func Load(configPath string) (*Manager, error) {
	store, err := NewFileStore(configPath)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)
	for _, section := range []Section{
		NewIntegrationsSection(),
		NewWatcherSection(),
		NewBrowserSection(),
	} {
		if err := manager.RegisterSection(section); err != nil {
			return nil, err
		}
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Initialize loads the configuration and installs it as the global manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	manager, err := Load(configPath)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetIntegrations returns the integrations section from global config.
// Returns nil if config is not initialized.
func GetIntegrations() *IntegrationsSection {
	return globalSection[*IntegrationsSection](SectionIDIntegrations)
}

// GetWatcher returns the watcher section from global config.
// Returns nil if config is not initialized.
func GetWatcher() *WatcherSection {
	return globalSection[*WatcherSection](SectionIDWatcher)
}

// GetBrowser returns the browser section from global config.
// Returns nil if config is not initialized.
func GetBrowser() *BrowserSection {
	return globalSection[*BrowserSection](SectionIDBrowser)
}

// IsIntegrationEnabled reports whether the named adapter may run. Every
// adapter is enabled when config is not initialized.
func IsIntegrationEnabled(name string) bool {
	integrations := GetIntegrations()
	if integrations == nil {
		return true
	}
	return integrations.IsEnabled(name)
}

func globalSection[T Section](id string) T {
	var zero T
	if !IsInitialized() {
		return zero
	}
	section, ok := Global().GetSection(id)
	if !ok {
		return zero
	}
	typed, ok := section.(T)
	if !ok {
		return zero
	}
	return typed
}
