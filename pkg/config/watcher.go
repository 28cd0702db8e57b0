package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/entrhq/webtool/pkg/logging"
	"github.com/entrhq/webtool/pkg/watcher"
)

// SectionIDWatcher is the identifier for the watcher section
const SectionIDWatcher = "watcher"

const defaultLogLevel = "info"

var dataAttribute = regexp.MustCompile(`^data-[a-z0-9][a-z0-9_.-]*$`)

// WatcherSection configures how controls are marked and labeled.
type WatcherSection struct {
	MarkerAttribute string `json:"marker_attribute"`
	ControlLabel    string `json:"control_label"`
	LogLevel        string `json:"log_level"`
	mu              sync.RWMutex
}

// NewWatcherSection creates a watcher section with default settings.
func NewWatcherSection() *WatcherSection {
	return &WatcherSection{
		MarkerAttribute: watcher.DefaultMarkerAttribute,
		ControlLabel:    watcher.DefaultLabel,
		LogLevel:        defaultLogLevel,
	}
}

// ID returns the section identifier.
func (s *WatcherSection) ID() string {
	return SectionIDWatcher
}

// Title returns the section title.
func (s *WatcherSection) Title() string {
	return "Watcher"
}

// Description returns the section description.
func (s *WatcherSection) Description() string {
	return "Configure the injected control and the attribute marking controlled elements."
}

// Data returns the current configuration data.
func (s *WatcherSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"marker_attribute": s.MarkerAttribute,
		"control_label":    s.ControlLabel,
		"log_level":        s.LogLevel,
	}
}

// SetData updates the configuration from the provided data.
func (s *WatcherSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		target := s.field(key)
		if target == nil {
			continue
		}
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
		}
		*target = str
	}
	return nil
}

func (s *WatcherSection) field(key string) *string {
	switch key {
	case "marker_attribute":
		return &s.MarkerAttribute
	case "control_label":
		return &s.ControlLabel
	case "log_level":
		return &s.LogLevel
	}
	return nil
}

// Validate validates the current configuration.
func (s *WatcherSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !dataAttribute.MatchString(s.MarkerAttribute) {
		return fmt.Errorf("marker_attribute must be a lowercase data-* attribute name, got %q", s.MarkerAttribute)
	}
	if strings.TrimSpace(s.ControlLabel) == "" {
		return fmt.Errorf("control_label cannot be empty")
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *WatcherSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.MarkerAttribute = watcher.DefaultMarkerAttribute
	s.ControlLabel = watcher.DefaultLabel
	s.LogLevel = defaultLogLevel
}

// Options returns the watcher options and control factory these settings
// describe.
func (s *WatcherSection) Options() ([]watcher.Option, watcher.ControlFactory) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opts := []watcher.Option{watcher.WithMarkerAttribute(s.MarkerAttribute)}
	return opts, watcher.DefaultControlFactory{Label: s.ControlLabel}
}

// Level returns the configured log level, LevelInfo when it is invalid.
func (s *WatcherSection) Level() logging.Level {
	s.mu.RLock()
	defer s.mu.RUnlock()

	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return logging.LevelInfo
	}
	return level
}
