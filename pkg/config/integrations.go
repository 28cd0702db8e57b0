package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/entrhq/webtool/pkg/integration"
)

// SectionIDIntegrations is the identifier for the integrations section
const SectionIDIntegrations = "integrations"

// IntegrationsSection selects which site adapters may run.
type IntegrationsSection struct {
	// Disabled holds adapter names, compared case-insensitively
	Disabled []string `json:"disabled"`
	mu       sync.RWMutex
}

// NewIntegrationsSection creates a section with every adapter enabled.
func NewIntegrationsSection() *IntegrationsSection {
	return &IntegrationsSection{Disabled: []string{}}
}

// ID returns the section identifier.
func (s *IntegrationsSection) ID() string {
	return SectionIDIntegrations
}

// Title returns the section title.
func (s *IntegrationsSection) Title() string {
	return "Integrations"
}

// Description returns the section description.
func (s *IntegrationsSection) Description() string {
	return "Turn individual site integrations on or off."
}

// Data returns the current configuration data.
func (s *IntegrationsSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	disabled := make([]interface{}, 0, len(s.Disabled))
	for _, name := range s.Disabled {
		disabled = append(disabled, name)
	}
	return map[string]interface{}{
		"disabled": disabled,
	}
}

// SetData updates the configuration from the provided data.
func (s *IntegrationsSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := data["disabled"]; ok {
		names, err := stringList(value)
		if err != nil {
			return fmt.Errorf("invalid value for disabled: %w", err)
		}
		s.Disabled = names
	}
	return nil
}

// Validate rejects blank adapter names.
func (s *IntegrationsSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, name := range s.Disabled {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("disabled[%d]: adapter name cannot be empty", i)
		}
	}
	return nil
}

// Reset enables every adapter.
func (s *IntegrationsSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Disabled = []string{}
}

// IsEnabled reports whether the named adapter may run.
func (s *IntegrationsSection) IsEnabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, disabled := range s.Disabled {
		if strings.EqualFold(disabled, name) {
			return false
		}
	}
	return true
}

// SetEnabled enables or disables the named adapter.
func (s *IntegrationsSection) SetEnabled(name string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.Disabled[:0]
	for _, disabled := range s.Disabled {
		if !strings.EqualFold(disabled, name) {
			kept = append(kept, disabled)
		}
	}
	if !enabled {
		kept = append(kept, name)
		sort.Strings(kept)
	}
	s.Disabled = kept
}

// DisabledNames returns a copy of the disabled adapter names.
func (s *IntegrationsSection) DisabledNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.Disabled...)
}

// RegistryOptions returns the registry options applying these settings.
func (s *IntegrationsSection) RegistryOptions() []integration.RegistryOption {
	return []integration.RegistryOption{integration.WithDisabled(s.DisabledNames()...)}
}

// stringList accepts both []string and the []interface{} JSON decodes to.
func stringList(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string{}, v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d: expected string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", value)
	}
}
