package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDBrowser is the identifier for the browser section
	SectionIDBrowser = "browser"

	defaultHeadless       = true
	defaultBrowserTimeout = 30 * time.Second
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
)

// BrowserSection configures the live browser used to mirror real pages.
type BrowserSection struct {
	Headless       bool          `json:"headless"`
	Timeout        time.Duration `json:"timeout"`
	ViewportWidth  int           `json:"viewport_width"`
	ViewportHeight int           `json:"viewport_height"`
	UserAgent      string        `json:"user_agent"`
	mu             sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.resetLocked()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Configure the browser used for live page mirroring."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"headless":        s.Headless,
		"timeout":         s.Timeout.String(),
		"viewport_width":  s.ViewportWidth,
		"viewport_height": s.ViewportHeight,
		"user_agent":      s.UserAgent,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "headless":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for headless: expected bool, got %T", value)
			}
			s.Headless = enabled

		case "timeout":
			switch v := value.(type) {
			case string:
				d, err := time.ParseDuration(v)
				if err != nil {
					return fmt.Errorf("invalid duration string for timeout: %w", err)
				}
				s.Timeout = d
			case float64:
				// JSON numbers are milliseconds
				s.Timeout = time.Duration(v) * time.Millisecond
			default:
				return fmt.Errorf("invalid value type for timeout: expected string or number, got %T", value)
			}

		case "viewport_width", "viewport_height":
			n, err := intValue(value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if key == "viewport_width" {
				s.ViewportWidth = n
			} else {
				s.ViewportHeight = n
			}

		case "user_agent":
			ua, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for user_agent: expected string, got %T", value)
			}
			s.UserAgent = ua
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Timeout < time.Second || s.Timeout > 10*time.Minute {
		return fmt.Errorf("timeout must be between 1s and 10m, got %v", s.Timeout)
	}
	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", s.ViewportWidth, s.ViewportHeight)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *BrowserSection) resetLocked() {
	s.Headless = defaultHeadless
	s.Timeout = defaultBrowserTimeout
	s.ViewportWidth = defaultViewportWidth
	s.ViewportHeight = defaultViewportHeight
	s.UserAgent = ""
}

// Snapshot returns a copy of the settings safe to read without locking.
func (s *BrowserSection) Snapshot() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return BrowserSettings{
		Headless:       s.Headless,
		Timeout:        s.Timeout,
		ViewportWidth:  s.ViewportWidth,
		ViewportHeight: s.ViewportHeight,
		UserAgent:      s.UserAgent,
	}
}

// BrowserSettings is a point-in-time copy of a BrowserSection.
type BrowserSettings struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
}

func intValue(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("expected whole number, got %v", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}
