package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webtool/pkg/config"
)

// Session is a launched browser with one page.
type Session struct {
	// Name is the unique identifier for this session
	Name string

	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	// Headless indicates if the browser is running in headless mode
	Headless bool

	CreatedAt time.Time

	// CurrentURL is the URL of the page after the last navigation
	CurrentURL string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for operations (in milliseconds)
	Timeout float64

	// UserAgent overrides the browser's user agent when set
	UserAgent string
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle"
	WaitUntil string

	// Timeout in milliseconds (0 means default)
	Timeout float64
}

// Default values for sessions
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5
)

// OptionsFromSettings converts the browser configuration section into
// session options.
func OptionsFromSettings(s config.BrowserSettings) SessionOptions {
	opts := SessionOptions{
		Headless:  s.Headless,
		Timeout:   float64(s.Timeout / time.Millisecond),
		UserAgent: s.UserAgent,
	}
	if s.ViewportWidth > 0 && s.ViewportHeight > 0 {
		opts.Viewport = &Viewport{Width: s.ViewportWidth, Height: s.ViewportHeight}
	}
	return opts
}
