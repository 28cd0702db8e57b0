package integration

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/webtool/pkg/logging"
)

// RegistrationError reports an adapter the registry refused.
type RegistrationError struct {
	Adapter string
	Reason  string
	Err     error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("register adapter %q: %s: %v", e.Adapter, e.Reason, e.Err)
	}
	return fmt.Sprintf("register adapter %q: %s", e.Adapter, e.Reason)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

type registration struct {
	adapter  Adapter
	caps     Capabilities
	patterns PatternSet
}

// Registry holds adapters in registration order and selects the one that
// applies to a page. The first applicable adapter wins; when two adapters
// could both claim a page, the one registered earlier is always used.
type Registry struct {
	mu       sync.RWMutex
	entries  []registration
	names    map[string]bool
	disabled map[string]bool
	logger   *logging.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for registration warnings.
func WithLogger(logger *logging.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithDisabled excludes adapters by name (case-insensitive). Disabled
// adapters may still be registered but are never selected.
func WithDisabled(names ...string) RegistryOption {
	return func(r *Registry) {
		for _, name := range names {
			r.disabled[strings.ToLower(name)] = true
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		names:    make(map[string]bool),
		disabled: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends an adapter. Its URL patterns are compiled here so a
// malformed pattern fails at startup rather than on first page load.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return &RegistrationError{Reason: "adapter is nil"}
	}
	name := a.Name()
	if strings.TrimSpace(name) == "" {
		return &RegistrationError{Adapter: name, Reason: "adapter name is empty"}
	}

	caps := a.Capabilities()
	patterns, err := CompilePatterns(caps.URLPatterns)
	if err != nil {
		return &RegistrationError{Adapter: name, Reason: "invalid URL pattern", Err: err}
	}
	if _, ok := a.(Matcher); len(patterns) == 0 && !ok {
		return &RegistrationError{Adapter: name, Reason: "adapter declares neither URL patterns nor a Match predicate"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if r.names[key] {
		return &RegistrationError{Adapter: name, Reason: "an adapter with this name is already registered"}
	}

	// Overlapping claims are allowed; only the earlier adapter will see
	// pages they share unless its Match predicate declines.
	for _, p := range patterns {
		for _, prev := range r.entries {
			for _, q := range prev.patterns {
				if q.String() == p.String() {
					r.logger.Warnf("adapter %s shares pattern %s with %s, which takes precedence", name, p, prev.adapter.Name())
				}
			}
		}
	}

	r.entries = append(r.entries, registration{adapter: a, caps: caps, patterns: patterns})
	r.names[key] = true
	r.logger.Debugf("registered adapter %s (%d patterns)", name, len(patterns))
	return nil
}

// MustRegister registers adapters and panics on the first failure. Meant
// for the built-in adapter set, whose patterns are fixed at build time.
func (r *Registry) MustRegister(adapters ...Adapter) {
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
}

// Adapters returns the registered adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Adapter, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.adapter)
	}
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// FindApplicable returns the first enabled adapter whose URL patterns match
// src and whose Match predicate, if any, accepts the document. A nil doc
// skips adapters that need a predicate.
func (r *Registry) FindApplicable(doc *goquery.Document, src Source) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if r.disabled[strings.ToLower(e.adapter.Name())] {
			continue
		}
		if len(e.patterns) > 0 {
			if _, ok := e.patterns.Match(src); !ok {
				continue
			}
		}
		if m, ok := e.adapter.(Matcher); ok {
			if doc == nil || !r.safeMatch(m, e.adapter.Name(), doc, src) {
				continue
			}
		}
		return e.adapter, true
	}
	return nil, false
}

// safeMatch runs a Match predicate, treating a panic as "not applicable".
func (r *Registry) safeMatch(m Matcher, name string, doc *goquery.Document, src Source) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("adapter %s: match panicked on %s: %v", name, src, rec)
			matched = false
		}
	}()
	return m.Match(doc, src)
}
