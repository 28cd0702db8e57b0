package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webtool/pkg/dom"
	"github.com/entrhq/webtool/pkg/logging"
	"github.com/entrhq/webtool/pkg/watcher"
)

// bindingName is the page-side function the observer script calls once
// per batch of mutations.
const bindingName = "__webtoolMutations"

// observerScript runs in every document before its own scripts. It folds
// mutations and client-side route changes into one binding call per tick.
var observerScript = strings.ReplaceAll(`(() => {
  if (window.__webtoolObserver) return;
  let pending = false;
  const schedule = () => {
    if (pending) return;
    pending = true;
    setTimeout(() => {
      pending = false;
      try { window.BINDING(location.href); } catch (e) {}
    }, 50);
  };
  const start = () => {
    if (window.__webtoolObserver || !document.documentElement) return;
    window.__webtoolObserver = new MutationObserver(schedule);
    window.__webtoolObserver.observe(document.documentElement, {
      childList: true,
      subtree: true,
      characterData: true,
      attributes: true,
      attributeFilter: ['class', 'style', 'hidden'],
    });
  };
  window.addEventListener('hashchange', schedule);
  window.addEventListener('popstate', schedule);
  if (document.documentElement) start();
  else document.addEventListener('readystatechange', start, { once: true });
})();`, "BINDING", bindingName)

// Mirror keeps a live browser page in sync with a Watcher: every mutation
// batch in the page is evaluated on a snapshot of its DOM and the controls
// injected there are replayed into the page.
type Mirror struct {
	session  *Session
	watcher  *watcher.Watcher
	logger   *logging.Logger
	reporter func(watcher.Result, int)

	signals   chan struct{}
	mu        sync.Mutex
	navigated bool
}

// MirrorOption configures a Mirror.
type MirrorOption func(*Mirror)

// WithMirrorLogger sets the mirror's logger.
func WithMirrorLogger(logger *logging.Logger) MirrorOption {
	return func(m *Mirror) {
		m.logger = logger
	}
}

// WithMirrorReporter registers a callback invoked after every pass with
// the pass result and the number of replayed operations.
func WithMirrorReporter(fn func(watcher.Result, int)) MirrorOption {
	return func(m *Mirror) {
		m.reporter = fn
	}
}

// NewMirror creates a mirror for session driven by w.
func NewMirror(session *Session, w *watcher.Watcher, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		session: session,
		watcher: w,
		signals: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach installs the mutation observer and navigation hook. It must be
// called before the session navigates to the page to mirror.
func (m *Mirror) Attach() error {
	page := m.session.Page

	err := page.ExposeFunction(bindingName, func(args ...interface{}) interface{} {
		m.signal(false)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to expose mutation binding: %w", err)
	}

	if err := page.AddInitScript(playwright.Script{Content: playwright.String(observerScript)}); err != nil {
		return fmt.Errorf("failed to install mutation observer: %w", err)
	}

	page.OnFrameNavigated(func(frame playwright.Frame) {
		if frame == page.MainFrame() {
			m.signal(true)
		}
	})
	return nil
}

// signal records a batch without blocking the Playwright event loop;
// batches arriving while one is pending are merged into it.
func (m *Mirror) signal(navigated bool) {
	if navigated {
		m.mu.Lock()
		m.navigated = true
		m.mu.Unlock()
	}
	select {
	case m.signals <- struct{}{}:
	default:
	}
}

func (m *Mirror) takeNavigated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	navigated := m.navigated
	m.navigated = false
	return navigated
}

// Run evaluates the page now and after every batch until ctx ends. After a
// pass whose adapter evaluates once, only navigations trigger new passes.
func (m *Mirror) Run(ctx context.Context) error {
	res, err := m.pass()
	if err != nil {
		return err
	}
	observing := m.watcher.Observes(res)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.signals:
			if !m.takeNavigated() && !observing {
				continue
			}
			res, err := m.pass()
			if err != nil {
				// The page is usually mid-navigation; its next batch retries.
				m.logger.Warnf("mirror pass failed: %v", err)
				continue
			}
			observing = m.watcher.Observes(res)
		}
	}
}

func (m *Mirror) pass() (watcher.Result, error) {
	location, content, err := m.session.Snapshot()
	if err != nil {
		return watcher.Result{}, err
	}

	res, replay, err := Plan(m.watcher, location, content)
	if err != nil {
		return res, err
	}

	applied, err := m.session.Apply(replay)
	if err != nil {
		return res, err
	}
	if applied > 0 {
		m.logger.Debugf("replayed %d operations on %s", applied, location)
	}
	if m.reporter != nil {
		m.reporter(res, applied)
	}
	return res, nil
}

// Plan runs one watcher pass over a serialized DOM and returns the changes
// to replay on the document it was taken from.
func Plan(w *watcher.Watcher, location, content string) (watcher.Result, *Replay, error) {
	page, err := dom.NewPageFromString(location, content)
	if err != nil {
		return watcher.Result{}, nil, fmt.Errorf("failed to parse snapshot of %s: %w", location, err)
	}
	defer page.Close()

	res := w.Evaluate(page)
	replay, err := NewReplay(w.MarkerAttribute(), res.Injections)
	if err != nil {
		return res, nil, err
	}
	return res, replay, nil
}
