package watcher

import (
	"context"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/webtool/pkg/dom"
	"github.com/entrhq/webtool/pkg/integration"
	"github.com/entrhq/webtool/pkg/logging"
)

// Result summarizes one evaluation pass over a page.
type Result struct {
	// Adapter is the selected adapter's name, "" when none applied
	Adapter string

	Source integration.Source

	// Observe is true when the selected adapter wants mutation passes
	Observe bool

	Candidates int
	Skipped    int
	Abstained  int
	Failed     int
	Injections []Injection
}

// Applicable reports whether an adapter claimed the page.
func (r Result) Applicable() bool {
	return r.Adapter != ""
}

// Watcher drives the match, extract and inject pipeline for a page: once
// on load and again after every mutation batch for adapters that observe
// mutations.
type Watcher struct {
	registry *integration.Registry
	logger   *logging.Logger
	reporter func(Result)

	// mu serializes passes; the injector's marker set is only touched
	// while it is held
	mu       sync.Mutex
	injector *injector
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
		w.injector.logger = logger
	}
}

// WithMarkerAttribute overrides the attribute that flags controlled elements.
func WithMarkerAttribute(name string) Option {
	return func(w *Watcher) {
		if name != "" {
			w.injector.marker = name
		}
	}
}

// WithReporter registers a callback invoked after every pass in Run.
func WithReporter(fn func(Result)) Option {
	return func(w *Watcher) {
		w.reporter = fn
	}
}

// New creates a watcher selecting adapters from registry. A nil factory
// uses DefaultControlFactory.
func New(registry *integration.Registry, factory ControlFactory, opts ...Option) *Watcher {
	if factory == nil {
		factory = DefaultControlFactory{}
	}
	w := &Watcher{
		registry: registry,
		injector: newInjector(factory, DefaultMarkerAttribute, nil),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// MarkerAttribute returns the attribute that flags controlled elements.
func (w *Watcher) MarkerAttribute() string {
	return w.injector.marker
}

// Evaluate runs a single pass over page. When controls are injected the
// page emits a batch, as a browser would after a DOM insertion; a watcher
// consuming that batch finds every element already controlled.
func (w *Watcher) Evaluate(page *dom.Page) Result {
	var res Result
	page.Update("inject", func(doc *goquery.Document, location string) bool {
		res = w.EvaluateDocument(doc, location)
		return len(res.Injections) > 0
	})
	return res
}

// EvaluateDocument runs a single pass over doc located at location. The
// caller must have exclusive access to doc.
func (w *Watcher) EvaluateDocument(doc *goquery.Document, location string) Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	var res Result
	src, err := integration.ParseSource(location)
	if err != nil {
		w.logger.Debugf("skipping page: %v", err)
		return res
	}
	res.Source = src

	adapter, ok := w.registry.FindApplicable(doc, src)
	if !ok {
		return res
	}
	caps := adapter.Capabilities()
	res.Adapter = adapter.Name()
	res.Observe = caps.ObserveMutations

	w.injector.reset(doc)
	candidates(doc, caps).Each(func(_ int, el *goquery.Selection) {
		res.Candidates++
		switch out, inj := w.injector.process(adapter, caps, el, src); out {
		case outcomeSkipped:
			res.Skipped++
		case outcomeAbstained:
			res.Abstained++
		case outcomeFailed:
			res.Failed++
		case outcomeControlled:
			res.Injections = append(res.Injections, *inj)
		}
	})

	return res
}

// candidates returns the elements to process in document order: matches
// of the adapter's selector, or the body as the single candidate.
func candidates(doc *goquery.Document, caps integration.Capabilities) *goquery.Selection {
	if caps.IssueElementSelector != "" {
		return doc.Find(caps.IssueElementSelector)
	}
	if body := doc.Find("body"); body.Length() > 0 {
		return body.First()
	}
	return doc.Children().First()
}

// Run evaluates page once and then, while the page may still turn into or
// remain an observed issue page, once per mutation batch. It returns nil
// when the page's document is replaced and ctx.Err() on cancellation.
func (w *Watcher) Run(ctx context.Context, page *dom.Page) error {
	// Subscribe before the first pass so no mutation slips between them.
	batches, cancel := page.Subscribe()
	defer cancel()

	res := w.Evaluate(page)
	w.report(res)

	if !w.Observes(res) {
		if res.Applicable() {
			w.logger.Debugf("adapter %s evaluates once; not observing mutations", res.Adapter)
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-batches:
			if !ok {
				w.logger.Debugf("document replaced; watcher stopped")
				return nil
			}
			w.logger.Debugf("mutation batch %d (%v)", batch.Seq, batch.Reasons)
			w.report(w.Evaluate(page))
		}
	}
}

func (w *Watcher) report(res Result) {
	if w.reporter != nil {
		w.reporter(res)
	}
}

// Observes reports whether mutation batches after the pass that produced
// res can still lead to injections: the selected adapter observes
// mutations, or none was selected and some registered adapter observes.
func (w *Watcher) Observes(res Result) bool {
	if res.Applicable() {
		return res.Observe
	}
	return w.anyObserving()
}

func (w *Watcher) anyObserving() bool {
	for _, a := range w.registry.Adapters() {
		if a.Capabilities().ObserveMutations {
			return true
		}
	}
	return false
}
