package watcher

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/entrhq/webtool/pkg/dom"
	"github.com/entrhq/webtool/pkg/integration"
	"github.com/entrhq/webtool/pkg/logging"
)

// DefaultMarkerAttribute flags elements that already own a control.
const DefaultMarkerAttribute = "data-webtool-controlled"

const (
	markerControlled = "true"
	markerFailed     = "failed"
)

// outcome is the result of processing one candidate element.
type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeAbstained
	outcomeControlled
	outcomeFailed
)

// Injection records one control placed during a pass.
type Injection struct {
	Adapter string
	Element *html.Node
	Control *html.Node
	Issue   integration.Issue

	// Degraded is set when the adapter left the control unplaced and it
	// was appended to the issue element instead
	Degraded bool
}

// injector owns the controlled-element bookkeeping for one document and
// guarantees at most one control per live element.
type injector struct {
	factory ControlFactory
	logger  *logging.Logger
	marker  string

	// doc is the document the set below belongs to; a new document
	// starts a new set
	doc        *goquery.Document
	controlled map[*html.Node]struct{}
}

func newInjector(factory ControlFactory, marker string, logger *logging.Logger) *injector {
	return &injector{
		factory:    factory,
		logger:     logger,
		marker:     marker,
		controlled: make(map[*html.Node]struct{}),
	}
}

func (in *injector) reset(doc *goquery.Document) {
	if in.doc != doc {
		in.doc = doc
		in.controlled = make(map[*html.Node]struct{})
	}
}

func (in *injector) isControlled(n *html.Node) bool {
	if _, ok := in.controlled[n]; ok {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == in.marker {
			return true
		}
	}
	return false
}

// mark flags n before any DOM change that a later batch could observe.
func (in *injector) mark(n *html.Node, value string) {
	in.controlled[n] = struct{}{}
	for i, attr := range n.Attr {
		if attr.Key == in.marker {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: in.marker, Val: value})
}

// process runs extraction and placement for one candidate element.
func (in *injector) process(a integration.Adapter, caps integration.Capabilities, el *goquery.Selection, src integration.Source) (outcome, *Injection) {
	node := el.Nodes[0]
	if in.isControlled(node) {
		return outcomeSkipped, nil
	}

	issue, ok, perr := safeExtract(a, el, src)
	if perr != nil {
		in.logger.Errorf("%v (element <%s> on %s)", perr, node.Data, src)
		return outcomeFailed, nil
	}
	if !ok {
		in.logger.Debugf("adapter %s abstained on <%s> at %s", a.Name(), node.Data, src)
		return outcomeAbstained, nil
	}

	control, err := in.factory.NewControl(issue, ControlOptions{
		ShowIssueID: caps.ShowIssueID,
		ServiceType: a.Name(),
	})
	if err != nil || control == nil {
		in.logger.Errorf("adapter %s: failed to build control for %q: %v", a.Name(), issue.IssueName, err)
		return outcomeFailed, nil
	}

	in.mark(node, markerControlled)

	if perr := safeRender(a, el, dom.Wrap(control)); perr != nil {
		in.logger.Errorf("%v (element <%s> on %s)", perr, node.Data, src)
		if !dom.Attached(control) {
			// Nothing visible was left behind; keep the element flagged
			// so a broken adapter is not retried on every batch.
			in.mark(node, markerFailed)
			return outcomeFailed, nil
		}
	}

	inj := &Injection{Adapter: a.Name(), Element: node, Control: control, Issue: issue}
	if !dom.Attached(control) {
		in.logger.Warnf("adapter %s did not place its control on %s; appending to <%s>", a.Name(), src, node.Data)
		node.AppendChild(control)
		inj.Degraded = true
	}

	in.logger.Infof("adapter %s: control injected for %q", a.Name(), issue.IssueName)
	return outcomeControlled, inj
}

func safeExtract(a integration.Adapter, el *goquery.Selection, src integration.Source) (issue integration.Issue, ok bool, perr *AdapterPanic) {
	defer func() {
		if rec := recover(); rec != nil {
			perr = &AdapterPanic{Adapter: a.Name(), Op: "GetIssue", Value: rec}
			ok = false
		}
	}()
	issue, ok = integration.Extract(a, el, src)
	return issue, ok, nil
}

func safeRender(a integration.Adapter, el, control *goquery.Selection) (perr *AdapterPanic) {
	defer func() {
		if rec := recover(); rec != nil {
			perr = &AdapterPanic{Adapter: a.Name(), Op: "Render", Value: rec}
		}
	}()
	a.Render(el, control)
	return nil
}
