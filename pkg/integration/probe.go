package integration

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/webtool/pkg/dom"
)

// Probe is one extraction strategy. It either finds a value or reports
// that it found nothing; it never fails.
type Probe[T any] func() (T, bool)

// FirstOf tries probes in order and returns the first value found.
func FirstOf[T any](probes ...Probe[T]) (T, bool) {
	for _, probe := range probes {
		if v, ok := probe(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Optional turns the outcome of a probe chain into an optional Issue field.
func Optional(v string, ok bool) *string {
	if !ok {
		return nil
	}
	return String(v)
}

// ElementProbe finds the first element matching selector under root.
func ElementProbe(root *goquery.Selection, selector string) Probe[*goquery.Selection] {
	return func() (*goquery.Selection, bool) {
		return dom.First(root, selector)
	}
}

// VisibleElementProbe finds the first visible element matching selector.
func VisibleElementProbe(root *goquery.Selection, selector string) Probe[*goquery.Selection] {
	return func() (*goquery.Selection, bool) {
		return dom.FirstVisible(root, selector)
	}
}

// TextProbe finds the non-blank text of the first element matching selector.
func TextProbe(root *goquery.Selection, selector string) Probe[string] {
	return func() (string, bool) {
		el, ok := dom.First(root, selector)
		if !ok {
			return "", false
		}
		return nonBlank(el.Text())
	}
}

// LeadingTextProbe is TextProbe reading only the element's first child.
func LeadingTextProbe(root *goquery.Selection, selector string) Probe[string] {
	return func() (string, bool) {
		el, ok := dom.First(root, selector)
		if !ok {
			return "", false
		}
		return nonBlank(dom.LeadingText(el))
	}
}

// TextNodeProbe finds the first non-blank direct text node of selector.
func TextNodeProbe(root *goquery.Selection, selector string) Probe[string] {
	return func() (string, bool) {
		n, ok := dom.FindTextNode(root, selector)
		if !ok {
			return "", false
		}
		return nonBlank(n.Data)
	}
}

// ValueProbe finds the non-blank value of the first form control matching selector.
func ValueProbe(root *goquery.Selection, selector string) Probe[string] {
	return func() (string, bool) {
		el, ok := dom.First(root, selector)
		if !ok {
			return "", false
		}
		return nonBlank(dom.Value(el))
	}
}

// AttrProbe finds the non-blank attribute value of the first element matching selector.
func AttrProbe(root *goquery.Selection, selector, attr string) Probe[string] {
	return func() (string, bool) {
		el, ok := dom.First(root, selector)
		if !ok {
			return "", false
		}
		v, ok := el.Attr(attr)
		if !ok {
			return "", false
		}
		return nonBlank(v)
	}
}

func nonBlank(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}
