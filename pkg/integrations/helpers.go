package integrations

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/webtool/pkg/dom"
)

// documentRoot returns a selection rooted at the document owning el, for
// adapters whose candidate is a container but whose data lives elsewhere.
func documentRoot(el *goquery.Selection) *goquery.Selection {
	n := el.Nodes[0]
	for n.Parent != nil {
		n = n.Parent
	}
	return dom.Wrap(n)
}

// prependElement inserts control before host's first element child,
// appending when host has none.
func prependElement(host, control *goquery.Selection) {
	if first := host.Children().First(); first.Length() > 0 {
		first.BeforeSelection(control)
		return
	}
	host.AppendSelection(control)
}
