package watcher

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/entrhq/webtool/pkg/integration"
)

const (
	// ControlClass is set on every control built by DefaultControlFactory
	ControlClass = "webtool-timer-link"

	// DefaultLabel is the control caption when none is configured
	DefaultLabel = "Start timer"
)

// ControlOptions are the presentation hints passed to a ControlFactory.
type ControlOptions struct {
	// ShowIssueID appends the issue id to the caption when one is known
	ShowIssueID bool

	// ServiceType names the adapter that produced the issue
	ServiceType string
}

// ControlFactory builds the element injected next to an issue. The control's
// click behavior belongs to the factory; the watcher only places it.
type ControlFactory interface {
	NewControl(issue integration.Issue, opts ControlOptions) (*html.Node, error)
}

// ControlFactoryFunc adapts a function to ControlFactory.
type ControlFactoryFunc func(issue integration.Issue, opts ControlOptions) (*html.Node, error)

// NewControl calls f.
func (f ControlFactoryFunc) NewControl(issue integration.Issue, opts ControlOptions) (*html.Node, error) {
	return f(issue, opts)
}

// DefaultControlFactory builds a "start timer" link carrying the issue as
// JSON in its data-issue attribute.
type DefaultControlFactory struct {
	// Label is the caption; DefaultLabel when empty
	Label string
}

// NewControl implements ControlFactory.
func (f DefaultControlFactory) NewControl(issue integration.Issue, opts ControlOptions) (*html.Node, error) {
	payload, err := json.Marshal(issue)
	if err != nil {
		return nil, fmt.Errorf("failed to encode issue: %w", err)
	}

	label := f.Label
	if label == "" {
		label = DefaultLabel
	}
	if opts.ShowIssueID && integration.Value(issue.IssueID) != "" {
		label += " " + *issue.IssueID
	}

	link := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr: []html.Attribute{
			{Key: "class", Val: ControlClass},
			{Key: "href", Val: "#"},
			{Key: "title", Val: label},
			{Key: "data-control-id", Val: uuid.NewString()},
			{Key: "data-service-type", Val: opts.ServiceType},
			{Key: "data-issue", Val: string(payload)},
		},
	}

	icon := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: "webtool-timer-icon"}},
	}
	caption := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
	}
	caption.AppendChild(&html.Node{Type: html.TextNode, Data: label})

	link.AppendChild(icon)
	link.AppendChild(caption)
	return link, nil
}

// IssueFromControl decodes the issue carried by a control built by
// DefaultControlFactory.
func IssueFromControl(n *html.Node) (integration.Issue, error) {
	var issue integration.Issue
	for _, attr := range n.Attr {
		if attr.Key == "data-issue" {
			if err := json.Unmarshal([]byte(attr.Val), &issue); err != nil {
				return issue, fmt.Errorf("invalid data-issue payload: %w", err)
			}
			return issue, nil
		}
	}
	return issue, fmt.Errorf("element <%s> carries no issue", n.Data)
}
