package integration

import (
	"github.com/PuerkitoBio/goquery"
)

// Adapter detects and extracts issues for one external tool.
//
// Adapters are constructed once and shared across evaluations; they must
// not keep per-page state. Everything they need is read from the element,
// the document it belongs to, and the Source passed in.
type Adapter interface {
	// Name is the service type reported in every Issue, e.g. "GitLab"
	Name() string

	// Capabilities describes how the adapter is matched and driven
	Capabilities() Capabilities

	// GetIssue extracts an issue from a candidate element. It returns
	// false to abstain when the element does not (yet) hold a complete
	// issue; abstaining is not an error.
	GetIssue(el *goquery.Selection, src Source) (Issue, bool)

	// Render places control near the page's native action area for el.
	// It is called at most once per live element.
	Render(el *goquery.Selection, control *goquery.Selection)
}

// Capabilities holds the optional adapter settings. The zero value of each
// field is its default.
type Capabilities struct {
	// URLPatterns are OR'd scheme://host/path globs. Empty means the
	// adapter is matched by its Matcher predicate alone.
	URLPatterns []string

	// IssueElementSelector locates candidate issue containers. Empty
	// means the whole document is the single candidate.
	IssueElementSelector string

	// ObserveMutations keeps re-evaluating after DOM mutations, for
	// single-page apps that swap content without navigation.
	ObserveMutations bool

	// ShowIssueID is a presentation hint for the injected control.
	ShowIssueID bool
}

// Matcher is implemented by adapters whose applicability depends on more
// than the URL, such as a marker element in the page. When URL patterns
// are also declared they are checked first and Match decides last.
type Matcher interface {
	Match(doc *goquery.Document, src Source) bool
}
