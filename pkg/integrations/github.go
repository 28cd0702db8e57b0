package integrations

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/webtool/pkg/integration"
)

// https://github.com/OWNER/REPO/issues/NUMBER
// https://github.com/OWNER/REPO/pull/NUMBER/files
var gitHubPath = regexp.MustCompile(`^/([^/]+)/([^/]+)/(issues|pull)/(\d+)`)

// GitHub handles issues and pull requests. GitHub navigates between pages
// client-side, so the header container is watched for replacement.
type GitHub struct{}

func (GitHub) Name() string { return "GitHub" }

func (GitHub) Capabilities() integration.Capabilities {
	return integration.Capabilities{
		URLPatterns: []string{
			"*://github.com/*/*/issues/*",
			"*://github.com/*/*/pull/*",
		},
		IssueElementSelector: `#partial-discussion-header, [data-testid="issue-header"]`,
		ObserveMutations:     true,
		ShowIssueID:          true,
	}
}

func (GitHub) Render(el, control *goquery.Selection) {
	control.AddClass("btn btn-sm")

	actions, ok := integration.FirstOf(
		// React issue viewer
		integration.ElementProbe(el, `[data-testid="issue-header"] [data-component="PH_Actions"]`),
		integration.ElementProbe(el, `[data-component="PH_Actions"]`),
		// Classic header
		integration.VisibleElementProbe(el, ".gh-header-actions"),
	)
	if ok {
		prependElement(actions, control)
		return
	}

	if title, ok := integration.ElementProbe(el, ".gh-header-title")(); ok {
		title.AfterSelection(control)
		return
	}
	el.AppendSelection(control)
}

func (g GitHub) GetIssue(el *goquery.Selection, src integration.Source) (integration.Issue, bool) {
	match := gitHubPath.FindStringSubmatch(src.Path)
	if match == nil {
		return integration.Issue{}, false
	}

	issueName, ok := integration.FirstOf(
		integration.TextProbe(el, `[data-testid="issue-title"]`),
		integration.TextProbe(el, ".js-issue-title"),
		integration.TextProbe(el, ".gh-header-title .markdown-title"),
	)
	if !ok {
		return integration.Issue{}, false
	}

	return integration.Issue{
		IssueID:     integration.String("#" + match[4]),
		IssueName:   issueName,
		ProjectName: integration.String(match[2]),
		ServiceType: g.Name(),
		ServiceURL:  src.Origin(),
		IssueURL:    integration.String(match[0]),
	}, true
}
