package integrations

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/webtool/pkg/dom"
	"github.com/entrhq/webtool/pkg/integration"
)

// https://jira.example.com/browse/KEY-123
// https://example.atlassian.net/jira/browse/KEY-123
var jiraPath = regexp.MustCompile(`^(.*)/browse/([A-Z][A-Z0-9_]*-\d+)`)

const (
	jiraCloudHeader  = `[data-testid="issue.views.issue-details.issue-layout.container-left"]`
	jiraServerHeader = "#stalker"
)

// Jira handles the issue view of Jira Cloud and Jira Server/Data Center.
type Jira struct{}

func (Jira) Name() string { return "Jira" }

func (Jira) Capabilities() integration.Capabilities {
	return integration.Capabilities{
		URLPatterns:          []string{"*://*/browse/*"},
		IssueElementSelector: jiraCloudHeader + ", " + jiraServerHeader,
		ObserveMutations:     true,
		ShowIssueID:          true,
	}
}

// Match requires one of the known issue layouts; /browse/ is a common URL
// shape outside Jira.
func (Jira) Match(doc *goquery.Document, _ integration.Source) bool {
	return dom.Matches(doc.Selection, jiraCloudHeader) || dom.Matches(doc.Selection, jiraServerHeader+" #key-val")
}

func (Jira) Render(el, control *goquery.Selection) {
	control.AddClass("aui-button")

	toolbar, ok := integration.FirstOf(
		integration.ElementProbe(el, `[data-testid="issue.views.issue-base.foundation.quick-add.quick-add-container"]`),
		integration.ElementProbe(el, ".aui-toolbar2-primary"),
		integration.ElementProbe(el, "#opsbar-opsbar-operations"),
	)
	if ok {
		toolbar.AppendSelection(control)
		return
	}
	el.AppendSelection(control)
}

func (j Jira) GetIssue(el *goquery.Selection, src integration.Source) (integration.Issue, bool) {
	issueName, ok := integration.FirstOf(
		integration.TextProbe(el, `[data-testid="issue.views.issue-base.foundation.summary.heading"]`),
		integration.TextProbe(el, "#summary-val"),
	)
	if !ok {
		return integration.Issue{}, false
	}

	servicePath := ""
	key, ok := integration.FirstOf(
		integration.Probe[string](func() (string, bool) {
			match := jiraPath.FindStringSubmatch(src.Path)
			if match == nil {
				return "", false
			}
			servicePath = match[1]
			return match[2], true
		}),
		integration.TextProbe(el, "#key-val"),
		integration.TextProbe(el, `[data-testid="issue.views.issue-base.foundation.breadcrumbs.current-issue.item"]`),
	)
	if !ok {
		return integration.Issue{}, false
	}
	// Cloud serves the issue view under /jira but links from the site
	// root. Server keeps whatever context path it is deployed under.
	if jiraCloud(el, src) {
		servicePath = strings.TrimSuffix(servicePath, "/jira")
	}

	projectName := integration.Optional(integration.FirstOf(
		integration.TextProbe(el, `[data-testid="issue.views.issue-base.foundation.breadcrumbs.project.item"]`),
		integration.TextProbe(el, "#project-name-val"),
	))

	return integration.Issue{
		IssueID:     integration.String(key),
		IssueName:   issueName,
		ProjectName: projectName,
		ServiceType: j.Name(),
		ServiceURL:  src.Origin() + servicePath,
		IssueURL:    integration.String("/browse/" + key),
	}, true
}

func jiraCloud(el *goquery.Selection, src integration.Source) bool {
	return strings.HasSuffix(src.Host, ".atlassian.net") || el.Is(jiraCloudHeader)
}
