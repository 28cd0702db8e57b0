package integrations

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/webtool/pkg/dom"
	"github.com/entrhq/webtool/pkg/integration"
)

// Wrike handles the task view of the Wrike workspace, a single-page app
// that swaps task panels without navigating.
type Wrike struct{}

func (Wrike) Name() string { return "Wrike" }

func (Wrike) Capabilities() integration.Capabilities {
	return integration.Capabilities{
		URLPatterns:          []string{"*://www.wrike.com/workspace.htm#*"},
		IssueElementSelector: ".wspace-task-view",
		ObserveMutations:     true,
	}
}

func (Wrike) Render(el, control *goquery.Selection) {
	if host, ok := dom.First(el, ".wrike-panel-header-toolbar"); ok {
		prependElement(host, control)
		return
	}
	el.AppendSelection(control)
}

func (w Wrike) GetIssue(el *goquery.Selection, src integration.Source) (integration.Issue, bool) {
	// The title textarea is rendered empty first and filled in once the
	// task loads; abstaining here lets the next batch retry.
	issueName, ok := integration.FirstOf(
		integration.ValueProbe(el, ".wspace-task-widgets-title-view textarea"),
		integration.TextProbe(el, ".wspace-task-widgets-title-view .title-text"),
	)
	if !ok {
		return integration.Issue{}, false
	}

	var issueID, issueURL *string
	params := integration.SearchParams(src.Hash)
	id := params["t"]
	if id == "" {
		id = params["ot"]
	}
	if id != "" {
		issueURL = integration.String("/open.htm?id=" + id)
		issueID = integration.String("#" + id)
	}

	var projectName *string
	if tags := dom.All(el, ".wspace-task-widgets-tags-dataview > div"); tags.Length() == 1 {
		projectName = integration.String(tags.Text())
	}

	return integration.Issue{
		IssueID:     issueID,
		IssueName:   issueName,
		ProjectName: projectName,
		ServiceType: w.Name(),
		ServiceURL:  src.Origin(),
		IssueURL:    issueURL,
	}, true
}
