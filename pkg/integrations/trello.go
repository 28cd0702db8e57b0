package integrations

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/webtool/pkg/integration"
)

// https://trello.com/c/SHORTLINK/123-card-title
var trelloPath = regexp.MustCompile(`^/c/([A-Za-z0-9]+)(?:/(\d+))?`)

// Trello handles the card back opened over a board.
type Trello struct{}

func (Trello) Name() string { return "Trello" }

func (Trello) Capabilities() integration.Capabilities {
	return integration.Capabilities{
		URLPatterns:          []string{"*://trello.com/c/*"},
		IssueElementSelector: `.window-wrapper, [data-testid="card-back"]`,
		ObserveMutations:     true,
	}
}

func (Trello) Render(el, control *goquery.Selection) {
	control.AddClass("button-link")

	actions, ok := integration.FirstOf(
		integration.ElementProbe(el, `[data-testid="card-back-actions"]`),
		integration.ElementProbe(el, ".window-sidebar .window-module .u-clearfix"),
	)
	if ok {
		prependElement(actions, control)
		return
	}
	el.AppendSelection(control)
}

func (t Trello) GetIssue(el *goquery.Selection, src integration.Source) (integration.Issue, bool) {
	match := trelloPath.FindStringSubmatch(src.Path)
	if match == nil {
		return integration.Issue{}, false
	}

	issueName, ok := integration.FirstOf(
		integration.TextProbe(el, `[data-testid="card-back-title-input"]`),
		integration.ValueProbe(el, `textarea[data-testid="card-back-title-input"]`),
		integration.TextProbe(el, ".window-title h2"),
		integration.ValueProbe(el, ".window-title textarea"),
	)
	if !ok {
		return integration.Issue{}, false
	}

	root := documentRoot(el)
	projectName := integration.Optional(integration.FirstOf(
		integration.TextProbe(root, `[data-testid="board-name-display"]`),
		integration.TextProbe(root, ".board-header-btn-text"),
	))

	var issueID *string
	if match[2] != "" {
		issueID = integration.String("#" + match[2])
	}

	return integration.Issue{
		IssueID:     issueID,
		IssueName:   issueName,
		ProjectName: projectName,
		ServiceType: t.Name(),
		ServiceURL:  src.Origin(),
		IssueURL:    integration.String("/c/" + match[1]),
	}, true
}
