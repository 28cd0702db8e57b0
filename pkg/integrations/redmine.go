package integrations

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/webtool/pkg/dom"
	"github.com/entrhq/webtool/pkg/integration"
)

var redminePath = regexp.MustCompile(`^(.*)/issues/(\d+)$`)

// Redmine handles the issue page of Redmine installations. It shares the
// /issues/ URL shape with GitLab and is registered after it; the body
// classes Redmine sets on every page decide between them.
type Redmine struct{}

func (Redmine) Name() string { return "Redmine" }

func (Redmine) Capabilities() integration.Capabilities {
	return integration.Capabilities{
		URLPatterns: []string{"*://*/issues/*"},
		ShowIssueID: true,
	}
}

func (Redmine) Match(doc *goquery.Document, _ integration.Source) bool {
	return dom.Matches(doc.Selection, "body.controller-issues.action-show")
}

func (Redmine) Render(el, control *goquery.Selection) {
	root := documentRoot(el)

	if contextual, ok := integration.FirstOf(
		integration.VisibleElementProbe(root, "#content > .contextual"),
		integration.ElementProbe(root, "#content .contextual"),
	); ok {
		control.AddClass("icon")
		prependElement(contextual, control)
		return
	}

	if content, ok := dom.First(root, "#content"); ok {
		prependElement(content, control)
	}
}

func (r Redmine) GetIssue(el *goquery.Selection, src integration.Source) (integration.Issue, bool) {
	match := redminePath.FindStringSubmatch(src.Path)
	if match == nil {
		return integration.Issue{}, false
	}

	root := documentRoot(el)
	issueName, ok := integration.FirstOf(
		integration.TextProbe(root, ".issue .subject h3"),
		integration.TextProbe(root, "#content .subject h3"),
	)
	if !ok {
		return integration.Issue{}, false
	}

	projectName := integration.Optional(integration.FirstOf(
		integration.TextProbe(root, "#header h1 .current-project"),
		integration.TextNodeProbe(root, "#header h1"),
	))

	serviceURL := src.Origin() + match[1]
	return integration.Issue{
		IssueID:     integration.String("#" + match[2]),
		IssueName:   issueName,
		ProjectName: projectName,
		ServiceType: r.Name(),
		ServiceURL:  serviceURL,
		IssueURL:    integration.String(integration.RelativeURL(serviceURL, src.Path)),
	}, true
}
