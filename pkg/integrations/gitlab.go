package integrations

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/entrhq/webtool/pkg/dom"
	"github.com/entrhq/webtool/pkg/integration"
)

// https://gitlab.com/NAMESPACE/PROJECT/issues/NUMBER
// https://gitlab.com/NAMESPACE/PROJECT/-/merge_requests/NUMBER
var gitLabPath = regexp.MustCompile(`^(.+)/(issues|merge_requests)/(\d+)$`)

// GitLab handles issue and merge request pages, self-hosted instances
// included. The page is server-rendered, so it is evaluated once.
type GitLab struct{}

func (GitLab) Name() string { return "GitLab" }

func (GitLab) Capabilities() integration.Capabilities {
	return integration.Capabilities{
		URLPatterns: []string{
			"*://*/issues/*",
			"*://*/merge_requests/*",
		},
		ShowIssueID: true,
	}
}

// Match keeps GitLab away from other trackers sharing the /issues/ URL shape.
func (GitLab) Match(doc *goquery.Document, _ integration.Source) bool {
	return dom.Matches(doc.Selection, ".detail-page-description .title")
}

func (GitLab) Render(el, control *goquery.Selection) {
	control.AddClass("btn")

	// The action buttons live in the header; pages without one still
	// carry them elsewhere in the document.
	root := documentRoot(el)
	header, hasHeader := dom.First(root, ".detail-page-header")
	scope := root
	if hasHeader {
		scope = header
	}

	// New design
	if button, ok := dom.FirstVisible(scope, ".issuable-actions .btn-grouped"); ok {
		control.AddClass("btn-grouped")
		button.BeforeSelection(control)
		return
	}

	// Old design
	if buttons, ok := dom.First(scope, ".issue-btn-group"); ok {
		control.AddClass("btn-grouped")
		buttons.AppendSelection(control)
		return
	}

	if hasHeader {
		control.SetAttr("style", "margin-left: 1em")
		header.AppendSelection(control)
	}
}

func (g GitLab) GetIssue(el *goquery.Selection, src integration.Source) (integration.Issue, bool) {
	match := gitLabPath.FindStringSubmatch(src.Path)
	if match == nil {
		return integration.Issue{}, false
	}

	prefix := "#"
	if match[2] == "merge_requests" {
		prefix = "!"
	}
	issueID := prefix + match[3]

	root := documentRoot(el)
	issueName, ok := integration.FirstOf(
		integration.LeadingTextProbe(root, ".detail-page-description .title"),
		integration.TextProbe(root, ".detail-page-description .title"),
	)
	if !ok {
		return integration.Issue{}, false
	}

	projectName := integration.Optional(integration.FirstOf(
		// New design (both new and old navigation)
		integration.TextNodeProbe(root, ".title .project-item-select-holder"),
		// Old design
		integration.TextProbe(root, ".title > span > a:nth-last-child(2)"),
	))

	servicePath := gitLabServicePath(strings.TrimSuffix(match[1], "/-"), root)
	serviceURL := src.Origin() + servicePath

	return integration.Issue{
		IssueID:     integration.String(issueID),
		IssueName:   issueName,
		ProjectName: projectName,
		ServiceType: g.Name(),
		ServiceURL:  serviceURL,
		IssueURL:    integration.String(integration.RelativeURL(serviceURL, src.Path)),
	}, true
}

// gitLabServicePath returns the part of projectPath in front of the
// project, i.e. the relative URL root of a self-hosted instance. Pages
// name the project's full path on <body>; without it the project is taken
// to be the last two segments, which misreads nested groups
// ("/grp/sub/proj") as an instance under "/grp".
func gitLabServicePath(projectPath string, root *goquery.Selection) string {
	projectPath = "/" + strings.Trim(projectPath, "/")

	if fullPath, ok := integration.AttrProbe(root, "body", "data-project-full-path")(); ok {
		fullPath = "/" + strings.Trim(fullPath, "/")
		if prefix, found := strings.CutSuffix(projectPath, fullPath); found {
			return prefix
		}
	}

	segments := strings.Split(strings.Trim(projectPath, "/"), "/")
	if len(segments) <= 2 {
		return ""
	}
	return "/" + strings.Join(segments[:len(segments)-2], "/")
}
