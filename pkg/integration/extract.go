package integration

import (
	"github.com/PuerkitoBio/goquery"
)

// Extract runs the adapter's GetIssue and applies the post-processing every
// issue shares: whitespace normalization, the adapter's service type, and
// resolution of a relative IssueURL against ServiceURL. An issue that is
// still missing its name after normalization is treated as an abstention.
func Extract(a Adapter, el *goquery.Selection, src Source) (Issue, bool) {
	issue, ok := a.GetIssue(el, src)
	if !ok {
		return Issue{}, false
	}

	if issue.ServiceType == "" {
		issue.ServiceType = a.Name()
	}
	issue = issue.Normalize()
	if !issue.Valid() {
		return Issue{}, false
	}

	if issue.IssueURL != nil && *issue.IssueURL != "" {
		issue.IssueURL = String(ResolveURL(issue.ServiceURL, *issue.IssueURL))
	}
	return issue, true
}
