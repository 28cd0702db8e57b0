package integration

import (
	"strings"
)

// Issue is the normalized description of a single issue or task extracted
// from a third-party page.
//
// Optional fields are pointers: nil means the adapter could not determine
// the value, a pointer to "" means the page states it is empty.
type Issue struct {
	// IssueID is the site-native display id, e.g. "#123" or "!45"
	IssueID *string `json:"issueId,omitempty"`

	// IssueName is required; an issue without a name is never produced
	IssueName string `json:"issueName"`

	ProjectName *string `json:"projectName,omitempty"`

	// ServiceType is the adapter's tool name
	ServiceType string `json:"serviceType"`

	// ServiceURL is the root URL of the external service
	ServiceURL string `json:"serviceUrl"`

	// IssueURL deep-links to the issue, absolute or relative to ServiceURL
	IssueURL *string `json:"issueUrl,omitempty"`
}

// String returns a pointer to s. Use it for optional Issue fields.
func String(s string) *string {
	return &s
}

// Value dereferences an optional field, returning "" when it is unknown.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Valid reports whether the issue carries the fields a control needs.
func (i Issue) Valid() bool {
	return strings.TrimSpace(i.IssueName) != "" && i.ServiceType != ""
}

// Normalize trims surrounding whitespace from every text field and folds
// runs of whitespace inside the name, which page titles often carry from
// indentation in the markup.
func (i Issue) Normalize() Issue {
	i.IssueName = strings.Join(strings.Fields(i.IssueName), " ")
	i.ServiceType = strings.TrimSpace(i.ServiceType)
	i.ServiceURL = strings.TrimRight(strings.TrimSpace(i.ServiceURL), "/")
	i.IssueID = trimOptional(i.IssueID)
	i.ProjectName = trimOptional(i.ProjectName)
	i.IssueURL = trimOptional(i.IssueURL)
	return i
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return String(strings.TrimSpace(*s))
}
