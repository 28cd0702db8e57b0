// Package integration defines the contract between the page watcher and the
// per-site adapters that recognize issue pages on third-party tools.
//
// # Adapters
//
// An Adapter recognizes one external tool. It declares its Capabilities
// (URL patterns, an optional candidate selector, whether the page keeps
// mutating, presentation hints) and implements two operations:
//
//   - GetIssue extracts an Issue from a candidate element, or abstains
//   - Render places the injected control next to the tool's own buttons
//
// Adapters whose applicability depends on page content also implement
// Matcher.
//
// # Selection
//
// A Registry keeps adapters in registration order. FindApplicable returns
// the first adapter whose patterns match the page Source and whose Match
// predicate, when present, accepts the document. Overlapping adapters are
// legal: registration order is the precedence rule.
//
// # Extraction
//
// Site markup drifts between releases, so extraction is written as ordered
// fallback chains of Probe values combined with FirstOf: the newest known
// layout first, older layouts after. A probe that finds nothing simply
// yields to the next; when the required issue name cannot be found the
// adapter abstains instead of returning a partial Issue.
//
// Extract wraps GetIssue with the post-processing shared by all adapters,
// including resolution of relative issue URLs against the service root.
package integration
