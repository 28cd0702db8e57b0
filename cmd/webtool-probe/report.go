package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/webtool/pkg/dom"
	"github.com/entrhq/webtool/pkg/integration"
	"github.com/entrhq/webtool/pkg/watcher"
)

var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	coralPink   = lipgloss.Color("#FFCCCB")
	mintGreen   = lipgloss.Color("#A8E6CF")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	adapterStyle = lipgloss.NewStyle().
			Foreground(coralPink).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(mintGreen).
		Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	textStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	excerptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1)
)

const (
	excerptLength  = 1200
	highlightStyle = "monokai"
)

// reporter prints pass results for humans.
type reporter struct {
	mu        sync.Mutex
	out       io.Writer
	highlight bool
	lastIssue *integration.Issue

	// writeClipboard is clipboard.WriteAll outside tests
	writeClipboard func(string) error
}

func newReporter(out io.Writer, highlight bool) *reporter {
	return &reporter{
		out:            out,
		highlight:      highlight,
		writeClipboard: clipboard.WriteAll,
	}
}

// Fixture prints every pass of a fixture run followed by its verdict.
func (r *reporter) Fixture(out FixtureOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, headerStyle.Render("▸ "+out.Name))
	for i, res := range out.Passes {
		r.pass(i+1, res)
	}

	switch {
	case len(out.Failures) > 0:
		fmt.Fprintln(r.out, failStyle.Render("  FAIL"))
		for _, f := range out.Failures {
			fmt.Fprintln(r.out, textStyle.Render("    "+f))
		}
	default:
		fmt.Fprintln(r.out, okStyle.Render("  ok"))
	}
	fmt.Fprintln(r.out)
}

func (r *reporter) pass(n int, res watcher.Result) {
	if !res.Applicable() {
		fmt.Fprintf(r.out, "  %s %s\n", dimStyle.Render(fmt.Sprintf("pass %d:", n)), dimStyle.Render("no integration applies"))
		return
	}

	fmt.Fprintf(r.out, "  %s %s %s\n",
		dimStyle.Render(fmt.Sprintf("pass %d:", n)),
		adapterStyle.Render(res.Adapter),
		dimStyle.Render(summarize(res)))

	for _, inj := range res.Injections {
		issue := inj.Issue
		r.lastIssue = &issue

		label := "  injected"
		if inj.Degraded {
			label = "  injected (appended to the issue element)"
		}
		fmt.Fprintln(r.out, okStyle.Render(label))
		r.code(issueJSON(issue), "json")

		if parent := inj.Control.Parent; parent != nil {
			excerpt, truncated := dom.Excerpt(parent, excerptLength)
			if truncated {
				excerpt += "\n" + dimStyle.Render("(truncated)")
			}
			fmt.Fprintln(r.out, indent(excerptStyle.Render(r.render(excerpt, "html")), "    "))
		}
	}
}

func summarize(res watcher.Result) string {
	parts := []string{fmt.Sprintf("%d candidates", res.Candidates)}
	for _, c := range []struct {
		n    int
		what string
	}{
		{len(res.Injections), "injected"},
		{res.Skipped, "already controlled"},
		{res.Abstained, "abstained"},
		{res.Failed, "failed"},
	} {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.what))
		}
	}
	return strings.Join(parts, ", ")
}

func issueJSON(issue integration.Issue) string {
	data, err := json.MarshalIndent(issue, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", issue)
	}
	return string(data)
}

func (r *reporter) code(src, lexer string) {
	fmt.Fprintln(r.out, indent(r.render(src, lexer), "    "))
}

// render highlights src when enabled, falling back to plain text.
func (r *reporter) render(src, lexer string) string {
	if !r.highlight {
		return src
	}
	var b strings.Builder
	if err := quick.Highlight(&b, src, lexer, "terminal256", highlightStyle); err != nil {
		return src
	}
	return strings.TrimRight(b.String(), "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// CopyLastIssue writes the JSON of the last reported issue to the system
// clipboard. It reports false when no issue has been reported.
func (r *reporter) CopyLastIssue() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastIssue == nil {
		return false, nil
	}
	if err := r.writeClipboard(issueJSON(*r.lastIssue)); err != nil {
		return false, err
	}
	return true, nil
}

// LastIssue returns the last reported issue.
func (r *reporter) LastIssue() (integration.Issue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastIssue == nil {
		return integration.Issue{}, false
	}
	return *r.lastIssue, true
}

// Record notes issues from a pass without printing it. The live view
// renders passes itself but -copy still needs the last issue.
func (r *reporter) Record(res watcher.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inj := range res.Injections {
		issue := inj.Issue
		r.lastIssue = &issue
	}
}
