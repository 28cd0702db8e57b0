package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/webtool/pkg/dom"
	"github.com/entrhq/webtool/pkg/integration"
	"github.com/entrhq/webtool/pkg/watcher"
)

// FixtureFile is the YAML document read by -fixtures.
type FixtureFile struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// Fixture describes a page, the mutations a site would apply to it after
// load, and optionally what the integrations are expected to find.
type Fixture struct {
	Name     string  `yaml:"name"`
	URL      string  `yaml:"url"`
	HTML     string  `yaml:"html"`
	HTMLFile string  `yaml:"html_file"`
	Steps    []Step  `yaml:"steps"`
	Expect   *Expect `yaml:"expect"`
}

// Step is one scripted mutation. Exactly one action field is set.
type Step struct {
	SetLocation string `yaml:"set_location"`
	AppendHTML  string `yaml:"append_html"`
	SetText     string `yaml:"set_text"`

	// Selector picks the element for append_html and set_text
	Selector string `yaml:"selector"`
}

// Expect holds the checks for a fixture. Empty fields are not checked.
type Expect struct {
	Adapter    string `yaml:"adapter"`
	IssueID    string `yaml:"issue_id"`
	IssueName  string `yaml:"issue_name"`
	Injections *int   `yaml:"injections"`
}

// FixtureOutcome is the result of running one fixture.
type FixtureOutcome struct {
	Name     string
	Passes   []watcher.Result
	Failures []string
}

// Injections returns every injection made across the fixture's passes.
func (o FixtureOutcome) Injections() []watcher.Injection {
	var all []watcher.Injection
	for _, res := range o.Passes {
		all = append(all, res.Injections...)
	}
	return all
}

// OK reports whether every expectation held.
func (o FixtureOutcome) OK() bool {
	return len(o.Failures) == 0
}

// loadFixtures reads a fixture file. html_file paths are relative to it.
func loadFixtures(path string) ([]Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	var file FixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	dir := filepath.Dir(path)
	for i := range file.Fixtures {
		f := &file.Fixtures[i]
		if f.Name == "" {
			f.Name = fmt.Sprintf("fixture %d", i+1)
		}
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if f.HTMLFile != "" {
			raw, err := os.ReadFile(filepath.Join(dir, f.HTMLFile))
			if err != nil {
				return nil, fmt.Errorf("%s: failed to read html_file: %w", f.Name, err)
			}
			f.HTML = string(raw)
		}
	}
	return file.Fixtures, nil
}

func (f *Fixture) validate() error {
	if f.URL == "" {
		return fmt.Errorf("url is required")
	}
	if (f.HTML == "") == (f.HTMLFile == "") {
		return fmt.Errorf("exactly one of html and html_file is required")
	}
	for i, step := range f.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	actions := 0
	for _, set := range []bool{s.SetLocation != "", s.AppendHTML != "", s.SetText != ""} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("exactly one of set_location, append_html and set_text is required")
	}
	if s.SetLocation == "" && s.Selector == "" {
		return fmt.Errorf("selector is required")
	}
	return nil
}

// apply performs the step on page.
func (s Step) apply(page *dom.Page) error {
	if s.SetLocation != "" {
		page.SetLocation(s.SetLocation)
		return nil
	}

	var missing bool
	page.Update("fixture", func(doc *goquery.Document, _ string) bool {
		target, ok := dom.First(doc.Selection, s.Selector)
		if !ok {
			missing = true
			return false
		}
		if s.AppendHTML != "" {
			target.AppendHtml(s.AppendHTML)
		} else {
			target.SetText(s.SetText)
		}
		return true
	})
	if missing {
		return fmt.Errorf("no element matches %q", s.Selector)
	}
	return nil
}

// runFixture evaluates the fixture's page once and then after every step
// for as long as the watcher would keep observing a live page.
func runFixture(w *watcher.Watcher, f Fixture) (FixtureOutcome, error) {
	out := FixtureOutcome{Name: f.Name}

	page, err := dom.NewPageFromString(f.URL, f.HTML)
	if err != nil {
		return out, err
	}
	defer page.Close()

	res := w.Evaluate(page)
	out.Passes = append(out.Passes, res)

	for i, step := range f.Steps {
		if err := step.apply(page); err != nil {
			return out, fmt.Errorf("step %d: %w", i+1, err)
		}
		if !w.Observes(res) {
			continue
		}
		res = w.Evaluate(page)
		out.Passes = append(out.Passes, res)
	}

	if f.Expect != nil {
		out.Failures = f.Expect.check(out)
	}
	return out, nil
}

func (e *Expect) check(out FixtureOutcome) []string {
	var failures []string
	injections := out.Injections()

	if e.Adapter != "" {
		got := ""
		for _, res := range out.Passes {
			if res.Applicable() {
				got = res.Adapter
			}
		}
		if got != e.Adapter {
			failures = append(failures, fmt.Sprintf("adapter: want %q, got %q", e.Adapter, got))
		}
	}

	if e.Injections != nil && len(injections) != *e.Injections {
		failures = append(failures, fmt.Sprintf("injections: want %d, got %d", *e.Injections, len(injections)))
	}

	if e.IssueID == "" && e.IssueName == "" {
		return failures
	}
	if len(injections) == 0 {
		return append(failures, "issue: nothing was injected")
	}
	issue := injections[0].Issue
	if e.IssueID != "" && integration.Value(issue.IssueID) != e.IssueID {
		failures = append(failures, fmt.Sprintf("issue_id: want %q, got %q", e.IssueID, integration.Value(issue.IssueID)))
	}
	if e.IssueName != "" && issue.IssueName != e.IssueName {
		failures = append(failures, fmt.Sprintf("issue_name: want %q, got %q", e.IssueName, issue.IssueName))
	}
	return failures
}

func (p *probe) runFixtures(ctx context.Context) error {
	fixtures, err := loadFixtures(p.cli.Fixtures)
	if err != nil {
		return err
	}

	var failed []string
	for _, f := range fixtures {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := runFixture(p.watcher, f)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		p.report.Fixture(out)
		if !out.OK() {
			failed = append(failed, f.Name)
		}
	}

	if err := p.finish(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d fixtures failed: %s", len(failed), len(fixtures), strings.Join(failed, ", "))
	}
	return nil
}

// runPage evaluates a saved page once.
func (p *probe) runPage(ctx context.Context) error {
	if p.cli.URL == "" {
		return fmt.Errorf("-url is required with -html")
	}
	raw, err := os.ReadFile(p.cli.HTMLFile)
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := runFixture(p.watcher, Fixture{Name: filepath.Base(p.cli.HTMLFile), URL: p.cli.URL, HTML: string(raw)})
	if err != nil {
		return err
	}
	p.report.Fixture(out)
	return p.finish()
}

// finish copies the last reported issue when -copy is set.
func (p *probe) finish() error {
	if !p.cli.Copy {
		return nil
	}
	copied, err := p.report.CopyLastIssue()
	if err != nil {
		return fmt.Errorf("failed to copy issue: %w", err)
	}
	if copied {
		p.logger.Infof("copied issue JSON to clipboard")
	}
	return nil
}
