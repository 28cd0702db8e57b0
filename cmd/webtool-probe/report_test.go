package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webtool/pkg/integration"
	"github.com/entrhq/webtool/pkg/watcher"
)

func gitLabOutcome(t *testing.T) FixtureOutcome {
	t.Helper()
	fixtures, err := loadFixtures("testdata/fixtures.yaml")
	require.NoError(t, err)
	out, err := runFixture(newTestWatcher(), fixtures[0])
	require.NoError(t, err)
	return out
}

func TestReporter_Fixture(t *testing.T) {
	var buf bytes.Buffer
	r := newReporter(&buf, false)

	r.Fixture(gitLabOutcome(t))

	got := buf.String()
	assert.Contains(t, got, "gitlab issue")
	assert.Contains(t, got, "GitLab")
	assert.Contains(t, got, "1 candidates, 1 injected")
	assert.Contains(t, got, `"issueId": "#42"`)
	assert.Contains(t, got, `"issueName": "Fix crash on save"`)
	// The excerpt shows where the control landed.
	assert.Contains(t, got, `class="issuable-actions"`)
	assert.Contains(t, got, watcher.ControlClass)
	assert.Contains(t, got, "ok")
	assert.NotContains(t, got, "FAIL")
}

func TestReporter_FixtureFailures(t *testing.T) {
	var buf bytes.Buffer
	r := newReporter(&buf, false)

	r.Fixture(FixtureOutcome{
		Name:     "broken",
		Passes:   []watcher.Result{{}},
		Failures: []string{`adapter: want "Jira", got ""`},
	})

	got := buf.String()
	assert.Contains(t, got, "no integration applies")
	assert.Contains(t, got, "FAIL")
	assert.Contains(t, got, `adapter: want "Jira", got ""`)
}

func TestReporter_Highlight(t *testing.T) {
	var plain, highlighted bytes.Buffer
	out := gitLabOutcome(t)

	newReporter(&plain, false).Fixture(out)
	newReporter(&highlighted, true).Fixture(out)

	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, highlighted.String(), "\x1b[")
}

func TestSummarize(t *testing.T) {
	res := watcher.Result{
		Adapter:    "Trello",
		Candidates: 4,
		Skipped:    1,
		Abstained:  2,
		Injections: []watcher.Injection{{}},
	}
	assert.Equal(t, "4 candidates, 1 injected, 1 already controlled, 2 abstained", summarize(res))
	assert.Equal(t, "0 candidates", summarize(watcher.Result{}))
}

func TestReporter_CopyLastIssue(t *testing.T) {
	var copied []string
	r := newReporter(&bytes.Buffer{}, false)
	r.writeClipboard = func(s string) error {
		copied = append(copied, s)
		return nil
	}

	ok, err := r.CopyLastIssue()
	require.NoError(t, err)
	assert.False(t, ok)

	r.Record(watcher.Result{Injections: []watcher.Injection{
		{Issue: integration.Issue{IssueName: "first", ServiceType: "Trello"}},
		{Issue: integration.Issue{IssueID: integration.String("#7"), IssueName: "second", ServiceType: "Trello"}},
	}})

	issue, ok := r.LastIssue()
	require.True(t, ok)
	assert.Equal(t, "second", issue.IssueName)

	ok, err = r.CopyLastIssue()
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, copied, 1)
	assert.JSONEq(t, `{"issueId":"#7","issueName":"second","serviceType":"Trello","serviceUrl":""}`, copied[0])

	r.writeClipboard = func(string) error { return errors.New("no clipboard utility") }
	_, err = r.CopyLastIssue()
	assert.ErrorContains(t, err, "no clipboard utility")
}
