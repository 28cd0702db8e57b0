package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webtool/pkg/integration"
	"github.com/entrhq/webtool/pkg/integrations"
	"github.com/entrhq/webtool/pkg/watcher"
)

func newTestWatcher() *watcher.Watcher {
	return watcher.New(integrations.Default(), nil)
}

func TestLoadFixtures(t *testing.T) {
	fixtures, err := loadFixtures(filepath.Join("testdata", "fixtures.yaml"))
	require.NoError(t, err)
	require.Len(t, fixtures, 2)

	gitlab := fixtures[0]
	assert.Equal(t, "gitlab issue", gitlab.Name)
	assert.Contains(t, gitlab.HTML, `<h2 class="title">Fix crash on save</h2>`)
	require.NotNil(t, gitlab.Expect)
	require.NotNil(t, gitlab.Expect.Injections)
	assert.Equal(t, 1, *gitlab.Expect.Injections)

	wrike := fixtures[1]
	require.Len(t, wrike.Steps, 2)
	assert.Equal(t, "Launch plan", wrike.Steps[0].SetText)
	assert.Equal(t, "body", wrike.Steps[1].Selector)
}

func TestLoadFixtures_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing url",
			yaml:    "fixtures:\n  - name: a\n    html: <p></p>\n",
			wantErr: "a: url is required",
		},
		{
			name:    "both html sources",
			yaml:    "fixtures:\n  - url: https://x.test/\n    html: <p></p>\n    html_file: p.html\n",
			wantErr: "fixture 1: exactly one of html and html_file",
		},
		{
			name:    "step with two actions",
			yaml:    "fixtures:\n  - url: https://x.test/\n    html: <p></p>\n    steps:\n      - set_location: https://x.test/2\n        set_text: hi\n        selector: p\n",
			wantErr: "step 1: exactly one of set_location",
		},
		{
			name:    "step without selector",
			yaml:    "fixtures:\n  - url: https://x.test/\n    html: <p></p>\n    steps:\n      - append_html: <b></b>\n",
			wantErr: "step 1: selector is required",
		},
		{
			name:    "missing html file",
			yaml:    "fixtures:\n  - url: https://x.test/\n    html_file: nope.html\n",
			wantErr: "failed to read html_file",
		},
		{
			name:    "malformed yaml",
			yaml:    "fixtures: [",
			wantErr: "failed to parse fixtures",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fixtures.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0600))

			_, err := loadFixtures(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRunFixture_FromFile(t *testing.T) {
	fixtures, err := loadFixtures(filepath.Join("testdata", "fixtures.yaml"))
	require.NoError(t, err)

	w := newTestWatcher()
	for _, f := range fixtures {
		out, err := runFixture(w, f)
		require.NoError(t, err, f.Name)
		assert.True(t, out.OK(), "%s: %v", f.Name, out.Failures)
	}
}

func TestRunFixture_ObservedSteps(t *testing.T) {
	fixtures, err := loadFixtures(filepath.Join("testdata", "fixtures.yaml"))
	require.NoError(t, err)

	out, err := runFixture(newTestWatcher(), fixtures[1])
	require.NoError(t, err)

	// Load, then one pass per step: the title arrives on the first step
	// and the toast only finds the task already controlled.
	require.Len(t, out.Passes, 3)
	assert.Equal(t, 1, out.Passes[0].Abstained)
	assert.Len(t, out.Passes[1].Injections, 1)
	assert.Equal(t, 1, out.Passes[2].Skipped)

	injections := out.Injections()
	require.Len(t, injections, 1)
	assert.Equal(t, "Marketing", integration.Value(injections[0].Issue.ProjectName))
}

func TestRunFixture_OneShotAdapterIgnoresSteps(t *testing.T) {
	f := Fixture{
		Name: "gitlab",
		URL:  "https://gitlab.example.com/acme/widgets/issues/42",
		HTML: `<html><body>
			<div class="detail-page-header"><div class="issuable-actions"><a class="btn">Edit</a></div></div>
			<div class="detail-page-description"><h2 class="title">Fix crash</h2></div>
		</body></html>`,
		Steps: []Step{{AppendHTML: `<p>late</p>`, Selector: "body"}},
	}

	out, err := runFixture(newTestWatcher(), f)
	require.NoError(t, err)
	require.Len(t, out.Passes, 1)
	assert.Len(t, out.Injections(), 1)
}

func TestRunFixture_SetLocation(t *testing.T) {
	f := Fixture{
		Name: "github navigation",
		URL:  "https://github.com/acme/widgets",
		HTML: `<html><body><div id="partial-discussion-header">
			<div class="gh-header-actions"><button>Edit</button></div>
			<h1 class="gh-header-title"><span class="js-issue-title">Broken build</span> <span class="gh-header-number">#12</span></h1>
		</div></body></html>`,
		Steps: []Step{{SetLocation: "https://github.com/acme/widgets/issues/12"}},
	}

	out, err := runFixture(newTestWatcher(), f)
	require.NoError(t, err)
	require.Len(t, out.Passes, 2)
	assert.False(t, out.Passes[0].Applicable())
	assert.Equal(t, "GitHub", out.Passes[1].Adapter)
	assert.Len(t, out.Passes[1].Injections, 1)
}

func TestRunFixture_StepSelectorMissing(t *testing.T) {
	f := Fixture{
		URL:   "https://trello.com/c/AbC123/45-card",
		HTML:  `<html><body></body></html>`,
		Steps: []Step{{SetText: "x", Selector: ".nowhere"}},
	}

	_, err := runFixture(newTestWatcher(), f)
	assert.ErrorContains(t, err, `step 1: no element matches ".nowhere"`)
}

func TestExpect_Failures(t *testing.T) {
	zero := 0
	f := Fixture{
		Name: "mismatch",
		URL:  "https://gitlab.example.com/acme/widgets/issues/42",
		HTML: `<html><body><div class="detail-page-description"><h2 class="title">Fix crash</h2></div></body></html>`,
		Expect: &Expect{
			Adapter:    "GitHub",
			IssueID:    "#41",
			IssueName:  "Fix crash",
			Injections: &zero,
		},
	}

	out, err := runFixture(newTestWatcher(), f)
	require.NoError(t, err)
	assert.False(t, out.OK())
	assert.Equal(t, []string{
		`adapter: want "GitHub", got "GitLab"`,
		"injections: want 0, got 1",
		`issue_id: want "#41", got "#42"`,
	}, out.Failures)
}

func TestExpect_NothingInjected(t *testing.T) {
	e := &Expect{IssueName: "anything"}
	failures := e.check(FixtureOutcome{Passes: []watcher.Result{{}}})
	require.Len(t, failures, 1)
	assert.True(t, strings.HasPrefix(failures[0], "issue: nothing"))
}
