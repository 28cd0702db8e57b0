package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/webtool/pkg/browser"
	"github.com/entrhq/webtool/pkg/config"
	"github.com/entrhq/webtool/pkg/integration"
	"github.com/entrhq/webtool/pkg/watcher"
)

// maxLivePasses bounds the pass log shown in the live view.
const maxLivePasses = 12

// passMsg is sent to the live view after every mirror pass.
type passMsg struct {
	res     watcher.Result
	applied int
	at      time.Time
}

// mirrorDoneMsg is sent when the mirror stops.
type mirrorDoneMsg struct {
	err error
}

// liveModel shows a running mirror: the page, a spinner while it watches,
// and the most recent passes.
type liveModel struct {
	spinner spinner.Model
	url     string

	passes   []passMsg
	total    int
	injected int
	replayed int

	lastIssue *integration.Issue
	done      bool
	err       error
}

func newLiveModel(url string) liveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = okStyle
	return liveModel{spinner: s, url: url}
}

func (m liveModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case passMsg:
		m.total++
		m.injected += len(msg.res.Injections)
		m.replayed += msg.applied
		for _, inj := range msg.res.Injections {
			issue := inj.Issue
			m.lastIssue = &issue
		}
		m.passes = append(m.passes, msg)
		if len(m.passes) > maxLivePasses {
			m.passes = m.passes[len(m.passes)-maxLivePasses:]
		}

	case mirrorDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m liveModel) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("webtool-probe") + " " + dimStyle.Render(m.url) + "\n\n")

	status := m.spinner.View() + " watching"
	if m.done {
		status = dimStyle.Render("stopped")
	}
	fmt.Fprintf(&b, "%s  %s\n\n", status,
		dimStyle.Render(fmt.Sprintf("%d passes, %d injected, %d replayed", m.total, m.injected, m.replayed)))

	for _, p := range m.passes {
		at := dimStyle.Render(p.at.Format("15:04:05"))
		if !p.res.Applicable() {
			fmt.Fprintf(&b, "  %s %s\n", at, dimStyle.Render("no integration applies to "+p.res.Source.URL()))
			continue
		}
		fmt.Fprintf(&b, "  %s %s %s\n", at, adapterStyle.Render(p.res.Adapter), dimStyle.Render(summarize(p.res)))
		for _, inj := range p.res.Injections {
			fmt.Fprintf(&b, "      %s\n", textStyle.Render(describeIssue(inj.Issue)))
		}
	}

	if m.lastIssue != nil {
		b.WriteString("\n" + okStyle.Render("last issue ") + textStyle.Render(describeIssue(*m.lastIssue)) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + failStyle.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + dimStyle.Italic(true).Render("q to quit") + "\n")
	return b.String()
}

// describeIssue renders an issue on one line: id, name and project.
func describeIssue(issue integration.Issue) string {
	parts := []string{}
	if id := integration.Value(issue.IssueID); id != "" {
		parts = append(parts, id)
	}
	parts = append(parts, issue.IssueName)
	if project := integration.Value(issue.ProjectName); project != "" {
		parts = append(parts, "("+project+")")
	}
	return strings.Join(parts, " ")
}

// runLive opens the page in a browser and mirrors it until the user quits,
// the timeout expires or the mirror fails.
func (p *probe) runLive(ctx context.Context) error {
	if p.cli.URL == "" {
		return fmt.Errorf("-url is required with -live")
	}

	settings := config.GetBrowser().Snapshot()
	opts := browser.OptionsFromSettings(settings)
	if p.cli.HeadlessSet {
		opts.Headless = p.cli.Headless
	}

	manager := browser.NewSessionManager(p.logger.With("browser"))
	if err := manager.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := manager.Shutdown(); err != nil {
			p.logger.Warnf("browser shutdown: %v", err)
		}
	}()

	session, err := manager.StartSession("probe", opts)
	if err != nil {
		return err
	}

	program := tea.NewProgram(newLiveModel(p.cli.URL))

	mirror := browser.NewMirror(session, p.watcher,
		browser.WithMirrorLogger(p.logger.With("mirror")),
		browser.WithMirrorReporter(func(res watcher.Result, applied int) {
			p.report.Record(res)
			program.Send(passMsg{res: res, applied: applied, at: time.Now()})
		}),
	)
	if err := mirror.Attach(); err != nil {
		return err
	}
	if err := session.Navigate(p.cli.URL, browser.NavigateOptions{WaitUntil: "domcontentloaded"}); err != nil {
		return err
	}

	final, err := watchLive(ctx, mirror.Run, program.Send, program.Run)
	if err != nil {
		return fmt.Errorf("live view failed: %w", err)
	}

	if m, ok := final.(liveModel); ok && m.err != nil && !expectedStop(m.err) {
		return m.err
	}
	return p.finish()
}

// watchLive runs mirror in the background and view in the foreground. When
// the view exits the mirror is cancelled and waited for, so a pass in
// flight finishes before the caller reads its results or closes the
// browser.
func watchLive(ctx context.Context, mirror func(context.Context) error, send func(tea.Msg), view func() (tea.Model, error)) (tea.Model, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		send(mirrorDoneMsg{err: mirror(ctx)})
	}()

	final, err := view()
	cancel()
	<-done
	return final, err
}

// expectedStop reports whether err only says the mirror was told to stop.
func expectedStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
