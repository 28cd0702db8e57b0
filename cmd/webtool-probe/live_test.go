package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webtool/pkg/integration"
	"github.com/entrhq/webtool/pkg/watcher"
)

func update(t *testing.T, m liveModel, msg tea.Msg) (liveModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	lm, ok := next.(liveModel)
	require.True(t, ok)
	return lm, cmd
}

func TestLiveModel_Passes(t *testing.T) {
	m := newLiveModel("https://trello.com/c/AbC123")
	assert.NotNil(t, m.Init())

	src, err := integration.ParseSource("https://trello.com/c/AbC123")
	require.NoError(t, err)

	m, _ = update(t, m, passMsg{
		res: watcher.Result{
			Adapter:    "Trello",
			Source:     src,
			Candidates: 1,
			Injections: []watcher.Injection{{Issue: integration.Issue{
				IssueID:     integration.String("#45"),
				IssueName:   "Ship it",
				ProjectName: integration.String("Roadmap"),
			}}},
		},
		applied: 2,
		at:      time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	})
	m, _ = update(t, m, passMsg{res: watcher.Result{Source: src}, at: time.Now()})

	assert.Equal(t, 2, m.total)
	assert.Equal(t, 1, m.injected)
	assert.Equal(t, 2, m.replayed)
	require.NotNil(t, m.lastIssue)

	view := m.View()
	assert.Contains(t, view, "2 passes, 1 injected, 2 replayed")
	assert.Contains(t, view, "15:04:05")
	assert.Contains(t, view, "#45 Ship it (Roadmap)")
	assert.Contains(t, view, "no integration applies to https://trello.com/c/AbC123")
	assert.Contains(t, view, "watching")
}

func TestLiveModel_PassLogIsBounded(t *testing.T) {
	m := newLiveModel("https://example.com")
	for i := 0; i < maxLivePasses+5; i++ {
		m, _ = update(t, m, passMsg{res: watcher.Result{Candidates: i}, at: time.Now()})
	}
	require.Len(t, m.passes, maxLivePasses)
	assert.Equal(t, 5, m.passes[0].res.Candidates)
	assert.Equal(t, maxLivePasses+5, m.total)
}

func TestLiveModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		t.Run(key.String(), func(t *testing.T) {
			_, cmd := update(t, newLiveModel("https://example.com"), key)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
		})
	}
}

func TestLiveModel_MirrorDone(t *testing.T) {
	failure := fmt.Errorf("mirror: %w", errors.New("target closed"))
	m, cmd := update(t, newLiveModel("https://example.com"), mirrorDoneMsg{err: failure})

	assert.True(t, m.done)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	view := m.View()
	assert.Contains(t, view, "stopped")
	assert.Contains(t, view, "error: mirror: target closed")
}

func TestExpectedStop(t *testing.T) {
	assert.True(t, expectedStop(context.Canceled))
	assert.True(t, expectedStop(fmt.Errorf("run: %w", context.DeadlineExceeded)))
	assert.False(t, expectedStop(errors.New("browser crashed")))
}

func TestDescribeIssue(t *testing.T) {
	assert.Equal(t, "Untitled", describeIssue(integration.Issue{IssueName: "Untitled"}))
	assert.Equal(t, "#3 Crash", describeIssue(integration.Issue{IssueID: integration.String("#3"), IssueName: "Crash"}))
}

func TestWatchLive_WaitsForMirror(t *testing.T) {
	var finished atomic.Bool
	mirror := func(ctx context.Context) error {
		<-ctx.Done()
		// a pass still finishing when the view exits
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		return ctx.Err()
	}

	var mu sync.Mutex
	var sent []tea.Msg
	send := func(msg tea.Msg) {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, msg)
	}
	view := func() (tea.Model, error) {
		return newLiveModel("https://example.com"), nil
	}

	final, err := watchLive(context.Background(), mirror, send, view)
	require.NoError(t, err)
	assert.IsType(t, liveModel{}, final)
	assert.True(t, finished.Load())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	done, ok := sent[0].(mirrorDoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.err, context.Canceled)
}

func TestWatchLive_ViewError(t *testing.T) {
	mirror := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	view := func() (tea.Model, error) {
		return nil, errors.New("no terminal")
	}

	_, err := watchLive(context.Background(), mirror, func(tea.Msg) {}, view)
	assert.EqualError(t, err, "no terminal")
}
