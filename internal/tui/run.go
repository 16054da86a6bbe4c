// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// run.go implements the operation runner view: a sync pipeline executes in
// a worker goroutine and streams progress into the Bubble Tea loop over a
// channel.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/sync"
)

// runOp is a long-running operation reporting progress through the callback.
type runOp func(p sync.Progress) (string, error)

type progressMsg struct {
	current int
	total   int
	message string
}

type runDoneMsg struct {
	message string
	err     error
}

type runModel struct {
	title   string
	ch      chan tea.Msg
	spinner spinner.Model
	current int
	total   int
	message string
	done    bool
	result  string
	err     error
}

func newRunModel(title string, op runOp) *runModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedItemStyle

	ch := make(chan tea.Msg, 32)
	go func() {
		msg, err := op(func(current, total int, message string) {
			ch <- progressMsg{current: current, total: total, message: message}
		})
		ch <- runDoneMsg{message: msg, err: err}
	}()

	return &runModel{title: title, ch: ch, spinner: sp}
}

func waitForEvent(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m *runModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.ch))
}

// Update handles runner events. The third return value is true once the
// user dismisses a finished run.
func (m *runModel) Update(msg tea.Msg) (*runModel, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case progressMsg:
		m.current = msg.current
		m.total = msg.total
		m.message = msg.message
		return m, waitForEvent(m.ch), false

	case runDoneMsg:
		m.done = true
		m.result = msg.message
		m.err = msg.err
		return m, nil, false

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd, false

	case tea.KeyMsg:
		if m.done {
			return m, nil, true
		}
		return m, nil, false
	}
	return m, nil, false
}

func (m *runModel) View() string {
	lines := []string{titleStyle.Render(m.title), ""}

	switch {
	case !m.done:
		step := ""
		if m.total > 0 {
			step = fmt.Sprintf("[%d/%d] ", m.current, m.total)
		}
		lines = append(lines, m.spinner.View()+" "+step+m.message)
	case m.err != nil:
		lines = append(lines, errStyle.Render(fmt.Sprintf(i18n.T("run.failed"), m.err)))
	default:
		lines = append(lines, okStyle.Render(m.result))
	}

	pane := paneStyle.Width(64).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	help := i18n.T("help.wait")
	if m.done {
		help = i18n.T("help.dismiss")
	}
	return lipgloss.JoinVertical(lipgloss.Left, pane, helpStyle.Render(help))
}
