// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// sites.go implements the site browser: a list of configured sites and,
// per site, the menu of sync operations. Destructive operations ask for a
// yes/no confirmation before a run is started.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/model"
	"github.com/toeirei/wp-deploy/internal/sync"
)

type sitesState int

const (
	sitesStateList sitesState = iota
	sitesStateActions
	sitesStateConfirm
)

// sitesLoadedMsg carries the site list into the model.
type sitesLoadedMsg struct {
	sites []model.Site
	err   error
}

// startRunMsg asks the router to switch to the operation runner.
type startRunMsg struct {
	title string
	op    runOp
}

type sitesModel struct {
	deps    sync.Deps
	state   sitesState
	sites   []model.Site
	cursor  int
	actions []string
	action  int
	pending int // action awaiting confirmation
	err     error
	back    bool
}

func siteActions() []string {
	return []string{
		i18n.T("action.test"),
		i18n.T("action.push"),
		i18n.T("action.pull"),
		i18n.T("action.db_push"),
		i18n.T("action.db_pull"),
		i18n.T("action.back"),
	}
}

func newSitesModel(deps sync.Deps) sitesModel {
	return sitesModel{deps: deps, actions: siteActions()}
}

func loadSitesCmd(deps sync.Deps) tea.Cmd {
	return func() tea.Msg {
		sites, err := deps.Store.Sites()
		return sitesLoadedMsg{sites: sites, err: err}
	}
}

func (m sitesModel) selected() model.Site {
	if m.cursor < len(m.sites) {
		return m.sites[m.cursor]
	}
	return model.Site{}
}

// startAction builds the runner start message for the chosen operation.
func (m sitesModel) startAction(action int) tea.Cmd {
	deps := m.deps
	site := m.selected()
	var title string
	var op runOp

	switch action {
	case 0:
		title = fmt.Sprintf(i18n.T("run.test_title"), site.Name)
		op = func(p sync.Progress) (string, error) {
			return deps.TestConnection(site.ID)
		}
	case 1:
		title = fmt.Sprintf(i18n.T("run.push_title"), site.Name)
		op = func(p sync.Progress) (string, error) {
			res, err := deps.Push(site.ID, p)
			return res.Message, err
		}
	case 2:
		title = fmt.Sprintf(i18n.T("run.pull_title"), site.Name)
		op = func(p sync.Progress) (string, error) {
			res, err := deps.Pull(site.ID, sync.PullOptions{NewerOnly: true}, p)
			return res.Message, err
		}
	case 3:
		title = fmt.Sprintf(i18n.T("run.db_push_title"), site.Name)
		op = func(p sync.Progress) (string, error) {
			res, err := deps.DBPush(site.ID, sync.DBOptions{}, p)
			return res.Message, err
		}
	case 4:
		title = fmt.Sprintf(i18n.T("run.db_pull_title"), site.Name)
		op = func(p sync.Progress) (string, error) {
			res, err := deps.DBPull(site.ID, sync.DBOptions{}, p)
			return res.Message, err
		}
	default:
		return nil
	}
	return func() tea.Msg { return startRunMsg{title: title, op: op} }
}

// needsConfirmation reports whether the action overwrites a database.
func (m sitesModel) needsConfirmation(action int) bool {
	site := m.selected()
	switch action {
	case 3:
		return site.Database == nil || site.Database.RequireConfirmationOnPush
	case 4:
		return true
	}
	return false
}

func (m sitesModel) Update(msg tea.Msg) (sitesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sitesLoadedMsg:
		m.sites = msg.sites
		m.err = msg.err
		if m.cursor >= len(m.sites) {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case sitesStateConfirm:
			switch msg.String() {
			case "y", "Y":
				m.state = sitesStateActions
				return m, m.startAction(m.pending)
			default:
				m.state = sitesStateActions
			}
			return m, nil

		case sitesStateActions:
			switch msg.String() {
			case "q", "esc":
				m.state = sitesStateList
			case "up", "k":
				if m.action > 0 {
					m.action--
				}
			case "down", "j":
				if m.action < len(m.actions)-1 {
					m.action++
				}
			case "enter":
				if m.action == len(m.actions)-1 {
					m.state = sitesStateList
					return m, nil
				}
				if m.needsConfirmation(m.action) {
					m.pending = m.action
					m.state = sitesStateConfirm
					return m, nil
				}
				return m, m.startAction(m.action)
			}
			return m, nil

		default: // sitesStateList
			switch msg.String() {
			case "q", "esc":
				m.back = true
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.sites)-1 {
					m.cursor++
				}
			case "enter":
				if len(m.sites) > 0 {
					m.state = sitesStateActions
					m.action = 0
				}
			}
			return m, nil
		}
	}
	return m, nil
}

func (m sitesModel) View() string {
	if m.err != nil {
		return errStyle.Render(m.err.Error()) + "\n" + helpStyle.Render(i18n.T("help.back"))
	}

	switch m.state {
	case sitesStateConfirm:
		site := m.selected()
		question := fmt.Sprintf(i18n.T("confirm.db_overwrite"), site.Name)
		pane := paneStyle.Width(64).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(i18n.T("confirm.title")), "", question))
		return lipgloss.JoinVertical(lipgloss.Left, pane, helpStyle.Render(i18n.T("help.confirm")))

	case sitesStateActions:
		site := m.selected()
		return renderList(site.Name+"  ("+site.String()+")", m.actions, m.action, i18n.T("help.navigate"))

	default:
		if len(m.sites) == 0 {
			pane := paneStyle.Width(64).Render(i18n.T("site.none"))
			return lipgloss.JoinVertical(lipgloss.Left, pane, helpStyle.Render(i18n.T("help.back")))
		}
		lines := make([]string, len(m.sites))
		for i, site := range m.sites {
			lines[i] = fmt.Sprintf("%-24s %s", site.Name, site.String())
		}
		return renderList(i18n.T("sites.title"), lines, m.cursor, i18n.T("help.navigate"))
	}
}
