// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for wp-deploy. This
// file, tui.go, contains the top-level model that acts as a router to the
// sub-views: site browser, operation runner, language selection.
package tui // import "github.com/toeirei/wp-deploy/internal/tui"

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/logging"
	"github.com/toeirei/wp-deploy/internal/sync"
)

// viewState represents which part of the UI is currently active.
type viewState int

const (
	// menuView is the main navigation menu.
	menuView viewState = iota
	sitesView
	runView
	languageView
)

var (
	colorAccent = lipgloss.Color("205")
	colorSubtle = lipgloss.Color("241")

	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	itemStyle         = lipgloss.NewStyle()
	selectedItemStyle = lipgloss.NewStyle().Foreground(colorAccent)
	errStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle         = lipgloss.NewStyle().Foreground(colorSubtle).Italic(true)
	paneStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSubtle).Padding(1, 2)
)

// languageChangedMsg signals that the language changed and menus need to be
// rebuilt with freshly translated labels.
type languageChangedMsg struct{}

// mainModel is the top-level model. It acts as a state machine and router,
// delegating updates and rendering to the active sub-model.
type mainModel struct {
	deps     sync.Deps
	state    viewState
	menu     menuModel
	sites    sitesModel
	runner   *runModel
	language languageModel
	width    int
	height   int
}

// menuModel holds the state for the main menu.
type menuModel struct {
	choices []string
	cursor  int
}

// languageModel holds the state for the language selection menu.
type languageModel struct {
	codes  []string
	names  []string
	cursor int
}

func newMenuModel() menuModel {
	return menuModel{
		choices: []string{
			i18n.T("menu.sites"),
			i18n.T("menu.language"),
			i18n.T("menu.quit"),
		},
	}
}

func newLanguageModel() languageModel {
	return languageModel{
		codes: []string{"en", "de"},
		names: []string{"English", "Deutsch"},
	}
}

func initialModel(deps sync.Deps) mainModel {
	return mainModel{
		deps:     deps,
		state:    menuView,
		menu:     newMenuModel(),
		sites:    newSitesModel(deps),
		language: newLanguageModel(),
	}
}

func (m mainModel) Init() tea.Cmd {
	return loadSitesCmd(m.deps)
}

// Update is the main message loop, routing events to the active sub-model.
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case languageChangedMsg:
		m.menu = newMenuModel()
		m.sites = newSitesModel(m.deps)
		m.state = menuView
		return m, loadSitesCmd(m.deps)
	case startRunMsg:
		m.runner = newRunModel(msg.title, msg.op)
		m.state = runView
		return m, m.runner.Init()
	}

	switch m.state {
	case sitesView:
		var cmd tea.Cmd
		m.sites, cmd = m.sites.Update(msg)
		if m.sites.back {
			m.sites.back = false
			m.state = menuView
			return m, nil
		}
		return m, cmd

	case runView:
		var cmd tea.Cmd
		done := false
		m.runner, cmd, done = m.runner.Update(msg)
		if done {
			m.state = sitesView
			return m, loadSitesCmd(m.deps)
		}
		return m, cmd

	case languageView:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "q", "esc":
				m.state = menuView
			case "up", "k":
				if m.language.cursor > 0 {
					m.language.cursor--
				}
			case "down", "j":
				if m.language.cursor < len(m.language.codes)-1 {
					m.language.cursor++
				}
			case "enter":
				i18n.SetLang(m.language.codes[m.language.cursor])
				return m, func() tea.Msg { return languageChangedMsg{} }
			}
		}
		return m, nil

	default: // menuView
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "q":
				return m, tea.Quit
			case "up", "k":
				if m.menu.cursor > 0 {
					m.menu.cursor--
				}
			case "down", "j":
				if m.menu.cursor < len(m.menu.choices)-1 {
					m.menu.cursor++
				}
			case "enter":
				switch m.menu.cursor {
				case 0:
					m.state = sitesView
					return m, loadSitesCmd(m.deps)
				case 1:
					m.state = languageView
				case 2:
					return m, tea.Quit
				}
			}
		}
		return m, nil
	}
}

func (m mainModel) View() string {
	switch m.state {
	case sitesView:
		return m.sites.View()
	case runView:
		return m.runner.View()
	case languageView:
		return m.viewLanguage()
	default:
		return m.viewMenu()
	}
}

func renderList(title string, lines []string, cursor int, help string) string {
	items := []string{titleStyle.Render(title), ""}
	for i, line := range lines {
		if i == cursor {
			items = append(items, selectedItemStyle.Render("▸ "+line))
		} else {
			items = append(items, itemStyle.Render("  "+line))
		}
	}
	pane := paneStyle.Width(64).Render(lipgloss.JoinVertical(lipgloss.Left, items...))
	return lipgloss.JoinVertical(lipgloss.Left, pane, helpStyle.Render(help))
}

func (m mainModel) viewMenu() string {
	return renderList(i18n.T("menu.title"), m.menu.choices, m.menu.cursor, i18n.T("help.navigate"))
}

func (m mainModel) viewLanguage() string {
	return renderList(i18n.T("language.select"), m.language.names, m.language.cursor, i18n.T("help.navigate"))
}

// Run is the main entrypoint for the TUI. It initializes and runs the
// Bubble Tea program with the given production dependencies.
func Run(deps sync.Deps) {
	if _, err := tea.NewProgram(initialModel(deps)).Run(); err != nil {
		logging.Errorf("TUI run error: %v", err)
		os.Exit(1)
	}
}
