package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/typebind/loader"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	scopeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateList modelState = iota
	stateDetail
)

type browserModel struct {
	session  *loader.Session
	source   string
	all      []mappingInfo
	visible  []mappingInfo
	filter   textinput.Model
	selected int
	state    modelState
}

func newBrowserModel(s *loader.Session, source string) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "filter by name or scope"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.Focus()

	m := &browserModel{
		session: s,
		source:  source,
		all:     describeAll(s),
		filter:  ti,
		state:   stateList,
	}
	m.applyFilter()
	return m
}

func (m *browserModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *browserModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for _, info := range m.all {
		if q == "" || strings.Contains(strings.ToLower(info.name), q) || strings.Contains(info.scope, q) {
			m.visible = append(m.visible, info)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up":
			if m.state == stateList && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.state == stateList && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			switch m.state {
			case stateList:
				if len(m.visible) > 0 {
					m.state = stateDetail
				}
			case stateDetail:
				m.state = stateList
			}
			return m, nil

		case "esc":
			if m.state == stateDetail {
				m.state = stateList
				return m, nil
			}
			return m, tea.Quit
		}
	}

	if m.state != stateList {
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("typebind"))
	b.WriteString(" ")
	if m.source != "" {
		b.WriteString(m.source)
	} else {
		b.WriteString("std")
	}
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(m.session.ID().String()))
	b.WriteString("\n\n")

	for _, st := range m.session.Modules() {
		if !st.Loaded() {
			b.WriteString(errorStyle.Render(fmt.Sprintf("%s failed: %v", st.Scope, st.Err)))
			b.WriteString("\n")
		}
	}

	switch m.state {
	case stateList:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no matching instantiations"))
			b.WriteString("\n")
		}
		for i, info := range m.visible {
			line := nameStyle.Render(info.name) + "  " + scopeStyle.Render(info.scope)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + info.name + "  " + info.scope))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter details • esc quit"))

	case stateDetail:
		info := m.visible[m.selected]
		b.WriteString(nameStyle.Render(info.name))
		b.WriteString("  ")
		b.WriteString(scopeStyle.Render(info.scope))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("key " + info.key))
		b.WriteString("\n\n")
		for _, l := range info.layouts {
			b.WriteString(fmt.Sprintf("  %-9s #%-3d %s\n", l.layout, l.id, scopeStyle.Render(l.shape)))
		}
		b.WriteString("\n  methods:\n")
		for _, name := range info.methods {
			b.WriteString("    " + nameStyle.Render(name) + "\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter/esc back • ctrl+c quit"))
	}

	return b.String()
}

func runInteractive(s *loader.Session, source string) error {
	p := tea.NewProgram(newBrowserModel(s, source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
