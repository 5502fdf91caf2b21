// # cmd/joosc/ui.go
package main

import (
	stderrors "errors"
	"fmt"
	"joosc/internal/engine/parser"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	fatalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
	fatal       bool
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	outcome    Outcome
	lastUpdate time.Time
}

type updateMsg struct {
	outcome Outcome
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.outcome = msg.outcome
		m.lastUpdate = time.Now()
		m.list.SetItems(outcomeItems(msg.outcome))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func outcomeItems(o Outcome) []list.Item {
	items := []list.Item{}
	if o.Err != nil {
		var syntax *parser.SyntaxError
		if stderrors.As(o.Err, &syntax) {
			items = append(items, item{title: "SyntaxError", desc: fmt.Sprintf("%s %s", syntax.Loc, syntax.Message), fatal: true})
		} else {
			items = append(items, item{title: "Error", desc: o.Err.Error(), fatal: true})
		}
	}
	for _, d := range o.Diagnostics {
		items = append(items, item{
			title: string(d.Kind),
			desc:  fmt.Sprintf("%s %s", d.Primary, d.Message),
			fatal: d.Kind.Fatal(),
		})
	}
	return items
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files | %d types | %s",
		m.lastUpdate.Format("15:04:05"), len(m.outcome.Files), m.outcome.Types, m.outcome.Duration.Round(time.Millisecond)))

	var fatal, names int
	for _, it := range m.list.Items() {
		if it.(item).fatal {
			fatal++
		} else {
			names++
		}
	}

	var summary string
	if fatal == 0 && names == 0 {
		summary = successStyle.Render("Resolved")
	} else {
		summary = fmt.Sprintf("%s | %s",
			fatalStyle.Render(fmt.Sprintf("%d Structural", fatal)),
			nameStyle.Render(fmt.Sprintf("%d Name", names)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Joos Name Resolution"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Diagnostics"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}
