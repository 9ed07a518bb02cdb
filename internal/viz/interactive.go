package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/dpdsim/internal/sim"
)

// Preset is one entry of the picker menu.
type Preset struct {
	Name        string
	Description string
	Steps       int
}

// BuildFunc creates a ready-to-step simulator for the named preset.
type BuildFunc func(name string) (*sim.Simulator, error)

type appState int

const (
	stateMenu appState = iota
	stateMonitor
)

// App lets the user pick a preset and then hands over to the live monitor.
type App struct {
	state   appState
	cursor  int
	presets []Preset
	build   BuildFunc
	theme   string
	err     error
	monitor Model
}

func NewApp(presets []Preset, build BuildFunc, theme string) App {
	return App{presets: presets, build: build, theme: theme}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateMonitor {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.state = stateMenu
			return a, nil
		}
		next, cmd := a.monitor.Update(msg)
		a.monitor = next.(Model)
		return a, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		if len(a.presets) == 0 {
			return a, nil
		}
		p := a.presets[a.cursor]
		s, err := a.build(p.Name)
		if err != nil {
			a.err = fmt.Errorf("%s: %w", p.Name, err)
			return a, nil
		}
		a.err = nil
		a.monitor = NewModel(s, p.Name, p.Steps).WithTheme(a.theme)
		a.state = stateMonitor
		return a, a.monitor.Init()
	}
	return a, nil
}

func (a App) View() string {
	if a.state == stateMonitor {
		return a.monitor.View()
	}
	st := newStyles(GetTheme(a.theme))
	selected := lipgloss.NewStyle().Bold(true).Foreground(GetTheme(a.theme).Text)

	var b strings.Builder
	b.WriteString("\n  " + st.title.Render("DPDSIM") + "\n  " + st.hint.Render("dissipative particle dynamics thermostat") + "\n\n")
	for i, p := range a.presets {
		name := fmt.Sprintf("%-10s", p.Name)
		if i == a.cursor {
			b.WriteString("  " + st.key.Render("▸ ") + selected.Render(name) + "  " + st.value.Render(p.Description) + "\n")
		} else {
			b.WriteString("    " + st.hint.Render(name) + "  " + st.hint.Render(p.Description) + "\n")
		}
	}
	if a.err != nil {
		b.WriteString("\n  " + st.err.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n  " + st.key.Render("j/k") + st.hint.Render(" move  ") +
		st.key.Render("enter") + st.hint.Render(" start  ") +
		st.key.Render("esc") + st.hint.Render(" back  ") +
		st.key.Render("q") + st.hint.Render(" quit") + "\n")
	return b.String()
}

// RunInteractive shows the preset picker until the user quits.
func RunInteractive(presets []Preset, build BuildFunc, theme string) error {
	_, err := tea.NewProgram(NewApp(presets, build, theme), tea.WithAltScreen()).Run()
	return err
}
