package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/dpdsim/internal/sim"
)

const (
	canvasWidth     = 40
	canvasHeight    = 16
	historyCapacity = 600
	maxStepsPerTick = 256
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the live monitor of one running simulator. It advances the
// simulator on every tick and exposes the thermostat controls as keys.
type Model struct {
	sim          *sim.Simulator
	title        string
	limit        int
	stepsPerTick int
	running      bool
	view3D       bool
	showHelp     bool

	canvas *Canvas
	camera *Camera
	theme  Theme
	styles styles

	temperature []float64
	pressure    []float64
	lastEvent   string
	err         error
	width       int
}

// NewModel wraps a simulator that has already been set up. A positive
// limit pauses the monitor once that many steps have been taken.
func NewModel(s *sim.Simulator, title string, limit int) Model {
	return Model{
		sim:          s,
		title:        title,
		limit:        limit,
		stepsPerTick: 5,
		running:      true,
		canvas:       NewCanvas(canvasWidth, canvasHeight),
		camera:       NewCamera(),
		theme:        Themes[0],
		styles:       newStyles(Themes[0]),
		temperature:  make([]float64, 0, historyCapacity),
		pressure:     make([]float64, 0, historyCapacity),
		width:        100,
	}
}

// WithTheme returns a copy of the model using the named theme.
func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	m.styles = newStyles(m.theme)
	return m
}

func (m Model) Running() bool { return m.running }
func (m Model) Err() error    { return m.err }

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.err == nil && !m.done() {
			m.running = !m.running
		}
	case "h":
		m.apply(sim.EventHeatUp)
	case "c":
		m.apply(sim.EventCoolDown)
	case "t":
		if m.sim.Context().DPDActive() {
			m.apply(sim.EventThermostatOff)
		} else {
			m.apply(sim.EventThermostatOn)
		}
	case "v":
		m.view3D = !m.view3D
	case "left":
		m.camera.Orbit(-0.15, 0)
	case "right":
		m.camera.Orbit(0.15, 0)
	case "up":
		m.camera.Orbit(0, 0.15)
	case "down":
		m.camera.Orbit(0, -0.15)
	case "+", "=":
		m.stepsPerTick = min(maxStepsPerTick, m.stepsPerTick*2)
	case "-":
		m.stepsPerTick = max(1, m.stepsPerTick/2)
	case "n":
		m.theme = nextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) apply(kind sim.EventKind) {
	if err := m.sim.Apply(sim.Event{Step: m.sim.StepCount(), Kind: kind}); err != nil {
		m.lastEvent = fmt.Sprintf("%s failed: %v", kind, err)
		return
	}
	m.lastEvent = fmt.Sprintf("%s at step %d", kind, m.sim.StepCount())
}

func (m Model) done() bool { return m.limit > 0 && m.sim.StepCount() >= m.limit }

func (m *Model) advance() {
	for i := 0; i < m.stepsPerTick && !m.done(); i++ {
		if err := m.sim.Step(); err != nil {
			m.err = err
			m.running = false
			return
		}
	}
	m.temperature = push(m.temperature, m.sim.Particles().KineticTemperature())
	m.pressure = push(m.pressure, m.sim.Stress().Pressure())
	if m.done() {
		m.running = false
	}
}

func push(buf []float64, v float64) []float64 {
	if len(buf) == historyCapacity {
		copy(buf, buf[1:])
		buf = buf[:len(buf)-1]
	}
	return append(buf, v)
}

func (m Model) draw() string {
	m.canvas.Clear()
	ctx := m.sim.Context()
	ps := m.sim.Particles()
	if m.view3D {
		Render(m.canvas, BoxScene(ctx.Box, ps), m.camera)
	} else {
		m.canvas.Frame()
		for i := range ps {
			if !ps[i].Virtual {
				m.canvas.Plot(ps[i].Pos[0], ps[i].Pos[1], ctx.Box[0], ctx.Box[1])
			}
		}
	}
	return m.canvas.String()
}

func (m Model) View() string {
	s := m.styles
	ctx := m.sim.Context()
	ps := m.sim.Particles()

	status := s.running.Render("RUNNING")
	switch {
	case m.err != nil:
		status = s.err.Render("DIVERGED")
	case m.done():
		status = s.paused.Render("DONE")
	case !m.running:
		status = s.paused.Render("PAUSED")
	}
	header := s.title.Render(strings.ToUpper(m.title)) + "  " + status

	view := "x-y"
	if m.view3D {
		view = "3d"
	}
	thermo := s.cold.Render("off")
	if ctx.DPDActive() {
		thermo = s.hot.Render("on")
	}
	row := func(label, value string) string {
		return s.label.Render(label) + s.value.Render(value) + "\n"
	}

	var stats strings.Builder
	stats.WriteString(row("step", fmt.Sprintf("%d", m.sim.StepCount())))
	stats.WriteString(row("time", fmt.Sprintf("%.3f", ctx.Time)))
	stats.WriteString(row("T target", fmt.Sprintf("%.4f", ctx.Temperature)))
	stats.WriteString(row("T kinetic", fmt.Sprintf("%.4f", ps.KineticTemperature())))
	stats.WriteString(s.label.Render("thermostat") + thermo + "\n")
	stats.WriteString(row("particles", fmt.Sprintf("%d", len(ps))))
	stats.WriteString(row("resorts", fmt.Sprintf("%d", m.sim.Resorts())))
	stats.WriteString(row("|P|", fmt.Sprintf("%.3e", ps.Momentum().Norm())))
	if n := len(m.pressure); n > 0 {
		stats.WriteString(row("pressure", fmt.Sprintf("%.4f", m.pressure[n-1])))
	}
	stats.WriteString(row("steps/tick", fmt.Sprintf("%d", m.stepsPerTick)))
	stats.WriteString(row("view", view))
	if m.limit > 0 {
		stats.WriteString(s.label.Render("progress") + s.Gauge(float64(m.sim.StepCount())/float64(m.limit), 20) + "\n")
	}
	stats.WriteString("\n" + s.label.Render("pressure") + s.Sparkline(m.pressure, 30) + "\n")
	if len(m.temperature) > 1 {
		graph := asciigraph.Plot(m.temperature,
			asciigraph.Height(8),
			asciigraph.Width(max(20, min(60, m.width-2*canvasWidth))),
			asciigraph.Precision(3),
			asciigraph.Caption("kinetic temperature"))
		stats.WriteString("\n" + s.graph.Render(graph) + "\n")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		s.canvas.Render(m.draw()),
		s.panel.Render(stats.String()))

	var b strings.Builder
	b.WriteString(header + "\n\n" + body + "\n")
	if m.lastEvent != "" {
		b.WriteString("\n" + s.hint.Render(m.lastEvent) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + s.err.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + m.help())
	return b.String()
}

func (m Model) help() string {
	s := m.styles
	keys := [][2]string{{"space", "pause"}, {"h", "heat"}, {"c", "cool"}, {"t", "thermostat"}, {"q", "quit"}}
	if m.showHelp {
		keys = append(keys, [][2]string{{"v", "view"}, {"arrows", "orbit"}, {"+/-", "speed"}, {"n", "theme"}}...)
	} else {
		keys = append(keys, [2]string{"?", "more"})
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = s.key.Render(k[0]) + s.hint.Render(" "+k[1])
	}
	return strings.Join(parts, "  ")
}

// Run shows the monitor until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
