package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	running lipgloss.Style
	paused  lipgloss.Style
	err     lipgloss.Style
	panel   lipgloss.Style
	canvas  lipgloss.Style
	graph   lipgloss.Style
	key     lipgloss.Style
	hint    lipgloss.Style
	hot     lipgloss.Style
	cold    lipgloss.Style
	warm    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		running: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		paused:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		err:     lipgloss.NewStyle().Bold(true).Foreground(t.Hot),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2),
		canvas: lipgloss.NewStyle().Foreground(t.Accent).Padding(0, 1),
		graph:  lipgloss.NewStyle().Foreground(t.Primary),
		key:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		hint:   lipgloss.NewStyle().Foreground(t.Muted),
		hot:    lipgloss.NewStyle().Foreground(t.Hot),
		cold:   lipgloss.NewStyle().Foreground(t.Cold),
		warm:   lipgloss.NewStyle().Foreground(t.Warning),
	}
}

// Sparkline renders the last width values as block characters scaled
// between their minimum and maximum.
func (s styles) Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return s.hint.Render(strings.Repeat("─", width))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	bars := []rune("▁▂▃▄▅▆▇█")
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / span
		c := string(bars[int(norm*float64(len(bars)-1))])
		switch {
		case norm > 0.7:
			b.WriteString(s.hot.Render(c))
		case norm > 0.3:
			b.WriteString(s.warm.Render(c))
		default:
			b.WriteString(s.cold.Render(c))
		}
	}
	return b.String()
}

// Gauge renders a fraction in [0, 1] as a bar of the given width.
func (s styles) Gauge(frac float64, width int) string {
	filled := int(frac * float64(width))
	filled = max(0, min(width, filled))
	return s.value.Render(strings.Repeat("█", filled)) + s.hint.Render(strings.Repeat("░", width-filled))
}
