package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the monitor.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Hot     lipgloss.Color
	Cold    lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Hot:     lipgloss.Color("#ff4444"),
		Cold:    lipgloss.Color("#4488ff"),
		Warning: lipgloss.Color("#ffaa00"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#006600"),
		Hot:     lipgloss.Color("#ccff00"),
		Cold:    lipgloss.Color("#00aa44"),
		Warning: lipgloss.Color("#ffff00"),
	}

	ThemeMono = Theme{
		Name:    "mono",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#cccccc"),
		Text:    lipgloss.Color("#eeeeee"),
		Muted:   lipgloss.Color("#777777"),
		Hot:     lipgloss.Color("#ffffff"),
		Cold:    lipgloss.Color("#999999"),
		Warning: lipgloss.Color("#dddddd"),
	}

	Themes = []Theme{ThemeCyberpunk, ThemeRetroGreen, ThemeMono}
)

// GetTheme returns the named theme, or the first theme if the name is unknown.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(t Theme) Theme {
	for i := range Themes {
		if Themes[i].Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
