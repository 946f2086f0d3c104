package viz

import "github.com/charmbracelet/lipgloss"

// Theme assigns colours to the parts of the scan view and panels.
type Theme struct {
	Name   string
	Ring   lipgloss.Color // Rmax boundary
	Defect lipgloss.Color // center defect disc
	Grid   lipgloss.Color
	Cursor lipgloss.Color
	Beam   lipgloss.Color
	Prism1 lipgloss.Color
	Prism2 lipgloss.Color
	Title  lipgloss.Color
	Muted  lipgloss.Color
	OK     lipgloss.Color
	Warn   lipgloss.Color
	Err    lipgloss.Color
}

var (
	ThemeLab = Theme{
		Name:   "lab",
		Ring:   lipgloss.Color("#4ECDC4"),
		Defect: lipgloss.Color("#FF6B6B"),
		Grid:   lipgloss.Color("#3a3a55"),
		Cursor: lipgloss.Color("#FDCB6E"),
		Beam:   lipgloss.Color("#ffffff"),
		Prism1: lipgloss.Color("#45B7D1"),
		Prism2: lipgloss.Color("#FD79A8"),
		Title:  lipgloss.Color("#00ffff"),
		Muted:  lipgloss.Color("#666688"),
		OK:     lipgloss.Color("#00ff88"),
		Warn:   lipgloss.Color("#ffaa00"),
		Err:    lipgloss.Color("#ff4444"),
	}

	ThemeRetroGreen = Theme{
		Name:   "retro",
		Ring:   lipgloss.Color("#00ff00"),
		Defect: lipgloss.Color("#88ff88"),
		Grid:   lipgloss.Color("#005500"),
		Cursor: lipgloss.Color("#ccffcc"),
		Beam:   lipgloss.Color("#ffffff"),
		Prism1: lipgloss.Color("#00cc00"),
		Prism2: lipgloss.Color("#88ff88"),
		Title:  lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#007700"),
		OK:     lipgloss.Color("#88ff88"),
		Warn:   lipgloss.Color("#ffff00"),
		Err:    lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Ring:   lipgloss.Color("#cccccc"),
		Defect: lipgloss.Color("#888888"),
		Grid:   lipgloss.Color("#444444"),
		Cursor: lipgloss.Color("#0088ff"),
		Beam:   lipgloss.Color("#ffffff"),
		Prism1: lipgloss.Color("#aaaaaa"),
		Prism2: lipgloss.Color("#dddddd"),
		Title:  lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
		OK:     lipgloss.Color("#00ff00"),
		Warn:   lipgloss.Color("#ffaa00"),
		Err:    lipgloss.Color("#ff0000"),
	}

	ThemeSunset = Theme{
		Name:   "sunset",
		Ring:   lipgloss.Color("#feca57"),
		Defect: lipgloss.Color("#ff4757"),
		Grid:   lipgloss.Color("#5a3b5c"),
		Cursor: lipgloss.Color("#ff9ff3"),
		Beam:   lipgloss.Color("#fff5f5"),
		Prism1: lipgloss.Color("#ff6b6b"),
		Prism2: lipgloss.Color("#feca57"),
		Title:  lipgloss.Color("#ff6b6b"),
		Muted:  lipgloss.Color("#8b6b8c"),
		OK:     lipgloss.Color("#5fd068"),
		Warn:   lipgloss.Color("#ffc048"),
		Err:    lipgloss.Color("#ff4757"),
	}

	Themes = []Theme{
		ThemeLab,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
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
