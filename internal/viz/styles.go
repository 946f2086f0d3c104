package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	sidePanelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2).
			Width(46)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	keyHintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688")).Italic(true)
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	selectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	statusRecord  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444")).Blink(true)
	statusError   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	statusInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
)

// swatch renders a coloured block for a ray colour.
func swatch(hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("●")
}

// GradientText colours text by interpolating between two hex colours.
func GradientText(text string, startColor, endColor lipgloss.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	sr, sg, sb := parseHex(string(startColor))
	er, eg, eb := parseHex(string(endColor))

	var result strings.Builder
	n := len(runes)
	for i, c := range runes {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		r := int(float64(sr) + t*float64(er-sr))
		g := int(float64(sg) + t*float64(eg-sg))
		b := int(float64(sb) + t*float64(eb-sb))
		result.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(r, g, b))).Render(string(c)))
	}
	return result.String()
}

// ProgressBar renders a bar filled to percent in [0, 1].
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	return parseHexByte(hex[1:3]), parseHexByte(hex[3:5]), parseHexByte(hex[5:7])
}

func parseHexByte(s string) int {
	var val int
	for _, c := range s {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
