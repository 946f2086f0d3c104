package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/risley/internal/config"
	"github.com/san-kum/risley/internal/optics"
)

// presetMenu is the overlay for picking a named optical setup.
type presetMenu struct {
	names  []string
	cursor int
}

func newPresetMenu() *presetMenu {
	return &presetMenu{names: config.ListPresets()}
}

func (m Model) presetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	menu := m.presets
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "p", "q":
		m.presets = nil
	case "up", "k":
		if menu.cursor > 0 {
			menu.cursor--
		}
	case "down", "j":
		if menu.cursor < len(menu.names)-1 {
			menu.cursor++
		}
	case "enter":
		name := menu.names[menu.cursor]
		m.presets = nil
		m.applyPreset(name)
	}
	return m, nil
}

// applyPreset swaps the optical parameters. Rays are re-solved against the
// new envelope; targets it cannot reach are kept and marked stale.
func (m *Model) applyPreset(name string) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		m.setError(fmt.Errorf("unknown preset %q", name))
		return
	}
	if err := m.ctrl.SetParameters(cfg.Parameters()); err != nil {
		m.setError(err)
		return
	}
	m.vp = NewViewport(m.canvas.PixelWidth(), m.canvas.PixelHeight(), m.ctrl.Envelope().Rmax)
	m.setStatus("preset %s", name)
}

func (p *presetMenu) View() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("PRESETS") + "\n\n")
	for i, name := range p.names {
		cfg := config.GetPreset(name)
		env := optics.Recompute(cfg.Parameters())
		desc := fmt.Sprintf("α %.2f° n %.3f  Rmax %.1f", cfg.Optics.WedgeAngleDeg, cfg.Optics.RefractiveIndex, env.Rmax)
		if i == p.cursor {
			b.WriteString(selectStyle.Render(fmt.Sprintf("▸ %-12s", name)) + " " + valueStyle.Render(desc) + "\n")
		} else {
			b.WriteString(subtleStyle.Render(fmt.Sprintf("  %-12s %s", name, desc)) + "\n")
		}
	}
	b.WriteString("\n" + keyHintStyle.Render("j/k navigate · enter apply · esc back"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(1, 2).
		Render(b.String())
}
