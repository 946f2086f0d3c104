package viz

import (
	"context"
	"math"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/risley/internal/logging"
	"github.com/san-kum/risley/internal/sim"
)

const speedStep = 0.1

// paramStep is the change applied by one press of a parameter key; the
// lowercase key decreases and the uppercase key increases.
var paramStep = map[rune]struct {
	name  string
	delta float64
}{
	'w': {sim.ParamWedge, -0.1},
	'W': {sim.ParamWedge, 0.1},
	'i': {sim.ParamIndex, -0.01},
	'I': {sim.ParamIndex, 0.01},
	's': {sim.ParamSeparation, -1},
	'S': {sim.ParamSeparation, 1},
	'z': {sim.ParamDistance, -10},
	'Z': {sim.ParamDistance, 10},
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up":
		m.moveCursor(0, 1)
	case "down":
		m.moveCursor(0, -1)
	case "left":
		m.moveCursor(-1, 0)
	case "right":
		m.moveCursor(1, 0)
	case "shift+up":
		m.moveCursor(0, 5)
	case "shift+down":
		m.moveCursor(0, -5)
	case "shift+left":
		m.moveCursor(-5, 0)
	case "shift+right":
		m.moveCursor(5, 0)
	case "enter":
		m.addAt(m.cursor)
	case "n":
		ray, err := m.ctrl.AddRandomTarget(m.opts.Rand)
		m.opts.Metrics.RecordAdd(err)
		if err != nil {
			m.setError(err)
			break
		}
		m.setStatus("added ray %d at (%.2f, %.2f)", ray.ID, ray.TargetX, ray.TargetY)
	case "tab":
		m.ctrl.SelectNext(1)
	case "shift+tab":
		m.ctrl.SelectNext(-1)
	case "x", "delete":
		if ray, ok := m.ctrl.Selected(); ok {
			m.ctrl.Remove(ray.ID)
			m.setStatus("removed ray %d", ray.ID)
		}
	case "c":
		m.ctrl.Clear()
		m.history1, m.history2 = m.history1[:0], m.history2[:0]
		m.setStatus("cleared")
	case " ":
		if m.ctrl.ToggleAnimation() {
			m.setStatus("animating")
		} else {
			m.setStatus("paused")
		}
	case "+", "=":
		m.ctrl.SetSpeed(m.ctrl.Speed() + speedStep)
	case "-", "_":
		m.ctrl.SetSpeed(m.ctrl.Speed() - speedStep)
	case "e":
		m.exportReport()
	case "E":
		m.exportSVG()
	case "ctrl+s":
		m.saveSession()
	case "g":
		m.toggleRecording()
	case "p":
		m.presets = newPresetMenu()
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.setStatus("theme %s", m.theme.Name)
	case "v":
		m.showSide = !m.showSide
	case "[":
		m.camera.RotateY(-0.15)
	case "]":
		m.camera.RotateY(0.15)
	case "?":
		m.showHelp = !m.showHelp
	default:
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
			if step, ok := paramStep[msg.Runes[0]]; ok {
				m.adjustParam(step.name, step.delta)
			}
		}
	}
	return m, nil
}

// cursorStep is the cursor move per key press in millimeters.
func (m *Model) cursorStep() float64 {
	return math.Max(m.ctrl.Envelope().Rmax/50, 0.05)
}

func (m *Model) moveCursor(dx, dy float64) {
	step := m.cursorStep()
	m.setCursor(Point{m.cursor.X + dx*step, m.cursor.Y + dy*step})
}

func (m *Model) setCursor(p Point) {
	m.cursor = p
	m.ctrl.Hover(p.X, p.Y)
}

func (m *Model) addAt(p Point) {
	ray, err := m.ctrl.AddTarget(p.X, p.Y)
	m.opts.Metrics.RecordAdd(err)
	if err != nil {
		m.log.Debug(context.Background(), "target rejected",
			logging.Float("x", p.X), logging.Float("y", p.Y), logging.Err(err))
		m.setError(err)
		return
	}
	m.setStatus("added ray %d", ray.ID)
}

// adjustParam nudges a parameter. Rejected values leave the model as it was.
func (m *Model) adjustParam(name string, delta float64) {
	v, err := m.ctrl.Parameter(name)
	if err != nil {
		m.setError(err)
		return
	}
	if err := m.ctrl.SetParameter(name, v+delta); err != nil {
		m.setError(err)
		return
	}
	m.vp = NewViewport(m.canvas.PixelWidth(), m.canvas.PixelHeight(), m.ctrl.Envelope().Rmax)
	nv, _ := m.ctrl.Parameter(name)
	m.setStatus("%s = %.4g", name, nv)
}

// handleMouse maps a terminal cell inside the scan panel to millimeters.
// Motion moves the cursor; a left click also adds a target.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	col, row := msg.X-canvasLeft, msg.Y-canvasTop
	if col < 0 || row < 0 || col >= m.canvas.Width || row >= m.canvas.Height {
		return
	}
	x, y := m.vp.CellToMM(col, row)
	m.setCursor(Point{x, y})
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		m.addAt(m.cursor)
	}
}
