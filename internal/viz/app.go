package viz

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/risley/internal/logging"
	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/report"
	"github.com/san-kum/risley/internal/sim"
	"github.com/san-kum/risley/internal/storage"
	"github.com/san-kum/risley/internal/telemetry"
)

const (
	defaultWidth    = 64
	defaultHeight   = 28
	sideWidth       = 44
	sideHeight      = 10
	historyCapacity = 240
	maxFrameDt      = 0.1
	convergedEps    = 1e-4
	svgSize         = 600

	// Rows and columns taken by the header and panel border before the
	// first canvas cell.
	canvasTop  = 3
	canvasLeft = 2
)

type TickMsg time.Time

// Options wires the outer services into the UI. Every field is optional.
type Options struct {
	Logger    logging.Logger
	Metrics   *telemetry.Collector
	Store     *storage.Store
	ExportDir string
	Rand      *rand.Rand
	Now       func() time.Time
	FPS       int
	Theme     string

	// Width and Height size the scan canvas in terminal cells.
	Width, Height int
}

// Model is the bubbletea model. It pulls a snapshot from the controller on
// every frame and feeds keyboard and mouse input back to it.
type Model struct {
	ctrl *sim.Controller
	opts Options
	log  logging.Logger

	canvas *Canvas
	side   *Canvas
	camera *Camera
	vp     Viewport
	theme  Theme

	cursor   Point
	history1 []float64
	history2 []float64
	lastTick time.Time
	frame    int

	status    string
	statusErr bool
	showHelp  bool
	showSide  bool
	presets   *presetMenu
	recorder  *Recorder
	recording bool
}

func NewModel(ctrl *sim.Controller, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}

	m := Model{
		ctrl:     ctrl,
		opts:     opts,
		log:      opts.Logger.With(logging.String("component", "tui")),
		side:     NewCanvas(sideWidth, sideHeight),
		camera:   NewCamera(),
		theme:    GetTheme(opts.Theme),
		history1: make([]float64, 0, historyCapacity),
		history2: make([]float64, 0, historyCapacity),
		showSide: true,
		recorder: &Recorder{},
		status:   "enter: add target · ?: help",
	}
	m.resize(opts.Width, opts.Height)
	m.cursor = Point{0, ctrl.Envelope().Rmax / 2}
	ctrl.Hover(m.cursor.X, m.cursor.Y)
	return m
}

func (m *Model) resize(cols, rows int) {
	m.canvas = NewCanvas(cols, rows)
	m.vp = NewViewport(m.canvas.PixelWidth(), m.canvas.PixelHeight(), m.ctrl.Envelope().Rmax)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and advances the animation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.presets != nil {
			return m.presetKey(msg)
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		cols := clampInt(msg.Width-sideWidth-10, 30, 120)
		rows := clampInt(msg.Height-8, 12, 60)
		m.resize(cols, rows)
	case TickMsg:
		m.step(time.Time(msg))
		return m, m.tick()
	}
	return m, nil
}

// step advances the controller by the wall time since the previous frame.
func (m *Model) step(now time.Time) {
	dt := 1 / float64(m.opts.FPS)
	if !m.lastTick.IsZero() {
		dt = math.Min(now.Sub(m.lastTick).Seconds(), maxFrameDt)
	}
	m.lastTick = now
	m.frame++

	m.ctrl.Tick(dt)
	snap := m.ctrl.Snapshot()
	m.opts.Metrics.RecordTick()
	m.opts.Metrics.Observe(snap)

	if snap.Animating {
		m.history1 = appendBounded(m.history1, optics.Degrees(snap.Prism1))
		m.history2 = appendBounded(m.history2, optics.Degrees(snap.Prism2))
	}
	if m.recording {
		m.draw(snap)
		m.recorder.Capture(m.canvas)
	}
}

func appendBounded(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) draw(snap sim.Snapshot) {
	DrawScan(m.canvas, m.vp, snap, m.cursor, m.theme)
	if m.showSide {
		m.side.Clear()
		Render3D(m.side, OpticalTrain(snap, m.theme), m.camera)
	}
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// exportReport writes the text report into the export directory.
func (m *Model) exportReport() {
	now := m.opts.Now()
	m.export(report.Filename(now), func(f *os.File) error {
		return report.Write(f, m.ctrl.Snapshot(), now)
	})
}

func (m *Model) exportSVG() {
	m.export(report.SVGFilename(report.Filename(m.opts.Now())), func(f *os.File) error {
		return report.WriteSVG(f, m.ctrl.Snapshot(), svgSize)
	})
}

func (m *Model) export(name string, fn func(*os.File) error) {
	path := filepath.Join(m.opts.ExportDir, name)
	if err := writeFile(path, fn); err != nil {
		m.log.Error(context.Background(), "export failed", logging.String("path", path), logging.Err(err))
		m.setError(fmt.Errorf("export: %w", err))
		return
	}
	m.opts.Metrics.RecordExport()
	m.log.Info(context.Background(), "report exported", logging.String("path", path))
	m.setStatus("exported %s", path)
}

func (m *Model) saveSession() {
	if m.opts.Store == nil {
		m.setStatus("no session store configured")
		return
	}
	if err := m.opts.Store.Init(); err != nil {
		m.setError(fmt.Errorf("save session: %w", err))
		return
	}
	id, err := m.opts.Store.Save(m.ctrl.Snapshot(), m.opts.Now())
	if err != nil {
		m.log.Error(context.Background(), "session save failed", logging.Err(err))
		m.setError(fmt.Errorf("save session: %w", err))
		return
	}
	m.log.Info(context.Background(), "session saved", logging.String("id", id))
	m.setStatus("saved session %s", id)
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.recorder.Reset()
		m.setStatus("recording")
		return
	}
	m.recording = false
	path := filepath.Join(m.opts.ExportDir, "risley_"+m.opts.Now().UTC().Format("20060102T150405")+".gif")
	if err := writeFile(path, func(f *os.File) error {
		return m.recorder.Encode(f, 100/m.opts.FPS+1)
	}); err != nil {
		m.setError(fmt.Errorf("recording: %w", err))
		return
	}
	m.log.Info(context.Background(), "recording saved", logging.String("path", path))
	m.setStatus("saved %s", path)
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// View renders the scan view beside the parameter and ray panels.
func (m Model) View() string {
	snap := m.ctrl.Snapshot()
	m.draw(snap)

	title := GradientText("RISLEY PRISM SCANNER", m.theme.Title, m.theme.Prism2)
	scan := panelStyle.Render(m.canvas.String())
	left := lipgloss.JoinVertical(lipgloss.Left, headerStyle.Render(title), scan, m.statusLine())

	var s strings.Builder
	s.WriteString(m.viewState(snap))
	s.WriteString("\n")
	s.WriteString(m.viewParameters(snap))
	s.WriteString("\n")
	s.WriteString(m.viewRays(snap))
	if m.showSide {
		s.WriteString("\n" + sectionStyle.Render("OPTICAL TRAIN") + "\n")
		s.WriteString(m.side.String())
	}
	if len(m.history1) > 1 {
		chart := asciigraph.PlotMany([][]float64{m.history1, m.history2},
			asciigraph.Height(5), asciigraph.Width(32),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.HotPink),
			asciigraph.Caption("θ1 / θ2 (deg)"))
		s.WriteString("\n" + graphStyle.Render(chart) + "\n")
	}
	s.WriteString("\n" + keyHintStyle.Render("enter add · n random · tab next · x remove · c clear\nspace animate · +/- speed · e export · p presets · ? help · q quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, left, sidePanelStyle.Render(s.String()))
	if m.presets != nil {
		return lipgloss.JoinHorizontal(lipgloss.Top, main, m.presets.View())
	}
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

func (m Model) statusLine() string {
	if m.statusErr {
		return statusError.Render(m.status)
	}
	return statusInfo.Render(m.status)
}

func (m Model) viewState(snap sim.Snapshot) string {
	var s strings.Builder
	state := statusPaused.Render("PAUSED")
	if snap.Animating {
		state = statusRunning.Render("ANIMATING")
		if m.ctrl.Converged(convergedEps) {
			state = statusRunning.Render("ON TARGET")
		}
	}
	if m.recording {
		state += " " + statusRecord.Render(fmt.Sprintf("● REC %d", m.recorder.Len()))
	}
	s.WriteString(state + "\n")
	s.WriteString(row("Speed", fmt.Sprintf("%s %.1fx", ProgressBar(snap.Speed/5, 10), snap.Speed)))
	s.WriteString(row("Prism 1", fmt.Sprintf("%8.3f°  → %8.3f°", optics.Degrees(snap.Prism1), optics.Degrees(snap.Target1))))
	s.WriteString(row("Prism 2", fmt.Sprintf("%8.3f°  → %8.3f°", optics.Degrees(snap.Prism2), optics.Degrees(snap.Target2))))
	s.WriteString(row("Cursor", fmt.Sprintf("(%.2f, %.2f) mm", m.cursor.X, m.cursor.Y)))
	if h := snap.Hover; h != nil {
		if h.Reachable {
			s.WriteString(row("Preview", fmt.Sprintf("θ1 %.2f° θ2 %.2f°", optics.Degrees(h.Angles.Theta1), optics.Degrees(h.Angles.Theta2))))
		} else {
			s.WriteString(row("Preview", statusError.Render(h.Err.Error())))
		}
	}
	return s.String()
}

func (m Model) viewParameters(snap sim.Snapshot) string {
	p, env := snap.Parameters, snap.Envelope
	var s strings.Builder
	s.WriteString(sectionStyle.Render("PARAMETERS") + "\n")
	s.WriteString(row("Wedge [w/W]", fmt.Sprintf("%.3f°", optics.Degrees(p.WedgeAngle))))
	s.WriteString(row("Index [i/I]", fmt.Sprintf("%.4f", p.RefractiveIndex)))
	s.WriteString(row("Thickness", fmt.Sprintf("%.2f mm", p.PrismThickness)))
	s.WriteString(row("Sep. [s/S]", fmt.Sprintf("%.2f mm", p.PrismSeparation)))
	s.WriteString(row("Screen [z/Z]", fmt.Sprintf("%.2f mm", p.ScreenDistance)))
	s.WriteString(row("R1 / R2", fmt.Sprintf("%.3f / %.3f mm", env.R1, env.R2)))
	s.WriteString(row("Rd / Rmax", fmt.Sprintf("%.3f / %.3f mm", env.Rd, env.Rmax)))
	return s.String()
}

func (m Model) viewRays(snap sim.Snapshot) string {
	var s strings.Builder
	s.WriteString(sectionStyle.Render(fmt.Sprintf("RAYS %d/%d", len(snap.Rays), snap.Capacity)) + "\n")
	if len(snap.Rays) == 0 {
		s.WriteString(subtleStyle.Render("  no active rays") + "\n")
		return s.String()
	}
	for _, r := range snap.Rays {
		line := fmt.Sprintf("#%-2d (%7.2f,%7.2f) %7.2f° %7.2f°", r.ID, r.TargetX, r.TargetY,
			optics.Degrees(r.Theta1), optics.Degrees(r.Theta2))
		if r.Stale {
			line += " stale"
		}
		marker := "  "
		if snap.HasSelection && r.ID == snap.SelectedID {
			marker = selectStyle.Render("▸ ")
			line = selectStyle.Render(line)
		}
		s.WriteString(marker + swatch(r.Color) + " " + line + "\n")
	}
	return s.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

const helpText = `
╔══════════════════════════════════════════╗
║            KEYBOARD SHORTCUTS            ║
╠══════════════════════════════════════════╣
║  Arrows      - Move cursor (shift: ×5)   ║
║  Enter       - Add target at cursor      ║
║  N           - Add random target         ║
║  Tab/S-Tab   - Select next/previous ray  ║
║  X           - Remove selected ray       ║
║  C           - Clear all rays            ║
║  Space       - Toggle animation          ║
║  + / -       - Animation speed           ║
║  w/W i/I     - Wedge angle, index        ║
║  s/S z/Z     - Separation, screen dist.  ║
║  e / E       - Export report / SVG       ║
║  Ctrl+S      - Save session              ║
║  P           - Presets                   ║
║  T / V       - Theme, optical train view ║
║  [ ]         - Rotate optical train      ║
║  G           - Toggle GIF recording      ║
║  Q           - Quit                      ║
╚══════════════════════════════════════════╝`

// Run starts the interactive program and blocks until it exits.
func Run(ctrl *sim.Controller, opts Options) error {
	p := tea.NewProgram(NewModel(ctrl, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
