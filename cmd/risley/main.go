package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/risley/internal/config"
	"github.com/san-kum/risley/internal/kinematics"
	"github.com/san-kum/risley/internal/logging"
	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/report"
	"github.com/san-kum/risley/internal/sim"
	"github.com/san-kum/risley/internal/storage"
	"github.com/san-kum/risley/internal/telemetry"
	"github.com/san-kum/risley/internal/viz"
)

var (
	configFile  string
	preset      string
	dataDir     string
	logLevel    string
	logFormat   string
	logFile     string
	metricsAddr string
	seed        int64

	// Optical overrides. The wedge angle is in degrees, lengths in mm.
	wedge      float64
	index      float64
	thickness  float64
	diameter   float64
	separation float64
	distance   float64

	// animate
	steps     int
	frameDt   float64
	speed     float64
	tolerance float64

	// export, report
	outPath    string
	reportOut  string
	targets    []string
	format     string
	svgSize    int
	theme      string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "risley",
		Short:        "risley prism beam steering simulator",
		SilenceUsage: true,
		RunE:         runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (text, json)")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	pf.Float64Var(&wedge, "wedge", optics.DefaultWedgeAngleDeg, "wedge angle (deg)")
	pf.Float64Var(&index, "index", optics.DefaultRefractiveIndex, "refractive index")
	pf.Float64Var(&thickness, "thickness", optics.DefaultThickness, "prism thickness (mm)")
	pf.Float64Var(&diameter, "diameter", optics.DefaultDiameter, "prism diameter (mm)")
	pf.Float64Var(&separation, "separation", optics.DefaultSeparation, "prism separation (mm)")
	pf.Float64Var(&distance, "distance", optics.DefaultScreenDistance, "screen distance (mm)")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal view",
		RunE:  runTUI,
	}
	for _, c := range []*cobra.Command{rootCmd, tuiCmd} {
		c.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for generated targets")
		c.Flags().StringVar(&theme, "theme", "", "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	}

	envelopeCmd := &cobra.Command{
		Use:   "envelope",
		Short: "print the scan envelope for the current parameters",
		Args:  cobra.NoArgs,
		RunE:  printEnvelope,
	}

	solveCmd := &cobra.Command{
		Use:   "solve [x] [y]",
		Short: "solve prism angles for a target in mm",
		Args:  cobra.ExactArgs(2),
		RunE:  solveTarget,
	}

	animateCmd := &cobra.Command{
		Use:   "animate [x] [y]",
		Short: "animate the prisms toward a target and plot the angles",
		Args:  cobra.ExactArgs(2),
		RunE:  animateTarget,
	}
	animateCmd.Flags().IntVar(&steps, "steps", 120, "number of frames")
	animateCmd.Flags().Float64Var(&frameDt, "dt", 1.0/60, "frame time (s)")
	animateCmd.Flags().Float64Var(&speed, "speed", 1, "speed multiplier")
	animateCmd.Flags().Float64Var(&tolerance, "tolerance", 1e-3, "convergence tolerance (deg)")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "write a data report for targets",
		Args:  cobra.NoArgs,
		RunE:  exportReport,
	}
	exportCmd.Flags().StringArrayVar(&targets, "target", nil, "target as x,y in mm (repeatable)")
	exportCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file, - for stdout")
	exportCmd.Flags().StringVar(&format, "format", "text", "output format (text, json, svg)")
	exportCmd.Flags().IntVar(&svgSize, "svg-size", 600, "svg width and height (px)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "solve configured targets and save a session",
		Args:  cobra.NoArgs,
		RunE:  runSession,
	}
	runCmd.Flags().StringArrayVar(&targets, "target", nil, "target as x,y in mm (repeatable)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved sessions",
		Args:  cobra.NoArgs,
		RunE:  listSessions,
	}

	showCmd := &cobra.Command{
		Use:   "show [session_id]",
		Short: "show a saved session",
		Args:  cobra.ExactArgs(1),
		RunE:  showSession,
	}

	reportCmd := &cobra.Command{
		Use:   "report [session_id]",
		Short: "write the data report of a saved session",
		Args:  cobra.ExactArgs(1),
		RunE:  reportSession,
	}
	reportCmd.Flags().StringVarP(&reportOut, "output", "o", "-", "output file, - for stdout")
	reportCmd.Flags().StringVar(&format, "format", "text", "output format (text, json, svg)")
	reportCmd.Flags().IntVar(&svgSize, "svg-size", 600, "svg width and height (px)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(tuiCmd, envelopeCmd, solveCmd, animateCmd, exportCmd, runCmd, listCmd, showCmd, reportCmd, presetsCmd)
	return rootCmd
}

// loadConfig layers defaults, preset, config file and explicit flags, in
// that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	overrides := []struct {
		name string
		src  float64
		dst  *float64
	}{
		{"wedge", wedge, &cfg.Optics.WedgeAngleDeg},
		{"index", index, &cfg.Optics.RefractiveIndex},
		{"thickness", thickness, &cfg.Optics.ThicknessMm},
		{"diameter", diameter, &cfg.Optics.DiameterMm},
		{"separation", separation, &cfg.Optics.SeparationMm},
		{"distance", distance, &cfg.Optics.ScreenMm},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			*o.dst = o.src
		}
	}
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	for _, t := range targets {
		target, err := parseTarget(t)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, target)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseTarget reads "x,y" in millimeters.
func parseTarget(s string) (config.Target, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return config.Target{}, fmt.Errorf("invalid target %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return config.Target{}, fmt.Errorf("invalid target %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return config.Target{}, fmt.Errorf("invalid target %q: %w", s, err)
	}
	return config.Target{X: x, Y: y}, nil
}

func parsePoint(args []string) (float64, float64, error) {
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y: %w", err)
	}
	return x, y, nil
}

func newLogger(out io.Writer) logging.Logger {
	return logging.NewFromEnv(logging.Config{Level: logLevel, Format: logFormat, Output: out})
}

// newController builds a controller from cfg and adds the configured
// targets. Unreachable targets are logged through the context logger and
// skipped.
func newController(ctx context.Context, cfg *config.Config, metrics *telemetry.Collector) (*sim.Controller, error) {
	log := logging.FromContext(ctx)
	ctrl, err := sim.New(cfg.Parameters(),
		sim.WithCapacity(cfg.Capacity),
		sim.WithRate(cfg.Animation.Rate),
		sim.WithSpeed(cfg.Animation.Speed),
		sim.WithAnimation(cfg.Animation.Enabled),
	)
	if err != nil {
		return nil, err
	}
	for _, t := range cfg.Targets {
		_, err := ctrl.AddTarget(t.X, t.Y)
		metrics.RecordAdd(err)
		if err != nil {
			log.Warn(ctx, "target skipped",
				logging.Float("x", t.X), logging.Float("y", t.Y), logging.Err(err))
		}
	}
	return ctrl, nil
}

// startMetrics serves /metrics when --metrics-addr is set. The returned
// function stops the server.
func startMetrics(ctx context.Context) (*telemetry.Collector, func(), error) {
	if metricsAddr == "" {
		return nil, func() {}, nil
	}
	log := logging.FromContext(ctx)
	collector, err := telemetry.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return nil, nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", logging.Err(err))
		}
	}()
	log.Info(ctx, "serving metrics", logging.String("addr", metricsAddr))
	return collector, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// the terminal belongs to the UI, so logs go to a file
	path := logFile
	if path == "" {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return err
		}
		path = filepath.Join(cfg.DataDir, "risley.log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	log := newLogger(f)
	ctx := logging.ContextWithLogger(cmd.Context(), log)

	metrics, stop, err := startMetrics(ctx)
	if err != nil {
		return err
	}
	defer stop()

	ctrl, err := newController(ctx, cfg, metrics)
	if err != nil {
		return err
	}

	log.Info(ctx, "starting tui", logging.Float("rmax", ctrl.Envelope().Rmax), logging.Int("rays", len(cfg.Targets)))
	return viz.Run(ctrl, viz.Options{
		Logger:    log,
		Metrics:   metrics,
		Store:     storage.New(cfg.DataDir),
		ExportDir: ".",
		Rand:      rand.New(rand.NewSource(seed)),
		FPS:       cfg.Animation.FPS,
		Theme:     theme,
	})
}

func printEnvelope(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p := cfg.Parameters()
	env := optics.Recompute(p)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "wedge angle\t%.3f deg\n", cfg.Optics.WedgeAngleDeg)
	fmt.Fprintf(w, "refractive index\t%.4f\n", p.RefractiveIndex)
	fmt.Fprintf(w, "thickness\t%.2f mm\n", p.PrismThickness)
	fmt.Fprintf(w, "diameter\t%.2f mm\n", p.PrismDiameter)
	fmt.Fprintf(w, "separation\t%.2f mm\n", p.PrismSeparation)
	fmt.Fprintf(w, "screen distance\t%.2f mm\n", p.ScreenDistance)
	fmt.Fprintf(w, "deviation\t%.3f deg\n", optics.Degrees(optics.Deviation(p.WedgeAngle, p.RefractiveIndex)))
	fmt.Fprintf(w, "r1\t%.3f mm\n", env.R1)
	fmt.Fprintf(w, "r2\t%.3f mm\n", env.R2)
	fmt.Fprintf(w, "rd\t%.3f mm\n", env.Rd)
	fmt.Fprintf(w, "rmax\t%.3f mm\n", env.Rmax)
	return w.Flush()
}

func solveTarget(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	x, y, err := parsePoint(args)
	if err != nil {
		return err
	}
	env := optics.Recompute(cfg.Parameters())

	angles, err := kinematics.Solve(x, y, env)
	if err != nil {
		return fmt.Errorf("solve (%g, %g): %w", x, y, err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "target\t(%.3f, %.3f) mm\n", x, y)
	fmt.Fprintf(w, "radius\t%.3f mm\n", math.Hypot(x, y))
	fmt.Fprintf(w, "theta1\t%.3f deg\t%.6f rad\n", optics.Degrees(angles.Theta1), angles.Theta1)
	fmt.Fprintf(w, "theta2\t%.3f deg\t%.6f rad\n", optics.Degrees(angles.Theta2), angles.Theta2)
	return w.Flush()
}

func animateTarget(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	x, y, err := parsePoint(args)
	if err != nil {
		return err
	}
	if steps <= 0 || frameDt <= 0 {
		return fmt.Errorf("steps and dt must be positive")
	}

	ctrl, err := sim.New(cfg.Parameters(), sim.WithRate(cfg.Animation.Rate), sim.WithSpeed(speed), sim.WithAnimation(true))
	if err != nil {
		return err
	}
	if _, err := ctrl.AddTarget(x, y); err != nil {
		return err
	}

	theta1 := make([]float64, 0, steps)
	theta2 := make([]float64, 0, steps)
	converged := -1.0
	tol := optics.Radians(tolerance)
	for i := 0; i < steps; i++ {
		ctrl.Tick(frameDt)
		snap := ctrl.Snapshot()
		theta1 = append(theta1, optics.Degrees(snap.Prism1))
		theta2 = append(theta2, optics.Degrees(snap.Prism2))
		if converged < 0 && ctrl.Converged(tol) {
			converged = float64(i+1) * frameDt
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, asciigraph.PlotMany([][]float64{theta1, theta2},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.HotPink),
		asciigraph.Caption("prism angles (deg): theta1 cyan, theta2 pink"),
	))
	snap := ctrl.Snapshot()
	fmt.Fprintf(out, "\ntarget theta1 %.3f deg, theta2 %.3f deg\n", optics.Degrees(snap.Target1), optics.Degrees(snap.Target2))
	if converged >= 0 {
		fmt.Fprintf(out, "converged within %g deg after %.3f s\n", tolerance, converged)
	} else {
		fmt.Fprintf(out, "not converged after %.3f s (error %.4f deg)\n", float64(steps)*frameDt, optics.Degrees(snap.TrackingError()))
	}
	return nil
}

func exportReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr())
	ctx := logging.ContextWithLogger(cmd.Context(), log)
	ctrl, err := newController(ctx, cfg, nil)
	if err != nil {
		return err
	}

	now := time.Now()
	path := outPath
	if path == "" {
		path = report.Filename(now)
		switch format {
		case "json":
			path = strings.TrimSuffix(path, ".txt") + ".json"
		case "svg":
			path = report.SVGFilename(path)
		}
	}
	if err := writeOutput(cmd.OutOrStdout(), path, ctrl.Snapshot(), now); err != nil {
		return err
	}
	if path != "-" {
		log.Info(ctx, "report exported", logging.String("path", path))
	}
	return nil
}

func writeOutput(stdout io.Writer, path string, snap sim.Snapshot, now time.Time) error {
	var write func(w io.Writer) error
	switch format {
	case "text":
		write = func(w io.Writer) error { return report.Write(w, snap, now) }
	case "json":
		write = func(w io.Writer) error { return storage.ExportJSON(w, snap, now) }
	case "svg":
		write = func(w io.Writer) error { return report.WriteSVG(w, snap, svgSize) }
	default:
		return fmt.Errorf("unknown format: %s (want text, json or svg)", format)
	}
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("no targets: pass --target x,y or list targets in the config file")
	}
	log := newLogger(cmd.ErrOrStderr())
	ctx := logging.ContextWithLogger(cmd.Context(), log)
	ctrl, err := newController(ctx, cfg, nil)
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	snap := ctrl.Snapshot()
	id, err := st.Save(snap, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session id: %s\n", id)
	fmt.Fprintf(out, "rays: %d of %d targets\n", len(snap.Rays), len(cfg.Targets))
	log.Info(ctx, "session saved", logging.String("id", id), logging.String("dir", st.Dir()))
	return nil
}

func listSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sessions, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tWEDGE\tINDEX\tRMAX\tRAYS")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.4f\t%.3f\t%d\n",
			s.ID,
			s.Timestamp.Format("2006-01-02 15:04:05"),
			s.Parameters.WedgeAngleDeg,
			s.Parameters.RefractiveIndex,
			s.Envelope.Rmax,
			s.RayCount,
		)
	}
	return w.Flush()
}

func showSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := storage.New(cfg.DataDir).LoadSession(args[0])
	if err != nil {
		return err
	}
	meta := sess.Metadata
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "session: %s\n", meta.ID)
	fmt.Fprintf(out, "saved: %s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(out, "wedge %.3f deg, index %.4f, thickness %.2f mm, separation %.2f mm, screen %.2f mm\n",
		meta.Parameters.WedgeAngleDeg, meta.Parameters.RefractiveIndex, meta.Parameters.ThicknessMm,
		meta.Parameters.SeparationMm, meta.Parameters.ScreenMm)
	fmt.Fprintf(out, "rd %.3f mm, rmax %.3f mm\n\n", meta.Envelope.Rd, meta.Envelope.Rmax)

	if len(sess.Rays) == 0 {
		fmt.Fprintln(out, "no rays")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tX\tY\tTHETA1\tTHETA2\tCOLOR\t")
	for _, r := range sess.Rays {
		mark := ""
		if r.ID == meta.SelectedID {
			mark = "selected"
		}
		if r.Stale {
			mark = strings.TrimSpace(mark + " stale")
		}
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%.3f\t%.3f\t%s\t%s\n",
			r.ID, r.TargetX, r.TargetY, optics.Degrees(r.Theta1), optics.Degrees(r.Theta2), r.Color, mark)
	}
	return w.Flush()
}

func reportSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := storage.New(cfg.DataDir).LoadSession(args[0])
	if err != nil {
		return err
	}
	ctrl, err := sess.Controller()
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), reportOut, ctrl.Snapshot(), sess.Metadata.Timestamp)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tWEDGE\tINDEX\tSEPARATION\tSCREEN\tRD\tRMAX")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		env := optics.Recompute(cfg.Parameters())
		fmt.Fprintf(w, "%s\t%.3f\t%.4f\t%.2f\t%.2f\t%.3f\t%.3f\n",
			name,
			cfg.Optics.WedgeAngleDeg,
			cfg.Optics.RefractiveIndex,
			cfg.Optics.SeparationMm,
			cfg.Optics.ScreenMm,
			env.Rd,
			env.Rmax,
		)
	}
	return w.Flush()
}
