// Package report writes the plain-text data export of a simulation session.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/sim"
)

const (
	banner = "========================================"

	// TableHeader is the column header of the ray table. Downstream tools
	// parse this line; keep it byte-exact.
	TableHeader = "Ray#\tTarget_X(mm)\tTarget_Y(mm)\tRadius(mm)\tTheta1(deg)\tTheta2(deg)\tColor"
	tableRule   = "----\t------------\t------------\t----------\t-----------\t-----------\t-----"
)

// Filename returns the export file name for a report created at now.
func Filename(now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "risley_prism_data_" + stamp + ".txt"
}

// Write renders snap as a report stamped with now.
func Write(w io.Writer, snap sim.Snapshot, now time.Time) error {
	bw := bufio.NewWriter(w)
	p := snap.Parameters
	env := snap.Envelope

	fmt.Fprintln(bw, banner)
	fmt.Fprintln(bw, "RISLEY PRISM SIMULATOR - DATA EXPORT")
	fmt.Fprintln(bw, banner)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Export Date: %s\n\n", now.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(bw, "--- SYSTEM PARAMETERS ---")
	fmt.Fprintf(bw, "Wedge Angle (α): %.3f°\n", optics.Degrees(p.WedgeAngle))
	fmt.Fprintf(bw, "Refractive Index (n): %.4f\n", p.RefractiveIndex)
	fmt.Fprintf(bw, "Prism Thickness: %.2f mm\n", p.PrismThickness)
	fmt.Fprintf(bw, "Prism Diameter: %.2f mm\n", p.PrismDiameter)
	fmt.Fprintf(bw, "Prism Separation: %.2f mm\n", p.PrismSeparation)
	fmt.Fprintf(bw, "Screen Distance: %.2f mm\n\n", p.ScreenDistance)

	fmt.Fprintln(bw, "--- CALCULATED PARAMETERS ---")
	fmt.Fprintf(bw, "Maximum Scan Range (r_max): %.3f mm\n", env.Rmax)
	fmt.Fprintf(bw, "Center Defect Radius (r_d): %.3f mm\n", env.Rd)
	fmt.Fprintf(bw, "Beam Steering Radius 1 (r_1): %.3f mm\n", env.R1)
	fmt.Fprintf(bw, "Beam Steering Radius 2 (r_2): %.3f mm\n\n", env.R2)

	fmt.Fprintln(bw, "--- ACTIVE RAYS ---")
	if len(snap.Rays) == 0 {
		fmt.Fprintln(bw, "No active rays")
	} else {
		fmt.Fprintf(bw, "Total Active Rays: %d\n\n", len(snap.Rays))
		writeTable(bw, snap)
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "--- NOTES ---")
	fmt.Fprintln(bw, "This data was exported from the Risley Prism Simulator")
	fmt.Fprintln(bw, "Based on discrete beam pointing using inverse kinematics")
	fmt.Fprintln(bw, "Angles are measured from the home position (θ = 90°) where the thickest part of the prism is at the top")

	return bw.Flush()
}

func writeTable(w io.Writer, snap sim.Snapshot) {
	fmt.Fprintln(w, TableHeader)
	fmt.Fprintln(w, tableRule)
	for i, r := range snap.Rays {
		fmt.Fprintf(w, "%d\t%.3f\t\t%.3f\t\t%.3f\t\t%.3f\t\t%.3f\t\t%s\n",
			i+1,
			r.TargetX,
			r.TargetY,
			r.Radius(),
			optics.Degrees(r.Theta1),
			optics.Degrees(r.Theta2),
			r.Color,
		)
	}
}
