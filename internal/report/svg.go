package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/risley/internal/sim"
)

const (
	svgBackground = "#0a0a0a"
	svgGrid       = "#2a2a2a"
	svgRange      = "#4ECDC4"
	svgDefect     = "#FF6B6B"
	svgBeam       = "#FFFFFF"

	gridStepMm = 10.0
)

// SVGFilename returns the vector export name matching Filename.
func SVGFilename(name string) string {
	return strings.TrimSuffix(name, ".txt") + ".svg"
}

// WriteSVG draws the scan plane of snap as a size x size SVG: grid rings,
// the rmax and rd circles, each ray from the axis to its target, and the
// current beam position. Screen +y is up.
func WriteSVG(w io.Writer, snap sim.Snapshot, size int) error {
	if size <= 0 {
		return fmt.Errorf("report: svg size must be positive, got %d", size)
	}
	env := snap.Envelope
	extent := env.Rmax * 1.1
	if extent <= 0 {
		extent = 1
	}
	half := float64(size) / 2
	scale := half / extent
	toSVG := func(x, y float64) (float64, float64) {
		return half + x*scale, half - y*scale
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, size, size, size, size, svgBackground)

	fmt.Fprintf(bw, `<g fill="none" stroke="%s" stroke-width="0.5" stroke-dasharray="2,3">`+"\n", svgGrid)
	for r := gridStepMm; r < extent; r += gridStepMm {
		fmt.Fprintf(bw, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", half, half, r*scale)
	}
	fmt.Fprintf(bw, `<path d="M0,%.1f H%d M%.1f,0 V%d"/>`+"\n", half, size, half, size)
	fmt.Fprintln(bw, "</g>")

	fmt.Fprintf(bw, `<circle id="rmax" cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n",
		half, half, env.Rmax*scale, svgRange)
	if env.Rd > 0 {
		fmt.Fprintf(bw, `<circle id="rd" cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="0.15" stroke="%s"/>`+"\n",
			half, half, env.Rd*scale, svgDefect, svgDefect)
	}

	dot := math.Max(2, float64(size)/150)
	for _, r := range snap.Rays {
		x, y := toSVG(r.TargetX, r.TargetY)
		opacity := 1.0
		if r.Stale {
			opacity = 0.35
		}
		fmt.Fprintf(bw, `<g id="ray-%d" stroke="%s" fill="%s" opacity="%.2f">`+"\n", r.ID, r.Color, r.Color, opacity)
		fmt.Fprintf(bw, `<path fill="none" stroke-width="1" d="M%.1f,%.1f L%.1f,%.1f"/>`+"\n", half, half, x, y)
		fmt.Fprintf(bw, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", x, y, dot)
		if r.ID == snap.SelectedID && snap.HasSelection {
			fmt.Fprintf(bw, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke-width="1"/>`+"\n", x, y, dot*2.5)
		}
		fmt.Fprintln(bw, "</g>")
	}

	if bx, by, ok := snap.Beam(); ok {
		x, y := toSVG(bx, by)
		fmt.Fprintf(bw, `<circle id="beam" cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n", x, y, dot*1.2, svgBeam)
	}

	fmt.Fprintln(bw, "</svg>")
	return bw.Flush()
}
