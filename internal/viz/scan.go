package viz

import (
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/risley/internal/sim"
)

// gridSpacing is the ring spacing of the background grid in millimeters.
const gridSpacing = 10.0

// Point is a position on the screen plane in millimeters.
type Point struct {
	X, Y float64
}

// DrawScan renders the top-down view of the screen plane: grid, the
// reachable annulus, every ray target, the prism indicators, the current
// beam position and the cursor.
func DrawScan(c *Canvas, vp Viewport, snap sim.Snapshot, cursor Point, theme Theme) {
	c.Clear()
	cx, cy := vp.ToPixel(0, 0)
	env := snap.Envelope

	c.Pen(theme.Grid)
	for r := gridSpacing; r < env.Rmax*1.1; r += gridSpacing {
		c.DrawDottedCircle(cx, cy, vp.Radius(r), 6)
	}
	for x := 0; x < c.PixelWidth(); x += 3 {
		c.Set(x, cy)
	}
	for y := 0; y < c.PixelHeight(); y += 3 {
		c.Set(cx, y)
	}

	c.Pen(theme.Ring)
	c.DrawCircle(cx, cy, vp.Radius(env.Rmax))
	c.Pen(theme.Defect)
	c.DrawCircle(cx, cy, vp.Radius(env.Rd))

	drawPrismTicks(c, vp, env.Rmax, snap.Prism1, snap.Prism2, theme)

	for _, r := range snap.Rays {
		px, py := vp.ToPixel(r.TargetX, r.TargetY)
		c.Pen(lipgloss.Color(r.Color))
		if r.Stale {
			c.DrawDottedCircle(px, py, 2, 45)
			continue
		}
		c.DrawLine(cx, cy, px, py)
		c.Dot(px, py, 1)
		if snap.HasSelection && r.ID == snap.SelectedID {
			c.DrawCircle(px, py, 4)
		}
	}

	if bx, by, ok := snap.Beam(); ok {
		px, py := vp.ToPixel(bx, by)
		c.Pen(theme.Beam)
		c.Dot(px, py, 1)
	}

	cursorPen := theme.Cursor
	if snap.Hover != nil && !snap.Hover.Reachable {
		cursorPen = theme.Err
	}
	c.Pen(cursorPen)
	drawCrosshair(c, vp, cursor)
	c.Pen("")
}

// drawPrismTicks marks each prism's thick edge just outside the Rmax ring.
func drawPrismTicks(c *Canvas, vp Viewport, rmax, theta1, theta2 float64, theme Theme) {
	tick := func(theta, from, to float64) {
		x0, y0 := vp.ToPixel(from*math.Cos(theta), from*math.Sin(theta))
		x1, y1 := vp.ToPixel(to*math.Cos(theta), to*math.Sin(theta))
		c.DrawLine(x0, y0, x1, y1)
	}
	c.Pen(theme.Prism1)
	tick(theta1, rmax*1.02, rmax*1.09)
	c.Pen(theme.Prism2)
	tick(theta2, rmax*1.02, rmax*1.06)
}

func drawCrosshair(c *Canvas, vp Viewport, p Point) {
	px, py := vp.ToPixel(p.X, p.Y)
	const arm = 3
	c.DrawLine(px-arm, py, px-1, py)
	c.DrawLine(px+1, py, px+arm, py)
	c.DrawLine(px, py-arm, px, py-1)
	c.DrawLine(px, py+1, px, py+arm)
}
