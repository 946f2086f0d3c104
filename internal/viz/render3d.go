package viz

import (
	"math"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/risley/internal/sim"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Camera projects the optical train onto the canvas.
type Camera struct {
	Distance   float64
	RotX, RotY float64
	Zoom       float64
}

// NewCamera looks at the train from above and to the side so both prism
// discs and the screen stay visible.
func NewCamera() *Camera {
	return &Camera{Distance: 60, RotX: 0.35, RotY: -0.7, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }

// RotatePoint rotates a point around the camera's X then Y axis.
func (c *Camera) RotatePoint(p Vec3) Vec3 {
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project converts world coordinates to sub-pixels. It returns false for
// points behind the camera.
func (c *Camera) Project(p Vec3, sw, sh int) (int, int, float64, bool) {
	rot := c.RotatePoint(p).Scale(c.Zoom)
	if rot.Z >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	unit := math.Min(float64(sw), float64(sh)) / 40
	sx := int(rot.X*scale*unit) + sw/2
	sy := int(-rot.Y*scale*unit) + sh/2
	return sx, sy, rot.Z, true
}

type Edge struct {
	Start, End Vec3
	Color      lipgloss.Color
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe { return &Wireframe{Edges: make([]Edge, 0, 128)} }

func (w *Wireframe) AddEdge(s, e Vec3, c lipgloss.Color) { w.Edges = append(w.Edges, Edge{s, e, c}) }
func (w *Wireframe) AddPoint(p Vec3, c lipgloss.Color)   { w.Edges = append(w.Edges, Edge{p, p, c}) }

// AddRing adds a circle of radius r in the plane x = at, split into n
// segments.
func (w *Wireframe) AddRing(at, r float64, n int, c lipgloss.Color) {
	prev := Vec3{at, 0, r}
	for i := 1; i <= n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		next := Vec3{at, r * math.Sin(a), r * math.Cos(a)}
		w.AddEdge(prev, next, c)
		prev = next
	}
}

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
	color          lipgloss.Color
}

// Render3D draws the wireframe far-to-near.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.PixelWidth(), c.PixelHeight()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, d2, v2 := cam.Project(e.End, cw, ch)
		if v1 && v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2, e.Color})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		c.Pen(e.color)
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
	c.Pen("")
}

// Layout of the optical train in world units. The prism aperture is drawn
// with radius prismRadius; axial distances are compressed.
const (
	prismRadius = 5.0
	sourceAt    = -22.0
	prism1At    = -12.0
	screenAt    = 16.0
	screenHalf  = 8.0
)

// ScreenPoint maps a millimeter point on the screen plane to world
// coordinates: x is the optical axis, y is screen up and z is screen x.
func ScreenPoint(p Point, rmax float64) Vec3 {
	s := screenHalf / (rmax * 1.1)
	if rmax <= 0 {
		s = 0
	}
	return Vec3{screenAt, p.Y * s, p.X * s}
}

// OpticalTrain builds a schematic of source, both prisms, the screen with
// the reachable ring and every ray target, and the beam path for the current
// prism angles.
func OpticalTrain(snap sim.Snapshot, theme Theme) *Wireframe {
	w := NewWireframe()
	p := snap.Parameters
	env := snap.Envelope

	k := prismRadius / (p.PrismDiameter / 2)
	thick := math.Max(0.6, p.PrismThickness*k*0.5)
	prism2At := prism1At + math.Min(14, thick+(p.PrismThickness+p.PrismSeparation)*k)

	addPrism := func(at, theta float64, color lipgloss.Color) {
		w.AddRing(at, prismRadius, 24, color)
		edge := Vec3{0, prismRadius * math.Sin(theta), prismRadius * math.Cos(theta)}
		center := Vec3{at, 0, 0}
		w.AddEdge(center, center.Add(edge), color)
		// the thick edge of the wedge extends along the axis
		w.AddEdge(center.Add(edge), center.Add(edge).Add(Vec3{thick, 0, 0}), color)
	}
	addPrism(prism1At, snap.Prism1, theme.Prism1)
	addPrism(prism2At, snap.Prism2, theme.Prism2)

	corners := []Point{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		w.AddEdge(Vec3{screenAt, a.Y * screenHalf, a.X * screenHalf}, Vec3{screenAt, b.Y * screenHalf, b.X * screenHalf}, theme.Muted)
	}
	w.AddRing(screenAt, ScreenPoint(Point{env.Rmax, 0}, env.Rmax).Z, 32, theme.Ring)

	for _, r := range snap.Rays {
		w.AddPoint(ScreenPoint(Point{r.TargetX, r.TargetY}, env.Rmax), lipgloss.Color(r.Color))
	}

	source := Vec3{sourceAt, 0, 0}
	p1 := Vec3{prism1At, 0, 0}
	w.AddEdge(source, p1, theme.Beam)
	if bx, by, ok := snap.Beam(); ok {
		hit := ScreenPoint(Point{bx, by}, env.Rmax)
		mid := Vec3{
			prism2At,
			hit.Y * (prism2At - prism1At) / (screenAt - prism1At),
			hit.Z * (prism2At - prism1At) / (screenAt - prism1At),
		}
		w.AddEdge(p1, mid, theme.Beam)
		w.AddEdge(mid, hit, theme.Beam)
	} else {
		w.AddEdge(p1, Vec3{screenAt, 0, 0}, theme.Beam)
	}
	return w
}
