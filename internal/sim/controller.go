package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/risley/internal/kinematics"
	"github.com/san-kum/risley/internal/motion"
	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/rays"
)

var (
	ErrUnknownRay       = errors.New("sim: unknown ray")
	ErrUnknownParameter = errors.New("sim: unknown parameter")
)

// Parameter names accepted by SetParameter. The wedge angle is in degrees,
// lengths in millimeters.
const (
	ParamWedge      = "wedge"
	ParamIndex      = "index"
	ParamThickness  = "thickness"
	ParamDiameter   = "diameter"
	ParamSeparation = "separation"
	ParamDistance   = "distance"
)

type settings struct {
	capacity  int
	rate      float64
	speed     float64
	animating bool
}

type Option func(*settings)

func WithCapacity(n int) Option    { return func(s *settings) { s.capacity = n } }
func WithRate(k float64) Option    { return func(s *settings) { s.rate = k } }
func WithSpeed(v float64) Option   { return func(s *settings) { s.speed = v } }
func WithAnimation(on bool) Option { return func(s *settings) { s.animating = on } }

// Controller owns the optical model, the ray set, the selection and the
// prism motion. All operations run synchronously; a Controller is not safe
// for concurrent use.
type Controller struct {
	params    optics.Parameters
	env       optics.Envelope
	rays      *rays.Set
	motion    *motion.State
	selected  int
	animating bool
	hover     *Hover
}

// New validates p and builds a controller with no rays and the prisms at
// their zero position.
func New(p optics.Parameters, opts ...Option) (*Controller, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cfg := settings{
		capacity: rays.DefaultCapacity,
		rate:     motion.DefaultRate,
		speed:    motion.DefaultSpeed,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := motion.New(cfg.rate)
	m.SetSpeed(cfg.speed)

	return &Controller{
		params:    p,
		env:       optics.Recompute(p),
		rays:      rays.NewSet(cfg.capacity),
		motion:    m,
		animating: cfg.animating,
	}, nil
}

func (c *Controller) Parameters() optics.Parameters { return c.params }
func (c *Controller) Envelope() optics.Envelope     { return c.env }

// SetParameters replaces the system parameters, recomputes the envelope and
// re-solves every ray. Invalid parameters leave the controller unchanged.
func (c *Controller) SetParameters(p optics.Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.params = p
	c.env = optics.Recompute(p)
	c.rays.RecomputeAll(c.env)
	c.retarget()
	return nil
}

// SetParameter edits a single parameter by name.
func (c *Controller) SetParameter(name string, value float64) error {
	p := c.params
	switch name {
	case ParamWedge:
		p.WedgeAngle = optics.Radians(value)
	case ParamIndex:
		p.RefractiveIndex = value
	case ParamThickness:
		p.PrismThickness = value
	case ParamDiameter:
		p.PrismDiameter = value
	case ParamSeparation:
		p.PrismSeparation = value
	case ParamDistance:
		p.ScreenDistance = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return c.SetParameters(p)
}

// Parameter returns the named parameter in the units SetParameter takes.
func (c *Controller) Parameter(name string) (float64, error) {
	switch name {
	case ParamWedge:
		return optics.Degrees(c.params.WedgeAngle), nil
	case ParamIndex:
		return c.params.RefractiveIndex, nil
	case ParamThickness:
		return c.params.PrismThickness, nil
	case ParamDiameter:
		return c.params.PrismDiameter, nil
	case ParamSeparation:
		return c.params.PrismSeparation, nil
	case ParamDistance:
		return c.params.ScreenDistance, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

// ParameterNames lists the names accepted by SetParameter.
func ParameterNames() []string {
	names := []string{ParamWedge, ParamIndex, ParamThickness, ParamDiameter, ParamSeparation, ParamDistance}
	sort.Strings(names)
	return names
}

// AddTarget solves (x, y) mm, appends the ray and selects it.
func (c *Controller) AddTarget(x, y float64) (rays.Ray, error) {
	ray, err := c.rays.Add(x, y, c.env)
	if err != nil {
		return rays.Ray{}, err
	}
	c.selectRay(ray)
	return ray, nil
}

// AddRandomTarget adds a target at a uniform bearing with a radius drawn
// from [1.5·Rd, 0.8·Rmax].
func (c *Controller) AddRandomTarget(rng *rand.Rand) (rays.Ray, error) {
	angle := rng.Float64() * 2 * math.Pi
	minR := c.env.Rd * 1.5
	maxR := c.env.Rmax * 0.8
	r := minR + rng.Float64()*(maxR-minR)
	return c.AddTarget(r*math.Cos(angle), r*math.Sin(angle))
}

// Restore re-inserts a saved ray against the current envelope and keeps the
// selection unchanged.
func (c *Controller) Restore(ray rays.Ray) error {
	if err := c.rays.Restore(ray); err != nil {
		return err
	}
	c.rays.RecomputeAll(c.env)
	c.retarget()
	return nil
}

// Select makes id the selected ray and retargets the prisms.
func (c *Controller) Select(id int) error {
	ray, ok := c.rays.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRay, id)
	}
	c.selectRay(ray)
	return nil
}

// SelectNext moves the selection to the following ray in insertion order,
// wrapping around.
func (c *Controller) SelectNext(step int) {
	list := c.rays.List()
	if len(list) == 0 {
		return
	}
	idx := c.rays.Index(c.selected)
	if idx < 0 {
		c.selectRay(list[0])
		return
	}
	next := ((idx+step)%len(list) + len(list)) % len(list)
	c.selectRay(list[next])
}

// Selected returns the selected ray, if any.
func (c *Controller) Selected() (rays.Ray, bool) {
	if c.selected == 0 {
		return rays.Ray{}, false
	}
	return c.rays.Get(c.selected)
}

// Remove deletes id. Removing the selected ray selects the first remaining
// ray, or clears the selection when none is left.
func (c *Controller) Remove(id int) {
	if !c.rays.Remove(id) {
		return
	}
	if c.selected != id {
		return
	}
	c.selected = 0
	if first, ok := c.rays.First(); ok {
		c.selectRay(first)
	}
}

// Clear removes every ray and the selection.
func (c *Controller) Clear() {
	c.rays.Clear()
	c.selected = 0
}

// Hover records a preview point in mm.
func (c *Controller) Hover(x, y float64) {
	c.hover = &Hover{X: x, Y: y}
}

func (c *Controller) ClearHover() { c.hover = nil }

// Tick advances the prism animation by dt seconds.
func (c *Controller) Tick(dt float64) {
	c.motion.Tick(dt, c.animating)
}

func (c *Controller) SetAnimating(on bool) { c.animating = on }
func (c *Controller) Animating() bool      { return c.animating }

// ToggleAnimation flips the animation flag and returns the new value.
func (c *Controller) ToggleAnimation() bool {
	c.animating = !c.animating
	return c.animating
}

func (c *Controller) SetSpeed(v float64) { c.motion.SetSpeed(v) }
func (c *Controller) Speed() float64     { return c.motion.Speed() }

// Converged reports whether both prisms are within eps rad of their targets.
func (c *Controller) Converged(eps float64) bool {
	return c.motion.Converged(eps)
}

func (c *Controller) selectRay(ray rays.Ray) {
	c.selected = ray.ID
	c.motion.SetTarget(ray.Theta1, ray.Theta2)
}

func (c *Controller) retarget() {
	if ray, ok := c.Selected(); ok {
		c.motion.SetTarget(ray.Theta1, ray.Theta2)
	}
}

// previewHover solves the hover point without touching the ray set.
func (c *Controller) previewHover() *Hover {
	if c.hover == nil {
		return nil
	}
	h := *c.hover
	h.Radius = math.Hypot(h.X, h.Y)
	angles, err := kinematics.Solve(h.X, h.Y, c.env)
	h.Err = err
	h.Reachable = err == nil
	h.Angles = angles
	return &h
}
