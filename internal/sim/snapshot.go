package sim

import (
	"math"

	"github.com/san-kum/risley/internal/kinematics"
	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/rays"
)

// Hover is a preview point under the cursor.
type Hover struct {
	X, Y      float64
	Radius    float64
	Reachable bool
	Angles    kinematics.Angles

	// Err holds the solver failure when the point is not reachable.
	Err error
}

// Snapshot is a read-only copy of the controller state for renderers.
// Coordinates are millimeters and angles radians.
type Snapshot struct {
	Parameters optics.Parameters
	Envelope   optics.Envelope
	Rays       []rays.Ray
	Capacity   int

	SelectedID   int
	HasSelection bool

	Prism1, Prism2   float64
	Target1, Target2 float64
	Animating        bool
	Speed            float64
	Elapsed          float64

	Hover *Hover
}

// Snapshot copies the current state. Mutating the result never affects the
// controller.
func (c *Controller) Snapshot() Snapshot {
	_, hasSel := c.Selected()
	return Snapshot{
		Parameters:   c.params,
		Envelope:     c.env,
		Rays:         c.rays.List(),
		Capacity:     c.rays.Cap(),
		SelectedID:   c.selected,
		HasSelection: hasSel,
		Prism1:       c.motion.Current1,
		Prism2:       c.motion.Current2,
		Target1:      c.motion.Target1,
		Target2:      c.motion.Target2,
		Animating:    c.animating,
		Speed:        c.motion.Speed(),
		Elapsed:      c.motion.Elapsed(),
		Hover:        c.previewHover(),
	}
}

// Selected returns the selected ray from the snapshot.
func (s Snapshot) Selected() (rays.Ray, bool) {
	if !s.HasSelection {
		return rays.Ray{}, false
	}
	for _, r := range s.Rays {
		if r.ID == s.SelectedID {
			return r, true
		}
	}
	return rays.Ray{}, false
}

// TrackingError is the larger of the two prism angle errors.
func (s Snapshot) TrackingError() float64 {
	return math.Max(math.Abs(s.Target1-s.Prism1), math.Abs(s.Target2-s.Prism2))
}

// Beam is where the current prism angles point the beam on the screen.
func (s Snapshot) Beam() (x, y float64, ok bool) {
	x, y, err := kinematics.Forward(kinematics.Angles{Theta1: s.Prism1, Theta2: s.Prism2}, s.Envelope)
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}
