// Package rays keeps the ordered set of user-placed targets and their solved
// prism angles.
package rays

import (
	"errors"
	"math"

	"github.com/san-kum/risley/internal/kinematics"
	"github.com/san-kum/risley/internal/optics"
)

// DefaultCapacity is the maximum number of rays in a set.
const DefaultCapacity = 10

// ErrCapacityExceeded indicates an add on a full set.
var ErrCapacityExceeded = errors.New("rays: maximum number of rays reached")

// Palette colours, assigned by insertion count.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFA07A", "#98D8C8", "#6C5CE7", "#FD79A8",
	"#FDCB6E", "#6C63FF",
}

// Ray is a target on the screen with its solved prism angles.
type Ray struct {
	ID         int
	TargetX    float64
	TargetY    float64
	Theta1     float64
	Theta2     float64
	ColorIndex int
	Color      string
	// Stale is set when the current envelope no longer reaches the target.
	// Theta1/Theta2 then hold the last reachable solution.
	Stale bool
}

// Radius is the distance of the target from the optical axis.
func (r Ray) Radius() float64 {
	return math.Hypot(r.TargetX, r.TargetY)
}

// Set is an insertion-ordered collection of rays. It is not safe for
// concurrent use.
type Set struct {
	rays     []Ray
	capacity int
	nextID   int
	added    int
}

func NewSet(capacity int) *Set {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Set{
		rays:     make([]Ray, 0, capacity),
		capacity: capacity,
		nextID:   1,
	}
}

func (s *Set) Len() int { return len(s.rays) }
func (s *Set) Cap() int { return s.capacity }

// Add solves (x, y) against env and appends the ray. A full set fails with
// ErrCapacityExceeded before the target is examined.
func (s *Set) Add(x, y float64, env optics.Envelope) (Ray, error) {
	if len(s.rays) >= s.capacity {
		return Ray{}, ErrCapacityExceeded
	}

	angles, err := kinematics.Solve(x, y, env)
	if err != nil {
		return Ray{}, err
	}

	idx := s.added % len(Palette)
	ray := Ray{
		ID:         s.nextID,
		TargetX:    x,
		TargetY:    y,
		Theta1:     angles.Theta1,
		Theta2:     angles.Theta2,
		ColorIndex: idx,
		Color:      Palette[idx],
	}
	s.nextID++
	s.added++
	s.rays = append(s.rays, ray)
	return ray, nil
}

// Restore appends a previously solved ray as-is, keeping its ID and colour.
// Used when loading saved sessions.
func (s *Set) Restore(ray Ray) error {
	if len(s.rays) >= s.capacity {
		return ErrCapacityExceeded
	}
	if ray.ID >= s.nextID {
		s.nextID = ray.ID + 1
	}
	if ray.ColorIndex < 0 || ray.ColorIndex >= len(Palette) {
		ray.ColorIndex = s.added % len(Palette)
	}
	ray.Color = Palette[ray.ColorIndex]
	s.added++
	s.rays = append(s.rays, ray)
	return nil
}

// Remove deletes the ray with id and reports whether it existed.
func (s *Set) Remove(id int) bool {
	for i, r := range s.rays {
		if r.ID == id {
			s.rays = append(s.rays[:i], s.rays[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the set. IDs keep increasing; colours restart.
func (s *Set) Clear() {
	s.rays = s.rays[:0]
	s.added = 0
}

// RecomputeAll re-solves every ray against env in place. Rays that env no
// longer reaches keep their previous angles and are marked stale; they are
// never removed.
func (s *Set) RecomputeAll(env optics.Envelope) {
	for i := range s.rays {
		r := &s.rays[i]
		angles, err := kinematics.Solve(r.TargetX, r.TargetY, env)
		if err != nil {
			r.Stale = true
			continue
		}
		r.Theta1 = angles.Theta1
		r.Theta2 = angles.Theta2
		r.Stale = false
	}
}

func (s *Set) Get(id int) (Ray, bool) {
	for _, r := range s.rays {
		if r.ID == id {
			return r, true
		}
	}
	return Ray{}, false
}

// First returns the earliest inserted ray still in the set.
func (s *Set) First() (Ray, bool) {
	if len(s.rays) == 0 {
		return Ray{}, false
	}
	return s.rays[0], true
}

// Index returns the insertion position of id, or -1.
func (s *Set) Index(id int) int {
	for i, r := range s.rays {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// List returns a copy of the rays in insertion order.
func (s *Set) List() []Ray {
	out := make([]Ray, len(s.rays))
	copy(out, s.rays)
	return out
}
