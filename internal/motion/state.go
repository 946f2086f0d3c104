// Package motion animates the two prism angles toward their targets.
//
// The animation is a first-order low-pass filter, not a servo model: each
// tick closes a fixed fraction of the remaining error, so the angles never
// overshoot and approach the target asymptotically.
package motion

import "math"

const (
	// DefaultRate is the smoothing rate k in 1/s. It reproduces a 0.1 blend
	// per 16 ms frame.
	DefaultRate = 6.25

	MinSpeed     = 0.1
	MaxSpeed     = 5.0
	DefaultSpeed = 1.0
)

// State holds current and target prism angles in radians.
type State struct {
	Current1, Current2 float64
	Target1, Target2   float64

	rate    float64
	speed   float64
	elapsed float64
}

func New(rate float64) *State {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &State{rate: rate, speed: DefaultSpeed}
}

// Tick advances the current angles by dt seconds when animating. It is a
// no-op otherwise.
func (s *State) Tick(dt float64, animating bool) {
	if !animating || dt <= 0 {
		return
	}
	f := s.Factor(dt)
	s.Current1 += (s.Target1 - s.Current1) * f
	s.Current2 += (s.Target2 - s.Current2) * f
	s.elapsed += dt * s.speed
}

// Factor returns the blend fraction applied for a tick of dt seconds.
func (s *State) Factor(dt float64) float64 {
	return math.Max(0, math.Min(1, s.rate*s.speed*dt))
}

func (s *State) SetTarget(theta1, theta2 float64) {
	s.Target1 = theta1
	s.Target2 = theta2
}

// SetSpeed sets the animation speed multiplier, clamped to [MinSpeed, MaxSpeed].
func (s *State) SetSpeed(speed float64) {
	if math.IsNaN(speed) {
		return
	}
	s.speed = math.Max(MinSpeed, math.Min(MaxSpeed, speed))
}

func (s *State) Speed() float64   { return s.speed }
func (s *State) Rate() float64    { return s.rate }
func (s *State) Elapsed() float64 { return s.elapsed }

// Error returns the larger of the two remaining angular errors.
func (s *State) Error() float64 {
	return math.Max(math.Abs(s.Target1-s.Current1), math.Abs(s.Target2-s.Current2))
}

// Converged reports whether both angles are within eps of their targets.
func (s *State) Converged(eps float64) bool {
	return s.Error() <= eps
}

// Reset returns all angles to zero and clears the elapsed time.
func (s *State) Reset() {
	s.Current1, s.Current2 = 0, 0
	s.Target1, s.Target2 = 0, 0
	s.elapsed = 0
}
