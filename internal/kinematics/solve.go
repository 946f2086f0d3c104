// Package kinematics solves the inverse kinematics of a two-prism Risley
// steerer by trilateration.
//
// The target at distance r from the axis is the far vertex of a triangle
// whose other sides are the arm A = R1+Rd and the arm B = R2. Each prism
// angle is the bearing of the target plus the interior angle of that
// triangle, found with the law of cosines.
//
// Angles follow the home convention θ = 90°: the thick edge of the wedge
// points up.
package kinematics

import (
	"math"

	"github.com/san-kum/risley/internal/optics"
)

// Angles are the two prism rotations in radians.
type Angles struct {
	Theta1 float64
	Theta2 float64
}

// Solve returns the prism angles that steer the beam to (x, y) mm.
// Targets with r < Rd or r > Rmax fail with an *UnreachableError.
func Solve(x, y float64, env optics.Envelope) (Angles, error) {
	r := math.Hypot(x, y)
	if r < env.Rd {
		return Angles{}, &UnreachableError{Reason: CenterDefect, Radius: r, Limit: env.Rd}
	}
	if r > env.Rmax {
		return Angles{}, &UnreachableError{Reason: OutOfRange, Radius: r, Limit: env.Rmax}
	}

	// home position; only reachable when Rd == 0
	if r == 0 {
		return Angles{}, nil
	}

	a := env.R1 + env.Rd
	b := env.R2
	r2 := x*x + y*y
	bearing := math.Atan2(y, x)

	// clamp: at r == Rd or r == Rmax rounding pushes the argument past ±1
	theta1 := math.Acos(clamp((r2+a*a-b*b)/(2*a*r), -1, 1)) + bearing
	theta2 := math.Acos(clamp((r2-a*a+b*b)/(2*b*r), -1, 1)) + bearing

	return Angles{Theta1: theta1, Theta2: theta2}, nil
}

// Forward maps solved angles back to the target point. It inverts Solve
// for targets strictly inside the annulus and needs Rd > 0: with equal arms
// both angles coincide for every target and the radius is lost.
func Forward(angles Angles, env optics.Envelope) (x, y float64, err error) {
	a := env.R1 + env.Rd
	b := env.R2
	if !(a > b) || b <= 0 {
		return 0, 0, ErrIndeterminate
	}

	// d = alpha - beta, where alpha is the interior angle at the axis and
	// beta the one at the target; the law of sines gives a·sin(alpha) = b·sin(beta).
	d := angles.Theta1 - angles.Theta2
	alpha := math.Atan2(-b*math.Sin(d), a-b*math.Cos(d))
	beta := alpha - d

	gamma := math.Pi - alpha - beta
	r := math.Sqrt(math.Max(0, a*a+b*b-2*a*b*math.Cos(gamma)))
	bearing := angles.Theta1 - alpha

	return r * math.Cos(bearing), r * math.Sin(bearing), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
