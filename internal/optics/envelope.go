package optics

import "math"

// Envelope is the reachable annulus on the screen, in millimeters.
// Rmax = R1 + R2 + Rd always holds.
type Envelope struct {
	R1   float64
	R2   float64
	Rd   float64
	Rmax float64
}

// Deviation returns the paraxial deviation angle of a single wedge.
func Deviation(wedge, n float64) float64 {
	return (n - 1) * wedge
}

// Recompute derives the scan envelope from p.
func Recompute(p Parameters) Envelope {
	alpha := p.WedgeAngle
	n := p.RefractiveIndex

	phiO := Deviation(alpha, n)
	r := p.ScreenDistance * math.Tan(phiO)

	// refracted internal angle at the first face
	phiP := alpha / n
	rd := 2*p.PrismThickness*math.Tan(alpha-phiP) + p.PrismSeparation*math.Tan(phiO)

	return Envelope{
		R1:   r,
		R2:   r,
		Rd:   rd,
		Rmax: r + r + rd,
	}
}

// Contains reports whether radius lies within the reachable annulus.
func (e Envelope) Contains(radius float64) bool {
	return radius >= e.Rd && radius <= e.Rmax
}
