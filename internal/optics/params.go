package optics

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultWedgeAngleDeg   = 11.367
	DefaultRefractiveIndex = 1.516
	DefaultThickness       = 8.11
	DefaultDiameter        = 25.4
	DefaultSeparation      = 10.0
	DefaultScreenDistance  = 200.0

	// MaxDeviationDeg bounds (n-1)·α so that tan stays finite.
	MaxDeviationDeg = 89.0
)

// ErrInvalidParameters indicates a parameter outside its physical range.
var ErrInvalidParameters = errors.New("optics: invalid parameters")

// Parameters describes the prism pair and screen. Angles are radians,
// lengths millimeters.
type Parameters struct {
	WedgeAngle      float64
	RefractiveIndex float64
	PrismThickness  float64
	PrismDiameter   float64
	PrismSeparation float64
	ScreenDistance  float64
}

func DefaultParameters() Parameters {
	return Parameters{
		WedgeAngle:      Radians(DefaultWedgeAngleDeg),
		RefractiveIndex: DefaultRefractiveIndex,
		PrismThickness:  DefaultThickness,
		PrismDiameter:   DefaultDiameter,
		PrismSeparation: DefaultSeparation,
		ScreenDistance:  DefaultScreenDistance,
	}
}

// Validate checks the data-model ranges and the operating precondition of
// Recompute.
func (p Parameters) Validate() error {
	for name, v := range map[string]float64{
		"wedge angle":      p.WedgeAngle,
		"refractive index": p.RefractiveIndex,
		"prism thickness":  p.PrismThickness,
		"prism diameter":   p.PrismDiameter,
		"prism separation": p.PrismSeparation,
		"screen distance":  p.ScreenDistance,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidParameters, name)
		}
	}

	switch {
	case p.WedgeAngle <= 0:
		return fmt.Errorf("%w: wedge angle must be positive, got %g rad", ErrInvalidParameters, p.WedgeAngle)
	case p.RefractiveIndex <= 1:
		return fmt.Errorf("%w: refractive index must exceed 1, got %g", ErrInvalidParameters, p.RefractiveIndex)
	case p.PrismThickness <= 0:
		return fmt.Errorf("%w: prism thickness must be positive, got %g mm", ErrInvalidParameters, p.PrismThickness)
	case p.PrismDiameter <= 0:
		return fmt.Errorf("%w: prism diameter must be positive, got %g mm", ErrInvalidParameters, p.PrismDiameter)
	case p.PrismSeparation < 0:
		return fmt.Errorf("%w: prism separation must not be negative, got %g mm", ErrInvalidParameters, p.PrismSeparation)
	case p.ScreenDistance <= 0:
		return fmt.Errorf("%w: screen distance must be positive, got %g mm", ErrInvalidParameters, p.ScreenDistance)
	}

	if dev := Degrees(Deviation(p.WedgeAngle, p.RefractiveIndex)); dev >= MaxDeviationDeg {
		return fmt.Errorf("%w: deviation %.2f° exceeds %.0f°", ErrInvalidParameters, dev, MaxDeviationDeg)
	}
	return nil
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
