package viz

import "math"

// Viewport maps screen millimeters to canvas sub-pixels. The origin sits at
// the canvas center and +y points up. Braille sub-pixels are close to
// square, so one scale serves both axes.
type Viewport struct {
	Width, Height int     // sub-pixels
	Scale         float64 // sub-pixels per millimeter
}

// NewViewport fits a disc of radius extent (mm), plus a margin, into a
// canvas of w x h sub-pixels.
func NewViewport(w, h int, extent float64) Viewport {
	side := math.Min(float64(w), float64(h))
	scale := 1.0
	if extent > 0 && side > 0 {
		scale = (side/2 - 2) / (extent * 1.1)
	}
	if scale <= 0 {
		scale = 1
	}
	return Viewport{Width: w, Height: h, Scale: scale}
}

func (v Viewport) center() (int, int) { return v.Width / 2, v.Height / 2 }

// ToPixel converts a point in millimeters to sub-pixel coordinates.
func (v Viewport) ToPixel(x, y float64) (int, int) {
	cx, cy := v.center()
	return cx + int(math.Round(x*v.Scale)), cy - int(math.Round(y*v.Scale))
}

// ToMM converts sub-pixel coordinates back to millimeters.
func (v Viewport) ToMM(px, py int) (float64, float64) {
	cx, cy := v.center()
	return float64(px-cx) / v.Scale, float64(cy-py) / v.Scale
}

// CellToMM converts a terminal cell of the canvas to the millimeter
// position of its center.
func (v Viewport) CellToMM(col, row int) (float64, float64) {
	return v.ToMM(col*2+1, row*4+2)
}

// Radius converts a length in millimeters to sub-pixels.
func (v Viewport) Radius(mm float64) int {
	return int(math.Round(mm * v.Scale))
}
