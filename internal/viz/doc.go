// Package viz is the terminal front end of the simulator.
//
// [Model] is a Bubble Tea program that pulls a [sim.Snapshot] from the
// controller every frame and renders it on a braille [Canvas]:
//
//   - the scan view, a top-down plot of the screen plane with the
//     reachable annulus, ray targets, prism indicators and the beam
//   - the optical train, a rotatable wireframe of both prisms and the screen
//   - a convergence chart of the prism angles
//
// Input is keyboard and mouse. [Viewport] converts between canvas pixels
// and millimeters on the screen plane.
//
// # Key Bindings
//
//	Arrows  - Move cursor
//	Enter   - Add target at cursor
//	N       - Add random target
//	Tab     - Select next ray
//	X       - Remove selected ray
//	C       - Clear
//	Space   - Toggle animation
//	+/-     - Animation speed
//	w/W i/I s/S z/Z - Wedge angle, index, separation, screen distance
//	E       - Export report
//	Q       - Quit
package viz
