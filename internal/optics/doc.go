// Package optics models the scan envelope of a two-prism Risley beam steerer.
//
// The model is paraxial: each wedge deviates the beam by (n-1)·α and the
// deviations add as vectors on the screen. From the system [Parameters] it
// derives an [Envelope]:
//
//   - R1, R2: steering radius contributed by each prism
//   - Rd: radius of the unreachable center defect
//   - Rmax: outer edge of the reachable annulus
//
// # Operating range
//
// Recompute never checks its input. The deviation (n-1)·α must stay well
// below 90° or tan diverges; use [Parameters.Validate] before handing user
// input to the model.
package optics
