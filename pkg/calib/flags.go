// Package calib implements the two-stage ChArUco calibration pipeline:
// a marker-only bootstrap solve followed by a board-corner refined
// solve, producing camera intrinsics and distortion coefficients.
package calib

import "strings"

// Flags are the solver policy bits. The numeric values match the OpenCV
// calibration flags, so the value written to the parameter file is
// directly comparable with files produced by the reference tool.
type Flags int

// Solver policies.
const (
	UseIntrinsicGuess Flags = 1 << iota // Start from the seeded camera matrix
	FixAspectRatio                      // Keep fx/fy at the configured ratio
	FixPrincipalPoint                   // Keep the principal point at the center
	ZeroTangentDist                     // Assume zero tangential distortion
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// String renders the human-readable flags summary, in the reference
// tool's "+name" concatenation format. Empty for zero flags.
func (f Flags) String() string {
	var b strings.Builder
	if f.Has(UseIntrinsicGuess) {
		b.WriteString("+use_intrinsic_guess")
	}
	if f.Has(FixAspectRatio) {
		b.WriteString("+fix_aspectRatio")
	}
	if f.Has(FixPrincipalPoint) {
		b.WriteString("+fix_principal_point")
	}
	if f.Has(ZeroTangentDist) {
		b.WriteString("+zero_tangent_dist")
	}
	return b.String()
}
