package calib

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// FrameReport records what a committed frame contributed to the
// refined solve.
type FrameReport struct {
	Index        int  // Commit order index
	Markers      int  // Detected markers in the frame
	Corners      int  // Interpolated board corners
	Interpolated bool // False when interpolation yielded nothing
}

// Result is the outcome of a completed calibration. Immutable once
// produced.
type Result struct {
	SessionID string
	Time      time.Time

	Camera *mat.Dense // 3x3 refined camera matrix
	Dist   []float64  // Refined distortion coefficients
	Width  int
	Height int

	Flags       Flags
	AspectRatio float64 // Target ratio, meaningful when FixAspectRatio is set

	Poses []Pose // Per usable frame, in commit order

	MarkerReprojErr float64 // Stage A bootstrap error
	BoardReprojErr  float64 // Stage B refined error

	Frames []FrameReport
}
