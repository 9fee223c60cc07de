package calib

import (
	"image"

	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/capture"
)

// Pose is a per-frame board pose estimate (Rodrigues rotation vector
// and translation vector).
type Pose struct {
	Rotation    [3]float64
	Translation [3]float64
}

// Intrinsics are known camera parameters handed to the interpolator.
type Intrinsics struct {
	Camera *mat.Dense // 3x3 camera matrix
	Dist   []float64  // Distortion coefficients
}

// CornerSet is the board-corner yield of one frame: interpolated
// sub-pixel positions and their board-relative corner IDs.
type CornerSet struct {
	IDs    []int
	Points []board.Point2
}

// Empty reports whether the frame produced no corners.
func (c CornerSet) Empty() bool {
	return len(c.IDs) == 0
}

// SolveResult is what a calibration solve returns.
type SolveResult struct {
	Camera    *mat.Dense // 3x3 optimized camera matrix
	Dist      []float64  // Optimized distortion coefficients
	Poses     []Pose     // Per-frame pose estimates, input order
	ReprojErr float64    // Average reprojection error
}

// Solver is the calibration solver contract. Implementations optimize
// intrinsics from 2D observations and the 3D board model.
type Solver interface {
	// CalibrateMarkers solves from marker-corner correspondences. The
	// corner and id sequences are flat concatenations over all frames;
	// markerCounts[i] says how many entries frame i contributed, in
	// frame order, so the solver can re-segment the flat sequences.
	// seed may be nil; when non-nil it is the initial camera matrix.
	CalibrateMarkers(corners []board.Quad, ids []int, markerCounts []int, model board.Model, size image.Point, seed *mat.Dense, flags Flags) (SolveResult, error)

	// CalibrateBoard solves from per-frame board-corner sets, grouped
	// natively per frame.
	CalibrateBoard(frames []CornerSet, model board.Model, size image.Point, seed *mat.Dense, flags Flags) (SolveResult, error)
}

// Interpolator is the corner interpolation contract: from one frame's
// marker observations and the board geometry it recovers sub-pixel
// chessboard corner positions. intr may be nil; known intrinsics
// improve accuracy.
type Interpolator interface {
	Interpolate(obs capture.Observation, model board.Model, intr *Intrinsics) (CornerSet, error)
}
