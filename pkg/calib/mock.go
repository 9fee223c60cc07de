package calib

import (
	"image"

	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/capture"
)

// MockSolver implements Solver for testing.
// All methods can be customized via function fields.
type MockSolver struct {
	// CalibrateMarkersFunc is called for the bootstrap solve.
	// If nil, returns a plausible fixed result.
	CalibrateMarkersFunc func(corners []board.Quad, ids []int, markerCounts []int, model board.Model, size image.Point, seed *mat.Dense, flags Flags) (SolveResult, error)

	// CalibrateBoardFunc is called for the refined solve.
	// If nil, returns a plausible fixed result with one pose per frame.
	CalibrateBoardFunc func(frames []CornerSet, model board.Model, size image.Point, seed *mat.Dense, flags Flags) (SolveResult, error)

	// MarkerCalls and BoardCalls count invocations.
	MarkerCalls int
	BoardCalls  int

	// LastMarkerSeed and LastBoardSeed record the seed matrices.
	LastMarkerSeed *mat.Dense
	LastBoardSeed  *mat.Dense
}

func defaultSolveResult(poses int) SolveResult {
	return SolveResult{
		Camera: mat.NewDense(3, 3, []float64{
			800, 0, 640,
			0, 800, 360,
			0, 0, 1,
		}),
		Dist:      []float64{-0.1, 0.02, 0, 0, 0.003},
		Poses:     make([]Pose, poses),
		ReprojErr: 0.5,
	}
}

// CalibrateMarkers implements Solver.
func (m *MockSolver) CalibrateMarkers(corners []board.Quad, ids []int, markerCounts []int, model board.Model, size image.Point, seed *mat.Dense, flags Flags) (SolveResult, error) {
	m.MarkerCalls++
	m.LastMarkerSeed = seed
	if m.CalibrateMarkersFunc != nil {
		return m.CalibrateMarkersFunc(corners, ids, markerCounts, model, size, seed, flags)
	}
	return defaultSolveResult(len(markerCounts)), nil
}

// CalibrateBoard implements Solver.
func (m *MockSolver) CalibrateBoard(frames []CornerSet, model board.Model, size image.Point, seed *mat.Dense, flags Flags) (SolveResult, error) {
	m.BoardCalls++
	m.LastBoardSeed = seed
	if m.CalibrateBoardFunc != nil {
		return m.CalibrateBoardFunc(frames, model, size, seed, flags)
	}
	return defaultSolveResult(len(frames)), nil
}

// MockInterpolator implements Interpolator for testing.
type MockInterpolator struct {
	// InterpolateFunc is called per frame.
	// If nil, returns four corners per frame.
	InterpolateFunc func(obs capture.Observation, model board.Model, intr *Intrinsics) (CornerSet, error)

	// Calls counts invocations; LastIntrinsics records the intrinsics
	// handed to the most recent call.
	Calls          int
	LastIntrinsics *Intrinsics
}

// Interpolate implements Interpolator.
func (m *MockInterpolator) Interpolate(obs capture.Observation, model board.Model, intr *Intrinsics) (CornerSet, error) {
	m.Calls++
	m.LastIntrinsics = intr
	if m.InterpolateFunc != nil {
		return m.InterpolateFunc(obs, model, intr)
	}
	return CornerSet{
		IDs:    []int{0, 1, 2, 3},
		Points: make([]board.Point2, 4),
	}, nil
}
