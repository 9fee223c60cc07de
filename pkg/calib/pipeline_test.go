package calib

import (
	"errors"
	"image"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/capture"
)

func pipelineBoard(t *testing.T) board.Model {
	t.Helper()
	m, err := board.New(5, 7, 0.04, 0.02, board.Dict6x6_250)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// storeWithFrames builds a store where frame f carries markerCounts[f]
// markers and each corner quad encodes (frame, marker) in its first
// point, so re-segmentation can be verified.
func storeWithFrames(t *testing.T, markerCounts ...int) *capture.Store {
	t.Helper()
	s := capture.NewStore()
	for f, n := range markerCounts {
		ids := make([]int, n)
		corners := make([]board.Quad, n)
		for i := 0; i < n; i++ {
			ids[i] = i
			corners[i][0] = board.Point2{X: float64(f), Y: float64(i)}
		}
		obs, err := capture.NewObservation(ids, corners, []byte("frame"), 1280, 720)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Append(obs); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestPipeline_EmptyStore(t *testing.T) {
	p := NewPipeline(&MockSolver{}, &MockInterpolator{}, Options{})
	_, err := p.Run(capture.NewStore(), pipelineBoard(t))
	if !errors.Is(err, ErrNoObservations) {
		t.Errorf("got err %v, want ErrNoObservations", err)
	}
}

func TestPipeline_MarkerCounterInvariant(t *testing.T) {
	counts := []int{6, 8, 7, 6, 9}
	store := storeWithFrames(t, counts...)

	solver := &MockSolver{
		CalibrateMarkersFunc: func(corners []board.Quad, ids []int, markerCounts []int, _ board.Model, _ image.Point, _ *mat.Dense, _ Flags) (SolveResult, error) {
			sum := 0
			for _, c := range markerCounts {
				sum += c
			}
			if sum != len(corners) || sum != len(ids) {
				t.Errorf("counter sum %d, but %d corners and %d ids", sum, len(corners), len(ids))
			}

			// Re-segmenting the flat sequences by the counts must
			// reproduce the original per-frame groups in order.
			off := 0
			for f, n := range markerCounts {
				if n != counts[f] {
					t.Errorf("frame %d: count %d, want %d", f, n, counts[f])
				}
				for i := 0; i < n; i++ {
					p := corners[off+i][0]
					if p.X != float64(f) || p.Y != float64(i) {
						t.Errorf("entry %d: got (%v, %v), want frame %d marker %d", off+i, p.X, p.Y, f, i)
					}
				}
				off += n
			}
			return defaultSolveResult(len(markerCounts)), nil
		},
	}

	p := NewPipeline(solver, &MockInterpolator{}, Options{})
	if _, err := p.Run(store, pipelineBoard(t)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if solver.MarkerCalls != 1 {
		t.Errorf("bootstrap solves: got %d, want 1", solver.MarkerCalls)
	}
}

func TestPipeline_InsufficientInterpolatedFrames(t *testing.T) {
	// Three committed frames, only two yield corners: below the
	// threshold of four even though the store is non-empty.
	store := storeWithFrames(t, 6, 6, 6)
	interp := &MockInterpolator{
		InterpolateFunc: func(obs capture.Observation, _ board.Model, _ *Intrinsics) (CornerSet, error) {
			if interpCallIndex(obs) == 1 {
				return CornerSet{}, nil // Frame 1 fails interpolation
			}
			return CornerSet{IDs: []int{0, 1, 2, 3}, Points: make([]board.Point2, 4)}, nil
		},
	}

	solver := &MockSolver{}
	p := NewPipeline(solver, interp, Options{})
	_, err := p.Run(store, pipelineBoard(t))

	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got err %v, want InsufficientDataError", err)
	}
	if insufficient.Usable != 2 || insufficient.Required != MinUsableFrames {
		t.Errorf("got %d/%d, want 2/%d", insufficient.Usable, insufficient.Required, MinUsableFrames)
	}
	if !errors.Is(err, ErrInsufficientData) {
		t.Error("errors.Is(err, ErrInsufficientData) = false")
	}
	if solver.BoardCalls != 0 {
		t.Errorf("refined solver ran %d times despite insufficient data", solver.BoardCalls)
	}
}

// interpCallIndex recovers the frame index encoded by storeWithFrames.
func interpCallIndex(obs capture.Observation) int {
	return int(obs.Corners[0][0].X)
}

func TestPipeline_ZeroCornerFramesReported(t *testing.T) {
	store := storeWithFrames(t, 6, 6, 6, 6, 6)
	interp := &MockInterpolator{
		InterpolateFunc: func(obs capture.Observation, _ board.Model, _ *Intrinsics) (CornerSet, error) {
			if interpCallIndex(obs) == 2 {
				return CornerSet{}, nil
			}
			return CornerSet{IDs: []int{0, 1, 2, 3}, Points: make([]board.Point2, 4)}, nil
		},
	}
	solver := &MockSolver{}

	p := NewPipeline(solver, interp, Options{})
	res, err := p.Run(store, pipelineBoard(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Frames) != 5 {
		t.Fatalf("frame reports: got %d, want 5", len(res.Frames))
	}
	if res.Frames[2].Interpolated {
		t.Error("frame 2 reported as interpolated")
	}
	for _, i := range []int{0, 1, 3, 4} {
		if !res.Frames[i].Interpolated {
			t.Errorf("frame %d reported as failed", i)
		}
	}
	// Only the four usable frames reach the refined solver.
	if len(res.Poses) != 4 {
		t.Errorf("poses: got %d, want 4", len(res.Poses))
	}
}

func TestPipeline_SeededAspectRatio(t *testing.T) {
	const ratio = 1.7778
	store := storeWithFrames(t, 6, 6, 6, 6, 6)
	solver := &MockSolver{}

	p := NewPipeline(solver, &MockInterpolator{}, Options{
		Flags:       FixAspectRatio,
		AspectRatio: ratio,
	})
	if _, err := p.Run(store, pipelineBoard(t)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for name, seed := range map[string]*mat.Dense{
		"bootstrap": solver.LastMarkerSeed,
		"refined":   solver.LastBoardSeed,
	} {
		if seed == nil {
			t.Fatalf("%s: no seed matrix passed", name)
		}
		if got := seed.At(0, 0); got != ratio {
			t.Errorf("%s seed (0,0): got %v, want %v", name, got, ratio)
		}
		if seed.At(1, 1) != 1 || seed.At(2, 2) != 1 || seed.At(0, 1) != 0 {
			t.Errorf("%s seed is not identity-like: %v", name, mat.Formatted(seed))
		}
	}
}

func TestPipeline_NoSeedWithoutFixedAspect(t *testing.T) {
	store := storeWithFrames(t, 6, 6, 6, 6)
	solver := &MockSolver{}
	p := NewPipeline(solver, &MockInterpolator{}, Options{})
	if _, err := p.Run(store, pipelineBoard(t)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if solver.LastMarkerSeed != nil || solver.LastBoardSeed != nil {
		t.Error("seed matrix passed without FixAspectRatio")
	}
}

func TestPipeline_FixedAspectNeedsRatio(t *testing.T) {
	store := storeWithFrames(t, 6)
	p := NewPipeline(&MockSolver{}, &MockInterpolator{}, Options{Flags: FixAspectRatio})
	if _, err := p.Run(store, pipelineBoard(t)); !errors.Is(err, ErrBadAspectRatio) {
		t.Errorf("got err %v, want ErrBadAspectRatio", err)
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	// Five frames, six markers each, all yielding corners.
	store := storeWithFrames(t, 6, 6, 6, 6, 6)
	interp := &MockInterpolator{}
	solver := &MockSolver{}

	p := NewPipeline(solver, interp, Options{SessionID: "test-session"})
	res, err := p.Run(store, pipelineBoard(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if solver.MarkerCalls != 1 || solver.BoardCalls != 1 {
		t.Errorf("solver calls: markers %d, board %d, want 1 and 1", solver.MarkerCalls, solver.BoardCalls)
	}
	if interp.Calls != 5 {
		t.Errorf("interpolator calls: got %d, want 5", interp.Calls)
	}
	if interp.LastIntrinsics == nil || interp.LastIntrinsics.Camera == nil {
		t.Error("interpolator did not receive bootstrap intrinsics")
	}

	for name, v := range map[string]float64{
		"marker error": res.MarkerReprojErr,
		"board error":  res.BoardReprojErr,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			t.Errorf("%s: got %v, want finite non-negative", name, v)
		}
	}
	if r, c := res.Camera.Dims(); r != 3 || c != 3 {
		t.Errorf("camera matrix: got %dx%d, want 3x3", r, c)
	}
	if len(res.Dist) == 0 {
		t.Error("distortion coefficients empty")
	}
	if res.Width != 1280 || res.Height != 720 {
		t.Errorf("image size: got %dx%d, want 1280x720", res.Width, res.Height)
	}
	if res.SessionID != "test-session" {
		t.Errorf("session id: got %q", res.SessionID)
	}
	if !store.Frozen() {
		t.Error("store not frozen by pipeline")
	}
}

func TestFlags_String(t *testing.T) {
	tests := []struct {
		flags Flags
		want  string
	}{
		{0, ""},
		{FixAspectRatio, "+fix_aspectRatio"},
		{UseIntrinsicGuess | ZeroTangentDist, "+use_intrinsic_guess+zero_tangent_dist"},
		{UseIntrinsicGuess | FixAspectRatio | FixPrincipalPoint | ZeroTangentDist,
			"+use_intrinsic_guess+fix_aspectRatio+fix_principal_point+zero_tangent_dist"},
	}
	for _, tt := range tests {
		if got := tt.flags.String(); got != tt.want {
			t.Errorf("Flags(%d).String(): got %q, want %q", tt.flags, got, tt.want)
		}
	}
}

func TestFlags_Values(t *testing.T) {
	// The numeric values must match the OpenCV calibration flags so
	// written parameter files stay comparable.
	if UseIntrinsicGuess != 1 || FixAspectRatio != 2 || FixPrincipalPoint != 4 || ZeroTangentDist != 8 {
		t.Errorf("flag values drifted: %d %d %d %d", UseIntrinsicGuess, FixAspectRatio, FixPrincipalPoint, ZeroTangentDist)
	}
}
