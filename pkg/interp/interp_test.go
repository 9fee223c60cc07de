package interp

import (
	"math"
	"testing"

	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/capture"
)

func testBoard(t *testing.T) board.Model {
	t.Helper()
	m, err := board.New(5, 7, 0.04, 0.02, board.Dict6x6_250)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// project maps board coordinates to synthetic image pixels with a mild
// projective component.
func project(p board.Point3) board.Point2 {
	w := 1 + 0.1*p.X
	return board.Point2{X: (3000*p.X + 200) / w, Y: (3000*p.Y + 150) / w}
}

// observationWith builds an observation carrying the given markers,
// imaged through the synthetic projection.
func observationWith(t *testing.T, m board.Model, ids []int) capture.Observation {
	t.Helper()
	corners := make([]board.Quad, len(ids))
	for i, id := range ids {
		bc, err := m.MarkerCorners(id)
		if err != nil {
			t.Fatal(err)
		}
		for k := 0; k < 4; k++ {
			corners[i][k] = project(bc[k])
		}
	}
	obs, err := capture.NewObservation(ids, corners, []byte("frame"), 1280, 960)
	if err != nil {
		t.Fatal(err)
	}
	return obs
}

func TestCharuco_FullBoard(t *testing.T) {
	m := testBoard(t)
	all := make([]int, m.NumMarkers())
	for i := range all {
		all[i] = i
	}
	obs := observationWith(t, m, all)

	cs, err := NewCharuco().Interpolate(obs, m, nil)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}

	if len(cs.IDs) != m.NumCorners() {
		t.Fatalf("corners: got %d, want %d", len(cs.IDs), m.NumCorners())
	}
	// The projected corners must land where the synthetic projection
	// puts the true board corners.
	for i, id := range cs.IDs {
		bp, err := m.ChessboardCorner(id)
		if err != nil {
			t.Fatal(err)
		}
		want := project(bp)
		got := cs.Points[i]
		if math.Abs(got.X-want.X) > 1e-4 || math.Abs(got.Y-want.Y) > 1e-4 {
			t.Errorf("corner %d: got (%v, %v), want (%v, %v)", id, got.X, got.Y, want.X, want.Y)
		}
	}
}

func TestCharuco_PartialBoardLimitsSupport(t *testing.T) {
	m := testBoard(t)
	// Only the first two markers visible: corners far from them must
	// not be emitted.
	obs := observationWith(t, m, []int{0, 1})

	cs, err := NewCharuco().Interpolate(obs, m, nil)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}

	if cs.Empty() {
		t.Fatal("expected some corners near the detected markers")
	}
	if len(cs.IDs) >= m.NumCorners() {
		t.Errorf("got %d corners from 2 markers, want fewer than %d", len(cs.IDs), m.NumCorners())
	}
	for _, id := range cs.IDs {
		adjacent, err := m.CornerAdjacentMarkers(id)
		if err != nil {
			t.Fatal(err)
		}
		if adjacent[0] != 0 && adjacent[0] != 1 && adjacent[1] != 0 && adjacent[1] != 1 {
			t.Errorf("corner %d emitted without a detected adjacent marker", id)
		}
	}
}

func TestCharuco_TooFewMarkers(t *testing.T) {
	m := testBoard(t)
	obs := observationWith(t, m, []int{3})

	cs, err := NewCharuco().Interpolate(obs, m, nil)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	if !cs.Empty() {
		t.Errorf("got %d corners from a single marker, want none", len(cs.IDs))
	}
}

func TestCharuco_OrderedByCornerID(t *testing.T) {
	m := testBoard(t)
	all := make([]int, m.NumMarkers())
	for i := range all {
		all[i] = i
	}
	obs := observationWith(t, m, all)

	cs, err := NewCharuco().Interpolate(obs, m, nil)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	for i := 1; i < len(cs.IDs); i++ {
		if cs.IDs[i] <= cs.IDs[i-1] {
			t.Fatalf("corner ids not strictly increasing at %d: %v", i, cs.IDs)
		}
	}
}
