package detect

import (
	"math"

	"github.com/teslashibe/go-charuco/internal/planar"
	"github.com/teslashibe/go-charuco/pkg/board"
)

// minRefineMarkers is the number of detected markers needed before the
// board pose is constrained well enough to claim rejected candidates.
const minRefineMarkers = 2

// Refine implements the refind strategy for the Aruco backend.
func (a *Aruco) Refine(_ []byte, det Detection, model board.Model) (Detection, error) {
	return RefineWithBoard(det, model), nil
}

// RefineWithBoard re-examines the rejected candidates of a detection.
// The detected markers fix a board-to-image homography; a rejected quad
// whose centroid lands where an undetected board marker is expected is
// claimed with that marker's ID. Claimed quads move from Rejected to
// the detected set.
func RefineWithBoard(det Detection, model board.Model) Detection {
	if det.Count() < minRefineMarkers || len(det.Rejected) == 0 {
		return det
	}

	var object []board.Point3
	var image []board.Point2
	seen := make(map[int]bool, det.Count())
	for i, id := range det.IDs {
		bc, err := model.MarkerCorners(id)
		if err != nil {
			continue // Marker from another board
		}
		seen[id] = true
		for k := 0; k < 4; k++ {
			object = append(object, bc[k])
			image = append(image, det.Corners[i][k])
		}
	}

	h, err := planar.FitHomography(object, image)
	if err != nil {
		return det
	}

	out := Detection{
		IDs:     append([]int(nil), det.IDs...),
		Corners: append([]board.Quad(nil), det.Corners...),
	}
	claimed := make([]bool, len(det.Rejected))

	for id := 0; id < model.NumMarkers(); id++ {
		if seen[id] {
			continue
		}
		bc, err := model.MarkerCorners(id)
		if err != nil {
			continue
		}
		center := h.Apply(board.Point3{
			X: (bc[0].X + bc[2].X) / 2,
			Y: (bc[0].Y + bc[2].Y) / 2,
		})
		// Tolerance scales with the projected marker size.
		tl, br := h.Apply(bc[0]), h.Apply(bc[2])
		tol := math.Hypot(br.X-tl.X, br.Y-tl.Y) / 2
		if tol <= 0 {
			continue
		}

		for j, q := range det.Rejected {
			if claimed[j] {
				continue
			}
			cx := (q[0].X + q[1].X + q[2].X + q[3].X) / 4
			cy := (q[0].Y + q[1].Y + q[2].Y + q[3].Y) / 4
			if math.Hypot(cx-center.X, cy-center.Y) <= tol {
				out.IDs = append(out.IDs, id)
				out.Corners = append(out.Corners, q)
				claimed[j] = true
				break
			}
		}
	}

	for j, q := range det.Rejected {
		if !claimed[j] {
			out.Rejected = append(out.Rejected, q)
		}
	}
	return out
}
