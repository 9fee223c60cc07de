// Package interp recovers sub-pixel chessboard corner positions from
// marker detections and board geometry, implementing the calibration
// pipeline's Interpolator contract without native dependencies.
//
// The detected marker corners fix a board-to-image homography (DLT over
// the marker correspondences). Interior chessboard corners are then
// projected through it. A corner is only emitted when one of the marker
// squares touching it was actually detected, so the yield degrades
// gracefully with partial board visibility, matching the reference
// interpolation's local support requirement.
package interp

import (
	"github.com/teslashibe/go-charuco/internal/planar"
	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/calib"
	"github.com/teslashibe/go-charuco/pkg/capture"
)

// minMarkers is the number of detected markers needed for a stable
// homography fit.
const minMarkers = 2

// Charuco is the homography-based interpolator.
type Charuco struct{}

// NewCharuco creates an interpolator.
func NewCharuco() *Charuco {
	return &Charuco{}
}

// Interpolate implements calib.Interpolator. With known intrinsics the
// observed points are undistorted before the fit and the projections
// are redistorted back into observed image space, which is what makes
// the second-pass interpolation more accurate than the preview pass.
// An unusable frame yields an empty set, not an error.
func (c *Charuco) Interpolate(obs capture.Observation, model board.Model, intr *calib.Intrinsics) (calib.CornerSet, error) {
	var lens *planar.Lens
	if intr != nil && intr.Camera != nil {
		lens = planar.NewLens(intr.Camera, intr.Dist)
	}

	var object []board.Point3
	var image []board.Point2
	seen := make(map[int]bool, len(obs.IDs))
	for i, id := range obs.IDs {
		bc, err := model.MarkerCorners(id)
		if err != nil {
			continue // Marker from another board
		}
		seen[id] = true
		for k := 0; k < 4; k++ {
			object = append(object, bc[k])
			p := obs.Corners[i][k]
			if lens != nil {
				p = lens.Undistort(p)
			}
			image = append(image, p)
		}
	}
	if len(seen) < minMarkers {
		return calib.CornerSet{}, nil
	}

	h, err := planar.FitHomography(object, image)
	if err != nil {
		return calib.CornerSet{}, nil
	}

	var out calib.CornerSet
	for id := 0; id < model.NumCorners(); id++ {
		adjacent, err := model.CornerAdjacentMarkers(id)
		if err != nil {
			continue
		}
		supported := false
		for _, mid := range adjacent {
			if seen[mid] {
				supported = true
				break
			}
		}
		if !supported {
			continue
		}

		bp, err := model.ChessboardCorner(id)
		if err != nil {
			continue
		}
		p := h.Apply(bp)
		if lens != nil {
			p = lens.Distort(p)
		}
		if p.X < 0 || p.Y < 0 || p.X >= float64(obs.Width) || p.Y >= float64(obs.Height) {
			continue
		}
		out.IDs = append(out.IDs, id)
		out.Points = append(out.Points, p)
	}
	return out, nil
}
