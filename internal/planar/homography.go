// Package planar provides plane-to-image projection math shared by the
// corner interpolator and the refind strategy: homography estimation via
// DLT and the polynomial lens distortion model.
package planar

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-charuco/pkg/board"
)

// ErrDegenerate is returned when the correspondences do not constrain a
// homography (fewer than 4 point pairs, or a rank-deficient system).
var ErrDegenerate = errors.New("planar: degenerate homography")

// Homography maps board-plane points (X, Y on Z=0) to image points.
type Homography struct {
	h *mat.Dense // 3x3
}

// FitHomography estimates the plane-to-image homography from point
// correspondences using the DLT. Each pair contributes two rows to the
// design matrix; the solution is the right singular vector of the
// smallest singular value.
func FitHomography(object []board.Point3, image []board.Point2) (*Homography, error) {
	if len(object) != len(image) || len(object) < 4 {
		return nil, ErrDegenerate
	}

	data := make([]float64, 0, 18*len(object))
	for i := range object {
		X, Y := object[i].X, object[i].Y
		x, y := image[i].X, image[i].Y
		data = append(data, -X, -Y, -1, 0, 0, 0, x*X, x*Y, x)
		data = append(data, 0, 0, 0, -X, -Y, -1, y*X, y*Y, y)
	}
	a := mat.NewDense(2*len(object), 9, data)

	// Full V is required: with exactly 4 pairs the system is 8x9 and
	// the solution lives in the null-space column a thin SVD drops.
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, ErrDegenerate
	}
	var v mat.Dense
	svd.VTo(&v)

	// The right singular vectors are columns of V; the last column
	// corresponds to the smallest singular value.
	col := v.RawMatrix().Cols - 1
	h := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			h.Set(i, j, v.At(3*i+j, col))
		}
	}
	if h.At(2, 2) == 0 {
		return nil, ErrDegenerate
	}
	h.Scale(1/h.At(2, 2), h)
	return &Homography{h: h}, nil
}

// Apply projects a board-plane point into the image.
func (h *Homography) Apply(p board.Point3) board.Point2 {
	x := h.h.At(0, 0)*p.X + h.h.At(0, 1)*p.Y + h.h.At(0, 2)
	y := h.h.At(1, 0)*p.X + h.h.At(1, 1)*p.Y + h.h.At(1, 2)
	w := h.h.At(2, 0)*p.X + h.h.At(2, 1)*p.Y + h.h.At(2, 2)
	if w == 0 {
		return board.Point2{}
	}
	return board.Point2{X: x / w, Y: y / w}
}
