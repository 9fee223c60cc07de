package planar

import (
	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-charuco/pkg/board"
)

// Lens models a calibrated pinhole camera with polynomial distortion
// (k1, k2, p1, p2, k3). Shorter coefficient vectors are zero-padded.
type Lens struct {
	fx, fy, cx, cy     float64
	k1, k2, k3, p1, p2 float64
}

// NewLens builds a Lens from a 3x3 camera matrix and a distortion
// coefficient vector.
func NewLens(camera *mat.Dense, dist []float64) *Lens {
	l := &Lens{
		fx: camera.At(0, 0),
		fy: camera.At(1, 1),
		cx: camera.At(0, 2),
		cy: camera.At(1, 2),
	}
	coef := [5]float64{}
	copy(coef[:], dist)
	l.k1, l.k2, l.p1, l.p2, l.k3 = coef[0], coef[1], coef[2], coef[3], coef[4]
	return l
}

// distort applies the distortion model to normalized coordinates.
func (l *Lens) distort(x, y float64) (float64, float64) {
	r2 := x*x + y*y
	radial := 1 + l.k1*r2 + l.k2*r2*r2 + l.k3*r2*r2*r2
	xd := x*radial + 2*l.p1*x*y + l.p2*(r2+2*x*x)
	yd := y*radial + l.p1*(r2+2*y*y) + 2*l.p2*x*y
	return xd, yd
}

// Undistort maps an observed pixel to its ideal (distortion-free) pixel
// position. The model inverse has no closed form; a fixed-point
// iteration from the observed normalized coordinates converges in a few
// steps for realistic lenses.
func (l *Lens) Undistort(p board.Point2) board.Point2 {
	xd := (p.X - l.cx) / l.fx
	yd := (p.Y - l.cy) / l.fy

	x, y := xd, yd
	for i := 0; i < 8; i++ {
		r2 := x*x + y*y
		radial := 1 + l.k1*r2 + l.k2*r2*r2 + l.k3*r2*r2*r2
		dx := 2*l.p1*x*y + l.p2*(r2+2*x*x)
		dy := l.p1*(r2+2*y*y) + 2*l.p2*x*y
		x = (xd - dx) / radial
		y = (yd - dy) / radial
	}
	return board.Point2{X: l.cx + x*l.fx, Y: l.cy + y*l.fy}
}

// Distort maps an ideal pixel position to where the lens would image it.
func (l *Lens) Distort(p board.Point2) board.Point2 {
	x := (p.X - l.cx) / l.fx
	y := (p.Y - l.cy) / l.fy
	xd, yd := l.distort(x, y)
	return board.Point2{X: l.cx + xd*l.fx, Y: l.cy + yd*l.fy}
}
