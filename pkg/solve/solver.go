// Package solve adapts OpenCV's camera calibration to the pipeline's
// Solver contract. Correspondences are built from the board geometry:
// marker corners for the bootstrap solve, interior chessboard corners
// for the refined solve.
package solve

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/calib"
)

// OpenCV is the gocv-backed calibration solver.
type OpenCV struct{}

// New creates the solver.
func New() *OpenCV {
	return &OpenCV{}
}

// frame is one view's correspondences in gocv layout.
type frame struct {
	object []gocv.Point3f
	image  []gocv.Point2f
}

// CalibrateMarkers implements calib.Solver. The flat sequences are
// re-segmented per frame using the marker counts before the solve.
func (s *OpenCV) CalibrateMarkers(corners []board.Quad, ids []int, markerCounts []int, model board.Model, size image.Point, seed *mat.Dense, flags calib.Flags) (calib.SolveResult, error) {
	total := 0
	for _, c := range markerCounts {
		total += c
	}
	if total != len(corners) || total != len(ids) {
		return calib.SolveResult{}, fmt.Errorf("solve: marker counts sum to %d but %d corners and %d ids given", total, len(corners), len(ids))
	}

	frames := make([]frame, 0, len(markerCounts))
	off := 0
	for _, n := range markerCounts {
		var f frame
		for i := off; i < off+n; i++ {
			bc, err := model.MarkerCorners(ids[i])
			if err != nil {
				return calib.SolveResult{}, fmt.Errorf("solve: %w", err)
			}
			for k := 0; k < 4; k++ {
				f.object = append(f.object, toPoint3f(bc[k]))
				f.image = append(f.image, toPoint2f(corners[i][k]))
			}
		}
		off += n
		frames = append(frames, f)
	}
	return s.run(frames, size, seed, flags)
}

// CalibrateBoard implements calib.Solver.
func (s *OpenCV) CalibrateBoard(sets []calib.CornerSet, model board.Model, size image.Point, seed *mat.Dense, flags calib.Flags) (calib.SolveResult, error) {
	frames := make([]frame, 0, len(sets))
	for _, cs := range sets {
		var f frame
		for i, id := range cs.IDs {
			bp, err := model.ChessboardCorner(id)
			if err != nil {
				return calib.SolveResult{}, fmt.Errorf("solve: %w", err)
			}
			f.object = append(f.object, toPoint3f(bp))
			f.image = append(f.image, toPoint2f(cs.Points[i]))
		}
		frames = append(frames, f)
	}
	return s.run(frames, size, seed, flags)
}

// run performs the gocv solve over per-frame correspondences.
func (s *OpenCV) run(frames []frame, size image.Point, seed *mat.Dense, flags calib.Flags) (calib.SolveResult, error) {
	if len(frames) == 0 {
		return calib.SolveResult{}, fmt.Errorf("solve: no frames")
	}

	objPts := make([][]gocv.Point3f, len(frames))
	imgPts := make([][]gocv.Point2f, len(frames))
	for i, f := range frames {
		if len(f.object) < 4 {
			return calib.SolveResult{}, fmt.Errorf("solve: frame %d has %d correspondences, need at least 4", i, len(f.object))
		}
		objPts[i] = f.object
		imgPts[i] = f.image
	}

	object := gocv.NewPoints3fVectorFromPoints(objPts)
	defer object.Close()
	image2d := gocv.NewPoints2fVectorFromPoints(imgPts)
	defer image2d.Close()

	cameraMatrix := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer cameraMatrix.Close()
	if seed != nil {
		// Under CALIB_FIX_ASPECT_RATIO OpenCV reads only the fx/fy ratio
		// from this matrix and still estimates the initial intrinsics
		// itself, so the seed must not imply CALIB_USE_INTRINSIC_GUESS.
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cameraMatrix.SetDoubleAt(i, j, seed.At(i, j))
			}
		}
	}

	distCoeffs := gocv.NewMat()
	defer distCoeffs.Close()
	rvecs := gocv.NewMat()
	defer rvecs.Close()
	tvecs := gocv.NewMat()
	defer tvecs.Close()

	reprojErr := gocv.CalibrateCamera(object, image2d, size, &cameraMatrix, &distCoeffs, &rvecs, &tvecs, cvCalibFlags(flags))

	camera := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			camera.Set(i, j, cameraMatrix.GetDoubleAt(i, j))
		}
	}

	dist := make([]float64, 0, distCoeffs.Total())
	for i := 0; i < distCoeffs.Rows(); i++ {
		for j := 0; j < distCoeffs.Cols(); j++ {
			dist = append(dist, distCoeffs.GetDoubleAt(i, j))
		}
	}

	poses := make([]calib.Pose, len(frames))
	for i := range poses {
		poses[i] = calib.Pose{
			Rotation:    readVec3(rvecs, i),
			Translation: readVec3(tvecs, i),
		}
	}

	return calib.SolveResult{
		Camera:    camera,
		Dist:      dist,
		Poses:     poses,
		ReprojErr: reprojErr,
	}, nil
}

// cvCalibFlags maps pipeline flags onto gocv's. The bit values match
// OpenCV's, so the conversion is a direct cast; in particular a seeded
// camera matrix never adds CALIB_USE_INTRINSIC_GUESS.
func cvCalibFlags(flags calib.Flags) gocv.CalibFlag {
	return gocv.CalibFlag(flags)
}

// readVec3 reads row i of a pose output Mat, tolerating both the Nx3
// single-channel and Nx1 three-channel layouts.
func readVec3(m gocv.Mat, i int) [3]float64 {
	var v [3]float64
	if i >= m.Rows() {
		return v
	}
	if m.Cols() >= 3 {
		for j := 0; j < 3; j++ {
			v[j] = m.GetDoubleAt(i, j)
		}
		return v
	}
	vec := m.GetVecdAt(i, 0)
	for j := 0; j < 3 && j < len(vec); j++ {
		v[j] = vec[j]
	}
	return v
}

func toPoint2f(p board.Point2) gocv.Point2f {
	return gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
}

func toPoint3f(p board.Point3) gocv.Point3f {
	return gocv.Point3f{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
}
