// Package board describes ChArUco calibration board geometry.
//
// A ChArUco board is a checkerboard with ArUco markers embedded in the
// white squares. The board model is an immutable value created once at
// startup and shared read-only by the capture session and the
// calibration pipeline.
package board

import (
	"errors"
	"fmt"
)

// Errors returned by Model.Validate.
var (
	ErrGridTooSmall  = errors.New("board: grid must be at least 2x2 squares")
	ErrBadLengths    = errors.New("board: square and marker lengths must be positive")
	ErrMarkerTooBig  = errors.New("board: marker length must be smaller than square length")
	ErrBadDictionary = errors.New("board: unknown dictionary")
)

// Point2 is a 2D point in image coordinates (pixels).
type Point2 struct {
	X, Y float64
}

// Point3 is a 3D point in board coordinates (meters, Z=0 on the board plane).
type Point3 struct {
	X, Y, Z float64
}

// Quad is the four corners of a detected marker, clockwise from top-left.
type Quad [4]Point2

// Model is the geometry of a ChArUco board.
type Model struct {
	SquaresX     int        // Squares in the X direction
	SquaresY     int        // Squares in the Y direction
	SquareLength float64    // Side of a checkerboard square (meters)
	MarkerLength float64    // Side of an embedded marker (meters)
	Dictionary   Dictionary // Marker dictionary
}

// New builds a validated board model.
func New(squaresX, squaresY int, squareLength, markerLength float64, dict Dictionary) (Model, error) {
	m := Model{
		SquaresX:     squaresX,
		SquaresY:     squaresY,
		SquareLength: squareLength,
		MarkerLength: markerLength,
		Dictionary:   dict,
	}
	if err := m.Validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Validate checks the board invariants.
func (m Model) Validate() error {
	if m.SquaresX < 2 || m.SquaresY < 2 {
		return ErrGridTooSmall
	}
	if m.SquareLength <= 0 || m.MarkerLength <= 0 {
		return ErrBadLengths
	}
	if m.MarkerLength >= m.SquareLength {
		return ErrMarkerTooBig
	}
	if !m.Dictionary.Valid() {
		return ErrBadDictionary
	}
	return nil
}

// NumMarkers returns the number of markers on the board.
// Markers occupy the white squares; the (0,0) square is black.
func (m Model) NumMarkers() int {
	n := 0
	for y := 0; y < m.SquaresY; y++ {
		for x := 0; x < m.SquaresX; x++ {
			if (x+y)%2 == 1 {
				n++
			}
		}
	}
	return n
}

// NumCorners returns the number of interior chessboard corners.
func (m Model) NumCorners() int {
	return (m.SquaresX - 1) * (m.SquaresY - 1)
}

// MarkerSquare returns the (x, y) square holding the given marker ID.
// Marker IDs run row-major over the white squares.
func (m Model) MarkerSquare(id int) (int, int, error) {
	if id < 0 || id >= m.NumMarkers() {
		return 0, 0, fmt.Errorf("board: marker id %d out of range [0, %d)", id, m.NumMarkers())
	}
	n := 0
	for y := 0; y < m.SquaresY; y++ {
		for x := 0; x < m.SquaresX; x++ {
			if (x+y)%2 != 1 {
				continue
			}
			if n == id {
				return x, y, nil
			}
			n++
		}
	}
	return 0, 0, fmt.Errorf("board: marker id %d out of range", id)
}

// MarkerCorners returns the four board-plane corners of a marker,
// clockwise from top-left, in meters.
func (m Model) MarkerCorners(id int) ([4]Point3, error) {
	var c [4]Point3
	sx, sy, err := m.MarkerSquare(id)
	if err != nil {
		return c, err
	}
	margin := (m.SquareLength - m.MarkerLength) / 2
	x0 := float64(sx)*m.SquareLength + margin
	y0 := float64(sy)*m.SquareLength + margin
	c[0] = Point3{X: x0, Y: y0}
	c[1] = Point3{X: x0 + m.MarkerLength, Y: y0}
	c[2] = Point3{X: x0 + m.MarkerLength, Y: y0 + m.MarkerLength}
	c[3] = Point3{X: x0, Y: y0 + m.MarkerLength}
	return c, nil
}

// ChessboardCorner returns the board-plane position of an interior
// chessboard corner. Corner IDs run row-major over the
// (SquaresX-1) x (SquaresY-1) interior intersections.
func (m Model) ChessboardCorner(id int) (Point3, error) {
	if id < 0 || id >= m.NumCorners() {
		return Point3{}, fmt.Errorf("board: corner id %d out of range [0, %d)", id, m.NumCorners())
	}
	cx := id % (m.SquaresX - 1)
	cy := id / (m.SquaresX - 1)
	return Point3{
		X: float64(cx+1) * m.SquareLength,
		Y: float64(cy+1) * m.SquareLength,
	}, nil
}

// CornerAdjacentMarkers returns the IDs of the markers on the squares
// that touch the given interior corner. An interior corner touches four
// squares, two of which are white and carry markers.
func (m Model) CornerAdjacentMarkers(cornerID int) ([]int, error) {
	if cornerID < 0 || cornerID >= m.NumCorners() {
		return nil, fmt.Errorf("board: corner id %d out of range [0, %d)", cornerID, m.NumCorners())
	}
	cx := cornerID % (m.SquaresX - 1)
	cy := cornerID / (m.SquaresX - 1)

	var ids []int
	for _, sq := range [4][2]int{{cx, cy}, {cx + 1, cy}, {cx, cy + 1}, {cx + 1, cy + 1}} {
		if id, ok := m.markerIDAt(sq[0], sq[1]); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// markerIDAt returns the marker ID on square (x, y), if that square
// carries a marker.
func (m Model) markerIDAt(x, y int) (int, bool) {
	if x < 0 || x >= m.SquaresX || y < 0 || y >= m.SquaresY {
		return 0, false
	}
	if (x+y)%2 != 1 {
		return 0, false
	}
	n := 0
	for yy := 0; yy < m.SquaresY; yy++ {
		for xx := 0; xx < m.SquaresX; xx++ {
			if (xx+yy)%2 != 1 {
				continue
			}
			if xx == x && yy == y {
				return n, true
			}
			n++
		}
	}
	return 0, false
}
