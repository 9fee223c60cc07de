// Package detect provides ArUco marker detection for ChArUco calibration.
package detect

import (
	"github.com/teslashibe/go-charuco/pkg/board"
)

// Detection is the set of markers found in one frame. IDs and Corners
// are parallel: Corners[i] holds the four image-space corners of the
// marker identified by IDs[i]. Rejected holds candidate quads that did
// not decode to a marker; the refind strategy may recover them.
type Detection struct {
	IDs      []int
	Corners  []board.Quad
	Rejected []board.Quad
}

// Count returns the number of detected markers.
func (d Detection) Count() int {
	return len(d.IDs)
}

// Detector is the interface for marker detection backends.
type Detector interface {
	// Detect finds markers in the JPEG-encoded frame.
	// Zero detections is not an error.
	Detect(jpeg []byte) (Detection, error)

	// Refine re-examines the rejected candidates of a previous
	// detection using the board geometry and claims the ones that sit
	// where an undetected board marker is expected.
	Refine(jpeg []byte, det Detection, model board.Model) (Detection, error)

	// Close releases resources.
	Close() error
}
