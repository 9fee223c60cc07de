// Package capture drives the interactive calibration session: it pulls
// frames from a source, runs marker detection, and commits observations
// into a store on user command.
package capture

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-charuco/pkg/board"
)

// Errors returned when building or storing observations.
var (
	ErrLengthMismatch = errors.New("capture: marker ids and corners differ in length")
	ErrDuplicateID    = errors.New("capture: duplicate marker id in frame")
	ErrNoMarkers      = errors.New("capture: frame has no detected markers")
	ErrFrozen         = errors.New("capture: store is frozen")
	ErrSizeMismatch   = errors.New("capture: frame dimensions differ from earlier observations")
)

// Observation is the detection record of one committed frame. It is
// immutable after construction and owned by the Store.
type Observation struct {
	IDs     []int        // Marker IDs, unique within the frame
	Corners []board.Quad // Corners[i] belongs to IDs[i]
	Frame   []byte       // Raw frame, JPEG-encoded
	Width   int          // Frame width in pixels
	Height  int          // Frame height in pixels
}

// NewObservation validates and builds an observation. The id and corner
// slices must be parallel and the ids unique.
func NewObservation(ids []int, corners []board.Quad, frame []byte, width, height int) (Observation, error) {
	if len(ids) == 0 {
		return Observation{}, ErrNoMarkers
	}
	if len(ids) != len(corners) {
		return Observation{}, fmt.Errorf("%w: %d ids, %d corner sets", ErrLengthMismatch, len(ids), len(corners))
	}
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return Observation{}, fmt.Errorf("%w: id %d", ErrDuplicateID, id)
		}
		seen[id] = true
	}
	return Observation{
		IDs:     append([]int(nil), ids...),
		Corners: append([]board.Quad(nil), corners...),
		Frame:   frame,
		Width:   width,
		Height:  height,
	}, nil
}
