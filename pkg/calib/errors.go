package calib

import (
	"errors"
	"fmt"
)

// Sentinel errors for fatal pipeline conditions.
var (
	// ErrNoObservations is returned when the store holds zero frames.
	ErrNoObservations = errors.New("calib: no captured frames")

	// ErrInsufficientData matches InsufficientDataError via errors.Is.
	ErrInsufficientData = errors.New("calib: insufficient calibration data")

	// ErrBadAspectRatio is returned when FixAspectRatio is set without
	// a positive target ratio.
	ErrBadAspectRatio = errors.New("calib: fix-aspect-ratio requires a positive aspect ratio")
)

// InsufficientDataError reports that too few frames produced board
// corners for the refined solve.
type InsufficientDataError struct {
	Usable   int // Frames with at least one interpolated corner
	Required int // Policy threshold
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("calib: insufficient calibration data: %d of %d required frames with board corners", e.Usable, e.Required)
}

// Is matches ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
