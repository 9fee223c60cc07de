package detect

import (
	"github.com/teslashibe/go-charuco/pkg/board"
)

// Mock implements Detector for testing.
// All methods can be customized via function fields.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	// If nil, returns an empty detection.
	DetectFunc func(jpeg []byte) (Detection, error)

	// RefineFunc is called when Refine is invoked.
	// If nil, returns the detection unchanged.
	RefineFunc func(jpeg []byte, det Detection, model board.Model) (Detection, error)

	// CloseFunc is called when Close is invoked.
	// If nil, returns nil.
	CloseFunc func() error

	// Calls counts Detect invocations.
	Calls int
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(jpeg []byte) (Detection, error) {
	m.Calls++
	if m.DetectFunc != nil {
		return m.DetectFunc(jpeg)
	}
	return Detection{}, nil
}

// Refine calls RefineFunc.
func (m *Mock) Refine(jpeg []byte, det Detection, model board.Model) (Detection, error) {
	if m.RefineFunc != nil {
		return m.RefineFunc(jpeg, det, model)
	}
	return det, nil
}

// Close calls CloseFunc.
func (m *Mock) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
