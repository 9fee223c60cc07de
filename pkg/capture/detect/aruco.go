package detect

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-charuco/pkg/board"
)

// Aruco detects markers using OpenCV's ArucoDetector.
type Aruco struct {
	detector gocv.ArucoDetector
	mu       sync.Mutex // Protects detection
}

// NewAruco creates a detector for the given dictionary with the given
// tuning parameters.
func NewAruco(dict board.Dictionary, params Params) (*Aruco, error) {
	if !dict.Valid() {
		return nil, fmt.Errorf("detect: %v", board.ErrBadDictionary)
	}

	p := gocv.NewArucoDetectorParameters()
	p.SetAdaptiveThreshWinSizeMin(params.AdaptiveThreshWinSizeMin)
	p.SetAdaptiveThreshWinSizeMax(params.AdaptiveThreshWinSizeMax)
	p.SetAdaptiveThreshWinSizeStep(params.AdaptiveThreshWinSizeStep)
	p.SetAdaptiveThreshConstant(params.AdaptiveThreshConstant)
	p.SetMinMarkerPerimeterRate(params.MinMarkerPerimeterRate)
	p.SetMaxMarkerPerimeterRate(params.MaxMarkerPerimeterRate)
	p.SetPolygonalApproxAccuracyRate(params.PolygonalApproxAccuracyRate)
	p.SetMinCornerDistanceRate(params.MinCornerDistanceRate)
	p.SetMinDistanceToBorder(params.MinDistanceToBorder)
	p.SetMinMarkerDistanceRate(params.MinMarkerDistanceRate)
	p.SetCornerRefinementMethod(params.CornerRefinementMethod)
	p.SetCornerRefinementWinSize(params.CornerRefinementWinSize)
	p.SetCornerRefinementMaxIterations(params.CornerRefinementMaxIterations)
	p.SetCornerRefinementMinAccuracy(params.CornerRefinementMinAccuracy)
	p.SetMarkerBorderBits(params.MarkerBorderBits)
	p.SetPerspectiveRemovePixelPerCell(params.PerspectiveRemovePixelPerCell)
	p.SetPerspectiveRemoveIgnoredMarginPerCell(params.PerspectiveRemoveIgnoredMarginPerCell)
	p.SetMaxErroneousBitsInBorderRate(params.MaxErroneousBitsInBorderRate)
	p.SetMinOtsuStdDev(params.MinOtsuStdDev)
	p.SetErrorCorrectionRate(params.ErrorCorrectionRate)

	dictionary := gocv.GetPredefinedDictionary(gocv.ArucoDictionaryCode(dict))

	return &Aruco{
		detector: gocv.NewArucoDetectorWithParams(dictionary, p),
	}, nil
}

// Detect finds markers in the JPEG-encoded frame.
func (a *Aruco) Detect(jpeg []byte) (Detection, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return Detection{}, fmt.Errorf("detect: decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return Detection{}, fmt.Errorf("detect: empty image")
	}

	corners, ids, rejected := a.detector.DetectMarkers(img)

	return Detection{
		IDs:      ids,
		Corners:  toQuads(corners),
		Rejected: toQuads(rejected),
	}, nil
}

// Close releases the detector resources.
func (a *Aruco) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detector.Close()
}

// toQuads converts gocv marker corners to board quads. Candidates with
// a corner count other than four are dropped.
func toQuads(corners [][]gocv.Point2f) []board.Quad {
	var quads []board.Quad
	for _, c := range corners {
		if len(c) != 4 {
			continue
		}
		var q board.Quad
		for i, p := range c {
			q[i] = board.Point2{X: float64(p.X), Y: float64(p.Y)}
		}
		quads = append(quads, q)
	}
	return quads
}
