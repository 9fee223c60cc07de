package detect

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrParamsUnreadable is returned when the detector parameter file
// cannot be opened or parsed. This is fatal for a calibration run.
var ErrParamsUnreadable = errors.New("detect: detector parameters unreadable")

// Params holds the numeric tuning parameters of the ArUco detector.
// The YAML keys match the OpenCV detector parameter file format.
type Params struct {
	AdaptiveThreshWinSizeMin              int     `yaml:"adaptiveThreshWinSizeMin"`
	AdaptiveThreshWinSizeMax              int     `yaml:"adaptiveThreshWinSizeMax"`
	AdaptiveThreshWinSizeStep             int     `yaml:"adaptiveThreshWinSizeStep"`
	AdaptiveThreshConstant                float64 `yaml:"adaptiveThreshConstant"`
	MinMarkerPerimeterRate                float64 `yaml:"minMarkerPerimeterRate"`
	MaxMarkerPerimeterRate                float64 `yaml:"maxMarkerPerimeterRate"`
	PolygonalApproxAccuracyRate           float64 `yaml:"polygonalApproxAccuracyRate"`
	MinCornerDistanceRate                 float64 `yaml:"minCornerDistanceRate"`
	MinDistanceToBorder                   int     `yaml:"minDistanceToBorder"`
	MinMarkerDistanceRate                 float64 `yaml:"minMarkerDistanceRate"`
	CornerRefinementMethod                int     `yaml:"cornerRefinementMethod"`
	CornerRefinementWinSize               int     `yaml:"cornerRefinementWinSize"`
	CornerRefinementMaxIterations         int     `yaml:"cornerRefinementMaxIterations"`
	CornerRefinementMinAccuracy           float64 `yaml:"cornerRefinementMinAccuracy"`
	MarkerBorderBits                      int     `yaml:"markerBorderBits"`
	PerspectiveRemovePixelPerCell         int     `yaml:"perspectiveRemovePixelPerCell"`
	PerspectiveRemoveIgnoredMarginPerCell float64 `yaml:"perspectiveRemoveIgnoredMarginPerCell"`
	MaxErroneousBitsInBorderRate          float64 `yaml:"maxErroneousBitsInBorderRate"`
	MinOtsuStdDev                         float64 `yaml:"minOtsuStdDev"`
	ErrorCorrectionRate                   float64 `yaml:"errorCorrectionRate"`
}

// DefaultParams returns the OpenCV detector defaults.
func DefaultParams() Params {
	return Params{
		AdaptiveThreshWinSizeMin:              3,
		AdaptiveThreshWinSizeMax:              23,
		AdaptiveThreshWinSizeStep:             10,
		AdaptiveThreshConstant:                7,
		MinMarkerPerimeterRate:                0.03,
		MaxMarkerPerimeterRate:                4.0,
		PolygonalApproxAccuracyRate:           0.03,
		MinCornerDistanceRate:                 0.05,
		MinDistanceToBorder:                   3,
		MinMarkerDistanceRate:                 0.05,
		CornerRefinementMethod:                0,
		CornerRefinementWinSize:               5,
		CornerRefinementMaxIterations:         30,
		CornerRefinementMinAccuracy:           0.1,
		MarkerBorderBits:                      1,
		PerspectiveRemovePixelPerCell:         4,
		PerspectiveRemoveIgnoredMarginPerCell: 0.13,
		MaxErroneousBitsInBorderRate:          0.35,
		MinOtsuStdDev:                         5.0,
		ErrorCorrectionRate:                   0.6,
	}
}

// LoadParams reads a detector parameter file. Missing keys keep their
// defaults; a missing or malformed file is an error.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrParamsUnreadable, err)
	}
	p := DefaultParams()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("%w: parse %s: %v", ErrParamsUnreadable, path, err)
	}
	return p, nil
}
