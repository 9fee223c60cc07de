// Package camparams persists calibration results as YAML camera
// parameter files, mirroring the field set of the reference tool's
// output so downstream consumers can read either.
package camparams

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-charuco/pkg/calib"
)

// ErrWrite is returned when the output file cannot be produced.
var ErrWrite = errors.New("camparams: cannot write parameter file")

// timeLayout is a locale-style human-readable timestamp.
const timeLayout = time.ANSIC

// File is the on-disk parameter layout. Field order matters: it is the
// order the fields appear in the written file.
type File struct {
	CalibrationTime        string      `yaml:"calibration_time"`
	ImageWidth             int         `yaml:"image_width"`
	ImageHeight            int         `yaml:"image_height"`
	AspectRatio            float64     `yaml:"aspect_ratio,omitempty"`
	FlagsReadable          string      `yaml:"flags_readable,omitempty"`
	Flags                  int         `yaml:"flags"`
	CameraMatrix           [][]float64 `yaml:"camera_matrix"`
	DistortionCoefficients []float64   `yaml:"distortion_coefficients"`
	AvgReprojectionError   float64     `yaml:"avg_reprojection_error"`
}

// fromResult maps a calibration result onto the file layout. The aspect
// ratio is recorded only when the fix-aspect-ratio policy was active,
// and the readable flags summary only when any flag was set.
func fromResult(res *calib.Result) File {
	f := File{
		CalibrationTime:        res.Time.Format(timeLayout),
		ImageWidth:             res.Width,
		ImageHeight:            res.Height,
		Flags:                  int(res.Flags),
		CameraMatrix:           matrixRows(res.Camera),
		DistortionCoefficients: res.Dist,
		AvgReprojectionError:   res.BoardReprojErr,
	}
	if res.Flags.Has(calib.FixAspectRatio) {
		f.AspectRatio = res.AspectRatio
	}
	if res.Flags != 0 {
		f.FlagsReadable = res.Flags.String()
	}
	return f
}

// Write serializes the result to path, overwriting any existing file.
// The file is written in one shot so a failure never leaves a partial
// parameter file behind.
func Write(path string, res *calib.Result) error {
	data, err := yaml.Marshal(fromResult(res))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Read loads a previously written parameter file.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("camparams: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("camparams: parse %s: %w", path, err)
	}
	return &f, nil
}

// Camera rebuilds the camera matrix from the file.
func (f *File) Camera() (*mat.Dense, error) {
	if len(f.CameraMatrix) != 3 {
		return nil, fmt.Errorf("camparams: camera matrix has %d rows, want 3", len(f.CameraMatrix))
	}
	m := mat.NewDense(3, 3, nil)
	for i, row := range f.CameraMatrix {
		if len(row) != 3 {
			return nil, fmt.Errorf("camparams: camera matrix row %d has %d entries, want 3", i, len(row))
		}
		for j, v := range row {
			m.Set(i, j, v)
		}
	}
	return m, nil
}

func matrixRows(m *mat.Dense) [][]float64 {
	rows := make([][]float64, 3)
	for i := 0; i < 3; i++ {
		rows[i] = make([]float64, 3)
		for j := 0; j < 3; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}
