package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// VideoSource adapts a gocv capture device or video file to FrameSource.
type VideoSource struct {
	cap *gocv.VideoCapture
	buf gocv.Mat
}

// OpenCamera opens a live camera device. Width and height are requested
// from the driver; the actual frame size may differ and is reported per
// frame.
func OpenCamera(deviceID, width, height int) (*VideoSource, error) {
	vc, err := gocv.VideoCaptureDevice(deviceID)
	if err != nil {
		return nil, fmt.Errorf("capture: open camera %d: %w", deviceID, err)
	}
	if width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	return &VideoSource{cap: vc, buf: gocv.NewMat()}, nil
}

// OpenVideoFile opens a pre-recorded video file.
func OpenVideoFile(path string) (*VideoSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open video %s: %w", path, err)
	}
	return &VideoSource{cap: vc, buf: gocv.NewMat()}, nil
}

// Next reads and JPEG-encodes the next frame. Returns false at end of
// stream or on a read failure.
func (v *VideoSource) Next() (Frame, bool) {
	if ok := v.cap.Read(&v.buf); !ok || v.buf.Empty() {
		return Frame{}, false
	}
	enc, err := gocv.IMEncode(gocv.JPEGFileExt, v.buf)
	if err != nil {
		return Frame{}, false
	}
	defer enc.Close()
	jpeg := append([]byte(nil), enc.GetBytes()...)
	return Frame{JPEG: jpeg, Width: v.buf.Cols(), Height: v.buf.Rows()}, true
}

// Close releases the capture device.
func (v *VideoSource) Close() error {
	v.buf.Close()
	return v.cap.Close()
}
