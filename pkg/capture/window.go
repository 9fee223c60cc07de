package capture

import (
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/capture/detect"
)

const banner = "Press 'c' to add current frame. 'ESC' to finish and calibrate"

// WindowUI shows the live preview and polls the keyboard. It implements
// both Renderer and CommandSource: WaitKey inside Next doubles as the
// display pump.
type WindowUI struct {
	win *gocv.Window
}

// NewWindowUI opens the preview window.
func NewWindowUI(title string) *WindowUI {
	return &WindowUI{win: gocv.NewWindow(title)}
}

// Render draws the detected markers, any interpolated chessboard
// corners, and the instruction banner over the frame and shows it.
func (w *WindowUI) Render(frame Frame, det detect.Detection, corners []board.Point2) {
	img, err := gocv.IMDecode(frame.JPEG, gocv.IMReadColor)
	if err != nil || img.Empty() {
		return
	}
	defer img.Close()

	if det.Count() > 0 {
		gocv.ArucoDrawDetectedMarkers(img, toPoint2f(det), det.IDs, color.RGBA{G: 255})
	}
	for _, c := range corners {
		gocv.Circle(&img, image.Pt(int(c.X), int(c.Y)), 4, color.RGBA{B: 255}, -1)
	}
	gocv.PutText(&img, banner, image.Pt(10, 20),
		gocv.FontHersheySimplex, 0.5, color.RGBA{R: 255}, 2)

	w.win.IMShow(img)
}

// Next polls the keyboard for up to the wait budget.
// 'c' commits, ESC finishes, anything else advances.
func (w *WindowUI) Next(wait time.Duration) Command {
	ms := int(wait.Milliseconds())
	if ms < 1 {
		ms = 1
	}
	switch w.win.WaitKey(ms) {
	case 27: // ESC
		return CommandFinish
	case 'c':
		return CommandCommit
	}
	return CommandNone
}

// Close destroys the window.
func (w *WindowUI) Close() error {
	return w.win.Close()
}

// toPoint2f converts detection quads to the gocv corner layout.
func toPoint2f(det detect.Detection) [][]gocv.Point2f {
	out := make([][]gocv.Point2f, 0, det.Count())
	for _, q := range det.Corners {
		pts := make([]gocv.Point2f, 4)
		for i, p := range q {
			pts[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
		}
		out = append(out, pts)
	}
	return out
}
