// Renders a ChArUco board image for printing.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-charuco/pkg/board"
)

func main() {
	var (
		squaresX     = flag.Int("w", 5, "number of squares in the X direction")
		squaresY     = flag.Int("h", 7, "number of squares in the Y direction")
		squareLength = flag.Float64("sl", 0.04, "square side length in meters")
		markerLength = flag.Float64("ml", 0.02, "marker side length in meters")
		dictName     = flag.String("d", "DICT_6X6_250", "marker dictionary, name or code")
		outFile      = flag.String("o", "board.png", "output image file")
		squarePx     = flag.Int("px", 120, "square size in pixels")
		marginPx     = flag.Int("margin", 50, "margin around the board in pixels")
	)
	flag.Parse()

	dict, err := board.ParseDictionary(*dictName)
	if err != nil {
		fatal(err)
	}
	model, err := board.New(*squaresX, *squaresY, *squareLength, *markerLength, dict)
	if err != nil {
		fatal(err)
	}

	img, err := render(model, *squarePx, *marginPx)
	if err != nil {
		fatal(err)
	}
	defer img.Close()

	if ok := gocv.IMWrite(*outFile, img); !ok {
		fatal(fmt.Errorf("cannot write %s", *outFile))
	}
	fmt.Printf("Board image saved to %s\n", *outFile)
}

// render draws the checkerboard and embeds a generated marker image in
// each white square.
func render(m board.Model, squarePx, marginPx int) (gocv.Mat, error) {
	width := m.SquaresX*squarePx + 2*marginPx
	height := m.SquaresY*squarePx + 2*marginPx
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)

	markerPx := int(float64(squarePx) * m.MarkerLength / m.SquareLength)
	markerMargin := (squarePx - markerPx) / 2

	markerID := 0
	for y := 0; y < m.SquaresY; y++ {
		for x := 0; x < m.SquaresX; x++ {
			x0 := marginPx + x*squarePx
			y0 := marginPx + y*squarePx
			if (x+y)%2 == 0 {
				// Black square
				rect := image.Rect(x0, y0, x0+squarePx, y0+squarePx)
				region := img.Region(rect)
				region.SetTo(gocv.NewScalar(0, 0, 0, 0))
				region.Close()
				continue
			}

			marker := gocv.NewMat()
			gocv.ArucoGenerateImageMarker(gocv.ArucoDictionaryCode(m.Dictionary), markerID, markerPx, marker, 1)
			rect := image.Rect(x0+markerMargin, y0+markerMargin, x0+markerMargin+markerPx, y0+markerMargin+markerPx)
			region := img.Region(rect)
			marker.CopyTo(&region)
			region.Close()
			marker.Close()
			markerID++
		}
	}

	if markerID != m.NumMarkers() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("rendered %d markers, board expects %d", markerID, m.NumMarkers())
	}
	return img, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
