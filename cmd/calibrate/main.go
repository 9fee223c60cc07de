// Interactive ChArUco camera calibration.
//
// Shows a live preview with detected markers; 'c' commits the current
// frame, ESC ends the session and runs the two-stage calibration. The
// resulting camera parameters are written as YAML.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-charuco/internal/config"
	"github.com/teslashibe/go-charuco/internal/log"
	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/calib"
	"github.com/teslashibe/go-charuco/pkg/camparams"
	"github.com/teslashibe/go-charuco/pkg/capture"
	"github.com/teslashibe/go-charuco/pkg/capture/detect"
	"github.com/teslashibe/go-charuco/pkg/interp"
	"github.com/teslashibe/go-charuco/pkg/solve"
)

const (
	captureWidth  = 1280
	captureHeight = 720
)

func main() {
	var (
		squaresX     = flag.Int("w", 0, "number of squares in the X direction (required)")
		squaresY     = flag.Int("h", 0, "number of squares in the Y direction (required)")
		squareLength = flag.Float64("sl", 0, "square side length in meters (required)")
		markerLength = flag.Float64("ml", 0, "marker side length in meters (required)")
		dictName     = flag.String("d", "", "marker dictionary, name or code, e.g. DICT_6X6_250 or 10 (required)")
		paramsFile   = flag.String("dp", "", "detector parameters file (required)")
		outFile      = flag.String("o", config.OutputFile(config.DefaultOutputFile), "output camera parameters file")
		videoFile    = flag.String("v", "", "input video file; live camera if omitted")
		cameraID     = flag.Int("ci", config.DefaultCameraID, "camera id when no video file is given")
		refind       = flag.Bool("rs", false, "apply the refind strategy to rejected candidates")
		zeroTangent  = flag.Bool("zt", false, "assume zero tangential distortion")
		fixPrincipal = flag.Bool("pc", false, "fix the principal point at the center")
		aspectRatio  = flag.Float64("a", 0, "fix the fx/fy aspect ratio to this value")
		waitMs       = flag.Int("wait", config.DefaultWaitMs, "per-frame key wait in milliseconds")
	)
	flag.Parse()
	log.Init(config.LogLevel())

	if *squaresX == 0 || *squaresY == 0 || *squareLength == 0 || *markerLength == 0 || *dictName == "" || *paramsFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	dict, err := board.ParseDictionary(*dictName)
	if err != nil {
		fatal(err)
	}
	model, err := board.New(*squaresX, *squaresY, *squareLength, *markerLength, dict)
	if err != nil {
		fatal(err)
	}

	params, err := detect.LoadParams(*paramsFile)
	if err != nil {
		fatal(err)
	}
	detector, err := detect.NewAruco(dict, params)
	if err != nil {
		fatal(err)
	}
	defer detector.Close()

	var source capture.FrameSource
	if *videoFile != "" {
		source, err = capture.OpenVideoFile(*videoFile)
	} else {
		source, err = capture.OpenCamera(*cameraID, captureWidth, captureHeight)
	}
	if err != nil {
		fatal(err)
	}
	defer source.Close()

	ui := capture.NewWindowUI("calibrate")
	defer ui.Close()

	cfg := capture.DefaultConfig()
	cfg.Refine = *refind
	cfg.WaitTimeout = time.Duration(*waitMs) * time.Millisecond

	interpolator := interp.NewCharuco()

	store := capture.NewStore()
	session := capture.NewSession(model, source, ui, detector, store, cfg)
	session.Renderer = ui
	// Overlay interpolated corners on the live preview. Intrinsics are
	// unknown at this point, so the preview pass runs without them.
	session.Preview = func(det detect.Detection, m board.Model, w, h int) []board.Point2 {
		obs, err := capture.NewObservation(det.IDs, det.Corners, nil, w, h)
		if err != nil {
			return nil
		}
		set, err := interpolator.Interpolate(obs, m, nil)
		if err != nil {
			return nil
		}
		return set.Points
	}

	// Ctrl+C ends the session cleanly; a running solve is never
	// interrupted.
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}

	var flags calib.Flags
	if *aspectRatio > 0 {
		flags |= calib.FixAspectRatio
	}
	if *zeroTangent {
		flags |= calib.ZeroTangentDist
	}
	if *fixPrincipal {
		flags |= calib.FixPrincipalPoint
	}

	pipeline := calib.NewPipeline(solve.New(), interpolator, calib.Options{
		Flags:       flags,
		AspectRatio: *aspectRatio,
		SessionID:   session.ID(),
	})
	res, err := pipeline.Run(store, model)
	if err != nil {
		fatal(err)
	}

	if err := camparams.Write(*outFile, res); err != nil {
		fatal(err)
	}

	fmt.Printf("Rep Error: %v\n", res.BoardReprojErr)
	fmt.Printf("Rep Error Aruco: %v\n", res.MarkerReprojErr)
	fmt.Printf("Calibration saved to %s\n", *outFile)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
