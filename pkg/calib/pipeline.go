package calib

import (
	"fmt"
	"image"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-charuco/internal/log"
	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/capture"
)

// MinUsableFrames is the minimum number of frames that must yield
// interpolated board corners before the refined solve is attempted.
const MinUsableFrames = 4

// Options configure a pipeline run.
type Options struct {
	Flags Flags

	// AspectRatio is the target fx/fy when FixAspectRatio is set. It is
	// an explicit input; there is no computed default.
	AspectRatio float64

	// SessionID is carried into the result for traceability.
	SessionID string
}

// Pipeline performs the two-stage calibration over a frozen store.
type Pipeline struct {
	solver Solver
	interp Interpolator
	opts   Options
}

// NewPipeline wires a pipeline.
func NewPipeline(solver Solver, interp Interpolator, opts Options) *Pipeline {
	return &Pipeline{solver: solver, interp: interp, opts: opts}
}

// Run executes both calibration stages. Stage A bootstraps intrinsics
// from marker-only correspondences; Stage B interpolates board corners
// with those intrinsics and solves again on the full board geometry.
// The store is frozen on entry if the session did not already do so.
func (p *Pipeline) Run(store *capture.Store, model board.Model) (*Result, error) {
	if store.Count() == 0 {
		return nil, ErrNoObservations
	}
	store.Freeze()

	if p.opts.Flags.Has(FixAspectRatio) && p.opts.AspectRatio <= 0 {
		return nil, ErrBadAspectRatio
	}

	size := image.Pt(store.At(0).Width, store.At(0).Height)

	boot, err := p.bootstrap(store, model, size)
	if err != nil {
		return nil, err
	}
	log.Info("bootstrap calibration done", "reprojection_error", boot.ReprojErr, "frames", store.Count())

	return p.refine(store, model, size, boot)
}

// bootstrap is Stage A: a marker-only solve over the flattened
// observations. Pose outputs are discarded.
func (p *Pipeline) bootstrap(store *capture.Store, model board.Model, size image.Point) (SolveResult, error) {
	var (
		corners []board.Quad
		ids     []int
		counts  = make([]int, 0, store.Count())
	)
	for i := 0; i < store.Count(); i++ {
		obs := store.At(i)
		counts = append(counts, len(obs.IDs))
		corners = append(corners, obs.Corners...)
		ids = append(ids, obs.IDs...)
	}

	// The counter sequence is the structural key that re-segments the
	// flat sequences; its sum must equal their length.
	total := 0
	for _, c := range counts {
		total += c
	}
	if total != len(corners) || total != len(ids) {
		return SolveResult{}, fmt.Errorf("calib: marker counter mismatch: sum %d, %d corners, %d ids", total, len(corners), len(ids))
	}

	return p.solver.CalibrateMarkers(corners, ids, counts, model, size, p.seedCameraMatrix(), p.opts.Flags)
}

// refine is Stage B: per-frame corner interpolation with the bootstrap
// intrinsics, then the board-corner solve.
func (p *Pipeline) refine(store *capture.Store, model board.Model, size image.Point, boot SolveResult) (*Result, error) {
	intr := &Intrinsics{Camera: boot.Camera, Dist: boot.Dist}

	reports := make([]FrameReport, 0, store.Count())
	var usable []CornerSet
	for i := 0; i < store.Count(); i++ {
		obs := store.At(i)
		cs, err := p.interp.Interpolate(obs, model, intr)
		if err != nil {
			// A failed frame is excluded, not fatal.
			log.Warn("corner interpolation failed", "frame", i, "error", err)
			cs = CornerSet{}
		}
		reports = append(reports, FrameReport{
			Index:        i,
			Markers:      len(obs.IDs),
			Corners:      len(cs.IDs),
			Interpolated: !cs.Empty(),
		})
		if !cs.Empty() {
			usable = append(usable, cs)
		}
	}

	if len(usable) < MinUsableFrames {
		return nil, &InsufficientDataError{Usable: len(usable), Required: MinUsableFrames}
	}

	refined, err := p.solver.CalibrateBoard(usable, model, size, p.seedCameraMatrix(), p.opts.Flags)
	if err != nil {
		return nil, err
	}
	log.Info("refined calibration done", "reprojection_error", refined.ReprojErr, "usable_frames", len(usable))

	return &Result{
		SessionID:       p.opts.SessionID,
		Time:            time.Now(),
		Camera:          refined.Camera,
		Dist:            refined.Dist,
		Width:           size.X,
		Height:          size.Y,
		Flags:           p.opts.Flags,
		AspectRatio:     p.opts.AspectRatio,
		Poses:           refined.Poses,
		MarkerReprojErr: boot.ReprojErr,
		BoardReprojErr:  refined.ReprojErr,
		Frames:          reports,
	}, nil
}

// seedCameraMatrix builds the initial camera matrix handed to both
// solves. With FixAspectRatio the seed is the identity with the (0,0)
// entry preset to the target ratio; the preset materially changes
// solver convergence, so it is applied to both stages alike.
func (p *Pipeline) seedCameraMatrix() *mat.Dense {
	if !p.opts.Flags.Has(FixAspectRatio) {
		return nil
	}
	m := mat.NewDense(3, 3, nil)
	m.Set(0, 0, p.opts.AspectRatio)
	m.Set(1, 1, 1)
	m.Set(2, 2, 1)
	return m
}
