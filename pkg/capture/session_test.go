package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/capture/detect"
)

func sessionBoard(t *testing.T) board.Model {
	t.Helper()
	m, err := board.New(5, 7, 0.04, 0.02, board.Dict6x6_250)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// markerDetector returns n synthetic marker detections per frame.
func markerDetector(n int) *detect.Mock {
	return &detect.Mock{
		DetectFunc: func([]byte) (detect.Detection, error) {
			det := detect.Detection{}
			for i := 0; i < n; i++ {
				det.IDs = append(det.IDs, i)
				det.Corners = append(det.Corners, board.Quad{})
			}
			return det, nil
		},
	}
}

func frames(n int) *ScriptedFrames {
	s := &ScriptedFrames{}
	for i := 0; i < n; i++ {
		s.Frames = append(s.Frames, Frame{JPEG: []byte{byte(i)}, Width: 1280, Height: 720})
	}
	return s
}

func TestSession_CommitAndFinish(t *testing.T) {
	store := NewStore()
	cmds := &ScriptedCommands{Commands: []Command{
		CommandCommit, // Frame 0 committed
		CommandNone,   // Frame 1 skipped
		CommandCommit, // Frame 2 committed
		CommandFinish, // Frame 3 shown, session ends
	}}
	s := NewSession(sessionBoard(t), frames(10), cmds, markerDetector(6), store, DefaultConfig())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if s.State() != StateFinished {
		t.Errorf("State: got %v, want finished", s.State())
	}
	if !store.Frozen() {
		t.Error("store not frozen after Run")
	}
	if store.Count() != 2 {
		t.Errorf("Count: got %d, want 2", store.Count())
	}
	if store.At(0).Width != 1280 || store.At(0).Height != 720 {
		t.Errorf("observation size: got %dx%d", store.At(0).Width, store.At(0).Height)
	}
}

func TestSession_CommitRequiresDetections(t *testing.T) {
	store := NewStore()
	cmds := &ScriptedCommands{Commands: []Command{CommandCommit, CommandFinish}}
	s := NewSession(sessionBoard(t), frames(5), cmds, &detect.Mock{}, store, DefaultConfig())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count: got %d, want 0 (commit with zero markers is ignored)", store.Count())
	}
}

func TestSession_FrameSourceExhausted(t *testing.T) {
	store := NewStore()
	cmds := &ScriptedCommands{Commands: []Command{CommandNone, CommandNone, CommandNone}}
	s := NewSession(sessionBoard(t), frames(2), cmds, markerDetector(1), store, DefaultConfig())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.State() != StateFinished {
		t.Errorf("State: got %v, want finished", s.State())
	}
	if !store.Frozen() {
		t.Error("store not frozen after source exhaustion")
	}
}

func TestSession_DetectionErrorIsRecoverable(t *testing.T) {
	store := NewStore()
	failing := &detect.Mock{
		DetectFunc: func([]byte) (detect.Detection, error) {
			return detect.Detection{}, errors.New("camera glitch")
		},
	}
	cmds := &ScriptedCommands{Commands: []Command{CommandCommit, CommandFinish}}
	s := NewSession(sessionBoard(t), frames(5), cmds, failing, store, DefaultConfig())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count: got %d, want 0", store.Count())
	}
}

func TestSession_RefineMode(t *testing.T) {
	store := NewStore()
	refined := false
	det := markerDetector(2)
	det.RefineFunc = func(_ []byte, d detect.Detection, _ board.Model) (detect.Detection, error) {
		refined = true
		d.IDs = append(d.IDs, 9)
		d.Corners = append(d.Corners, board.Quad{})
		return d, nil
	}

	cfg := DefaultConfig()
	cfg.Refine = true
	cmds := &ScriptedCommands{Commands: []Command{CommandCommit, CommandFinish}}
	s := NewSession(sessionBoard(t), frames(3), cmds, det, store, cfg)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !refined {
		t.Error("refine was not invoked")
	}
	if store.Count() != 1 || len(store.At(0).IDs) != 3 {
		t.Errorf("committed observation should carry the refined markers, got %v", store.At(0).IDs)
	}
}

// capturingRenderer records what the session hands to the overlay.
type capturingRenderer struct {
	frames  int
	corners [][]board.Point2
}

func (r *capturingRenderer) Render(_ Frame, _ detect.Detection, corners []board.Point2) {
	r.frames++
	r.corners = append(r.corners, corners)
}

func TestSession_PreviewCornersReachRenderer(t *testing.T) {
	store := NewStore()
	want := []board.Point2{{X: 100, Y: 200}, {X: 140, Y: 200}}
	rend := &capturingRenderer{}

	cmds := &ScriptedCommands{Commands: []Command{CommandCommit, CommandFinish}}
	s := NewSession(sessionBoard(t), frames(3), cmds, markerDetector(4), store, DefaultConfig())
	s.Renderer = rend
	s.Preview = func(det detect.Detection, m board.Model, w, h int) []board.Point2 {
		if det.Count() != 4 || w != 1280 || h != 720 {
			t.Errorf("preview called with %d markers, %dx%d", det.Count(), w, h)
		}
		return want
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rend.frames != 2 {
		t.Fatalf("rendered frames: got %d, want 2", rend.frames)
	}
	for i, got := range rend.corners {
		if len(got) != len(want) || got[0] != want[0] {
			t.Errorf("frame %d overlay corners: got %v, want %v", i, got, want)
		}
	}

	// The overlay must not leak into stored data.
	if store.Count() != 1 || len(store.At(0).IDs) != 4 {
		t.Errorf("stored observation altered by preview: %v", store.At(0).IDs)
	}
}

func TestSession_NoPreviewRendersNilCorners(t *testing.T) {
	rend := &capturingRenderer{}
	cmds := &ScriptedCommands{Commands: []Command{CommandFinish}}
	s := NewSession(sessionBoard(t), frames(2), cmds, markerDetector(1), NewStore(), DefaultConfig())
	s.Renderer = rend

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rend.frames != 1 {
		t.Fatalf("rendered frames: got %d, want 1", rend.frames)
	}
	if rend.corners[0] != nil {
		t.Errorf("overlay corners without a preview func: got %v, want nil", rend.corners[0])
	}
}

func TestSession_ContextCancelled(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSession(sessionBoard(t), frames(5), &ScriptedCommands{}, markerDetector(1), store, DefaultConfig())
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run: got err %v, want context.Canceled", err)
	}
	if !store.Frozen() {
		t.Error("store not frozen after cancellation")
	}
}

func TestSession_IndependentSessions(t *testing.T) {
	a := NewSession(sessionBoard(t), frames(1), &ScriptedCommands{}, markerDetector(1), NewStore(), DefaultConfig())
	b := NewSession(sessionBoard(t), frames(1), &ScriptedCommands{}, markerDetector(1), NewStore(), DefaultConfig())
	if a.ID() == b.ID() {
		t.Error("sessions share an ID")
	}
}
