package capture

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-charuco/internal/log"
	"github.com/teslashibe/go-charuco/pkg/board"
	"github.com/teslashibe/go-charuco/pkg/capture/detect"
)

// State is the session state machine position.
type State int

// Session states.
const (
	StateIdle State = iota
	StateDetecting
	StateAwaitingCommand
	StateFinished
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateAwaitingCommand:
		return "awaiting-command"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// Command is a user instruction delivered between frames.
type Command int

// Commands understood by the session. Anything else advances to the
// next frame.
const (
	CommandNone   Command = iota // No key, or an unbound key
	CommandCommit                // Commit the current frame
	CommandFinish                // End the session and calibrate
)

// Frame is one acquired image.
type Frame struct {
	JPEG   []byte
	Width  int
	Height int
}

// FrameSource produces frames. Next blocks until a frame is available
// and reports false when the source is exhausted or fails.
type FrameSource interface {
	Next() (Frame, bool)
	Close() error
}

// CommandSource produces user commands with a bounded wait, so the
// same session logic runs against a live key poll or a scripted test
// source.
type CommandSource interface {
	Next(wait time.Duration) Command
}

// Renderer receives the current frame, its detections, and any
// interpolated chessboard corners for display. Rendering is
// presentation-only and has no effect on stored data.
type Renderer interface {
	Render(frame Frame, det detect.Detection, corners []board.Point2)
}

// Config holds session tuning.
type Config struct {
	WaitTimeout time.Duration // Per-frame command wait budget
	Refine      bool          // Apply the refind strategy after detection
}

// DefaultConfig returns the session defaults. The refind strategy is
// off, matching the reference tool.
func DefaultConfig() Config {
	return Config{
		WaitTimeout: 20 * time.Millisecond,
		Refine:      false,
	}
}

// Session drives the interactive capture loop. All mutable state lives
// on the instance, so independent sessions can run in one process and
// tests stay deterministic.
type Session struct {
	// Renderer, if set, receives every frame with its detections.
	Renderer Renderer

	// Preview, if set, interpolates chessboard corners from the current
	// detections for the overlay. It never touches stored data.
	Preview func(det detect.Detection, model board.Model, width, height int) []board.Point2

	id       string
	cfg      Config
	model    board.Model
	frames   FrameSource
	commands CommandSource
	detector detect.Detector
	store    *Store
	state    State
}

// NewSession wires a session. The store must be fresh (not frozen).
func NewSession(model board.Model, frames FrameSource, commands CommandSource, detector detect.Detector, store *Store, cfg Config) *Session {
	return &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		model:    model,
		frames:   frames,
		commands: commands,
		detector: detector,
		store:    store,
		state:    StateIdle,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state machine position.
func (s *Session) State() State {
	return s.state
}

// Run executes the capture loop until the frame source ends, the user
// finishes, or ctx is cancelled. The store is frozen on return, whatever
// the exit path. Cancellation applies between frames only.
func (s *Session) Run(ctx context.Context) error {
	defer s.store.Freeze()
	defer s.finish()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, ok := s.frames.Next()
		if !ok {
			return nil
		}

		s.state = StateDetecting
		det, err := s.detector.Detect(frame.JPEG)
		if err != nil {
			// A failed detection is a per-frame miss, not a session error.
			log.Warn("detection failed", "session", s.id, "error", err)
			det = detect.Detection{}
		}

		if s.cfg.Refine && det.Count() > 0 {
			refined, err := s.detector.Refine(frame.JPEG, det, s.model)
			if err != nil {
				log.Warn("refind failed", "session", s.id, "error", err)
			} else {
				det = refined
			}
		}

		if s.Renderer != nil {
			var corners []board.Point2
			if s.Preview != nil && det.Count() > 0 {
				corners = s.Preview(det, s.model, frame.Width, frame.Height)
			}
			s.Renderer.Render(frame, det, corners)
		}

		s.state = StateAwaitingCommand
		switch s.commands.Next(s.cfg.WaitTimeout) {
		case CommandCommit:
			s.commit(frame, det)
		case CommandFinish:
			return nil
		}
		s.state = StateIdle
	}
}

// commit stores the current frame's observation. A frame with no
// detections is not eligible and is skipped.
func (s *Session) commit(frame Frame, det detect.Detection) {
	if det.Count() == 0 {
		log.Debug("commit ignored, no markers", "session", s.id)
		return
	}
	obs, err := NewObservation(det.IDs, det.Corners, frame.JPEG, frame.Width, frame.Height)
	if err != nil {
		log.Warn("observation rejected", "session", s.id, "error", err)
		return
	}
	if err := s.store.Append(obs); err != nil {
		log.Warn("store append failed", "session", s.id, "error", err)
		return
	}
	log.Info("frame captured",
		"session", s.id,
		"frames", s.store.Count(),
		"markers", det.Count(),
		"size", [2]int{frame.Width, frame.Height})
}

func (s *Session) finish() {
	s.state = StateFinished
	log.Info("session finished", "session", s.id, "frames", s.store.Count())
}
