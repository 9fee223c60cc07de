package capture

import "fmt"

// Store accumulates observations in commit order during a session.
// It is single-writer while the session runs and read-only once frozen;
// the calibration pipeline relies on the preserved order to pair frames
// with their refined correspondences. All observations must share the
// same frame dimensions, since one image size feeds both solves.
type Store struct {
	obs    []Observation
	frozen bool
}

// NewStore creates an empty observation store.
func NewStore() *Store {
	return &Store{}
}

// Append adds an observation. Returns ErrFrozen after Freeze and
// ErrSizeMismatch when the frame dimensions differ from what the store
// already holds.
func (s *Store) Append(o Observation) error {
	if s.frozen {
		return ErrFrozen
	}
	if len(s.obs) > 0 {
		first := s.obs[0]
		if o.Width != first.Width || o.Height != first.Height {
			return fmt.Errorf("%w: have %dx%d, got %dx%d",
				ErrSizeMismatch, first.Width, first.Height, o.Width, o.Height)
		}
	}
	s.obs = append(s.obs, o)
	return nil
}

// Freeze marks the store read-only. Idempotent.
func (s *Store) Freeze() {
	s.frozen = true
}

// Frozen reports whether the store has been frozen.
func (s *Store) Frozen() bool {
	return s.frozen
}

// Count returns the number of committed observations.
func (s *Store) Count() int {
	return len(s.obs)
}

// At returns the i-th observation in commit order.
func (s *Store) At(i int) Observation {
	return s.obs[i]
}
