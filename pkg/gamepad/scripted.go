package gamepad

import (
	"sync"

	"github.com/gwillem/sumob/pkg/drive"
)

// Step is one cycle of scripted input.
type Step struct {
	Drive drive.Snapshot
	Lift  bool
}

// Scripted replays a fixed input sequence, one step per Read.
// After the last step it keeps returning the final step.
type Scripted struct {
	mu    sync.Mutex
	steps []Step
	next  int
}

// NewScripted creates a scripted input source.
func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

// Read returns the next scripted step.
func (s *Scripted) Read() (drive.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return drive.Snapshot{}, false
	}
	st := s.steps[min(s.next, len(s.steps)-1)]
	if s.next < len(s.steps) {
		s.next++
	}
	return st.Drive, st.Lift
}
