package harness

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/smartpc/mediactl/internal/schedule"
)

// session is the test state of one media kind. Every field below mu is only
// touched with mu held; the stop path detaches resources under mu and
// releases them outside it.
type session struct {
	// Atomic fields first for ARM32 alignment
	level uint64 // float64 bits

	kind Kind

	mu         sync.Mutex
	state      State
	generation uint64
	tracks     []Track
	analyser   *Analyser
	loop       *schedule.Loop
	previewing bool
	announced  bool
}

func newSession(kind Kind) *session {
	return &session{kind: kind}
}

func (s *session) currentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) handles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

func (s *session) setLevel(v float64) {
	atomic.StoreUint64(&s.level, math.Float64bits(v))
}

func (s *session) getLevel() float64 {
	return math.Float64frombits(atomic.LoadUint64(&s.level))
}

// idle reports whether nothing is held and no work is scheduled.
func (s *session) idle() bool {
	return s.state == StateIdle && len(s.tracks) == 0 && s.analyser == nil && s.loop == nil && !s.previewing
}

// resources is what the stop path releases, in order.
type resources struct {
	tracks     []Track
	analyser   *Analyser
	loop       *schedule.Loop
	previewing bool
	announced  bool
	generation uint64
}

// detach moves every held resource out of the session and enters Stopping.
// The caller holds mu.
func (s *session) detach() resources {
	s.generation++
	r := resources{
		tracks:     s.tracks,
		analyser:   s.analyser,
		loop:       s.loop,
		previewing: s.previewing,
		announced:  s.announced,
		generation: s.generation,
	}
	s.tracks = nil
	s.analyser = nil
	s.loop = nil
	s.previewing = false
	s.announced = false
	s.state = StateStopping
	return r
}
