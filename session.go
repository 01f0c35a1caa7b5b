package pianochords

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SessionState is the progression state machine: Idle, then Playing(i) for
// each chord, then Idle again. Outcome tells how it got back to Idle.
type SessionState int

const (
	StateIdle SessionState = iota
	StatePlaying
)

func (s SessionState) String() string {
	if s == StatePlaying {
		return "playing"
	}
	return "idle"
}

type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCompleted
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "pending"
}

// Session is the handle of one progression playback. Cancelling it stops
// further chords; the chord already sounding rings out unless StopAll is also
// called.
type Session struct {
	ID uuid.UUID

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	state   SessionState
	index   int
	outcome Outcome
}

func newSession(parent context.Context) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:     uuid.New(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		index:  -1,
	}
}

// Cancel requests cancellation. It is safe to call at any time.
func (s *Session) Cancel() { s.cancel() }

// Cancelled reports whether cancellation has been requested, by Cancel,
// StopAll or the parent context, before the progression completed.
func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == OutcomeCompleted {
		return false
	}
	return s.ctx.Err() != nil
}

// Done is closed when playback has returned to Idle.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until playback has returned to Idle and reports how.
func (s *Session) Wait() Outcome {
	<-s.done
	return s.Outcome()
}

// Index is the chord currently playing, or -1 when idle.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

func (s *Session) play(i int) {
	s.mu.Lock()
	s.state = StatePlaying
	s.index = i
	s.mu.Unlock()
}

func (s *Session) finish(o Outcome) {
	s.mu.Lock()
	s.state = StateIdle
	s.index = -1
	s.outcome = o
	s.mu.Unlock()
	s.cancel()
	close(s.done)
}
