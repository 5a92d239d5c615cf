// Package session owns one form session's state: the selected file, the
// submission lifecycle and the displayed outcome.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"leafcheck/internal/config"
	"leafcheck/internal/transport"
	"leafcheck/internal/verdict"

	"github.com/google/uuid"
)

// ErrMissingInput is returned when a submission is attempted with no file selected.
var ErrMissingInput = errors.New("no file selected")

// Lifecycle is the submission state of a session.
type Lifecycle int

const (
	Idle       Lifecycle = iota // nothing submitted yet
	Submitting                  // a request is in flight
	Settled                     // the last request finished; submitting is allowed again
)

// String returns the display name for each state
func (l Lifecycle) String() string {
	names := []string{"idle", "submitting", "settled"}
	if int(l) < len(names) {
		return names[l]
	}
	return "unknown"
}

// Ordering decides which of several overlapping requests gets displayed.
type Ordering int

const (
	// LatestIssued displays only the answer to the most recently issued request.
	LatestIssued Ordering = iota
	// LastResolved displays whichever answer arrives last.
	LastResolved
)

// String returns the config name of the ordering.
func (o Ordering) String() string {
	if o == LastResolved {
		return config.OrderingLastResolved
	}
	return config.OrderingLatestIssued
}

// ParseOrdering maps a config value to an Ordering. Empty means LatestIssued.
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "", config.OrderingLatestIssued:
		return LatestIssued, nil
	case config.OrderingLastResolved:
		return LastResolved, nil
	default:
		return LatestIssued, fmt.Errorf("unknown ordering %q", s)
	}
}

// Ticket identifies one issued request.
type Ticket struct {
	ID       string
	File     transport.File
	IssuedAt time.Time
}

// Session holds the state triple for one form. In the TUI it is only touched
// from the Update loop; the lock lets CLI callers submit from several goroutines.
type Session struct {
	mu       sync.Mutex
	ordering Ordering
	input    *transport.File
	state    Lifecycle
	outcome  verdict.Outcome
	latestID string
	inFlight map[string]struct{}
}

// New creates an idle session with no input and no outcome.
func New(ordering Ordering) *Session {
	return &Session{
		ordering: ordering,
		inFlight: make(map[string]struct{}),
	}
}

// SelectInput replaces the selected file and clears any displayed outcome.
// The lifecycle is left as it is.
func (s *Session) SelectInput(f transport.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = &f
	s.outcome = nil
}

// Input returns the selected file, if any.
func (s *Session) Input() (transport.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.input == nil {
		return transport.File{}, false
	}
	return *s.input, true
}

// State returns the current lifecycle state.
func (s *Session) State() Lifecycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns the displayed outcome; nil means none.
func (s *Session) Outcome() verdict.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Ordering returns the session's ordering policy.
func (s *Session) Ordering() Ordering {
	return s.ordering
}

// Begin starts a submission. Without input it returns ErrMissingInput and
// changes nothing. The current lifecycle is not checked, so a second Begin
// while Submitting issues a second request.
func (s *Session) Begin() (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.input == nil {
		return Ticket{}, ErrMissingInput
	}

	t := Ticket{
		ID:       uuid.NewString(),
		File:     *s.input,
		IssuedAt: time.Now(),
	}
	s.latestID = t.ID
	s.inFlight[t.ID] = struct{}{}
	s.state = Submitting
	return t, nil
}

// Settle finishes the attempt for t and reports whether o is now displayed.
// Under LatestIssued an answer to a superseded request is dropped, and the
// session stays Submitting until the newest request settles.
func (s *Session) Settle(t Ticket, o verdict.Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inFlight[t.ID]; !ok {
		return false
	}
	delete(s.inFlight, t.ID)

	switch s.ordering {
	case LastResolved:
		s.outcome = o
		s.state = Settled
		return true
	default:
		if t.ID != s.latestID {
			return false
		}
		s.outcome = o
		s.state = Settled
		return true
	}
}

// InFlight returns how many issued requests have not settled yet.
func (s *Session) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}
