package report

import (
	"sync"
	"time"
)

// State holds the most recent report outputs for the status API.
// Safe for concurrent use.
type State struct {
	mu sync.RWMutex

	morning   *Result
	morningAt time.Time
	evening   string
	eveningAt time.Time
}

func NewState() *State {
	return &State{}
}

// SetMorning records the latest morning result.
func (s *State) SetMorning(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.morning = &r
	s.morningAt = time.Now()
}

// Morning returns the latest morning result, or nil when none ran yet.
func (s *State) Morning() (*Result, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.morning, s.morningAt
}

// SetEvening records the latest evening report text.
func (s *State) SetEvening(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evening = text
	s.eveningAt = time.Now()
}

// Evening returns the latest evening report text, or "" when none ran
// yet.
func (s *State) Evening() (string, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evening, s.eveningAt
}
