package derogation

import (
	"context"
	"sync"
	"sync/atomic"
)

// Session serializes runs and remembers the last successful report. A failed
// run leaves the previous report in place.
type Session struct {
	analysis *Analysis
	runMu    sync.Mutex
	last     atomic.Pointer[Report]
}

// NewSession wraps an Analysis.
func NewSession(a *Analysis) *Session {
	return &Session{analysis: a}
}

// Analysis returns the wrapped analysis.
func (s *Session) Analysis() *Analysis { return s.analysis }

// Run executes one analysis; concurrent callers wait their turn.
func (s *Session) Run(ctx context.Context, req Request) Outcome {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	out := s.analysis.Run(ctx, req)
	if out.OK() {
		s.last.Store(out.Report)
	}
	return out
}

// Last returns the most recent successful report.
func (s *Session) Last() (*Report, bool) {
	r := s.last.Load()
	return r, r != nil
}
