package engagement

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// SessionState is the per-session state of the heuristic. It lives in memory
// only and is owned by one Interceptor.
type SessionState struct {
	ID            string
	Version       string
	CurrentCount  int  // Usage count read at session start.
	HasUsedBefore bool // Derived at session start.

	decided       atomic.Bool
	aboutVisited  atomic.Bool
	sponsorHidden atomic.Bool
	count         atomic.Int64
}

// NewSessionState classifies the installation and returns a fresh session.
func NewSessionState(c *Classifier) *SessionState {
	current := c.CurrentCount()
	s := &SessionState{
		ID:            newSessionID(),
		Version:       c.Version(),
		CurrentCount:  current,
		HasUsedBefore: c.HasUsedBefore(current),
	}
	s.count.Store(int64(current))
	return s
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Decided reports whether the navigation decision has been taken.
func (s *SessionState) Decided() bool { return s.decided.Load() }

// AboutPageVisited reports whether the about page was reached this session.
func (s *SessionState) AboutPageVisited() bool { return s.aboutVisited.Load() }

// SponsorHidden reports whether the sponsor section is suppressed.
func (s *SessionState) SponsorHidden() bool { return s.sponsorHidden.Load() }

// ShowIntroduction reports whether the home page should auto-display its
// introductory content: only until the about page has been reached.
func (s *SessionState) ShowIntroduction() bool { return !s.aboutVisited.Load() }

// Count returns the usage count of the current version as known to this
// session, including its own increment.
func (s *SessionState) Count() int { return int(s.count.Load()) }

// claimDecision wins exactly once per session.
func (s *SessionState) claimDecision() bool {
	return s.decided.CompareAndSwap(false, true)
}

// markAboutVisited returns true on the first call only.
func (s *SessionState) markAboutVisited() bool {
	return s.aboutVisited.CompareAndSwap(false, true)
}
