package auth

import (
	"sync"
	"time"
)

// State is the login state of the running process.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedIn:
		return "logged_in"
	default:
		return "logged_out"
	}
}

// SessionInfo is a snapshot of the session.
type SessionInfo struct {
	State    string    `json:"state"`
	Username string    `json:"username,omitempty"`
	Since    time.Time `json:"since,omitempty"`
}

// session holds the process-lifetime login state. It is never persisted, so
// a new process always starts LoggedOut.
type session struct {
	mu       sync.RWMutex
	state    State
	username string
	tokenID  string
	since    time.Time
}

func (s *session) login(username, tokenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = LoggedIn
	s.username = username
	s.tokenID = tokenID
	s.since = time.Now().UTC()
}

// logout returns false when the session was already logged out.
func (s *session) logout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == LoggedOut {
		return false
	}
	s.state = LoggedOut
	s.username = ""
	s.tokenID = ""
	s.since = time.Time{}
	return true
}

func (s *session) current(tokenID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state == LoggedIn && tokenID != "" && s.tokenID == tokenID
}

func (s *session) info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionInfo{
		State:    s.state.String(),
		Username: s.username,
		Since:    s.since,
	}
}

func (s *session) getState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}
