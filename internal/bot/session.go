package bot

import "sync"

// Step is where a chat is inside the two-message order intake sequence.
// Only the intake needs scratch state; every other step of the workflow is
// reconstructed from the order's persisted status.
type Step int

const (
	// StepNone: no intake in progress.
	StepNone Step = iota
	// StepAwaitingFlightDetails: user asked to register a flight, text pending.
	StepAwaitingFlightDetails
	// StepAwaitingReferencePhoto: details received, reference photo pending.
	StepAwaitingReferencePhoto
)

// Session is the scratch state of one chat's intake sequence.
type Session struct {
	Step          Step
	FlightDetails string
}

// SessionStore keeps intake sessions keyed by chat id. It is an explicit
// value handed to the bot rather than ambient process state.
type SessionStore struct {
	sessions map[int64]Session
	mu       sync.RWMutex
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]Session),
	}
}

// Get returns the session for a chat, zero-valued when none exists.
func (s *SessionStore) Get(chatID int64) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[chatID]
}

// Put stores the session for a chat.
func (s *SessionStore) Put(chatID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = sess
}

// Clear drops the session for a chat.
func (s *SessionStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}
