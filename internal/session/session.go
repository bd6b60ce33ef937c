package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pitchpanel/voice-panel/internal/agents"
)

var (
	// ErrDuplicateSession is returned by Create when the call ID is already live.
	ErrDuplicateSession = errors.New("session: duplicate session")
	// ErrSessionNotFound is returned when no session exists for a call ID.
	ErrSessionNotFound = errors.New("session: not found")
)

// Turn is one completed question-response cycle. Transcript entries are
// append-only and never reordered.
type Turn struct {
	// Agent is the persona that handled this cycle.
	Agent agents.ID `json:"agent"`
	// UserInput is the caller's transcribed utterance.
	UserInput string `json:"user_input"`
	// AgentResponse is the persona's reply with marker tokens stripped.
	AgentResponse string `json:"agent_response"`
}

// Session is the per-call interview state, keyed by the gateway's call ID.
type Session struct {
	CallID       string    `json:"call_id"`
	CallerNumber string    `json:"caller_number,omitempty"`
	CurrentAgent agents.ID `json:"current_agent"`
	// QuestionCount counts cycles completed by the current agent; it resets
	// to zero on every agent transition.
	QuestionCount int       `json:"question_count"`
	Transcript    []Turn    `json:"transcript"`
	StartedAt     time.Time `json:"started_at"`
}

// NewSession initializes state for a freshly answered call: first agent
// active, zero questions asked, empty transcript.
func NewSession(callID, callerNumber string) *Session {
	return &Session{
		CallID:       callID,
		CallerNumber: callerNumber,
		CurrentAgent: agents.First().ID,
		StartedAt:    time.Now().UTC(),
	}
}

// Clone returns a deep copy so callers never hold a reference into the store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Transcript = make([]Turn, len(s.Transcript))
	copy(out.Transcript, s.Transcript)
	return &out
}

// Store owns all sessions. Mutate serializes read-modify-write cycles per
// call ID; invocations for different call IDs proceed in parallel.
type Store interface {
	// Create registers a new session, failing with ErrDuplicateSession if the
	// call ID is already live.
	Create(ctx context.Context, callID, callerNumber string) (*Session, error)
	// Get returns a copy of the session, or ErrSessionNotFound.
	Get(ctx context.Context, callID string) (*Session, error)
	// Mutate applies fn to the session under the call's lock and persists the
	// result. No concurrent Mutate for the same call ID ever interleaves. If
	// fn returns an error the session is left unchanged and the error is
	// returned. Fails with ErrSessionNotFound if the session is absent.
	Mutate(ctx context.Context, callID string, fn func(*Session) error) error
	// Remove deletes the session. Removing an absent session is a no-op so
	// end-of-call cleanup can never fail a response path.
	Remove(ctx context.Context, callID string) error
}

// keyedLocks hands out one mutex per call ID so sessions for different calls
// never contend with each other.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*lockEntry)}
}

// acquire blocks until the lock for key is held and returns the release func.
func (k *keyedLocks) acquire(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
