package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/ygtangsdu/qse-architect/internal/workflow"
)

// SessionState tracks one live workflow session.
type SessionState struct {
	ID          string
	Controller  *workflow.Controller
	Broadcaster *Broadcaster
	CreatedAt   time.Time
}

// SessionSummary is the list-view projection of a session.
func (ss *SessionState) Summary() SessionSummary {
	snap := ss.Controller.Snapshot()
	return SessionSummary{
		SessionID: ss.ID,
		Stage:     snap.Stage.String(),
		Busy:      snap.InFlight,
		CreatedAt: ss.CreatedAt,
	}
}

// SessionRegistry tracks all sessions managed by this server instance.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*SessionState
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*SessionState)}
}

// Register adds a session. Returns an error if the ID already exists.
func (r *SessionRegistry) Register(id string, ss *SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		return fmt.Errorf("session %s already exists", id)
	}
	r.sessions[id] = ss
	return nil
}

func (r *SessionRegistry) Get(id string) (*SessionState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ss, ok := r.sessions[id]
	return ss, ok
}

func (r *SessionRegistry) List() []*SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*SessionState, 0, len(r.sessions))
	for _, ss := range r.sessions {
		out = append(out, ss)
	}
	return out
}

// CloseAll closes every session broadcaster. Used on shutdown.
func (r *SessionRegistry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ss := range r.sessions {
		if ss.Broadcaster != nil {
			ss.Broadcaster.Close()
		}
	}
}
