package services

import (
	"fmt"
	"sync"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/obs"

	"github.com/google/uuid"
)

// SessionRegistry keeps the open planning sessions. A session is only
// visible to the user that opened it.
type SessionRegistry struct {
	deps   PlannerDeps
	center domain.DistributionCenter

	mu       sync.RWMutex
	sessions map[string]*Planner
}

func NewSessionRegistry(deps PlannerDeps, center domain.DistributionCenter) *SessionRegistry {
	return &SessionRegistry{
		deps:     deps,
		center:   center,
		sessions: map[string]*Planner{},
	}
}

// Open starts a session for owner. A nil center uses the configured one.
func (s *SessionRegistry) Open(owner string, center *domain.DistributionCenter) (string, *Planner) {
	c := s.center
	if center != nil {
		c = *center
	}

	id := uuid.NewString()
	p := NewPlanner(s.deps, c, owner)

	s.mu.Lock()
	s.sessions[id] = p
	s.mu.Unlock()

	obs.ActiveSessions.Inc()
	return id, p
}

// Get returns the session, or domain.ErrNotFound when it does not exist or
// belongs to someone else.
func (s *SessionRegistry) Get(id, owner string) (*Planner, error) {
	s.mu.RLock()
	p, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || p.Owner() != owner {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// Close cancels the session's calls in flight and forgets it.
func (s *SessionRegistry) Close(id, owner string) error {
	s.mu.Lock()
	p, ok := s.sessions[id]
	if !ok || p.Owner() != owner {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	p.Close()
	obs.ActiveSessions.Dec()
	return nil
}

// Len returns the number of open sessions.
func (s *SessionRegistry) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown closes every session and waits for their background notifications.
func (s *SessionRegistry) Shutdown() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = map[string]*Planner{}
	s.mu.Unlock()

	for _, p := range all {
		p.Close()
		obs.ActiveSessions.Dec()
	}
	for _, p := range all {
		p.Wait()
	}
}
