package services

import (
	"sync"
	"time"

	"github.com/google/logger"
)

// tenantSession pairs a wheel session with the bookkeeping the janitor needs.
type tenantSession struct {
	session      *Session
	LastActivity time.Time
}

// WheelService owns one Session per tenant and serializes every call into it.
type WheelService struct {
	mu       sync.Mutex
	sessions map[string]*tenantSession // Key: tenantID
	opts     []Option
	now      func() time.Time
}

// NewWheelService creates a WheelService. opts are applied to every session it creates.
func NewWheelService(opts ...Option) *WheelService {
	return &WheelService{
		sessions: make(map[string]*tenantSession),
		opts:     opts,
		now:      time.Now,
	}
}

// getSession returns the session for a tenant, creating one if it doesn't exist.
// Callers must hold s.mu.
func (s *WheelService) getSession(tenantID string) *Session {
	ts, exists := s.sessions[tenantID]
	if !exists {
		ts = &tenantSession{session: NewSession(s.opts...)}
		s.sessions[tenantID] = ts
		logger.Infof("Created session for tenant: %s", tenantID)
	}
	ts.LastActivity = s.now()
	return ts.session
}

// Do runs fn against the tenant's session. No other call touches that session
// until fn returns, so each engine operation is observed whole.
func (s *WheelService) Do(tenantID string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.getSession(tenantID))
}

// SessionCount returns the number of live sessions.
func (s *WheelService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CleanUpInactiveSessions removes sessions idle for longer than maxIdle and
// returns how many were removed.
func (s *WheelService) CleanUpInactiveSessions(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for tenantID, ts := range s.sessions {
		if s.now().Sub(ts.LastActivity) > maxIdle {
			delete(s.sessions, tenantID)
			removed++
			logger.Infof("Removed inactive session for tenant: %s", tenantID)
		}
	}
	return removed
}

// ClearSession removes all data associated with a specific tenant.
func (s *WheelService) ClearSession(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tenantID)
	logger.Infof("Cleared session for tenant: %s", tenantID)
}
