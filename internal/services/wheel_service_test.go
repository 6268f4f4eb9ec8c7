package services

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWheelService_Do(t *testing.T) {
	const testTenantID = "test-tenant"
	service := NewWheelService()

	t.Run("Test sessions are created on first use", func(t *testing.T) {
		err := service.Do(testTenantID, func(s *Session) error {
			_, err := s.AddMany([]string{"Alice", "Bob"})
			return err
		})
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if service.SessionCount() != 1 {
			t.Errorf("Expected 1 session, but got %d", service.SessionCount())
		}
	})

	t.Run("Test tenants are isolated", func(t *testing.T) {
		var count int
		_ = service.Do("other-tenant", func(s *Session) error {
			count = len(s.Entries())
			return nil
		})
		if count != 0 {
			t.Errorf("Expected a fresh session for another tenant, but got %d entries", count)
		}
	})

	t.Run("Test errors are passed through", func(t *testing.T) {
		err := service.Do(testTenantID, func(s *Session) error {
			_, err := s.UndoLastDraw()
			return err
		})
		if !errors.Is(err, ErrNoUndoAvailable) {
			t.Fatalf("Expected ErrNoUndoAvailable, but got %v", err)
		}
	})

	t.Run("Test concurrent callers are serialized", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = service.Do("busy-tenant", func(s *Session) error {
					_, err := s.AddOne("x")
					return err
				})
			}()
		}
		wg.Wait()
		var count int
		_ = service.Do("busy-tenant", func(s *Session) error {
			count = len(s.Entries())
			assertColorsAlternate(t, s.Entries())
			return nil
		})
		if count != 50 {
			t.Errorf("Expected 50 entries, but got %d", count)
		}
	})
}

func TestWheelService_CleanUpInactiveSessions(t *testing.T) {
	service := NewWheelService()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return clock }

	_ = service.Do("idle", func(*Session) error { return nil })
	clock = clock.Add(30 * time.Minute)
	_ = service.Do("active", func(*Session) error { return nil })
	clock = clock.Add(45 * time.Minute)

	if removed := service.CleanUpInactiveSessions(time.Hour); removed != 1 {
		t.Fatalf("Expected 1 session removed, but got %d", removed)
	}
	if _, ok := service.sessions["idle"]; ok {
		t.Error("Expected idle session to be removed")
	}
	if _, ok := service.sessions["active"]; !ok {
		t.Error("Expected active session to be kept")
	}
}

func TestWheelService_ClearSession(t *testing.T) {
	service := NewWheelService()
	_ = service.Do("tenant", func(s *Session) error {
		_, err := s.AddOne("Alice")
		return err
	})
	service.ClearSession("tenant")
	if service.SessionCount() != 0 {
		t.Fatalf("Expected no sessions, but got %d", service.SessionCount())
	}

	var count int
	_ = service.Do("tenant", func(s *Session) error {
		count = len(s.Entries())
		return nil
	})
	if count != 0 {
		t.Errorf("Expected a new empty session, but got %d entries", count)
	}
}
