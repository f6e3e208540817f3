package chat

import (
	"errors"
	"sync"
	"testing"
)

type stubConn struct {
	mu     sync.Mutex
	userID string
	closed bool
	pushes [][]byte
}

func (s *stubConn) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *stubConn) Push(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrConnClosed
	}
	s.pushes = append(s.pushes, payload)
	return nil
}

func (s *stubConn) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *stubConn) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *stubConn) pushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pushes)
}

func TestRegistryRegisterAndSnapshot(t *testing.T) {
	reg := NewRegistry()
	c1 := &stubConn{userID: "u1"}
	c2 := &stubConn{userID: "u1"}

	if err := reg.Register("u1", c1); err != nil {
		t.Fatalf("register c1: %v", err)
	}
	if err := reg.Register("u1", c2); err != nil {
		t.Fatalf("register c2: %v", err)
	}

	conns := reg.ConnectionsFor("u1")
	if len(conns) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(conns))
	}
	if len(reg.ConnectionsFor("u2")) != 0 {
		t.Fatalf("expected empty set for unknown user")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	c := &stubConn{userID: "u1"}

	if err := reg.Register("u1", c); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Unregister("u1", c)
	reg.Unregister("u1", c)
	reg.Unregister("other", c)

	if len(reg.ConnectionsFor("u1")) != 0 {
		t.Fatalf("expected no connections after unregister")
	}
}

func TestRegistryRejectsClosedHandle(t *testing.T) {
	reg := NewRegistry()
	c := &stubConn{userID: "u1"}
	c.Close()

	if err := reg.Register("u1", c); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("expected ErrConnClosed, got %v", err)
	}
}

func TestRegistryRejectsEmptyUser(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("  ", &stubConn{}); !errors.Is(err, ErrChatUnauthorized) {
		t.Fatalf("expected ErrChatUnauthorized, got %v", err)
	}
	if err := reg.Register("u1", nil); !errors.Is(err, ErrChatUnauthorized) {
		t.Fatalf("expected ErrChatUnauthorized for nil conn, got %v", err)
	}
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	reg := NewRegistry()
	c := &stubConn{userID: "u1"}
	if err := reg.Register("u1", c); err != nil {
		t.Fatalf("register: %v", err)
	}

	snapshot := reg.ConnectionsFor("u1")
	reg.Unregister("u1", c)

	if len(snapshot) != 1 {
		t.Fatalf("expected snapshot to keep its copy, got %d", len(snapshot))
	}
	if len(reg.ConnectionsFor("u1")) != 0 {
		t.Fatalf("expected live set to be empty")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &stubConn{userID: "u1"}
			if err := reg.Register("u1", c); err != nil {
				t.Errorf("register: %v", err)
				return
			}
			_ = reg.ConnectionsFor("u1")
			reg.Unregister("u1", c)
		}()
	}
	wg.Wait()

	if len(reg.ConnectionsFor("u1")) != 0 {
		t.Fatalf("expected all connections unregistered")
	}
}
